package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	log "log/slog"

	"riverwood/internal/app"
	"riverwood/internal/config"
	"riverwood/internal/hub"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for provider calls")
	hubURL := cli.StringP("hub", "u", "", "Url of hub (default $BUS_URL or ws://localhost:8092/ws)")
	name := cli.StringP("name", "n", "riverwood", "Shard name on the bus")
	cli.Parse()

	app.SetupLogging(*logLevel)
	log.Info("Starting Riverwood shard")

	app.LoadEnv(*envFile)

	url := *hubURL
	if url == "" {
		url = os.Getenv("BUS_URL")
	}
	if url == "" {
		url = "ws://localhost:8092/ws"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Bad configuration", "err", err)
		os.Exit(1)
	}

	a, err := app.Build(cfg, app.Options{Proxy: *proxyAddr})
	if err != nil {
		log.Error("Failed to build pipeline", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, err := hub.Dial(ctx, url, time.Second, nil)
	if err != nil {
		log.Error("Failed to connect to bus", "url", url, "err", err)
		os.Exit(1)
	}
	defer bus.Close()

	if err := bus.Run(ctx, hub.Responder(*name, a.Session)); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bus stopped", "err", err)
		os.Exit(1)
	}
}
