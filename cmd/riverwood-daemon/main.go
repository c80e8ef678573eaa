package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	log "log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"riverwood/internal/app"
	"riverwood/internal/audio"
	"riverwood/internal/config"
	"riverwood/internal/frontend"
	"riverwood/internal/httpapi"
	"riverwood/internal/ipc"
	"riverwood/internal/playback"
	"riverwood/internal/turn"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for provider calls")
	httpAddr := cli.String("http", "", "Serve the HTTP API on this address (disabled when empty)")
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	duck := cli.Bool("duck", false, "Lower other audio streams while a reply plays")
	cue := cli.String("cue", playback.DefaultCue, "Listening cue mp3")
	cli.Parse()

	app.SetupLogging(*logLevel)
	log.Info("Booting up")

	app.LoadEnv(*envFile)

	cfg, err := config.Load()
	if err != nil {
		log.Error("Bad configuration", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.Build(cfg, app.Options{Proxy: *proxyAddr, Registry: reg})
	if err != nil {
		log.Error("Failed to build pipeline", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	var mic audio.Source
	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Warn("Recorder unavailable, only typed turns will work", "err", err)
	} else {
		defer rec.Close()
		mic = rec
	}

	var ducker playback.Ducker
	if *duck {
		ducker = audio.NewDucker([]string{"riverwood-daemon"}, 10)
	}
	player := playback.New(*cue, ducker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := &daemon{session: a.Session, capture: audio.NewCapture(mic), player: player}
	srv, err := ipc.StartServer(ctx, *socket, d.handle)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()
	log.Info("Listening for commands", "socket", srv.Path())

	if *httpAddr != "" {
		hs := &http.Server{
			Addr:              *httpAddr,
			Handler:           httpapi.New(cfg, a.Session, reg).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP server failed", "err", err)
				stop()
			}
		}()
		context.AfterFunc(ctx, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			hs.Shutdown(shutdownCtx)
		})
		log.Info("Serving HTTP API", "addr", *httpAddr)
	}

	log.Info("Boot up - successful")
	<-ctx.Done()
	log.Info("Shutting down")
}

// maxHold bounds a hold-to-talk recording whose stop never arrives.
const maxHold = 60 * time.Second

type daemon struct {
	session *frontend.Session
	capture *audio.Capture
	player  *playback.Player
}

func (d *daemon) handle(ctx context.Context, msg ipc.ControlMessage) ipc.Reply {
	switch msg.Cmd {
	case ipc.CmdRecord:
		return d.record(ctx, func() ([]byte, error) { return d.capture.Auto(audio.VAD{}) })
	case ipc.CmdHold:
		return d.record(ctx, func() ([]byte, error) { return d.capture.Hold(maxHold) })
	case ipc.CmdStop:
		if !d.capture.Stop() {
			return ipc.Reply{Error: "not recording"}
		}
		return ipc.Reply{OK: true}
	case ipc.CmdType:
		return d.turn(ctx, turn.Input{Text: msg.Text})
	case ipc.CmdPlay:
		return d.play(ctx)
	case ipc.CmdReply:
		return ipc.Reply{OK: true, Output: d.session.LastReply()}
	case ipc.CmdMemory:
		data, err := json.MarshalIndent(d.session.Memory(ctx), "", "  ")
		if err != nil {
			return ipc.Reply{Error: err.Error()}
		}
		return ipc.Reply{OK: true, Output: string(data)}
	default:
		log.Warn("Unknown command", "cmd", msg.Cmd)
		return ipc.Reply{Error: "unknown command " + msg.Cmd}
	}
}

// record captures one utterance with the given method and runs it as a turn.
// Silence counts as no input.
func (d *daemon) record(ctx context.Context, capture func() ([]byte, error)) ipc.Reply {
	if err := d.player.Cue(ctx); err != nil {
		log.Debug("No cue", "err", err)
	}
	log.Info("Starting listening")

	wav, err := capture()
	switch {
	case errors.Is(err, audio.ErrNoSpeech):
		return d.turn(ctx, turn.Input{})
	case err != nil:
		log.Error("Failed to record", "err", err)
		return ipc.Reply{Error: err.Error()}
	}
	log.Info("Recorded", "bytes", len(wav))

	return d.turn(ctx, turn.Input{Audio: wav})
}

func (d *daemon) turn(ctx context.Context, in turn.Input) ipc.Reply {
	turnCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	res := d.session.Turn(turnCtx, in)
	return ipc.Reply{OK: !res.Aborted(), Output: frontend.Render(res)}
}

func (d *daemon) play(ctx context.Context) ipc.Reply {
	audioData, notice := d.session.Play(ctx)
	if notice != "" {
		return ipc.Reply{Error: notice}
	}
	if err := d.player.Play(ctx, audioData); err != nil {
		log.Error("Failed to voice out", "err", err)
		return ipc.Reply{Error: err.Error()}
	}
	return ipc.Reply{OK: true}
}
