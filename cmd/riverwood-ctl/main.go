package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"riverwood/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: riverwood-ctl [--socket path] record|hold|stop|type <text>|play|reply|memory\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		cli.Usage()
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: args[0], Text: strings.Join(args[1:], " ")}
	rep, err := ipc.SendCommand(*socket, msg)
	if err != nil {
		fmt.Println("riverwood-daemon not running:", err)
		os.Exit(1)
	}

	if rep.Output != "" {
		fmt.Println(rep.Output)
	}
	if rep.Error != "" {
		fmt.Fprintln(os.Stderr, rep.Error)
	}
	if !rep.OK {
		os.Exit(1)
	}
}
