package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
)

const DefaultSocketPath = "/tmp/riverwood.sock"

// Commands understood by the daemon.
const (
	CmdRecord = "record"
	CmdHold   = "hold"
	CmdStop   = "stop"
	CmdType   = "type"
	CmdPlay   = "play"
	CmdReply  = "reply"
	CmdMemory = "memory"
)

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Reply struct {
	OK     bool   `json:"ok"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Handler func(ctx context.Context, msg ControlMessage) Reply

type Server struct {
	ln   net.Listener
	path string
}

// StartServer listens on path, replacing a stale socket file, and answers
// each connection with one Reply. The accept loop stops when ctx is done or
// the server is closed.
func StartServer(ctx context.Context, path string, handler Handler) (*Server, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	s := &Server{ln: ln, path: path}

	context.AfterFunc(ctx, func() { s.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Warn("ipc accept failed", "err", err)
				continue
			}
			go handleConn(ctx, conn, handler)
		}
	}()

	return s, nil
}

func (s *Server) Path() string { return s.path }

func (s *Server) Close() error {
	err := s.ln.Close()
	os.Remove(s.path)
	return err
}

func handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Debug("ipc bad request", "err", err)
		json.NewEncoder(conn).Encode(Reply{Error: "bad request: " + err.Error()})
		return
	}

	rep := handler(ctx, msg)
	if err := json.NewEncoder(conn).Encode(rep); err != nil {
		log.Debug("ipc write reply", "err", err)
	}
}

func SendCommand(path string, msg ControlMessage) (Reply, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var rep Reply
	if err := json.NewDecoder(conn).Decode(&rep); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return rep, nil
}
