// Package hub connects the assistant to a websocket message bus as a shard:
// other shards address turns to it and get replies back.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	KindTurn   = "turn"
	KindSpeak  = "speak"
	KindReply  = "reply"
	KindAudio  = "audio"
	KindNotice = "notice"
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
}

// HandleFunc answers one inbound message with zero or more outbound ones.
type HandleFunc func(ctx context.Context, m Message) []Message

type Client struct {
	url    string
	reconn time.Duration
	dialer *ws.Dialer
	conn   *ws.Conn
}

// Dial connects to the bus. reconn is the pause between reconnect attempts.
func Dial(ctx context.Context, url string, reconn time.Duration, dialer *ws.Dialer) (*Client, error) {
	if dialer == nil {
		dialer = ws.DefaultDialer
	}
	if reconn <= 0 {
		reconn = time.Second
	}
	c := &Client{url: url, reconn: reconn, dialer: dialer}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus: %w", err)
	}
	c.conn = conn
	log.Info("Connected to bus", "url", url)
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Write(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(ws.TextMessage, data)
}

// Run reads messages until ctx is done, reconnecting when the bus drops.
func (c *Client) Run(ctx context.Context, handle HandleFunc) error {
	stop := closeOnDone(ctx, c.conn)
	defer func() { stop() }()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !isClosed(err) {
				log.Warn("bus read failed", "err", err)
			}
			stop()
			if err := c.reconnect(ctx); err != nil {
				return err
			}
			stop = closeOnDone(ctx, c.conn)
			continue
		}

		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Warn("bus message dropped", "err", err)
			continue
		}

		for _, out := range handle(ctx, m) {
			if err := c.Write(out); err != nil {
				log.Error("bus write failed", "err", err)
			}
		}
	}
}

// closeOnDone closes conn, not whatever c.conn is by then, once ctx ends.
func closeOnDone(ctx context.Context, conn *ws.Conn) func() bool {
	return context.AfterFunc(ctx, func() { conn.Close() })
}

func (c *Client) reconnect(ctx context.Context) error {
	c.conn.Close()
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.conn = conn
			log.Info("Reconnected to bus", "url", c.url)
			return nil
		}
		log.Debug("bus reconnect failed", "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconn):
		}
	}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure) || errors.Is(err, net.ErrClosed)
}
