package proxy

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
)

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func socksDial(socksAddr string) (dialFunc, error) {
	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}, nil
}

// NewHTTPClient returns the client used for provider calls. With an empty
// socksAddr it dials directly; otherwise every connection goes through the
// SOCKS5 proxy.
func NewHTTPClient(socksAddr string, timeout time.Duration) (*http.Client, error) {
	if socksAddr == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	dial, err := socksDial(socksAddr)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: &http.Transport{DialContext: dial},
		Timeout:   timeout,
	}, nil
}

// NewWSDialer is NewHTTPClient for websocket connections.
func NewWSDialer(socksAddr string, handshake time.Duration) (*websocket.Dialer, error) {
	d := &websocket.Dialer{HandshakeTimeout: handshake}
	if socksAddr == "" {
		d.Proxy = http.ProxyFromEnvironment
		return d, nil
	}

	dial, err := socksDial(socksAddr)
	if err != nil {
		return nil, err
	}
	d.NetDialContext = dial
	return d, nil
}
