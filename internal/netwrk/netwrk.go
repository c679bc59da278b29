// Package netwrk carries a match between a host and a mirror as newline
// delimited JSON over a single TCP connection.
package netwrk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

const (
	DefaultAddress          = "127.0.0.1:5050"
	DefaultHandshakeTimeout = 10 * time.Second

	handshakePoll = 10 * time.Millisecond
)

var ErrHandshakeTimeout = errors.New("handshake timed out")

// Listen opens the host socket.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	slog.Info("listening for mirror", "address", ln.Addr())
	return ln, nil
}

// Accept waits for exactly one mirror. Cancelling ctx closes the listener.
func Accept(ctx context.Context, ln net.Listener) (*Peer, error) {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	slog.Info("mirror connected", "remote", conn.RemoteAddr())
	return NewPeer(conn), nil
}

// Dial connects a mirror to its host.
func Dial(ctx context.Context, addr string) (*Peer, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	slog.Info("connected to host", "address", addr)
	return NewPeer(conn), nil
}

// Offer sends the match configuration to a freshly accepted mirror and moves
// the peer to Syncing.
func Offer(p *Peer, cfg Config) error {
	if err := p.Send(cfg); err != nil {
		return err
	}
	p.SetState(Syncing)
	return nil
}

// AwaitConfig polls until the host's config arrives. Messages that come
// before it are dropped. Anything after it in the same batch is returned so
// the caller can apply it.
func AwaitConfig(ctx context.Context, p *Peer, timeout time.Duration) (Config, []Message, error) {
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(handshakePoll)
	defer ticker.Stop()

	for {
		msgs := p.Poll()
		for i, m := range msgs {
			if cfg, ok := m.(Config); ok {
				p.SetState(Syncing)
				return cfg, msgs[i+1:], nil
			}
			slog.Debug("ignoring message before config", "type", m.MessageType())
		}
		if p.State() == Closed {
			return Config{}, nil, fmt.Errorf("waiting for config: %w", ErrClosed)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Config{}, nil, ErrHandshakeTimeout
			}
			return Config{}, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
