package session

import (
	"context"
	"time"

	"chessping/internal/match"
)

const DefaultTickRate = 60

// Frontend is the terminal or any other view. Collect is called once per
// tick and must not block.
type Frontend interface {
	Collect() (match.Input, Commands)
	Draw(m *match.Match, status string)
}

// Run ticks the session at rate Hz until ctx is done or the player quits.
func (s *Session) Run(ctx context.Context, fe Frontend, rate int) error {
	if rate <= 0 {
		rate = DefaultTickRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	defer s.Close()

	fe.Draw(s.Match, s.Status())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		in, cmd := fe.Collect()
		if cmd.Quit {
			s.log.Info("player quit")
			return nil
		}
		s.Tick(in, cmd)
		fe.Draw(s.Match, s.Status())
	}
}

// Close drops the connection, if any.
func (s *Session) Close() {
	if s.Peer != nil {
		_ = s.Peer.Close()
	}
}
