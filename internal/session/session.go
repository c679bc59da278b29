// Package session drives one match per tick: it drains the connection,
// applies player input, steps the simulation and pushes the resulting
// updates to the other side.
package session

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"chessping/internal/chess"
	"chessping/internal/match"
	"chessping/internal/netwrk"
	"chessping/internal/save"
)

type Role int

const (
	// Local plays both paddles in one process.
	Local Role = iota
	// Host owns the simulation and serves a mirror.
	Host
	// Client mirrors a host.
	Client
)

func (r Role) String() string {
	switch r {
	case Host:
		return "host"
	case Client:
		return "mirror"
	}
	return "local"
}

// Commands are the non movement actions a player asked for on one tick.
type Commands struct {
	Save  bool
	Load  bool
	Reset bool
	// Speed is +1 or -1 to step the ball speed factor.
	Speed int
	Quit  bool
}

type Session struct {
	ID    uuid.UUID
	Role  Role
	Match *match.Match
	// Side is the paddle this process controls. Unused for Local.
	Side  chess.Side
	Peer  *netwrk.Peer
	Store save.Store

	status   string
	degraded bool
	dropped  int
	log      *slog.Logger
}

func newSession(role Role, m *match.Match, side chess.Side, peer *netwrk.Peer, store save.Store) *Session {
	id := uuid.New()
	return &Session{
		ID:    id,
		Role:  role,
		Match: m,
		Side:  side,
		Peer:  peer,
		Store: store,
		log:   slog.With("session", id.String(), "role", role.String()),
	}
}

// NewLocal runs both paddles on one keyboard.
func NewLocal(m *match.Match, store save.Store) *Session {
	s := newSession(Local, m, chess.Left, nil, store)
	s.status = "local game"
	return s
}

// NewHost drives the authoritative match for a connected mirror. side is the
// host's own paddle.
func NewHost(m *match.Match, peer *netwrk.Peer, side chess.Side, store save.Store) *Session {
	s := newSession(Host, m, side, peer, store)
	s.status = fmt.Sprintf("hosting %s, playing %s", peer.RemoteAddr(), side)
	s.log.Info("session started", "remote", peer.RemoteAddr(), "side", side)
	return s
}

// NewMirror follows a host. side is the paddle this process controls.
func NewMirror(m *match.Match, peer *netwrk.Peer, side chess.Side) *Session {
	s := newSession(Client, m, side, peer, nil)
	s.status = fmt.Sprintf("connected, playing %s", side)
	s.log.Info("session started", "remote", peer.RemoteAddr(), "side", side)
	return s
}

// HostSession builds the host side of a handshake: the match from cfg and the
// session around an accepted peer. The config is sent before returning.
func HostSession(m *match.Match, peer *netwrk.Peer, hostSide chess.Side, store save.Store) (*Session, error) {
	cfg := netwrk.NewConfig(m.Setup(), m.FirstServer(), hostSide, m.SpeedFactor, m.Variant)
	if err := netwrk.Offer(peer, cfg); err != nil {
		return nil, fmt.Errorf("send config: %w", err)
	}
	return NewHost(m, peer, hostSide, store), nil
}

// MirrorMatch turns the host's config into a mirrored match and the paddle
// the mirror controls.
func MirrorMatch(cfg netwrk.Config) (*match.Match, chess.Side, error) {
	first, err := chess.ParseSide(cfg.FirstServer)
	if err != nil {
		return nil, "", fmt.Errorf("config first_server: %w", err)
	}
	hostSide, err := chess.ParseSide(cfg.HostPaddle)
	if err != nil {
		return nil, "", fmt.Errorf("config host_paddle: %w", err)
	}
	variant, err := match.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, "", fmt.Errorf("config variant: %w", err)
	}

	m, err := match.New(match.Options{
		Setup:       cfg.Setup,
		FirstServer: first,
		SpeedFactor: cfg.BallSpeedFactor,
		Variant:     variant,
		Authority:   match.Mirror,
	})
	if err != nil {
		return nil, "", err
	}
	return m, hostSide.Opponent(), nil
}

// Status is a one line summary for the HUD. Networked sessions lead with
// the connection state.
func (s *Session) Status() string {
	status := s.status
	if s.Match.Over {
		status = fmt.Sprintf("%s wins! %s", s.Match.Winner, status)
	}
	if s.Peer != nil {
		status = fmt.Sprintf("[%s] %s", s.Peer.State(), status)
	}
	return status
}

// Degraded reports whether the connection was lost.
func (s *Session) Degraded() bool {
	return s.degraded
}

func (s *Session) setStatus(format string, args ...any) {
	s.status = fmt.Sprintf(format, args...)
}

func (s *Session) networked() bool {
	return s.Peer != nil && !s.degraded
}

// send pushes a message to the peer. A failure drops the session to local
// play.
func (s *Session) send(m netwrk.Message) {
	if !s.networked() {
		return
	}
	if err := s.Peer.Send(m); err != nil {
		s.degrade(err)
	}
}

func (s *Session) degrade(err error) {
	if s.degraded {
		return
	}
	s.degraded = true
	s.log.Warn("connection lost", "error", err)
	if s.Role == Client {
		s.setStatus("connection lost, game frozen")
	} else {
		s.setStatus("connection lost, playing locally")
	}
}

// poll drains the peer and notices a remote close.
func (s *Session) poll() []netwrk.Message {
	if !s.networked() {
		return nil
	}
	msgs := s.Peer.Poll()
	if n := s.Peer.Dropped(); n > s.dropped {
		s.log.Warn("dropped malformed lines", "count", n-s.dropped, "total", n)
		s.dropped = n
	}
	if s.Peer.State() == netwrk.Closed {
		err := s.Peer.Err()
		if err == nil {
			err = netwrk.ErrClosed
		}
		s.degrade(err)
	}
	return msgs
}

// ownInput folds both keyboard paddles onto the one this process controls,
// and keeps serve controls only when this side is serving.
func (s *Session) ownInput(in match.Input) match.Input {
	if s.Role == Local || s.degraded {
		return in
	}
	own := match.PaddleInput{
		Up:   in.Left.Up || in.Right.Up,
		Down: in.Left.Down || in.Right.Down,
	}
	out := match.Input{}
	if s.Side == chess.Left {
		out.Left = own
	} else {
		out.Right = own
	}
	if s.Match.Serve.Attached && s.Match.Serve.Owner == s.Side {
		out.Pointer = in.Pointer
		out.HasPointer = in.HasPointer
		out.Launch = in.Launch
	}
	return out
}

// Tick runs one simulation step for whichever role the session plays.
func (s *Session) Tick(in match.Input, cmd Commands) []match.Event {
	if s.Role == Client {
		return s.tickMirror(in, cmd)
	}
	return s.tickHost(in, cmd)
}
