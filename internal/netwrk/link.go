package netwrk

import (
	"context"
	"log/slog"
	"net"
	"sync"
)

// Link follows one match connection from before a socket exists until it
// closes. Until a peer is attached it is Disconnected, Listening or
// Connecting; afterwards it reports the peer's state.
type Link struct {
	// OnChange, if set, is called after every transition the link makes
	// itself. Peer transitions (Syncing, Closed) are not reported.
	OnChange func(State)

	mu    sync.Mutex
	state State
	peer  *Peer
}

func NewLink() *Link {
	return &Link{state: Disconnected}
}

func (l *Link) State() State {
	l.mu.Lock()
	p, s := l.peer, l.state
	l.mu.Unlock()
	if p != nil {
		return p.State()
	}
	return s
}

// Peer is the attached connection, nil before Accept or Dial succeeded.
func (l *Link) Peer() *Peer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peer
}

func (l *Link) set(s State, p *Peer) {
	l.mu.Lock()
	l.state = s
	if p != nil {
		l.peer = p
	}
	l.mu.Unlock()

	slog.Debug("link state", "state", s)
	if l.OnChange != nil {
		l.OnChange(s)
	}
}

// Listen opens the host socket.
func (l *Link) Listen(addr string) (net.Listener, error) {
	ln, err := Listen(addr)
	if err != nil {
		return nil, err
	}
	l.set(Listening, nil)
	return ln, nil
}

// Accept waits for the mirror on ln. A failure drops the link back to
// Disconnected.
func (l *Link) Accept(ctx context.Context, ln net.Listener) (*Peer, error) {
	p, err := Accept(ctx, ln)
	if err != nil {
		l.set(Disconnected, nil)
		return nil, err
	}
	l.set(Handshake, p)
	return p, nil
}

// Dial connects to the host. A failure drops the link back to Disconnected.
func (l *Link) Dial(ctx context.Context, addr string) (*Peer, error) {
	l.set(Connecting, nil)
	p, err := Dial(ctx, addr)
	if err != nil {
		l.set(Disconnected, nil)
		return nil, err
	}
	l.set(Handshake, p)
	return p, nil
}
