package netwrk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

var ErrClosed = errors.New("connection closed")

// State is where a connection is in its lifetime.
type State int

const (
	Disconnected State = iota
	Listening
	Connecting
	Handshake
	Syncing
	Closed
)

var stateNames = map[State]string{
	Disconnected: "disconnected",
	Listening:    "listening",
	Connecting:   "connecting",
	Handshake:    "handshake",
	Syncing:      "syncing",
	Closed:       "closed",
}

func (s State) String() string {
	return stateNames[s]
}

const (
	readChunkSize = 4096
	chunkBacklog  = 256

	DefaultWriteTimeout = 2 * time.Second
)

// Peer is one end of a match connection. A background goroutine reads raw
// chunks; the simulation loop drains them with Poll without ever blocking.
type Peer struct {
	conn   net.Conn
	chunks chan []byte
	done   chan struct{}

	// WriteTimeout bounds every Send.
	WriteTimeout time.Duration

	buf     LineBuffer
	readEOF bool

	mu    sync.Mutex
	state State
	err   error
}

// NewPeer wraps an established connection and starts reading from it.
func NewPeer(conn net.Conn) *Peer {
	p := &Peer{
		conn:         conn,
		chunks:       make(chan []byte, chunkBacklog),
		done:         make(chan struct{}),
		WriteTimeout: DefaultWriteTimeout,
		state:        Handshake,
	}
	go p.readLoop()
	return p
}

func (p *Peer) readLoop() {
	defer close(p.chunks)
	for {
		b := make([]byte, readChunkSize)
		n, err := p.conn.Read(b)
		if n > 0 {
			select {
			case p.chunks <- b[:n]:
			case <-p.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				p.fail(fmt.Errorf("read: %w", err))
			}
			return
		}
	}
}

// Poll returns all messages that arrived since the last call. It never
// blocks. Once the remote side is gone the peer moves to Closed.
func (p *Peer) Poll() []Message {
drain:
	for !p.readEOF {
		select {
		case chunk, ok := <-p.chunks:
			if !ok {
				p.readEOF = true
				p.fail(ErrClosed)
				break drain
			}
			p.buf.Write(chunk)
		default:
			break drain
		}
	}
	return p.buf.Messages()
}

// Send writes one message. Any failure closes the peer.
func (p *Peer) Send(m Message) error {
	if p.State() == Closed {
		return ErrClosed
	}
	line, err := Encode(m)
	if err != nil {
		return err
	}

	if p.WriteTimeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.WriteTimeout))
	}
	if _, err := p.conn.Write(line); err != nil {
		err = fmt.Errorf("send %s: %w", m.MessageType(), err)
		p.fail(err)
		return err
	}
	return nil
}

func (p *Peer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Peer) SetState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Closed {
		p.state = s
	}
}

// Err is the reason the peer closed, if any.
func (p *Peer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Dropped counts malformed lines received so far.
func (p *Peer) Dropped() int {
	return p.buf.Dropped
}

func (p *Peer) RemoteAddr() net.Addr {
	return p.conn.RemoteAddr()
}

func (p *Peer) fail(err error) {
	p.mu.Lock()
	if p.state == Closed {
		p.mu.Unlock()
		return
	}
	p.state = Closed
	p.err = err
	close(p.done)
	p.mu.Unlock()

	slog.Info("peer closed", "remote", p.conn.RemoteAddr(), "reason", err)
	_ = p.conn.Close()
}

// Close shuts the connection down. Safe to call more than once.
func (p *Peer) Close() error {
	p.fail(ErrClosed)
	return nil
}
