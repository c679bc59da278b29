package netwrk

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"chessping/internal/chess"
	"chessping/internal/match"
)

func TestLineBufferDropsMalformedLines(t *testing.T) {
	var b LineBuffer
	b.Write([]byte("not-json\n{\"type\":\"score_update\",\"score_left\":1,\"score_right\":0}\n"))

	msgs := b.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	su, ok := msgs[0].(ScoreUpdate)
	if !ok {
		t.Fatalf("message = %T, want ScoreUpdate", msgs[0])
	}
	if su.ScoreLeft != 1 || su.ScoreRight != 0 {
		t.Fatalf("score = %d:%d, want 1:0", su.ScoreLeft, su.ScoreRight)
	}
	if b.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", b.Dropped)
	}
}

func TestLineBufferKeepsPartialLine(t *testing.T) {
	var b LineBuffer
	b.Write([]byte(`{"type":"req_sa`))
	if msgs := b.Messages(); len(msgs) != 0 {
		t.Fatalf("partial line produced %d messages", len(msgs))
	}
	b.Write([]byte("ve\"}\n\n{\"type\":\"bogus\"}\n"))

	msgs := b.Messages()
	if len(msgs) != 1 || msgs[0].MessageType() != MsgReqSave {
		t.Fatalf("messages = %+v, want one req_save", msgs)
	}
	if b.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", b.Pending())
	}
	if b.Dropped != 1 {
		t.Fatalf("unknown type not counted as dropped")
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"chat","text":"hi"}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}

func TestPieceIDIsOptionalOnTheWire(t *testing.T) {
	line, err := Encode(NewPieceHit(chess.Right, 2, 1, 0))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"type":"piece_hit","side":"right","piece_index":2,"life":1}` + "\n"
	if string(line) != want {
		t.Fatalf("line = %s, want %s", line, want)
	}
}

func TestGameStateCarriesSnapshot(t *testing.T) {
	m, err := match.New(match.Options{Setup: chess.DefaultSetup(2)})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	line, err := Encode(NewGameState(m.Serialize()))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg, err := Decode(line[:len(line)-1])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gs, ok := msg.(GameState)
	if !ok {
		t.Fatalf("message = %T, want GameState", msg)
	}
	if len(gs.State.PiecesLeft) != m.Left.Len() || gs.State.Rows != 2 {
		t.Fatalf("state = %+v", gs.State)
	}
}

// waitMessages polls p until n messages arrived or the deadline passes.
func waitMessages(t *testing.T, p *Peer, n int) []Message {
	t.Helper()
	var got []Message
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got = append(got, p.Poll()...)
		if len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("got %d messages, want %d", len(got), n)
	return nil
}

func TestPeerSendAndPoll(t *testing.T) {
	a, b := net.Pipe()
	host, mirror := NewPeer(a), NewPeer(b)
	defer host.Close()
	defer mirror.Close()

	if msgs := mirror.Poll(); len(msgs) != 0 {
		t.Fatalf("poll on idle peer returned %d messages", len(msgs))
	}

	go func() {
		_ = host.Send(NewPaddleUpdate(chess.Left, 120))
		_ = host.Send(NewSpeedUpdate(1.5))
	}()

	msgs := waitMessages(t, mirror, 2)
	pu, ok := msgs[0].(PaddleUpdate)
	if !ok || pu.Side != "left" || pu.Y != 120 {
		t.Fatalf("first message = %+v", msgs[0])
	}
	if su, ok := msgs[1].(SpeedUpdate); !ok || su.Factor != 1.5 {
		t.Fatalf("second message = %+v", msgs[1])
	}
}

func TestPeerClosesWhenRemoteLeaves(t *testing.T) {
	a, b := net.Pipe()
	host, mirror := NewPeer(a), NewPeer(b)
	_ = host.Close()

	deadline := time.Now().Add(2 * time.Second)
	for mirror.State() != Closed {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want closed", mirror.State())
		}
		mirror.Poll()
		time.Sleep(5 * time.Millisecond)
	}
	if err := mirror.Send(NewSignal(MsgReqSave)); !errors.Is(err, ErrClosed) {
		t.Fatalf("send after close: %v, want ErrClosed", err)
	}
}

func TestHandshakeOverLoopback(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan *Peer, 1)
	go func() {
		p, err := Accept(ctx, ln)
		if err != nil {
			t.Errorf("accept: %v", err)
			accepted <- nil
			return
		}
		cfg := NewConfig(chess.DefaultSetup(3), chess.Right, chess.Left, 1.2, match.Open)
		if err := Offer(p, cfg); err != nil {
			t.Errorf("offer: %v", err)
		}
		_ = p.Send(NewScoreUpdate(0, 0))
		accepted <- p
	}()

	mirror, err := Dial(ctx, ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer mirror.Close()

	cfg, rest, err := AwaitConfig(ctx, mirror, time.Second)
	if err != nil {
		t.Fatalf("await config: %v", err)
	}
	if cfg.Setup.Rows != 3 || cfg.FirstServer != "right" || cfg.HostPaddle != "left" || cfg.Variant != "open" {
		t.Fatalf("config = %+v", cfg)
	}
	if mirror.State() != Syncing {
		t.Fatalf("state = %v, want syncing", mirror.State())
	}

	host := <-accepted
	if host == nil {
		t.FailNow()
	}
	defer host.Close()
	if len(rest) == 0 {
		rest = waitMessages(t, mirror, 1)
	}
	if rest[0].MessageType() != MsgScoreUpdate {
		t.Fatalf("message after config = %+v", rest[0])
	}
}

func TestAwaitConfigTimesOut(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	p := NewPeer(b)
	defer p.Close()

	_, _, err := AwaitConfig(context.Background(), p, 30*time.Millisecond)
	if !errors.Is(err, ErrHandshakeTimeout) {
		t.Fatalf("err = %v, want ErrHandshakeTimeout", err)
	}
}

func TestAcceptHonoursCancel(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Accept(ctx, ln); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
