package session

import (
	"chessping/internal/chess"
	"chessping/internal/match"
	"chessping/internal/netwrk"
)

func (s *Session) tickMirror(in match.Input, cmd Commands) []match.Event {
	m := s.Match
	if s.degraded {
		return nil
	}

	for _, msg := range s.poll() {
		s.apply(msg)
	}
	if s.degraded {
		return nil
	}
	s.request(cmd)

	events := m.Step(s.ownInput(in))
	for _, ev := range events {
		if ev.Kind == match.EventServeRequest && ev.Side == s.Side {
			s.send(netwrk.NewServeLaunch(ev.Angle))
		}
	}
	s.send(netwrk.NewPaddleUpdate(s.Side, m.Paddle(s.Side).Y))
	return events
}

// request forwards save, load and reset to the host. Speed belongs to the
// host.
func (s *Session) request(cmd Commands) {
	if cmd.Save {
		s.send(netwrk.NewSignal(netwrk.MsgReqSave))
		s.setStatus("save requested")
	}
	if cmd.Load {
		s.send(netwrk.NewSignal(netwrk.MsgReqLoad))
		s.setStatus("load requested")
	}
	if cmd.Reset {
		s.send(netwrk.NewSignal(netwrk.MsgReqReset))
		s.setStatus("reset requested")
	}
	if cmd.Speed != 0 {
		s.setStatus("ball speed is set by the host")
	}
}

// apply folds one authoritative update into the mirrored match. Updates that
// name pieces the mirror no longer has are ignored.
func (s *Session) apply(msg netwrk.Message) {
	m := s.Match

	switch v := msg.(type) {
	case netwrk.PaddleUpdate:
		side := chess.Side(v.Side)
		if side != s.Side.Opponent() {
			return
		}
		m.SetPaddleY(side, v.Y)
	case netwrk.BallUpdate:
		m.ApplyBall(match.BallState{X: v.X, Y: v.Y, VX: v.VX, VY: v.VY, Color: v.Color})
	case netwrk.SpeedUpdate:
		m.SpeedFactor = match.ClampSpeed(v.Factor)
		s.setStatus("ball speed x%.1f", m.SpeedFactor)
	case netwrk.PieceHit:
		side, err := chess.ParseSide(v.Side)
		if err != nil || !m.ApplyPieceHit(side, v.PieceIndex, v.PieceID, v.Life) {
			s.log.Debug("stale piece_hit", "side", v.Side, "index", v.PieceIndex, "id", v.PieceID)
		}
	case netwrk.PieceDestroyed:
		side, err := chess.ParseSide(v.Side)
		if err != nil || !m.ApplyPieceDestroyed(side, v.PieceIndex, v.PieceID) {
			s.log.Debug("stale piece_destroyed", "side", v.Side, "index", v.PieceIndex, "id", v.PieceID)
		}
	case netwrk.ScoreUpdate:
		m.ApplyScore(v.ScoreLeft, v.ScoreRight)
	case netwrk.GameEnd:
		if winner, err := chess.ParseSide(v.Winner); err == nil {
			m.ApplyGameEnd(winner)
		}
	case netwrk.GameState:
		if err := m.Deserialize(v.State); err != nil {
			s.log.Warn("rejected game state", "error", err)
		}
	case netwrk.Signal:
		switch v.Type {
		case netwrk.MsgReset:
			m.Reset()
			s.setStatus("game reset by host")
		case netwrk.MsgSaveConfirmed:
			s.setStatus("game saved by host")
		}
	default:
		s.log.Debug("ignoring message from host", "type", msg.MessageType())
	}
}

// Apply feeds messages received outside Tick, such as the batch that followed
// the config during the handshake.
func (s *Session) Apply(msgs []netwrk.Message) {
	for _, msg := range msgs {
		s.apply(msg)
	}
}
