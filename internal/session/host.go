package session

import (
	"errors"

	"chessping/internal/chess"
	"chessping/internal/match"
	"chessping/internal/netwrk"
	"chessping/internal/save"
)

func (s *Session) tickHost(in match.Input, cmd Commands) []match.Event {
	m := s.Match
	for _, msg := range s.poll() {
		s.handleRemote(msg)
	}
	s.handleCommands(cmd)

	events := m.Step(s.ownInput(in))

	if s.networked() {
		s.send(netwrk.NewBallUpdate(m.BallState()))
		s.send(netwrk.NewPaddleUpdate(s.Side, m.Paddle(s.Side).Y))
		s.sendEvents(events)
	}
	return events
}

// handleRemote applies what the mirror sent: its own paddle, serve launches
// and requests.
func (s *Session) handleRemote(msg netwrk.Message) {
	m := s.Match
	remote := s.Side.Opponent()

	switch v := msg.(type) {
	case netwrk.PaddleUpdate:
		if chess.Side(v.Side) != remote {
			s.log.Debug("ignoring paddle update for host paddle", "side", v.Side)
			return
		}
		m.SetPaddleY(remote, v.Y)
	case netwrk.ServeLaunch:
		if !m.Serve.Attached || m.Serve.Owner != remote {
			return
		}
		s.sendEvents(m.LaunchAngle(v.Angle))
	case netwrk.Signal:
		switch v.Type {
		case netwrk.MsgReqSave:
			if s.save() {
				s.send(netwrk.NewSignal(netwrk.MsgSaveConfirmed))
			}
		case netwrk.MsgReqLoad:
			s.load()
		case netwrk.MsgReqReset:
			s.reset()
		}
	default:
		s.log.Debug("ignoring message from mirror", "type", msg.MessageType())
	}
}

func (s *Session) handleCommands(cmd Commands) {
	if cmd.Save {
		if s.save() {
			s.setStatus("game saved")
		}
	}
	if cmd.Load {
		s.load()
	}
	if cmd.Reset {
		s.reset()
	}
	if cmd.Speed != 0 {
		f := s.Match.SetSpeedFactor(s.Match.SpeedFactor + float64(cmd.Speed)*match.SpeedFactorStep)
		s.setStatus("ball speed x%.1f", f)
		s.send(netwrk.NewSpeedUpdate(f))
	}
}

func (s *Session) save() bool {
	if s.Store == nil {
		s.setStatus("saving is disabled")
		return false
	}
	if err := s.Store.Save(s.Match.Serialize()); err != nil {
		s.log.Error("save failed", "error", err)
		s.setStatus("save failed: %v", err)
		return false
	}
	s.log.Info("game saved")
	return true
}

func (s *Session) load() {
	if s.Store == nil {
		s.setStatus("saving is disabled")
		return
	}
	snap, err := s.Store.Load()
	if err == nil {
		err = s.Match.Deserialize(snap)
	}
	if err != nil {
		if errors.Is(err, save.ErrNoSave) {
			s.setStatus("no saved game")
		} else {
			s.log.Error("load failed", "error", err)
			s.setStatus("load failed: %v", err)
		}
		return
	}
	s.log.Info("game loaded")
	s.setStatus("game loaded")
	s.send(netwrk.NewGameState(s.Match.Serialize()))
}

func (s *Session) reset() {
	s.Match.Reset()
	s.log.Info("game reset")
	s.setStatus("game reset")
	s.send(netwrk.NewSignal(netwrk.MsgReset))
	s.send(netwrk.NewGameState(s.Match.Serialize()))
}

// sendEvents turns simulation events into deltas for the mirror. A
// destruction is followed by a full resync since the roster shifted.
func (s *Session) sendEvents(events []match.Event) {
	m := s.Match
	for _, ev := range events {
		s.log.Debug("event", "kind", ev.Kind.String(), "side", ev.Side, "piece", ev.PieceID)
		switch ev.Kind {
		case match.EventPieceHit:
			s.send(netwrk.NewPieceHit(ev.Side, ev.Index, ev.Life, ev.PieceID))
		case match.EventPieceDestroyed:
			s.send(netwrk.NewPieceDestroyed(ev.Side, ev.Index, ev.PieceID))
		case match.EventScore:
			s.send(netwrk.NewScoreUpdate(m.ScoreLeft, m.ScoreRight))
			if destroyedIn(events) {
				s.send(netwrk.NewGameState(m.Serialize()))
			}
		case match.EventLaunch:
			s.send(netwrk.NewBallUpdate(m.BallState()))
		case match.EventGameOver:
			s.log.Info("game over", "winner", ev.Side)
			s.send(netwrk.NewGameEnd(ev.Side))
		}
	}
}

func destroyedIn(events []match.Event) bool {
	for _, ev := range events {
		if ev.Kind == match.EventPieceDestroyed {
			return true
		}
	}
	return false
}
