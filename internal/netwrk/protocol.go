package netwrk

import (
	"encoding/json"
	"errors"
	"fmt"

	"chessping/internal/chess"
	"chessping/internal/match"
)

const (
	MsgConfig         = "config"
	MsgPaddleUpdate   = "paddle_update"
	MsgBallUpdate     = "ball_update"
	MsgSpeedUpdate    = "speed_update"
	MsgPieceHit       = "piece_hit"
	MsgPieceDestroyed = "piece_destroyed"
	MsgScoreUpdate    = "score_update"
	MsgServeLaunch    = "serve_launch"
	MsgGameEnd        = "game_end"
	MsgReqSave        = "req_save"
	MsgReqLoad        = "req_load"
	MsgReqReset       = "req_reset"
	MsgGameState      = "game_state"
	MsgReset          = "reset"
	MsgSaveConfirmed  = "save_confirmed"
)

var ErrUnknownType = errors.New("unknown message type")

// Message is one line on the wire.
type Message interface {
	MessageType() string
}

// Config is sent once by the host right after accepting the mirror.
type Config struct {
	Type            string      `json:"type"`
	Setup           chess.Setup `json:"setup"`
	FirstServer     string      `json:"first_server"`
	HostPaddle      string      `json:"host_paddle"`
	BallSpeedFactor float64     `json:"ball_speed_factor"`
	Variant         string      `json:"variant,omitempty"`
}

type PaddleUpdate struct {
	Type string  `json:"type"`
	Side string  `json:"side"`
	Y    float64 `json:"y"`
}

type BallUpdate struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Color [3]int  `json:"color"`
}

type SpeedUpdate struct {
	Type   string  `json:"type"`
	Factor float64 `json:"factor"`
}

// PieceHit and PieceDestroyed name the piece by its roster position at send
// time. PieceID, when set, is the stable id and wins over the index.
type PieceHit struct {
	Type       string `json:"type"`
	Side       string `json:"side"`
	PieceIndex int    `json:"piece_index"`
	Life       int    `json:"life"`
	PieceID    int    `json:"piece_id,omitempty"`
}

type PieceDestroyed struct {
	Type       string `json:"type"`
	Side       string `json:"side"`
	PieceIndex int    `json:"piece_index"`
	PieceID    int    `json:"piece_id,omitempty"`
}

type ScoreUpdate struct {
	Type       string `json:"type"`
	ScoreLeft  int    `json:"score_left"`
	ScoreRight int    `json:"score_right"`
}

// ServeLaunch asks the host to launch a serve owned by the mirror.
type ServeLaunch struct {
	Type  string  `json:"type"`
	Angle float64 `json:"angle"`
}

type GameEnd struct {
	Type   string `json:"type"`
	Winner string `json:"winner"`
}

type GameState struct {
	Type  string         `json:"type"`
	State match.Snapshot `json:"state"`
}

// Signal covers the payload-free messages: req_save, req_load, req_reset,
// reset and save_confirmed.
type Signal struct {
	Type string `json:"type"`
}

func (m Config) MessageType() string         { return MsgConfig }
func (m PaddleUpdate) MessageType() string   { return MsgPaddleUpdate }
func (m BallUpdate) MessageType() string     { return MsgBallUpdate }
func (m SpeedUpdate) MessageType() string    { return MsgSpeedUpdate }
func (m PieceHit) MessageType() string       { return MsgPieceHit }
func (m PieceDestroyed) MessageType() string { return MsgPieceDestroyed }
func (m ScoreUpdate) MessageType() string    { return MsgScoreUpdate }
func (m ServeLaunch) MessageType() string    { return MsgServeLaunch }
func (m GameEnd) MessageType() string        { return MsgGameEnd }
func (m GameState) MessageType() string      { return MsgGameState }
func (m Signal) MessageType() string         { return m.Type }

func NewConfig(setup chess.Setup, firstServer, hostPaddle chess.Side, speed float64, variant match.Variant) Config {
	return Config{
		Type:            MsgConfig,
		Setup:           setup,
		FirstServer:     string(firstServer),
		HostPaddle:      string(hostPaddle),
		BallSpeedFactor: speed,
		Variant:         variant.String(),
	}
}

func NewPaddleUpdate(side chess.Side, y float64) PaddleUpdate {
	return PaddleUpdate{Type: MsgPaddleUpdate, Side: string(side), Y: y}
}

func NewBallUpdate(b match.BallState) BallUpdate {
	return BallUpdate{Type: MsgBallUpdate, X: b.X, Y: b.Y, VX: b.VX, VY: b.VY, Color: b.Color}
}

func NewSpeedUpdate(factor float64) SpeedUpdate {
	return SpeedUpdate{Type: MsgSpeedUpdate, Factor: factor}
}

func NewPieceHit(side chess.Side, index, life, id int) PieceHit {
	return PieceHit{Type: MsgPieceHit, Side: string(side), PieceIndex: index, Life: life, PieceID: id}
}

func NewPieceDestroyed(side chess.Side, index, id int) PieceDestroyed {
	return PieceDestroyed{Type: MsgPieceDestroyed, Side: string(side), PieceIndex: index, PieceID: id}
}

func NewScoreUpdate(left, right int) ScoreUpdate {
	return ScoreUpdate{Type: MsgScoreUpdate, ScoreLeft: left, ScoreRight: right}
}

func NewServeLaunch(angle float64) ServeLaunch {
	return ServeLaunch{Type: MsgServeLaunch, Angle: angle}
}

func NewGameEnd(winner chess.Side) GameEnd {
	return GameEnd{Type: MsgGameEnd, Winner: string(winner)}
}

func NewGameState(s match.Snapshot) GameState {
	return GameState{Type: MsgGameState, State: s}
}

func NewSignal(t string) Signal {
	return Signal{Type: t}
}

// Encode marshals a message as one newline terminated line.
func Encode(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.MessageType(), err)
	}
	return append(b, '\n'), nil
}

// Decode parses a single line, without its newline, into the concrete
// message type named by its "type" field.
func Decode(line []byte) (Message, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case MsgConfig:
		return decodeAs[Config](line)
	case MsgPaddleUpdate:
		return decodeAs[PaddleUpdate](line)
	case MsgBallUpdate:
		return decodeAs[BallUpdate](line)
	case MsgSpeedUpdate:
		return decodeAs[SpeedUpdate](line)
	case MsgPieceHit:
		return decodeAs[PieceHit](line)
	case MsgPieceDestroyed:
		return decodeAs[PieceDestroyed](line)
	case MsgScoreUpdate:
		return decodeAs[ScoreUpdate](line)
	case MsgServeLaunch:
		return decodeAs[ServeLaunch](line)
	case MsgGameEnd:
		return decodeAs[GameEnd](line)
	case MsgGameState:
		return decodeAs[GameState](line)
	case MsgReqSave, MsgReqLoad, MsgReqReset, MsgReset, MsgSaveConfirmed:
		return Signal{Type: env.Type}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, env.Type)
}

func decodeAs[T Message](line []byte) (Message, error) {
	var out T
	if err := json.Unmarshal(line, &out); err != nil {
		return nil, err
	}
	return out, nil
}
