// Package save persists match snapshots outside the process.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"chessping/internal/match"
)

var ErrCorrupt = errors.New("corrupt snapshot")

// Codec turns a snapshot into bytes and back.
type Codec interface {
	Name() string
	Encode(match.Snapshot) ([]byte, error)
	Decode([]byte) (match.Snapshot, error)
}

// CodecByName returns the codec for "json" or "binary".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "binary":
		return BinaryCodec{}, nil
	}
	return nil, fmt.Errorf("unknown save format %q", name)
}

// JSONCodec writes the human readable save file format.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(s match.Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (JSONCodec) Decode(b []byte) (match.Snapshot, error) {
	var s match.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return match.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}

// BinaryCodec writes snapshots in protobuf wire format without generated
// types. Field numbers below are the format; never reuse them.
type BinaryCodec struct{}

const (
	fRows         protowire.Number = 1
	fScoreLeft    protowire.Number = 2
	fScoreRight   protowire.Number = 3
	fServing      protowire.Number = 4
	fServerSide   protowire.Number = 5
	fAimX         protowire.Number = 6
	fAimY         protowire.Number = 7
	fBall         protowire.Number = 8
	fLeftPaddleY  protowire.Number = 9
	fRightPaddleY protowire.Number = 10
	fSpeedFactor  protowire.Number = 11
	fPieceLeft    protowire.Number = 12
	fPieceRight   protowire.Number = 13

	fBallX  protowire.Number = 1
	fBallY  protowire.Number = 2
	fBallVX protowire.Number = 3
	fBallVY protowire.Number = 4
	fBallR  protowire.Number = 5
	fBallG  protowire.Number = 6
	fBallB  protowire.Number = 7

	fPieceID      protowire.Number = 1
	fPieceKind    protowire.Number = 2
	fPieceColor   protowire.Number = 3
	fPieceRow     protowire.Number = 4
	fPieceCol     protowire.Number = 5
	fPieceLife    protowire.Number = 6
	fPieceMaxLife protowire.Number = 7
)

func (BinaryCodec) Name() string { return "binary" }

func (BinaryCodec) Encode(s match.Snapshot) ([]byte, error) {
	var b []byte
	b = appendInt(b, fRows, s.Rows)
	b = appendInt(b, fScoreLeft, s.ScoreLeft)
	b = appendInt(b, fScoreRight, s.ScoreRight)
	b = protowire.AppendTag(b, fServing, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(s.Serving))
	b = protowire.AppendTag(b, fServerSide, protowire.BytesType)
	b = protowire.AppendString(b, s.ServerSide)
	b = appendFloat(b, fAimX, s.ServeAim[0])
	b = appendFloat(b, fAimY, s.ServeAim[1])

	var ball []byte
	ball = appendFloat(ball, fBallX, s.Ball.X)
	ball = appendFloat(ball, fBallY, s.Ball.Y)
	ball = appendFloat(ball, fBallVX, s.Ball.VX)
	ball = appendFloat(ball, fBallVY, s.Ball.VY)
	ball = appendInt(ball, fBallR, s.Ball.Color[0])
	ball = appendInt(ball, fBallG, s.Ball.Color[1])
	ball = appendInt(ball, fBallB, s.Ball.Color[2])
	b = protowire.AppendTag(b, fBall, protowire.BytesType)
	b = protowire.AppendBytes(b, ball)

	b = appendFloat(b, fLeftPaddleY, s.LeftPaddleY)
	b = appendFloat(b, fRightPaddleY, s.RightPaddleY)
	b = appendFloat(b, fSpeedFactor, s.BallSpeedFactor)

	for _, p := range s.PiecesLeft {
		b = appendPiece(b, fPieceLeft, p)
	}
	for _, p := range s.PiecesRight {
		b = appendPiece(b, fPieceRight, p)
	}
	return b, nil
}

func (BinaryCodec) Decode(b []byte) (match.Snapshot, error) {
	s := match.Snapshot{PiecesLeft: []match.PieceState{}, PiecesRight: []match.PieceState{}}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, v fieldValue) error {
		switch {
		case num == fRows && typ == protowire.VarintType:
			s.Rows = v.int()
		case num == fScoreLeft && typ == protowire.VarintType:
			s.ScoreLeft = v.int()
		case num == fScoreRight && typ == protowire.VarintType:
			s.ScoreRight = v.int()
		case num == fServing && typ == protowire.VarintType:
			s.Serving = protowire.DecodeBool(v.varint)
		case num == fServerSide && typ == protowire.BytesType:
			s.ServerSide = string(v.bytes)
		case num == fAimX && typ == protowire.Fixed64Type:
			s.ServeAim[0] = v.float()
		case num == fAimY && typ == protowire.Fixed64Type:
			s.ServeAim[1] = v.float()
		case num == fBall && typ == protowire.BytesType:
			return decodeBall(v.bytes, &s.Ball)
		case num == fLeftPaddleY && typ == protowire.Fixed64Type:
			s.LeftPaddleY = v.float()
		case num == fRightPaddleY && typ == protowire.Fixed64Type:
			s.RightPaddleY = v.float()
		case num == fSpeedFactor && typ == protowire.Fixed64Type:
			s.BallSpeedFactor = v.float()
		case num == fPieceLeft && typ == protowire.BytesType:
			p, err := decodePiece(v.bytes)
			if err != nil {
				return err
			}
			s.PiecesLeft = append(s.PiecesLeft, p)
		case num == fPieceRight && typ == protowire.BytesType:
			p, err := decodePiece(v.bytes)
			if err != nil {
				return err
			}
			s.PiecesRight = append(s.PiecesRight, p)
		}
		return nil
	})
	if err != nil {
		return match.Snapshot{}, err
	}
	return s, nil
}

func decodeBall(b []byte, ball *match.BallState) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v fieldValue) error {
		switch {
		case num == fBallX && typ == protowire.Fixed64Type:
			ball.X = v.float()
		case num == fBallY && typ == protowire.Fixed64Type:
			ball.Y = v.float()
		case num == fBallVX && typ == protowire.Fixed64Type:
			ball.VX = v.float()
		case num == fBallVY && typ == protowire.Fixed64Type:
			ball.VY = v.float()
		case num >= fBallR && num <= fBallB && typ == protowire.VarintType:
			ball.Color[num-fBallR] = v.int()
		}
		return nil
	})
}

func decodePiece(b []byte) (match.PieceState, error) {
	var p match.PieceState
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, v fieldValue) error {
		switch {
		case num == fPieceID && typ == protowire.VarintType:
			p.ID = v.int()
		case num == fPieceKind && typ == protowire.BytesType:
			p.Kind = string(v.bytes)
		case num == fPieceColor && typ == protowire.BytesType:
			p.Color = string(v.bytes)
		case num == fPieceRow && typ == protowire.VarintType:
			p.Row = v.int()
		case num == fPieceCol && typ == protowire.VarintType:
			p.Col = v.int()
		case num == fPieceLife && typ == protowire.VarintType:
			p.Life = v.int()
		case num == fPieceMaxLife && typ == protowire.VarintType:
			p.MaxLife = v.int()
		}
		return nil
	})
	return p, err
}

func appendPiece(b []byte, num protowire.Number, p match.PieceState) []byte {
	var pb []byte
	pb = appendInt(pb, fPieceID, p.ID)
	pb = protowire.AppendTag(pb, fPieceKind, protowire.BytesType)
	pb = protowire.AppendString(pb, p.Kind)
	pb = protowire.AppendTag(pb, fPieceColor, protowire.BytesType)
	pb = protowire.AppendString(pb, p.Color)
	pb = appendInt(pb, fPieceRow, p.Row)
	pb = appendInt(pb, fPieceCol, p.Col)
	pb = appendInt(pb, fPieceLife, p.Life)
	pb = appendInt(pb, fPieceMaxLife, p.MaxLife)

	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, pb)
}

func appendInt(b []byte, num protowire.Number, v int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
}

func appendFloat(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

type fieldValue struct {
	varint uint64
	fixed  uint64
	bytes  []byte
}

func (v fieldValue) int() int       { return int(protowire.DecodeZigZag(v.varint)) }
func (v fieldValue) float() float64 { return math.Float64frombits(v.fixed) }

// consumeFields walks every field of a message. Unknown fields and wire types
// are skipped so older readers accept newer files.
func consumeFields(b []byte, fn func(protowire.Number, protowire.Type, fieldValue) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrCorrupt, protowire.ParseError(n))
		}
		b = b[n:]

		var v fieldValue
		switch typ {
		case protowire.VarintType:
			v.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			v.fixed, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			v.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrCorrupt, num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(num, typ, v); err != nil {
			return err
		}
	}
	return nil
}
