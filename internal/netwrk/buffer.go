package netwrk

import (
	"bytes"
	"log/slog"
)

// MaxLineSize bounds a single message. Anything longer without a newline is
// discarded.
const MaxLineSize = 1 << 20

// LineBuffer reassembles newline delimited messages from arbitrary chunks.
type LineBuffer struct {
	buf []byte
	// Dropped counts lines that could not be decoded.
	Dropped int
}

func (b *LineBuffer) Write(p []byte) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > MaxLineSize && bytes.IndexByte(b.buf, '\n') < 0 {
		slog.Warn("dropping oversized line", "bytes", len(b.buf))
		b.buf = b.buf[:0]
		b.Dropped++
	}
}

// Messages returns every complete message buffered so far, in order. Empty
// and malformed lines are skipped. A trailing partial line stays buffered.
func (b *LineBuffer) Messages() []Message {
	var out []Message
	for {
		i := bytes.IndexByte(b.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSpace(b.buf[:i])
		b.buf = b.buf[i+1:]
		if len(line) == 0 {
			continue
		}

		msg, err := Decode(line)
		if err != nil {
			slog.Debug("dropping malformed line", "error", err)
			b.Dropped++
			continue
		}
		out = append(out, msg)
	}
	if len(b.buf) == 0 {
		b.buf = nil
	}
	return out
}

// Pending reports the size of the buffered partial line.
func (b *LineBuffer) Pending() int {
	return len(b.buf)
}
