package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/muesli/termenv"
)

// DEC private mode 2026: the terminal holds output between set and reset
// and presents it in one go.
const (
	beginSynchronizedUpdate = termenv.CSI + "?2026h"
	endSynchronizedUpdate   = termenv.CSI + "?2026l"
	resetStyle              = termenv.CSI + termenv.ResetSeq + "m"
)

// ParseProfile maps a configured color profile name to a termenv profile.
func ParseProfile(name string) (termenv.Profile, error) {
	switch name {
	case "truecolor":
		return termenv.TrueColor, nil
	case "ansi256":
		return termenv.ANSI256, nil
	case "ansi":
		return termenv.ANSI, nil
	}
	return termenv.Ascii, fmt.Errorf("unknown color profile %q", name)
}

// SinkOptions configures an ANSISink.
type SinkOptions struct {
	Profile      termenv.Profile
	Synchronized bool
	// BufferSize is the write buffer size; one frame should fit.
	BufferSize int
}

// ANSISink paints cells as background-colored spaces. Each row starts with
// an explicit cursor move so frames overwrite each other in place, and
// output is buffered until the frame ends.
type ANSISink struct {
	w       *bufio.Writer
	profile termenv.Profile
	sync    bool

	row     int
	last    [3]uint8
	hasLast bool
	scratch []byte
	err     error
}

// NewANSISink creates a sink writing to w.
func NewANSISink(w io.Writer, opts SinkOptions) *ANSISink {
	size := opts.BufferSize
	if size <= 0 {
		size = 256 * 1024
	}
	return &ANSISink{
		w:       bufio.NewWriterSize(w, size),
		profile: opts.Profile,
		sync:    opts.Synchronized,
		row:     -1,
		scratch: make([]byte, 0, 32),
	}
}

// BeginSynchronizedFrame implements frame.Sink.
func (s *ANSISink) BeginSynchronizedFrame() error {
	s.row = -1
	s.hasLast = false
	if s.sync {
		s.write(beginSynchronizedUpdate)
	}
	return s.err
}

// PaintCell implements frame.CellPainter.
func (s *ANSISink) PaintCell(column int, red, green, blue uint8) {
	if column == 0 {
		s.row++
		s.moveTo(s.row, 0)
	}

	c := [3]uint8{red, green, blue}
	if !s.hasLast || c != s.last {
		s.setBackground(red, green, blue)
		s.last, s.hasLast = c, true
	}
	s.write(" ")
}

// EndSynchronizedFrame implements frame.Sink. It resets the style, closes
// the synchronized update and flushes the frame.
func (s *ANSISink) EndSynchronizedFrame() error {
	s.write(resetStyle)
	if s.sync {
		s.write(endSynchronizedUpdate)
	}
	if s.err == nil {
		s.err = s.w.Flush()
	}
	return s.err
}

// Err returns the first write error seen by the sink.
func (s *ANSISink) Err() error {
	return s.err
}

func (s *ANSISink) moveTo(row, column int) {
	b := append(s.scratch[:0], termenv.CSI...)
	b = strconv.AppendInt(b, int64(row+1), 10)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(column+1), 10)
	b = append(b, 'H')
	s.writeBytes(b)
}

func (s *ANSISink) setBackground(red, green, blue uint8) {
	b := append(s.scratch[:0], termenv.CSI...)
	if s.profile == termenv.TrueColor {
		b = append(b, "48;2;"...)
		b = strconv.AppendUint(b, uint64(red), 10)
		b = append(b, ';')
		b = strconv.AppendUint(b, uint64(green), 10)
		b = append(b, ';')
		b = strconv.AppendUint(b, uint64(blue), 10)
	} else {
		seq := s.profile.FromColor(color.RGBA{R: red, G: green, B: blue, A: 0xFF}).Sequence(true)
		if seq == "" {
			return
		}
		b = append(b, seq...)
	}
	b = append(b, 'm')
	s.writeBytes(b)
}

func (s *ANSISink) write(str string) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.WriteString(str)
}

func (s *ANSISink) writeBytes(b []byte) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.Write(b)
}
