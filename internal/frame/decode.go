package frame

import (
	"github.com/zsiec/termreel/internal/errors"
)

// CellPainter receives one terminal cell per decoded pixel.
type CellPainter interface {
	PaintCell(column int, red, green, blue uint8)
}

// Sink is a cell painter that also brackets each full frame so the terminal
// can present it atomically.
type Sink interface {
	CellPainter
	BeginSynchronizedFrame() error
	EndSynchronizedFrame() error
}

// Layout describes where one frame's pixel rows live in the stream.
type Layout struct {
	Header
	Start         int
	BytesPerPixel int
	Stride        int
	PixelStart    int
	// End is the offset of the next frame header, or the stream length.
	End int
}

// Empty reports whether the frame has no pixels to emit.
func (l Layout) Empty() bool {
	return l.Width == 0 || l.Height == 0
}

// RowStart returns the storage offset of the displayed row r, counting
// from the top. Rows are stored bottom to top.
func (l Layout) RowStart(r int) int {
	return l.PixelStart + (int(l.Height)-1-r)*l.Stride
}

// Layout sizes the frame at frameStart and checks it fits in the stream.
func (s Stream) Layout(frameStart int) (Layout, error) {
	h, err := s.ReadHeader(frameStart)
	if err != nil {
		return Layout{}, err
	}

	if h.BitsPerPixel%8 != 0 || int(h.BitsPerPixel/8) != BytesPerPixel {
		return Layout{}, errors.NewUnsupportedPixelFormatError(frameStart, h.BitsPerPixel)
	}

	l := Layout{
		Header:        h,
		Start:         frameStart,
		BytesPerPixel: BytesPerPixel,
		PixelStart:    frameStart + h.PixelOffset,
	}

	if l.Empty() {
		l.End = l.PixelStart
		return l, nil
	}

	stride := Stride(h.Width, BytesPerPixel)
	length := uint64(len(s.data))
	pixelStart := uint64(l.PixelStart)
	if pixelStart > length || stride > length || uint64(h.Height) > (length-pixelStart)/stride {
		return Layout{}, errors.NewOutOfBoundsError("frame", l.PixelStart, saturatingEnd(pixelStart, stride, h.Height), len(s.data))
	}

	l.Stride = int(stride)
	l.End = l.PixelStart + int(h.Height)*l.Stride
	return l, nil
}

// FrameEnd returns the offset following the frame at frameStart without
// decoding any pixels.
func (s Stream) FrameEnd(frameStart int) (int, error) {
	l, err := s.Layout(frameStart)
	if err != nil {
		return 0, err
	}
	return l.End, nil
}

// DecodeRow emits width cells for the scan line at rowStart, left to right,
// reordering stored B,G,R into R,G,B. Nothing is emitted if the row does
// not fit in the stream.
func (s Stream) DecodeRow(rowStart int, width uint32, bytesPerPixel int, sink CellPainter) error {
	if bytesPerPixel < BytesPerPixel {
		return errors.NewUnsupportedPixelFormatError(rowStart, uint8(bytesPerPixel*8))
	}

	end := uint64(rowStart) + uint64(width)*uint64(bytesPerPixel)
	if rowStart < 0 || end > uint64(len(s.data)) {
		return errors.NewOutOfBoundsError("row", rowStart, clampInt(end), len(s.data))
	}

	pos := rowStart
	for i := 0; i < int(width); i++ {
		sink.PaintCell(i, s.data[pos+2], s.data[pos+1], s.data[pos])
		pos += bytesPerPixel
	}
	return nil
}

// DecodeFrame emits every row of the frame at frameStart in display order,
// top to bottom, and returns the offset of the next frame. Size errors are
// detected before any cell is emitted.
func (s Stream) DecodeFrame(frameStart int, sink CellPainter) (int, error) {
	l, err := s.Layout(frameStart)
	if err != nil {
		return 0, err
	}

	if l.Empty() {
		return l.PixelStart, nil
	}

	for r := 0; r < int(l.Height); r++ {
		if err := s.DecodeRow(l.RowStart(r), l.Width, l.BytesPerPixel, sink); err != nil {
			return 0, err
		}
	}
	return l.End, nil
}

// Count walks the stream from offset 0 and returns the number of frames.
func (s Stream) Count() (int, error) {
	n := 0
	for cursor := 0; cursor < len(s.data); n++ {
		next, err := s.FrameEnd(cursor)
		if err != nil {
			return n, err
		}
		if next <= cursor {
			return n, errors.NewMalformedHeaderError(cursor, "frame does not advance the stream")
		}
		cursor = next
	}
	return n, nil
}

func saturatingEnd(start, stride uint64, height uint32) int {
	if stride != 0 && uint64(height) > (^uint64(0)-start)/stride {
		return clampInt(^uint64(0))
	}
	return clampInt(start + uint64(height)*stride)
}

func clampInt(v uint64) int {
	const maxInt = uint64(^uint(0) >> 1)
	if v > maxInt {
		return int(maxInt)
	}
	return int(v)
}
