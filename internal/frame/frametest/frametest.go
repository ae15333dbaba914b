// Package frametest builds synthetic bitmap frame streams and records the
// cells a decoder paints, for use in tests.
package frametest

import (
	"encoding/binary"
	"sync"
)

// RGB is one pixel in conventional channel order.
type RGB struct {
	R, G, B uint8
}

// Common colors.
var (
	Red   = RGB{R: 255}
	Green = RGB{G: 255}
	Blue  = RGB{B: 255}
	White = RGB{R: 255, G: 255, B: 255}
	Black = RGB{}
)

// PixelOffset is the pixel-array offset written by Encode: a 14-byte file
// header followed by a 40-byte info header.
const PixelOffset = 54

// Image is a frame given top row first.
type Image struct {
	Width  int
	Height int
	// Rows holds Height rows of Width pixels, top row first.
	Rows [][]RGB
}

// Solid returns a width x height image filled with c.
func Solid(width, height int, c RGB) Image {
	rows := make([][]RGB, height)
	for y := range rows {
		rows[y] = make([]RGB, width)
		for x := range rows[y] {
			rows[y][x] = c
		}
	}
	return Image{Width: width, Height: height, Rows: rows}
}

// Gradient returns an image whose pixel (x, y) is {x, y, seed}.
func Gradient(width, height int, seed uint8) Image {
	rows := make([][]RGB, height)
	for y := range rows {
		rows[y] = make([]RGB, width)
		for x := range rows[y] {
			rows[y][x] = RGB{R: uint8(x), G: uint8(y), B: seed}
		}
	}
	return Image{Width: width, Height: height, Rows: rows}
}

// Stride returns the padded scan line length for a 24-bit image of width w.
func Stride(w int) int {
	return (w*3 + 3) &^ 3
}

// Encode serializes img as a 24-bit bottom-up bitmap with padded rows.
// Padding bytes are written as padByte so tests can tell them apart.
func Encode(img Image, padByte byte) []byte {
	stride := Stride(img.Width)
	size := PixelOffset + stride*img.Height
	buf := make([]byte, size)

	buf[0], buf[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(buf[2:], uint32(size))
	binary.LittleEndian.PutUint32(buf[10:], PixelOffset)
	binary.LittleEndian.PutUint32(buf[14:], 40)
	binary.LittleEndian.PutUint32(buf[18:], uint32(img.Width))
	binary.LittleEndian.PutUint32(buf[22:], uint32(img.Height))
	binary.LittleEndian.PutUint16(buf[26:], 1)
	binary.LittleEndian.PutUint16(buf[28:], 24)
	binary.LittleEndian.PutUint32(buf[34:], uint32(stride*img.Height))

	for y := 0; y < img.Height; y++ {
		// Storage row 0 is the bottom row of the image.
		row := buf[PixelOffset+(img.Height-1-y)*stride:]
		for x := 0; x < img.Width; x++ {
			p := img.Rows[y][x]
			row[x*3] = p.B
			row[x*3+1] = p.G
			row[x*3+2] = p.R
		}
		for i := img.Width * 3; i < stride; i++ {
			row[i] = padByte
		}
	}
	return buf
}

// Concat encodes each image and joins them into one stream.
func Concat(imgs ...Image) []byte {
	var out []byte
	for _, img := range imgs {
		out = append(out, Encode(img, 0)...)
	}
	return out
}

// Header builds a bare 32-byte header with the given fields and nothing else.
func Header(pixelOffset byte, width, height uint32, bitsPerPixel byte) []byte {
	buf := make([]byte, 32)
	buf[0], buf[1] = 'B', 'M'
	buf[10] = pixelOffset
	binary.LittleEndian.PutUint32(buf[18:], width)
	binary.LittleEndian.PutUint32(buf[22:], height)
	buf[28] = bitsPerPixel
	return buf
}

// Cell is one recorded paint call.
type Cell struct {
	Frame  int
	Row    int
	Column int
	Color  RGB
}

// Recorder is a Sink that records every cell and bracket call. Rows are
// inferred from column 0 resets, the same way a terminal sink does.
type Recorder struct {
	mu     sync.Mutex
	cells  []Cell
	frame  int
	row    int
	begins int
	ends   int
	open   bool

	// BeginErr and EndErr are returned from the bracket calls when set.
	BeginErr error
	EndErr   error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{row: -1}
}

// BeginSynchronizedFrame implements frame.Sink.
func (r *Recorder) BeginSynchronizedFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begins++
	r.open = true
	r.row = -1
	return r.BeginErr
}

// PaintCell implements frame.CellPainter.
func (r *Recorder) PaintCell(column int, red, green, blue uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if column == 0 {
		r.row++
	}
	r.cells = append(r.cells, Cell{
		Frame:  r.frame,
		Row:    r.row,
		Column: column,
		Color:  RGB{R: red, G: green, B: blue},
	})
}

// EndSynchronizedFrame implements frame.Sink.
func (r *Recorder) EndSynchronizedFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends++
	r.open = false
	r.frame++
	return r.EndErr
}

// Cells returns a copy of the recorded cells.
func (r *Recorder) Cells() []Cell {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// Colors returns the recorded colors in paint order.
func (r *Recorder) Colors() []RGB {
	cells := r.Cells()
	out := make([]RGB, len(cells))
	for i, c := range cells {
		out[i] = c.Color
	}
	return out
}

// FrameCells returns the cells painted during frame n.
func (r *Recorder) FrameCells(n int) []Cell {
	var out []Cell
	for _, c := range r.Cells() {
		if c.Frame == n {
			out = append(out, c)
		}
	}
	return out
}

// Brackets returns the number of begin and end calls.
func (r *Recorder) Brackets() (begins, ends int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.begins, r.ends
}

// Open reports whether a frame was begun but not ended.
func (r *Recorder) Open() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}
