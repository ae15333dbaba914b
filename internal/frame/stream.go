package frame

import (
	"encoding/binary"

	"github.com/zsiec/termreel/internal/errors"
)

// Fixed header field offsets, relative to the start of a frame.
const (
	headerPixelArrayOffset = 10
	headerWidthOffset      = 18
	headerHeightOffset     = 22
	headerBitsPerPixel     = 28

	// HeaderSize is the number of bytes that must be readable at a frame start.
	HeaderSize = 32

	// SupportedBitsPerPixel is the only pixel depth the decoder handles.
	SupportedBitsPerPixel = 24
	// BytesPerPixel is the byte width of one supported pixel (B, G, R).
	BytesPerPixel = SupportedBitsPerPixel / 8

	// MaxPixelOffset is the largest pixel-array offset the one-byte field can carry.
	MaxPixelOffset = 0xFF
)

// Header is a view of the geometry fields at the start of one frame.
type Header struct {
	// PixelOffset is the distance from the frame start to its pixel array.
	PixelOffset  int
	Width        uint32
	Height       uint32
	BitsPerPixel uint8
}

// Stream is an immutable view over concatenated bitmap frames.
type Stream struct {
	data []byte
}

// NewStream wraps data without copying. The caller must not mutate data
// while the stream is in use.
func NewStream(data []byte) Stream {
	return Stream{data: data}
}

// Len returns the stream length in bytes.
func (s Stream) Len() int {
	return len(s.data)
}

// ReadHeader reads the frame header starting at headerStart. It has no side
// effects and returns identical results for identical offsets.
func (s Stream) ReadHeader(headerStart int) (Header, error) {
	if headerStart < 0 || headerStart > len(s.data)-HeaderSize {
		return Header{}, errors.NewMalformedHeaderError(headerStart, "header fields unreadable").
			WithDetails(map[string]interface{}{
				"offset": headerStart,
				"need":   HeaderSize,
				"length": len(s.data),
			})
	}

	h := s.data[headerStart : headerStart+HeaderSize]

	// The pixel-array offset is a one-byte field; a wider value in the
	// following bytes is rejected rather than truncated.
	if h[headerPixelArrayOffset+1]|h[headerPixelArrayOffset+2]|h[headerPixelArrayOffset+3] != 0 {
		return Header{}, errors.NewMalformedHeaderError(headerStart, "pixel array offset exceeds 255 bytes")
	}

	return Header{
		PixelOffset:  int(h[headerPixelArrayOffset]),
		Width:        binary.LittleEndian.Uint32(h[headerWidthOffset:]),
		Height:       binary.LittleEndian.Uint32(h[headerHeightOffset:]),
		BitsPerPixel: h[headerBitsPerPixel],
	}, nil
}

// Stride returns the 4-byte aligned length of one scan line.
func Stride(width uint32, bytesPerPixel int) uint64 {
	return (uint64(width)*uint64(bytesPerPixel) + 3) &^ 3
}
