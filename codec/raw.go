package codec

import (
	"fmt"

	"github.com/opd-ai/nv21play/container"
)

func init() {
	registerDefault(container.MIMERawYUV420, newRawDecoder)
}

// rawSource passes packed I420 frames through unchanged.
type rawSource struct {
	width, height int
}

func newRawDecoder(mime string) (Decoder, error) {
	return newBufferQueue("raw.yuv420p", openRawSource), nil
}

// NewRawDecoder returns the raw I420 pass-through decoder with output rows
// padded to rowAlign bytes. Padding exercises stride handling downstream.
func NewRawDecoder(rowAlign int) Decoder {
	q := newBufferQueue("raw.yuv420p", openRawSource)
	if rowAlign > 1 {
		q.rowAlign = rowAlign
	}
	return q
}

func openRawSource(track container.Track) (pictureSource, error) {
	if track.Width <= 0 || track.Height <= 0 {
		return nil, fmt.Errorf("%w: raw track %dx%d", ErrInvalidCodecConfig, track.Width, track.Height)
	}
	return &rawSource{width: track.Width, height: track.Height}, nil
}

func (s *rawSource) Decode(data []byte, ptsMicros int64) ([]picture, error) {
	w, h := s.width, s.height
	cw, ch := (w+1)/2, (h+1)/2
	ySize, cSize := w*h, cw*ch
	if len(data) != ySize+2*cSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(data), ySize+2*cSize)
	}

	return []picture{{
		width:   w,
		height:  h,
		pts:     ptsMicros,
		y:       data[:ySize],
		u:       data[ySize : ySize+cSize],
		v:       data[ySize+cSize:],
		yStride: w,
		uStride: cw,
		vStride: cw,
	}}, nil
}

func (s *rawSource) Flush() ([]picture, error) {
	return nil, nil
}

func (s *rawSource) Close() error {
	return nil
}
