package codec

import (
	"bytes"
	"fmt"

	"github.com/opd-ai/nv21play/container"
	"golang.org/x/image/vp8"
)

func init() {
	registerDefault(container.MIMEVP8, newVP8Decoder)
}

// vp8Source wraps the pure Go VP8 decoder. It reconstructs key frames only;
// inter frames fail with ErrNonKeyFrame and are dropped by the queue.
type vp8Source struct {
	dec *vp8.Decoder
}

func newVP8Decoder(mime string) (Decoder, error) {
	return newBufferQueue("go.vp8", func(track container.Track) (pictureSource, error) {
		return &vp8Source{dec: vp8.NewDecoder()}, nil
	}), nil
}

func (s *vp8Source) Decode(data []byte, ptsMicros int64) ([]picture, error) {
	s.dec.Init(bytes.NewReader(data), len(data))
	fh, err := s.dec.DecodeFrameHeader()
	if err != nil {
		return nil, fmt.Errorf("vp8 frame header: %w", err)
	}
	if !fh.KeyFrame {
		return nil, ErrNonKeyFrame
	}

	img, err := s.dec.DecodeFrame()
	if err != nil {
		return nil, fmt.Errorf("vp8 decode: %w", err)
	}

	return []picture{{
		width:   fh.Width,
		height:  fh.Height,
		pts:     ptsMicros,
		y:       img.Y,
		u:       img.Cb,
		v:       img.Cr,
		yStride: img.YStride,
		uStride: img.CStride,
		vStride: img.CStride,
	}}, nil
}

func (s *vp8Source) Flush() ([]picture, error) {
	return nil, nil
}

func (s *vp8Source) Close() error {
	return nil
}
