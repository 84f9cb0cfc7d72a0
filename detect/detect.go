package detect

import (
	"errors"
	"image"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatcher closed")

// Face is one detected face in frame coordinates.
type Face struct {
	Rect    image.Rectangle
	TrackID int
}

// Detector finds faces in an NV21 frame. Implementations are called from
// a single dispatcher goroutine and must not retain nv21.
type Detector interface {
	Detect(nv21 []byte, width, height int) ([]Face, error)
}

// Result reports the faces found in one frame. Rects are mapped back to
// the dimensions of the submitted frame.
type Result struct {
	Faces     []Face
	Width     int
	Height    int
	PTSMicros int64
}

// Noop is a Detector that never finds anything.
type Noop struct{}

// Detect returns no faces.
func (Noop) Detect([]byte, int, int) ([]Face, error) {
	return nil, nil
}

// scaleRect maps r from a dw x dh frame to a w x h frame.
func scaleRect(r image.Rectangle, dw, dh, w, h int) image.Rectangle {
	if dw == w && dh == h {
		return r
	}
	return image.Rect(r.Min.X*w/dw, r.Min.Y*h/dh, r.Max.X*w/dw, r.Max.Y*h/dh)
}
