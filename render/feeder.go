package render

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Feeder hands transient NV21 buffers to a Renderer. Each frame is copied
// into a spare Frame outside any lock, swapped into the renderer, and the
// frame swapped out becomes the next spare. A Feeder is used from one
// goroutine.
type Feeder struct {
	renderer      *Renderer
	requestRender func()
	spare         *Frame
	frames        uint64
}

// NewFeeder creates a Feeder. requestRender is called after every swap and
// may be nil.
func NewFeeder(r *Renderer, requestRender func()) *Feeder {
	return &Feeder{renderer: r, requestRender: requestRender}
}

// Feed copies an NV21 frame of width x height and submits it.
func (f *Feeder) Feed(nv21 []byte, width, height int, ptsMicros int64) error {
	lumaSize := width * height
	chromaSize := 2 * (width / 2) * (height / 2)
	if width <= 0 || height <= 0 || len(nv21) < lumaSize+chromaSize {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrFrameSize, len(nv21), width, height)
	}

	spare := f.spare
	if spare == nil {
		spare = &Frame{}
	}
	spare.Luma = append(spare.Luma[:0], nv21[:lumaSize]...)
	spare.Chroma = append(spare.Chroma[:0], nv21[lumaSize:lumaSize+chromaSize]...)
	spare.Width, spare.Height = width, height
	spare.PTSMicros = ptsMicros

	if w, h := f.renderer.FrameSize(); w != width || h != height {
		f.renderer.SetFrameSize(width, height)
	}

	prev, err := f.renderer.Submit(spare)
	if err != nil {
		return err
	}
	f.spare = prev
	f.frames++

	if f.frames == 1 {
		logrus.WithFields(logrus.Fields{
			"function": "Feed",
			"width":    width,
			"height":   height,
			"pts_us":   ptsMicros,
		}).Debug("First frame submitted to renderer")
	}

	if f.requestRender != nil {
		f.requestRender()
	}
	return nil
}

// Frames returns how many frames were fed.
func (f *Feeder) Frames() uint64 {
	return f.frames
}
