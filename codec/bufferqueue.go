package codec

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/nv21play/container"
	"github.com/sirupsen/logrus"
)

const (
	defaultInputSlots  = 4
	defaultOutputSlots = 4
)

// pictureSource decodes access units into planar pictures. Pictures returned
// by one call stay valid until the next call.
type pictureSource interface {
	Decode(data []byte, ptsMicros int64) ([]picture, error)
	// Flush drains pictures held back for reordering.
	Flush() ([]picture, error)
	Close() error
}

type sourceOpener func(track container.Track) (pictureSource, error)

type inputBuffer struct {
	data []byte
	pts  int64
	eos  bool
	held bool
}

type outputBuffer struct {
	img   Image
	info  BufferInfo
	owned bool
}

// bufferQueue implements Decoder for software backends. A decode goroutine
// moves submitted input slots through a pictureSource and lays each picture
// out in a recycled output buffer.
type bufferQueue struct {
	name     string
	open     sourceOpener
	rowAlign int

	mu         sync.Mutex
	format     ColorFormat
	source     pictureSource
	configured bool
	started    bool
	sawEOS     bool
	inputs     []inputBuffer
	outputs    []outputBuffer

	freeIn   chan int
	queuedIn chan int
	freeOut  chan int
	events   chan Output

	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	curWidth  int
	curHeight int

	dropped atomic.Uint64
}

func newBufferQueue(name string, open sourceOpener) *bufferQueue {
	q := &bufferQueue{
		name:     name,
		open:     open,
		rowAlign: 1,
		inputs:   make([]inputBuffer, defaultInputSlots),
		outputs:  make([]outputBuffer, defaultOutputSlots),
		freeIn:   make(chan int, defaultInputSlots),
		queuedIn: make(chan int, defaultInputSlots),
		freeOut:  make(chan int, defaultOutputSlots),
		// Every image event holds an output buffer and at most one format
		// change precedes it, plus the end-of-stream buffer.
		events: make(chan Output, 2*defaultOutputSlots+2),
		stop:   make(chan struct{}),
	}
	for i := 0; i < defaultInputSlots; i++ {
		q.freeIn <- i
	}
	for i := 0; i < defaultOutputSlots; i++ {
		q.freeOut <- i
	}
	return q
}

// Name returns the backend name.
func (q *bufferQueue) Name() string {
	return q.name
}

// Capabilities reports the layouts the queue can produce.
func (q *bufferQueue) Capabilities() Capabilities {
	formats := make([]ColorFormat, len(softwareFormats))
	copy(formats, softwareFormats)
	return Capabilities{ColorFormats: formats}
}

// DroppedFrames counts samples the backend could not decode.
func (q *bufferQueue) DroppedFrames() uint64 {
	return q.dropped.Load()
}

// Configure opens the picture source for track.
func (q *bufferQueue) Configure(track container.Track, format ColorFormat) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return newError("configure", q.name, ErrAlreadyStarted)
	}
	if !q.Capabilities().Supports(format) {
		return newError("configure", q.name, fmt.Errorf("%w: %s", ErrUnsupportedColorFormat, format))
	}

	source, err := q.open(track)
	if err != nil {
		return newError("configure", q.name, err)
	}
	if q.source != nil {
		q.source.Close()
	}
	q.source = source
	q.format = format
	q.configured = true

	logrus.WithFields(logrus.Fields{
		"function":     "Configure",
		"decoder":      q.name,
		"mime":         track.MIME,
		"width":        track.Width,
		"height":       track.Height,
		"color_format": format.String(),
	}).Info("Decoder configured")
	return nil
}

// Start launches the decode goroutine.
func (q *bufferQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.configured {
		return newError("start", q.name, ErrNotConfigured)
	}
	if q.started {
		return newError("start", q.name, ErrAlreadyStarted)
	}
	select {
	case <-q.stop:
		return newError("start", q.name, ErrClosed)
	default:
	}

	q.started = true
	q.wg.Add(1)
	go q.run()
	return nil
}

func (q *bufferQueue) checkRunning(op string) error {
	select {
	case <-q.stop:
		return newError(op, q.name, ErrClosed)
	default:
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return newError(op, q.name, ErrNotStarted)
	}
	return nil
}

// AcquireInputSlot waits up to timeout for a free input slot.
func (q *bufferQueue) AcquireInputSlot(timeout time.Duration) (int, bool, error) {
	if err := q.checkRunning("acquire input"); err != nil {
		return -1, false, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case slot := <-q.freeIn:
		q.mu.Lock()
		q.inputs[slot].held = true
		q.mu.Unlock()
		return slot, true, nil
	case <-timer.C:
		return -1, false, nil
	case <-q.stop:
		return -1, false, newError("acquire input", q.name, ErrClosed)
	}
}

// SubmitInput queues an acquired slot for decoding. The queue takes
// ownership of data.
func (q *bufferQueue) SubmitInput(slot int, data []byte, ptsMicros int64, eos bool) error {
	if err := q.checkRunning("submit input"); err != nil {
		return err
	}

	q.mu.Lock()
	if slot < 0 || slot >= len(q.inputs) || !q.inputs[slot].held {
		q.mu.Unlock()
		return newError("submit input", q.name, fmt.Errorf("%w: %d", ErrInvalidSlot, slot))
	}
	if q.sawEOS {
		q.mu.Unlock()
		return newError("submit input", q.name, ErrInputAfterEOS)
	}
	q.inputs[slot] = inputBuffer{data: data, pts: ptsMicros, eos: eos}
	q.sawEOS = eos
	q.mu.Unlock()

	q.queuedIn <- slot
	return nil
}

// PollOutput waits up to timeout for the next output event.
func (q *bufferQueue) PollOutput(timeout time.Duration) (Output, error) {
	if err := q.checkRunning("poll output"); err != nil {
		return Output{}, err
	}

	// Drain ready events before honoring a zero timeout.
	select {
	case out := <-q.events:
		return out, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-q.events:
		return out, nil
	case <-timer.C:
		return Output{Kind: OutputTryAgain}, nil
	case <-q.stop:
		return Output{}, newError("poll output", q.name, ErrClosed)
	}
}

// ReleaseOutput returns an output buffer to the queue. Software backends
// have no surface, so render only affects logging.
func (q *bufferQueue) ReleaseOutput(index int, render bool) error {
	q.mu.Lock()
	if index < 0 || index >= len(q.outputs) || !q.outputs[index].owned {
		q.mu.Unlock()
		return newError("release output", q.name, fmt.Errorf("%w: index %d", ErrBufferRelease, index))
	}
	q.outputs[index].owned = false
	pts := q.outputs[index].info.PTSMicros
	q.mu.Unlock()

	q.freeOut <- index

	logrus.WithFields(logrus.Fields{
		"function": "ReleaseOutput",
		"decoder":  q.name,
		"index":    index,
		"pts_us":   pts,
		"render":   render,
	}).Debug("Output buffer released")
	return nil
}

// Close stops the decode goroutine and closes the picture source.
func (q *bufferQueue) Close() error {
	var err error
	q.stopOnce.Do(func() {
		close(q.stop)
		q.wg.Wait()

		q.mu.Lock()
		defer q.mu.Unlock()
		if q.source != nil {
			err = q.source.Close()
		}

		logrus.WithFields(logrus.Fields{
			"function": "Close",
			"decoder":  q.name,
			"dropped":  q.dropped.Load(),
		}).Debug("Decoder closed")
	})
	return err
}

func (q *bufferQueue) run() {
	defer q.wg.Done()

	for {
		var slot int
		select {
		case <-q.stop:
			return
		case slot = <-q.queuedIn:
		}

		q.mu.Lock()
		in := q.inputs[slot]
		q.inputs[slot] = inputBuffer{}
		source := q.source
		q.mu.Unlock()
		q.freeIn <- slot

		if len(in.data) > 0 {
			pics, err := source.Decode(in.data, in.pts)
			if err != nil {
				q.drop(in.pts, err)
			}
			if !q.emitPictures(pics) {
				return
			}
		}

		if in.eos {
			pics, err := source.Flush()
			if err != nil {
				q.drop(in.pts, err)
			}
			if !q.emitPictures(pics) {
				return
			}
			q.emitEndOfStream(in.pts)
			return
		}
	}
}

func (q *bufferQueue) drop(pts int64, err error) {
	n := q.dropped.Add(1)
	logrus.WithFields(logrus.Fields{
		"function": "run",
		"decoder":  q.name,
		"pts_us":   pts,
		"dropped":  n,
		"error":    err.Error(),
	}).Warn("Dropping undecodable sample")
}

// acquireOutput blocks until an output buffer is free or the queue stops.
func (q *bufferQueue) acquireOutput() (int, bool) {
	select {
	case idx := <-q.freeOut:
		return idx, true
	case <-q.stop:
		return -1, false
	}
}

func (q *bufferQueue) send(out Output) bool {
	select {
	case q.events <- out:
		return true
	case <-q.stop:
		return false
	}
}

func (q *bufferQueue) emitPictures(pics []picture) bool {
	for i := range pics {
		pic := &pics[i]
		idx, ok := q.acquireOutput()
		if !ok {
			return false
		}

		q.mu.Lock()
		buf := &q.outputs[idx]
		layoutPicture(&buf.img, q.format, q.rowAlign, pic)
		size := 0
		for _, p := range buf.img.Planes {
			size += len(p.Data)
		}
		buf.info = BufferInfo{PTSMicros: pic.pts, Size: size}
		buf.owned = true
		img := &buf.img
		info := buf.info
		q.mu.Unlock()

		if pic.width != q.curWidth || pic.height != q.curHeight {
			q.curWidth, q.curHeight = pic.width, pic.height
			logrus.WithFields(logrus.Fields{
				"function": "emitPictures",
				"decoder":  q.name,
				"width":    pic.width,
				"height":   pic.height,
			}).Info("Output format changed")
			if !q.send(Output{
				Kind:   OutputFormatChanged,
				Format: OutputFormat{Width: pic.width, Height: pic.height, ColorFormat: q.format},
			}) {
				return false
			}
		}

		if !q.send(Output{Kind: OutputImageReady, Index: idx, Info: info, Image: img}) {
			return false
		}
	}
	return true
}

func (q *bufferQueue) emitEndOfStream(pts int64) {
	idx, ok := q.acquireOutput()
	if !ok {
		return
	}
	q.mu.Lock()
	q.outputs[idx].info = BufferInfo{PTSMicros: pts, EndOfStream: true}
	q.outputs[idx].owned = true
	info := q.outputs[idx].info
	q.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "emitEndOfStream",
		"decoder":  q.name,
		"index":    idx,
	}).Debug("End of stream reached")
	q.send(Output{Kind: OutputImageReady, Index: idx, Info: info})
}
