package detect

import (
	"sync"
	"sync/atomic"

	"github.com/opd-ai/nv21play/video"
	"github.com/sirupsen/logrus"
)

// DefaultMaxWidth is the detection frame width used when none is set.
const DefaultMaxWidth = 640

type job struct {
	data      []byte
	width     int
	height    int
	ptsMicros int64
}

// Dispatcher runs a Detector on its own goroutine over the latest
// submitted frame. Frames submitted while the detector is busy overwrite
// each other; only the newest one is processed.
type Dispatcher struct {
	detector Detector
	onResult func(Result)
	scaler   *video.Scaler
	maxWidth int

	mu      sync.Mutex
	cond    *sync.Cond
	pending *job
	free    []*job
	closed  bool

	submitted atomic.Uint64
	dropped   atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64

	wg sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxWidth shrinks frames wider than w before detection. Zero or a
// negative value disables scaling.
func WithMaxWidth(w int) Option {
	return func(d *Dispatcher) {
		d.maxWidth = w
	}
}

// NewDispatcher starts a dispatcher goroutine. onResult is called on that
// goroutine after every successful detection and may be nil.
func NewDispatcher(detector Detector, onResult func(Result), opts ...Option) *Dispatcher {
	d := &Dispatcher{
		detector: detector,
		onResult: onResult,
		scaler:   video.NewScaler(),
		maxWidth: DefaultMaxWidth,
	}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(1)
	go d.loop()
	return d
}

// Submit copies an NV21 frame and queues it for detection, replacing any
// frame still waiting. It never blocks on the detector.
func (d *Dispatcher) Submit(nv21 []byte, width, height int, ptsMicros int64) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	j := d.takeFree()
	d.mu.Unlock()

	j.data = append(j.data[:0], nv21...)
	j.width, j.height, j.ptsMicros = width, height, ptsMicros

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.pending != nil {
		d.dropped.Add(1)
		d.free = append(d.free, d.pending)
	}
	d.pending = j
	d.cond.Signal()
	d.mu.Unlock()

	d.submitted.Add(1)
	return nil
}

// takeFree runs with mu held.
func (d *Dispatcher) takeFree() *job {
	if n := len(d.free); n > 0 {
		j := d.free[n-1]
		d.free = d.free[:n-1]
		return j
	}
	return &job{}
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for d.pending == nil && !d.closed {
			d.cond.Wait()
		}
		if d.closed {
			d.mu.Unlock()
			return
		}
		j := d.pending
		d.pending = nil
		d.mu.Unlock()

		d.process(j)

		d.mu.Lock()
		d.free = append(d.free, j)
		d.mu.Unlock()
	}
}

func (d *Dispatcher) process(j *job) {
	dw, dh := d.scaler.FitWidth(j.width, j.height, d.maxWidth)
	frame, err := d.scaler.ScaleNV21(j.data, j.width, j.height, dw, dh)
	if err != nil {
		d.failed.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "process",
			"width":    j.width,
			"height":   j.height,
			"error":    err.Error(),
		}).Warn("Cannot prepare frame for detection")
		return
	}

	faces, err := d.detector.Detect(frame, dw, dh)
	if err != nil {
		d.failed.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "process",
			"pts_us":   j.ptsMicros,
			"error":    err.Error(),
		}).Warn("Detection failed")
		return
	}
	d.processed.Add(1)

	for i := range faces {
		faces[i].Rect = scaleRect(faces[i].Rect, dw, dh, j.width, j.height)
	}
	if len(faces) > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "process",
			"pts_us":   j.ptsMicros,
			"faces":    len(faces),
		}).Debug("Faces detected")
	}
	if d.onResult != nil {
		d.onResult(Result{Faces: faces, Width: j.width, Height: j.height, PTSMicros: j.ptsMicros})
	}
}

// Close stops the dispatcher goroutine and waits for the detection in
// progress to finish. A pending frame is discarded.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()

	d.wg.Wait()

	logrus.WithFields(logrus.Fields{
		"function":  "Close",
		"submitted": d.submitted.Load(),
		"processed": d.processed.Load(),
		"dropped":   d.dropped.Load(),
	}).Debug("Detection dispatcher stopped")
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Submitted uint64
	Processed uint64
	Dropped   uint64
	Failed    uint64
}

// Stats returns the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted: d.submitted.Load(),
		Processed: d.processed.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
