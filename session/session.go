package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/nv21play/clock"
	"github.com/opd-ai/nv21play/codec"
	"github.com/opd-ai/nv21play/container"
	"github.com/opd-ai/nv21play/video"
	"github.com/sirupsen/logrus"
)

// Listener receives playback events from the decode worker.
//
// Callbacks run on the worker goroutine. The frame passed to
// OnPreviewCallback is reused for the next frame; it is valid only until
// the callback returns.
type Listener interface {
	// OnPrepared fires once, before any frame, with the track dimensions.
	OnPrepared(width, height int)
	// OnPreviewCallback fires once per delivered frame.
	OnPreviewCallback(frame []byte, ptsMicros int64)
	// OnStopped fires exactly once when the session ends for any reason.
	OnStopped()
}

// ErrorListener is implemented by listeners that want fatal errors.
type ErrorListener interface {
	OnError(err error)
}

// FormatListener is implemented by listeners that track frame size
// changes after OnPrepared.
type FormatListener interface {
	OnFormatChanged(width, height int)
}

// Session plays one container file on a dedicated worker goroutine.
//
// The worker exclusively owns the container reader and the decoder. Control
// methods may be called from any goroutine.
type Session struct {
	id       string
	path     string
	listener Listener

	tp           clock.TimeProvider
	queueTimeout time.Duration
	idleInterval time.Duration
	openReader   ReaderFactory
	newDecoder   DecoderFactory
	layout       video.Layout
	colorFormat  codec.ColorFormat

	mu     sync.RWMutex
	state  State
	err    error
	clock  *clock.Clock
	ctx    context.Context
	cancel context.CancelFunc

	done        chan struct{}
	stoppedOnce sync.Once
	stats       counters

	// Worker-owned.
	frameBuf   video.FrameBuffer
	repacker   *video.Repacker
	checked    bool
	lastWidth  int
	lastHeight int
}

// New creates an idle session for the file at path.
//
// Nothing is opened until Play: the worker then opens the container, picks
// the first video track, negotiates a color format with the decoder and
// starts delivering repacked frames to listener. Options override the
// reader and decoder factories, the time source and the queue timeouts.
//
// Parameters:
//   - path: Container file to play (IVF, Y4M or MP4)
//   - listener: Receives prepared, frame and stopped callbacks; may also
//     implement FormatListener and ErrorListener. May be nil.
//   - opts: Functional options applied in order
//
// Returns:
//   - *Session: Session in StateIdle
func New(path string, listener Listener, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:           uuid.NewString(),
		path:         path,
		listener:     listener,
		tp:           clock.DefaultTimeProvider{},
		queueTimeout: DefaultQueueTimeout,
		idleInterval: DefaultIdleInterval,
		openReader:   container.Open,
		newDecoder:   codec.NewDecoderByType,
		layout:       video.LayoutNV21,
		state:        StateIdle,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.repacker = video.NewRepacker(s.layout)

	logrus.WithFields(logrus.Fields{
		"function":   "session.New",
		"session_id": s.id,
		"path":       path,
		"layout":     s.layout.String(),
	}).Debug("Session created")
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// State returns the current playback state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsPlaying reports whether the session is in the Playing state.
func (s *Session) IsPlaying() bool {
	return s.State() == StatePlaying
}

// Done is closed once the session has fully stopped and released its
// reader and decoder.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the fatal error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return s.stats.snapshot()
}

// transition moves from -> to, failing when the session is elsewhere.
// apply, if set, runs on the playback clock under the same lock, so the
// clock never disagrees with the state the worker observes.
func (s *Session) transition(op string, from, to State, apply func(*clock.Clock)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return fmt.Errorf("%s from %s: %w", op, s.state, ErrInvalidTransition)
	}
	s.state = to
	if apply != nil && s.clock != nil {
		apply(s.clock)
	}

	logrus.WithFields(logrus.Fields{
		"function":   op,
		"session_id": s.id,
		"from":       from.String(),
		"to":         to.String(),
	}).Info("Session state changed")
	return nil
}

// Play starts the worker. It is only valid from Idle.
func (s *Session) Play() error {
	if err := s.transition("Play", StateIdle, StatePlaying, nil); err != nil {
		return err
	}
	go s.run(s.ctx)
	return nil
}

// Pause suspends decoding. The worker keeps polling for resume or stop.
func (s *Session) Pause() error {
	return s.transition("Pause", StatePlaying, StatePaused, (*clock.Clock).Pause)
}

// ContinuePlay resumes a paused session.
func (s *Session) ContinuePlay() error {
	return s.transition("ContinuePlay", StatePaused, StatePlaying, (*clock.Clock).Resume)
}

// Stop signals the worker to exit and moves to Stopped. It does not wait
// for the worker; use Done for that.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return fmt.Errorf("Stop from %s: %w", StateStopped, ErrInvalidTransition)
	}
	wasIdle := s.state == StateIdle
	s.state = StateStopped
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "Stop",
		"session_id": s.id,
		"was_idle":   wasIdle,
	}).Info("Stopping session")

	s.cancel()
	if wasIdle {
		// No worker was ever started.
		s.finish()
		close(s.done)
	}
	return nil
}

// Destroy stops the session from any state. It is safe to call more than
// once and from any goroutine, including from a listener callback.
//
// Destroy does not block. The worker checks for cancellation immediately
// before each frame callback, so after Destroy returns at most one frame
// callback that had already passed that check can still run. Use Done to
// wait until no callback can run at all.
func (s *Session) Destroy() {
	// Already stopped is the only possible error.
	_ = s.Stop()
}

// finish moves to Stopped and fires OnStopped exactly once.
func (s *Session) finish() {
	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	s.stoppedOnce.Do(func() {
		stats := s.stats.snapshot()
		logrus.WithFields(logrus.Fields{
			"function":          "finish",
			"session_id":        s.id,
			"samples_submitted": stats.SamplesSubmitted,
			"frames_delivered":  stats.FramesDelivered,
			"frames_dropped":    stats.FramesDropped,
		}).Info("Session stopped")
		if s.listener != nil {
			s.listener.OnStopped()
		}
	})
}

// fail records the first fatal error and reports it.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "run",
		"session_id": s.id,
		"path":       s.path,
		"error":      err.Error(),
	}).Error("Session failed")

	if el, ok := s.listener.(ErrorListener); ok {
		el.OnError(err)
	}
}
