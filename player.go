package nv21play

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/nv21play/config"
	"github.com/opd-ai/nv21play/detect"
	"github.com/opd-ai/nv21play/render"
	"github.com/opd-ai/nv21play/session"
	"github.com/opd-ai/nv21play/video"
	"github.com/sirupsen/logrus"
)

// ErrLayoutMismatch is returned when a renderer is attached to a player
// configured for a layout other than NV21.
var ErrLayoutMismatch = errors.New("renderer requires nv21 layout")

// Options configures a Player.
type Options struct {
	// Config supplies timeouts, layout and detection settings. Nil means
	// config.Default().
	Config *config.Config

	// Renderer receives every frame through a render.Feeder. Optional.
	Renderer *render.Renderer

	// RequestRender is called after each frame reaches the renderer,
	// typically to wake the GL thread.
	RequestRender func()

	// Detector enables the detection side channel when Config.Detect is
	// enabled. Nil uses detect.Noop.
	Detector detect.Detector

	// SessionOptions are appended after the options derived from Config.
	SessionOptions []session.Option
}

// NewOptions returns Options with the default configuration.
func NewOptions() *Options {
	return &Options{Config: config.Default()}
}

// Player plays one file and fans delivered frames out to a renderer, a
// detector and user callbacks.
type Player struct {
	cfg        *config.Config
	sess       *session.Session
	feeder     *render.Feeder
	dispatcher *detect.Dispatcher

	// Worker-owned frame size.
	width  int
	height int

	mu         sync.RWMutex
	faces      detect.Result
	preparedCb func(width, height int)
	frameCb    func(frame []byte, width, height int, ptsMicros int64)
	facesCb    func(result detect.Result)
	errorCb    func(err error)
	stoppedCb  func()

	killOnce sync.Once
}

// NewPlayer creates a stopped player for the file at path.
func NewPlayer(path string, opts *Options) (*Player, error) {
	if opts == nil {
		opts = NewOptions()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}
	colorFormat, err := cfg.ColorFormat()
	if err != nil {
		return nil, err
	}
	if opts.Renderer != nil && layout != video.LayoutNV21 {
		return nil, fmt.Errorf("%w: configured %s", ErrLayoutMismatch, layout)
	}

	p := &Player{cfg: cfg}
	if opts.Renderer != nil {
		p.feeder = render.NewFeeder(opts.Renderer, opts.RequestRender)
	}
	if cfg.Detect.Enabled {
		det := opts.Detector
		if det == nil {
			det = detect.Noop{}
		}
		p.dispatcher = detect.NewDispatcher(det, p.onFaces, detect.WithMaxWidth(cfg.Detect.MaxWidth))
	}

	sessOpts := []session.Option{
		session.WithQueueTimeout(cfg.Decoder.QueueTimeout),
		session.WithIdleInterval(cfg.Playback.IdleInterval),
		session.WithLayout(layout),
		session.WithColorFormat(colorFormat),
	}
	p.sess = session.New(path, &playerListener{p: p}, append(sessOpts, opts.SessionOptions...)...)

	logrus.WithFields(logrus.Fields{
		"function":   "NewPlayer",
		"session_id": p.sess.ID(),
		"path":       path,
		"renderer":   opts.Renderer != nil,
		"detect":     cfg.Detect.Enabled,
	}).Info("Player created")
	return p, nil
}

// Play starts playback.
func (p *Player) Play() error {
	return p.sess.Play()
}

// Pause suspends playback.
func (p *Player) Pause() error {
	return p.sess.Pause()
}

// Resume continues paused playback.
func (p *Player) Resume() error {
	return p.sess.ContinuePlay()
}

// Stop ends playback without waiting for the worker.
func (p *Player) Stop() error {
	return p.sess.Stop()
}

// Kill stops playback, waits for the decode worker to release its
// resources and shuts down detection. It is safe to call more than once.
func (p *Player) Kill() {
	p.killOnce.Do(func() {
		p.sess.Destroy()
		<-p.sess.Done()
		if p.dispatcher != nil {
			p.dispatcher.Close()
		}
		logrus.WithFields(logrus.Fields{
			"function":   "Kill",
			"session_id": p.sess.ID(),
		}).Info("Player killed")
	})
}

// Done is closed when playback has ended.
func (p *Player) Done() <-chan struct{} {
	return p.sess.Done()
}

// State returns the session state.
func (p *Player) State() session.State {
	return p.sess.State()
}

// IsPlaying reports whether frames are being delivered.
func (p *Player) IsPlaying() bool {
	return p.sess.IsPlaying()
}

// Err returns the error that ended playback, if any.
func (p *Player) Err() error {
	return p.sess.Err()
}

// Stats returns the session counters.
func (p *Player) Stats() session.Stats {
	return p.sess.Stats()
}

// DetectStats returns the detection counters. The zero value is returned
// when detection is disabled.
func (p *Player) DetectStats() detect.Stats {
	if p.dispatcher == nil {
		return detect.Stats{}
	}
	return p.dispatcher.Stats()
}

// Faces returns the most recent detection result.
func (p *Player) Faces() detect.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.faces
}

// CallbackPrepared sets the function called once the track is known.
func (p *Player) CallbackPrepared(cb func(width, height int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preparedCb = cb
}

// CallbackFrame sets the function called for every delivered frame. The
// frame is only valid during the call.
func (p *Player) CallbackFrame(cb func(frame []byte, width, height int, ptsMicros int64)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameCb = cb
}

// CallbackFaces sets the function called after each detection.
func (p *Player) CallbackFaces(cb func(result detect.Result)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.facesCb = cb
}

// CallbackError sets the function called when playback fails.
func (p *Player) CallbackError(cb func(err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorCb = cb
}

// CallbackStopped sets the function called once playback has ended.
func (p *Player) CallbackStopped(cb func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stoppedCb = cb
}

func (p *Player) onFaces(result detect.Result) {
	p.mu.Lock()
	p.faces = result
	cb := p.facesCb
	p.mu.Unlock()
	if cb != nil {
		cb(result)
	}
}

// playerListener keeps the session callbacks off the Player API.
type playerListener struct {
	p *Player
}

func (l *playerListener) OnPrepared(width, height int) {
	p := l.p
	p.width, p.height = width, height

	p.mu.RLock()
	cb := p.preparedCb
	p.mu.RUnlock()
	if cb != nil {
		cb(width, height)
	}
}

func (l *playerListener) OnFormatChanged(width, height int) {
	l.p.width, l.p.height = width, height
}

func (l *playerListener) OnPreviewCallback(frame []byte, ptsMicros int64) {
	p := l.p
	w, h := p.width, p.height

	if p.feeder != nil {
		if err := p.feeder.Feed(frame, w, h, ptsMicros); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "OnPreviewCallback",
				"pts_us":   ptsMicros,
				"error":    err.Error(),
			}).Warn("Renderer rejected frame")
		}
	}
	if p.dispatcher != nil {
		// Only fails after Kill, when frames no longer matter.
		_ = p.dispatcher.Submit(frame, w, h, ptsMicros)
	}

	p.mu.RLock()
	cb := p.frameCb
	p.mu.RUnlock()
	if cb != nil {
		cb(frame, w, h, ptsMicros)
	}
}

func (l *playerListener) OnError(err error) {
	l.p.mu.RLock()
	cb := l.p.errorCb
	l.p.mu.RUnlock()
	if cb != nil {
		cb(err)
	}
}

func (l *playerListener) OnStopped() {
	l.p.mu.RLock()
	cb := l.p.stoppedCb
	l.p.mu.RUnlock()
	if cb != nil {
		cb()
	}
}
