package session

import (
	"time"

	"github.com/opd-ai/nv21play/clock"
	"github.com/opd-ai/nv21play/codec"
	"github.com/opd-ai/nv21play/container"
	"github.com/opd-ai/nv21play/video"
)

const (
	// DefaultQueueTimeout bounds each decoder input/output queue wait.
	DefaultQueueTimeout = 10 * time.Millisecond

	// DefaultIdleInterval is the sleep between checks while paused.
	DefaultIdleInterval = 10 * time.Millisecond
)

// ReaderFactory opens a container.
type ReaderFactory func(path string) (container.Reader, error)

// DecoderFactory creates a decoder for a codec MIME type.
type DecoderFactory func(mime string) (codec.Decoder, error)

// Option configures a Session.
type Option func(*Session)

// WithTimeProvider sets the time source used for pacing and idle sleeps.
func WithTimeProvider(tp clock.TimeProvider) Option {
	return func(s *Session) {
		if tp != nil {
			s.tp = tp
		}
	}
}

// WithQueueTimeout sets the decoder queue timeout.
func WithQueueTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.queueTimeout = d
		}
	}
}

// WithIdleInterval sets the sleep increment used while paused and inside
// presentation waits.
func WithIdleInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.idleInterval = d
		}
	}
}

// WithReaderFactory replaces container.Open.
func WithReaderFactory(f ReaderFactory) Option {
	return func(s *Session) {
		if f != nil {
			s.openReader = f
		}
	}
}

// WithDecoderFactory replaces codec.NewDecoderByType.
func WithDecoderFactory(f DecoderFactory) Option {
	return func(s *Session) {
		if f != nil {
			s.newDecoder = f
		}
	}
}

// WithLayout selects the repacked frame layout (NV21 by default).
func WithLayout(l video.Layout) Option {
	return func(s *Session) {
		s.layout = l
	}
}

// WithColorFormat forces the decoder output color format instead of
// negotiating it from the decoder capabilities.
func WithColorFormat(cf codec.ColorFormat) Option {
	return func(s *Session) {
		s.colorFormat = cf
	}
}
