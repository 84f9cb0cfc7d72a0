package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/nv21play/codec"
	"github.com/opd-ai/nv21play/video"
	"github.com/sirupsen/logrus"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Layout names accepted in video.layout.
const (
	LayoutNV21 = "nv21"
	LayoutI420 = "i420"
)

var colorFormats = map[string]codec.ColorFormat{
	"":         codec.ColorFormatUnknown,
	"flexible": codec.ColorFormatYUV420Flexible,
	"i420":     codec.ColorFormatI420,
	"yv12":     codec.ColorFormatYV12,
	"nv12":     codec.ColorFormatNV12,
	"nv21":     codec.ColorFormatNV21,
}

// Validate checks value ranges and names. Zero durations and sizes fall
// back to the defaults.
func (c *Config) Validate() error {
	def := Default()

	if _, err := c.Layout(); err != nil {
		return err
	}
	if _, err := c.ColorFormat(); err != nil {
		return err
	}

	if c.Decoder.QueueTimeout < 0 {
		return fmt.Errorf("%w: decoder.queue_timeout must be >= 0", ErrInvalid)
	}
	if c.Decoder.QueueTimeout == 0 {
		c.Decoder.QueueTimeout = def.Decoder.QueueTimeout
	}
	if c.Playback.IdleInterval < 0 {
		return fmt.Errorf("%w: playback.idle_interval must be >= 0", ErrInvalid)
	}
	if c.Playback.IdleInterval == 0 {
		c.Playback.IdleInterval = def.Playback.IdleInterval
	}

	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Window.Width == 0 || c.Window.Height == 0 {
		c.Window.Width, c.Window.Height = def.Window.Width, def.Window.Height
	}

	if c.Detect.MaxWidth < 0 || c.Detect.MaxWidth%2 != 0 {
		return fmt.Errorf("%w: detect.max_width must be even and >= 0, got %d", ErrInvalid, c.Detect.MaxWidth)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// Layout returns the repacker layout named by video.layout.
func (c *Config) Layout() (video.Layout, error) {
	switch strings.ToLower(c.Video.Layout) {
	case LayoutNV21, "":
		return video.LayoutNV21, nil
	case LayoutI420:
		return video.LayoutI420, nil
	default:
		return 0, fmt.Errorf("%w: video.layout %q", ErrInvalid, c.Video.Layout)
	}
}

// ColorFormat returns the decoder color format named by
// decoder.color_format. ColorFormatUnknown means negotiate.
func (c *Config) ColorFormat() (codec.ColorFormat, error) {
	cf, ok := colorFormats[strings.ToLower(c.Decoder.ColorFormat)]
	if !ok {
		return codec.ColorFormatUnknown, fmt.Errorf("%w: decoder.color_format %q", ErrInvalid, c.Decoder.ColorFormat)
	}
	return cf, nil
}
