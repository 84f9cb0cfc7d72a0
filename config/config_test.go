package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opd-ai/nv21play/codec"
	"github.com/opd-ai/nv21play/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nv21play.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Millisecond, cfg.Decoder.QueueTimeout)
	assert.Equal(t, 10*time.Millisecond, cfg.Playback.IdleInterval)
	assert.Equal(t, 640, cfg.Detect.MaxWidth)

	layout, err := cfg.Layout()
	require.NoError(t, err)
	assert.Equal(t, video.LayoutNV21, layout)

	cf, err := cfg.ColorFormat()
	require.NoError(t, err)
	assert.Equal(t, codec.ColorFormatUnknown, cf)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
video:
  path: /data/clip.mp4
  layout: i420
decoder:
  queue_timeout: 25ms
  color_format: NV12
playback:
  idle_interval: 5ms
window:
  title: demo
detect:
  enabled: true
  max_width: 320
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/clip.mp4", cfg.Video.Path)
	assert.Equal(t, 25*time.Millisecond, cfg.Decoder.QueueTimeout)
	assert.Equal(t, 5*time.Millisecond, cfg.Playback.IdleInterval)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width, "unset fields keep defaults")
	assert.True(t, cfg.Detect.Enabled)
	assert.Equal(t, 320, cfg.Detect.MaxWidth)
	assert.Equal(t, "json", cfg.Log.Format)

	layout, err := cfg.Layout()
	require.NoError(t, err)
	assert.Equal(t, video.LayoutI420, layout)

	cf, err := cfg.ColorFormat()
	require.NoError(t, err)
	assert.Equal(t, codec.ColorFormatNV12, cf)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "video: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "video:\n  layout: rgb\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown layout", func(c *Config) { c.Video.Layout = "yuy2" }, true},
		{"unknown color format", func(c *Config) { c.Decoder.ColorFormat = "rgba" }, true},
		{"negative queue timeout", func(c *Config) { c.Decoder.QueueTimeout = -time.Millisecond }, true},
		{"negative idle interval", func(c *Config) { c.Playback.IdleInterval = -time.Millisecond }, true},
		{"negative window", func(c *Config) { c.Window.Width = -1 }, true},
		{"odd detect width", func(c *Config) { c.Detect.MaxWidth = 321 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"zero durations fall back", func(c *Config) {
			c.Decoder.QueueTimeout = 0
			c.Playback.IdleInterval = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, cfg.Decoder.QueueTimeout)
			assert.Positive(t, cfg.Playback.IdleInterval)
		})
	}
}
