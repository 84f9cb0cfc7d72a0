// Package config loads the player configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the complete player configuration.
type Config struct {
	Video    VideoConfig    `yaml:"video"`
	Decoder  DecoderConfig  `yaml:"decoder"`
	Playback PlaybackConfig `yaml:"playback"`
	Window   WindowConfig   `yaml:"window"`
	Detect   DetectConfig   `yaml:"detect"`
	Log      LogConfig      `yaml:"log"`
}

// VideoConfig selects the input and the delivered frame layout.
type VideoConfig struct {
	Path   string `yaml:"path"`
	Layout string `yaml:"layout"` // nv21, i420
}

// DecoderConfig tunes the decoder buffer queue.
type DecoderConfig struct {
	QueueTimeout time.Duration `yaml:"queue_timeout"`
	ColorFormat  string        `yaml:"color_format"` // empty negotiates; flexible, i420, yv12, nv12, nv21
}

// PlaybackConfig tunes presentation pacing.
type PlaybackConfig struct {
	IdleInterval time.Duration `yaml:"idle_interval"` // pause poll and clock sleep increment
}

// WindowConfig sizes the output window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// DetectConfig controls the face detection side channel.
type DetectConfig struct {
	Enabled  bool `yaml:"enabled"`
	MaxWidth int  `yaml:"max_width"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Video: VideoConfig{
			Layout: LayoutNV21,
		},
		Decoder: DecoderConfig{
			QueueTimeout: 10 * time.Millisecond,
		},
		Playback: PlaybackConfig{
			IdleInterval: 10 * time.Millisecond,
		},
		Window: WindowConfig{
			Title:  "nv21play",
			Width:  1280,
			Height: 720,
		},
		Detect: DetectConfig{
			MaxWidth: 640,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "config.Load",
		"path":     path,
		"video":    cfg.Video.Path,
		"detect":   cfg.Detect.Enabled,
	}).Debug("Configuration loaded")
	return cfg, nil
}
