package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/nv21play/config"
	"github.com/opd-ai/nv21play/render"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCLIFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    CLIConfig
		wantErr bool
	}{
		{
			name: "positional file",
			args: []string{"clip.ivf"},
			want: CLIConfig{file: "clip.ivf"},
		},
		{
			name: "flags",
			args: []string{"-config", "p.yaml", "-log-level", "debug", "-detect", "-headless", "-snapshot", "out.png"},
			want: CLIConfig{configPath: "p.yaml", logLevel: "debug", detect: true, headless: true, snapshot: "out.png"},
		},
		{
			name: "file flag wins over positional",
			args: []string{"-file", "a.y4m", "b.y4m"},
			want: CLIConfig{file: "a.y4m"},
		},
		{
			name:    "extra arguments",
			args:    []string{"a.y4m", "b.y4m"},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			args:    []string{"-bogus"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := parseCLIFlags(tt.args, &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestPrintUsage(t *testing.T) {
	var out bytes.Buffer
	printUsage(&out)
	for _, flagName := range []string{"-config", "-file", "-log-level", "-snapshot", "-detect", "-headless"} {
		assert.Contains(t, out.String(), flagName)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	yaml := strings.Join([]string{
		"video:",
		"  path: from-file.ivf",
		"playback:",
		"  idle_interval: 25ms",
		"log:",
		"  level: warn",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := loadConfig(&CLIConfig{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file.ivf", cfg.Video.Path)
	assert.Equal(t, 25*time.Millisecond, cfg.Playback.IdleInterval)
	assert.Equal(t, "warn", cfg.Log.Level)

	cfg, err = loadConfig(&CLIConfig{configPath: path, file: "cli.y4m", logLevel: "debug", logFormat: "json", detect: true})
	require.NoError(t, err)
	assert.Equal(t, "cli.y4m", cfg.Video.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Detect.Enabled)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(&CLIConfig{})
	assert.Error(t, err, "no video file")

	_, err = loadConfig(&CLIConfig{file: "a.ivf", logFormat: "xml"})
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = loadConfig(&CLIConfig{configPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	logPath := filepath.Join(t.TempDir(), "play.log")
	closer, err := setupLogging(config.LogConfig{Level: "debug", Format: "json", File: logPath})
	require.NoError(t, err)
	logrus.WithField("function", "TestSetupLogging").Debug("hello")
	require.NoError(t, closer.Close())
	logrus.SetOutput(os.Stderr)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	closer, err = setupLogging(config.LogConfig{Level: "info", Format: "text"})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())

	_, err = setupLogging(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestWriteSnapshot(t *testing.T) {
	r := render.New(nil)
	path := filepath.Join(t.TempDir(), "last.png")
	assert.ErrorIs(t, writeSnapshot(r, path), render.ErrNoFrame)

	feeder := render.NewFeeder(r, nil)
	nv21 := make([]byte, 4*2*3/2)
	for i := range nv21 {
		nv21[i] = 0x80
	}
	require.NoError(t, feeder.Feed(nv21, 4, 2, 0))
	require.NoError(t, writeSnapshot(r, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestPlayHeadless(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("YUV4MPEG2 W8 H4 F30:1 Ip A1:1 C420jpeg\n")
	for n := 0; n < 3; n++ {
		buf.WriteString("FRAME\n")
		buf.Write(bytes.Repeat([]byte{0x80}, 8*4+2*4*2))
	}
	path := filepath.Join(t.TempDir(), "clip.y4m")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	cfg := config.Default()
	cfg.Video.Path = path
	cfg.Playback.IdleInterval = time.Millisecond

	r, err := playHeadless(context.Background(), cfg)
	require.NoError(t, err)
	w, h := r.FrameSize()
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)
}
