package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opd-ai/nv21play/config"
	"github.com/sirupsen/logrus"
)

// CLI configuration
type CLIConfig struct {
	configPath string
	file       string
	logLevel   string
	logFormat  string
	logFile    string
	snapshot   string
	detect     bool
	headless   bool
	help       bool
}

// registerFlags binds the command-line flags to a new CLIConfig.
func registerFlags(fs *flag.FlagSet) *CLIConfig {
	cli := &CLIConfig{}

	// Input
	fs.StringVar(&cli.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&cli.file, "file", "", "Video file to play (IVF, Y4M or MP4)")

	// Logging configuration
	fs.StringVar(&cli.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cli.logFormat, "log-format", "", "Log format (text, json)")
	fs.StringVar(&cli.logFile, "log-file", "", "Log file path (default: stderr)")

	// Feature flags
	fs.StringVar(&cli.snapshot, "snapshot", "", "Write the last frame as PNG to this path")
	fs.BoolVar(&cli.detect, "detect", false, "Enable the face detection side channel")
	fs.BoolVar(&cli.headless, "headless", false, "Decode without opening a window")

	// Help
	fs.BoolVar(&cli.help, "help", false, "Show help message")
	return cli
}

// parseCLIFlags parses args and returns the configuration. A positional
// argument is accepted as the video path.
func parseCLIFlags(args []string, output io.Writer) (*CLIConfig, error) {
	fs := flag.NewFlagSet("nv21play", flag.ContinueOnError)
	fs.SetOutput(output)
	cli := registerFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cli.file == "" && fs.NArg() > 0 {
		cli.file = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args()[1:], " "))
	}
	return cli, nil
}

// printUsage prints the usage information.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "nv21play - NV21 video player")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s [options] [file]\n", os.Args[0])
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs := flag.NewFlagSet("nv21play", flag.ContinueOnError)
	fs.SetOutput(w)
	registerFlags(fs)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s clip.ivf\n", os.Args[0])
	fmt.Fprintf(w, "  %s -config player.yaml -detect -log-level debug\n", os.Args[0])
	fmt.Fprintf(w, "  %s -headless -snapshot last.png clip.y4m\n", os.Args[0])
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg := config.Default()
	if cli.configPath != "" {
		loaded, err := config.Load(cli.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cli.file != "" {
		cfg.Video.Path = cli.file
	}
	if cli.logLevel != "" {
		cfg.Log.Level = cli.logLevel
	}
	if cli.logFormat != "" {
		cfg.Log.Format = cli.logFormat
	}
	if cli.logFile != "" {
		cfg.Log.File = cli.logFile
	}
	if cli.detect {
		cfg.Detect.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Video.Path == "" {
		return nil, fmt.Errorf("no video file given")
	}
	return cfg, nil
}

// setupLogging configures the global logrus logger. The returned closer
// releases the log file, if one was opened.
func setupLogging(cfg config.LogConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.File == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logrus.SetOutput(f)
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
