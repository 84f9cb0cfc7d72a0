package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/opd-ai/nv21play"
	"github.com/opd-ai/nv21play/codec"
	"github.com/opd-ai/nv21play/config"
	"github.com/opd-ai/nv21play/detect"
	"github.com/opd-ai/nv21play/render"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func init() {
	// SDL and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli, err := parseCLIFlags(args, os.Stderr)
	if err != nil {
		return 2
	}
	if cli.help {
		printUsage(os.Stdout)
		return 0
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		return 1
	}
	logCloser, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging setup failed: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	logrus.WithFields(logrus.Fields{
		"function": "run",
		"file":     cfg.Video.Path,
		"codecs":   codec.RegisteredTypes(),
		"headless": cli.headless,
	}).Debug("Starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logrus.WithField("signal", sig.String()).Info("Received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	var renderer *render.Renderer
	if cli.headless {
		renderer, err = playHeadless(ctx, cfg)
	} else {
		renderer, err = playWindowed(ctx, cfg)
	}

	if cli.snapshot != "" && renderer != nil {
		if serr := writeSnapshot(renderer, cli.snapshot); serr != nil {
			logrus.WithFields(logrus.Fields{
				"function": "run",
				"path":     cli.snapshot,
				"error":    serr.Error(),
			}).Error("Snapshot failed")
		}
	}

	if err != nil {
		logrus.WithError(err).Error("Playback failed")
		return 1
	}
	return 0
}

// newPlayer builds a player feeding renderer and logging detection results.
func newPlayer(cfg *config.Config, renderer *render.Renderer, requestRender func()) (*nv21play.Player, error) {
	opts := nv21play.NewOptions()
	opts.Config = cfg
	opts.Renderer = renderer
	opts.RequestRender = requestRender

	p, err := nv21play.NewPlayer(cfg.Video.Path, opts)
	if err != nil {
		return nil, err
	}
	p.CallbackPrepared(func(width, height int) {
		logrus.WithFields(logrus.Fields{
			"width":  width,
			"height": height,
		}).Info("Video prepared")
	})
	p.CallbackFaces(func(r detect.Result) {
		logrus.WithFields(logrus.Fields{
			"pts_us": r.PTSMicros,
			"faces":  len(r.Faces),
		}).Debug("Detection result")
	})
	return p, nil
}

// supervise starts p and runs it in g until it finishes or ctx is done.
// cancel is called once playback has ended.
func supervise(ctx context.Context, g *errgroup.Group, p *nv21play.Player, cancel context.CancelFunc) error {
	if err := p.Play(); err != nil {
		return err
	}
	g.Go(func() error {
		defer cancel()
		select {
		case <-ctx.Done():
		case <-p.Done():
		}
		p.Kill()

		stats := p.Stats()
		logrus.WithFields(logrus.Fields{
			"delivered": stats.FramesDelivered,
			"dropped":   stats.FramesDropped,
			"state":     p.State().String(),
		}).Info("Playback finished")
		return p.Err()
	})
	return nil
}

// playHeadless decodes the whole file without a window. The returned
// renderer holds the last frame.
func playHeadless(ctx context.Context, cfg *config.Config) (*render.Renderer, error) {
	renderer := render.New(nil)
	p, err := newPlayer(cfg, renderer, nil)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if err := supervise(gctx, g, p, cancel); err != nil {
		p.Kill()
		return renderer, err
	}
	return renderer, g.Wait()
}

// playWindowed drives the SDL window on the calling goroutine while the
// player decodes in the background.
func playWindowed(ctx context.Context, cfg *config.Config) (*render.Renderer, error) {
	d, err := newDisplay(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	redraw := make(chan struct{}, 1)
	p, err := newPlayer(cfg, d.renderer, func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if err := supervise(gctx, g, p, cancel); err != nil {
		p.Kill()
		return d.renderer, err
	}

	ticker := time.NewTicker(cfg.Playback.IdleInterval)
	defer ticker.Stop()
loop:
	for {
		if !d.poll() {
			cancel()
			break
		}
		select {
		case <-gctx.Done():
			break loop
		case <-redraw:
			if err := d.draw(); err != nil {
				logrus.WithError(err).Warn("Draw failed")
			}
		case <-ticker.C:
		}
	}
	return d.renderer, g.Wait()
}

// writeSnapshot encodes the renderer's current frame as PNG.
func writeSnapshot(r *render.Renderer, path string) error {
	img, err := r.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"path":   path,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Info("Snapshot written")
	return nil
}
