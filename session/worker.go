package session

import (
	"context"
	"fmt"

	"github.com/opd-ai/nv21play/clock"
	"github.com/opd-ai/nv21play/codec"
	"github.com/opd-ai/nv21play/container"
	"github.com/opd-ai/nv21play/video"
	"github.com/sirupsen/logrus"
)

// run is the decode worker. Every exit path releases the decoder and the
// reader, moves to Stopped and fires OnStopped once.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.finish()

	reader, err := s.openReader(s.path)
	if err != nil {
		s.fail(err)
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":   "run",
				"session_id": s.id,
				"error":      err.Error(),
			}).Warn("Failed to close container")
		}
	}()
	if ctx.Err() != nil {
		return
	}

	tracks := reader.Tracks()
	index := container.FindTrack(tracks, "video/")
	if index < 0 {
		s.fail(fmt.Errorf("%s: %w", s.path, ErrNoVideoTrack))
		return
	}
	track := tracks[index]
	if err := reader.SelectTrack(index); err != nil {
		s.fail(err)
		return
	}

	dec, err := s.newDecoder(track.MIME)
	if err != nil {
		s.fail(err)
		return
	}
	defer func() {
		if err := dec.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":   "run",
				"session_id": s.id,
				"decoder":    dec.Name(),
				"error":      err.Error(),
			}).Warn("Failed to close decoder")
		}
	}()

	format := s.colorFormat
	if format == codec.ColorFormatUnknown {
		format, err = video.NegotiateColorFormat(dec.Capabilities())
		if err != nil {
			s.fail(err)
			return
		}
	}
	if err := dec.Configure(track, format); err != nil {
		s.fail(err)
		return
	}
	if err := dec.Start(); err != nil {
		s.fail(err)
		return
	}

	clk := clock.New(
		clock.WithTimeProvider(s.tp),
		clock.WithIncrement(s.idleInterval),
		clock.WithStreamDuration(track.DurationMicros),
	)
	// Pause and ContinuePlay drive the clock under s.mu.
	s.mu.Lock()
	s.clock = clk
	clk.Start()
	if s.state == StatePaused {
		clk.Pause()
	}
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function":     "run",
		"session_id":   s.id,
		"mime":         track.MIME,
		"decoder":      dec.Name(),
		"width":        track.Width,
		"height":       track.Height,
		"duration_us":  track.DurationMicros,
		"color_format": format.String(),
	}).Info("Session prepared")

	s.lastWidth, s.lastHeight = track.Width, track.Height
	if s.listener != nil {
		s.listener.OnPrepared(track.Width, track.Height)
	}

	if err := s.loop(ctx, reader, dec, clk); err != nil {
		s.fail(err)
	}
}

// loop pumps samples and outputs until end of stream, cancellation or a
// fatal error.
func (s *Session) loop(ctx context.Context, reader container.Reader, dec codec.Decoder, clk *clock.Clock) error {
	inputDone := false
	for {
		if ctx.Err() != nil {
			return nil
		}

		if s.State() == StatePaused {
			select {
			case <-ctx.Done():
			case <-s.tp.After(s.idleInterval):
			}
			continue
		}

		if !inputDone {
			done, err := s.feed(reader, dec)
			if err != nil {
				return err
			}
			inputDone = done
		}

		out, err := dec.PollOutput(s.queueTimeout)
		if err != nil {
			return newDecodeError("poll output", err)
		}

		switch out.Kind {
		case codec.OutputTryAgain:
			s.stats.tryAgainPolls.Add(1)
		case codec.OutputFormatChanged:
			s.stats.formatChanges.Add(1)
			logrus.WithFields(logrus.Fields{
				"function":     "loop",
				"session_id":   s.id,
				"width":        out.Format.Width,
				"height":       out.Format.Height,
				"color_format": out.Format.ColorFormat.String(),
			}).Info("Decoder output format changed")
		case codec.OutputBuffersChanged:
			logrus.WithFields(logrus.Fields{
				"function":   "loop",
				"session_id": s.id,
			}).Debug("Decoder output buffers changed")
		case codec.OutputImageReady:
			eos, err := s.handleOutput(ctx, dec, clk, out)
			if err != nil {
				return err
			}
			if eos {
				logrus.WithFields(logrus.Fields{
					"function":   "loop",
					"session_id": s.id,
				}).Info("End of stream")
				return nil
			}
		}
	}
}

// feed moves one sample from the reader into the decoder. It reports true
// once the end-of-stream buffer has been queued.
func (s *Session) feed(reader container.Reader, dec codec.Decoder) (bool, error) {
	slot, ok, err := dec.AcquireInputSlot(s.queueTimeout)
	if err != nil {
		return false, newDecodeError("acquire input", err)
	}
	if !ok {
		return false, nil
	}

	sample, err := reader.ReadSample()
	if err != nil {
		return false, newDecodeError("read sample", err)
	}

	if sample.EndOfStream {
		if err := dec.SubmitInput(slot, nil, 0, true); err != nil {
			return false, newDecodeError("submit input", err)
		}
		logrus.WithFields(logrus.Fields{
			"function":   "feed",
			"session_id": s.id,
			"samples":    s.stats.samplesSubmitted.Load(),
		}).Debug("Queued end of stream")
		return true, nil
	}

	if err := dec.SubmitInput(slot, sample.Data, sample.PTSMicros, false); err != nil {
		return false, newDecodeError("submit input", err)
	}
	s.stats.samplesSubmitted.Add(1)

	if err := reader.Advance(); err != nil {
		return false, newDecodeError("advance", err)
	}
	return false, nil
}

// handleOutput paces, repacks and delivers one output buffer, then
// releases it. It reports whether the buffer carried end of stream.
func (s *Session) handleOutput(ctx context.Context, dec codec.Decoder, clk *clock.Clock, out codec.Output) (bool, error) {
	var fatal error
	if img := out.Image; img != nil {
		s.stats.framesDecoded.Add(1)
		fatal = s.deliver(ctx, clk, img, out.Info.PTSMicros)
	}

	if err := dec.ReleaseOutput(out.Index, true); err != nil {
		s.stats.releaseErrors.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":   "handleOutput",
			"session_id": s.id,
			"index":      out.Index,
			"error":      err.Error(),
		}).Warn("Output buffer release failed, frame dropped")
	}
	return out.Info.EndOfStream, fatal
}

func (s *Session) deliver(ctx context.Context, clk *clock.Clock, img *codec.Image, pts int64) error {
	if !s.checked {
		if err := s.repacker.Check(img); err != nil {
			return err
		}
		s.checked = true
	}

	if !clk.Observe(pts) {
		s.stats.framesDropped.Add(1)
		last, _ := clk.LastPTS()
		logrus.WithFields(logrus.Fields{
			"function":   "deliver",
			"session_id": s.id,
			"pts_us":     pts,
			"last_pts":   last,
		}).Warn("Dropping frame with decreasing timestamp")
		return nil
	}

	if !clk.WaitUntilDue(ctx, pts) {
		return nil
	}

	frame, err := s.repacker.Repack(img, &s.frameBuf)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return nil
	}

	w, h := s.frameBuf.Size()
	if w != s.lastWidth || h != s.lastHeight {
		s.lastWidth, s.lastHeight = w, h
		if fl, ok := s.listener.(FormatListener); ok {
			fl.OnFormatChanged(w, h)
		}
	}

	// A format listener may have destroyed the session.
	if ctx.Err() != nil {
		return nil
	}

	s.stats.lastPTS.Store(pts)
	s.stats.framesDelivered.Add(1)
	if s.listener != nil {
		s.listener.OnPreviewCallback(frame, pts)
	}
	return nil
}
