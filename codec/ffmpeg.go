//go:build ffmpeg

package codec

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/opd-ai/nv21play/container"
	"github.com/sirupsen/logrus"
)

var ffmpegCodecIDs = map[string]astiav.CodecID{
	container.MIMEAVC:  astiav.CodecIDH264,
	container.MIMEHEVC: astiav.CodecIDHevc,
	container.MIMEVP8:  astiav.CodecIDVp8,
	container.MIMEVP9:  astiav.CodecIDVp9,
	container.MIMEAV1:  astiav.CodecIDAv1,
}

func init() {
	for mime := range ffmpegCodecIDs {
		Register(mime, newFFmpegDecoder)
	}
}

// ffmpegSource decodes through libavcodec. Frames in pixel formats other
// than yuv420p are converted with libswscale.
type ffmpegSource struct {
	ctx     *astiav.CodecContext
	pkt     *astiav.Packet
	frame   *astiav.Frame
	avc     *AVCConfig
	sentSPS bool

	ssc    *astiav.SoftwareScaleContext
	scaled *astiav.Frame
	srcW   int
	srcH   int
	srcPix astiav.PixelFormat

	bufs [][]byte
}

func newFFmpegDecoder(mime string) (Decoder, error) {
	id, ok := ffmpegCodecIDs[mime]
	if !ok {
		return nil, &UnsupportedCodecError{MIME: mime}
	}
	return newBufferQueue("ffmpeg."+id.Name(), func(track container.Track) (pictureSource, error) {
		return openFFmpegSource(id, track)
	}), nil
}

func openFFmpegSource(id astiav.CodecID, track container.Track) (pictureSource, error) {
	dec := astiav.FindDecoder(id)
	if dec == nil {
		return nil, &UnsupportedCodecError{MIME: track.MIME}
	}

	s := &ffmpegSource{}
	if track.MIME == container.MIMEAVC && len(track.CodecConfig) > 0 {
		cfg, err := ParseAVCConfig(track.CodecConfig)
		if err != nil {
			return nil, err
		}
		s.avc = cfg
	}

	s.ctx = astiav.AllocCodecContext(dec)
	if s.ctx == nil {
		return nil, errors.New("ffmpeg: codec context allocation failed")
	}
	if err := s.ctx.Open(dec, nil); err != nil {
		s.ctx.Free()
		return nil, fmt.Errorf("ffmpeg: open %s: %w", dec.Name(), err)
	}
	s.pkt = astiav.AllocPacket()
	s.frame = astiav.AllocFrame()

	logrus.WithFields(logrus.Fields{
		"function": "openFFmpegSource",
		"codec":    dec.Name(),
		"mime":     track.MIME,
		"avcc":     s.avc != nil,
	}).Info("FFmpeg decoder opened")
	return s, nil
}

func (s *ffmpegSource) Decode(data []byte, ptsMicros int64) ([]picture, error) {
	if s.avc != nil {
		converted, err := s.avc.AnnexB(data, !s.sentSPS)
		if err != nil {
			return nil, err
		}
		s.sentSPS = true
		data = converted
	}

	if err := s.pkt.FromData(data); err != nil {
		return nil, fmt.Errorf("ffmpeg: packet: %w", err)
	}
	s.pkt.SetPts(ptsMicros)
	defer s.pkt.Unref()

	var pics []picture
	err := sendDraining(
		func() error { return s.ctx.SendPacket(s.pkt) },
		func(err error) bool { return errors.Is(err, astiav.ErrEagain) },
		func() (int, error) {
			before := len(pics)
			var err error
			pics, err = s.receive(pics)
			return len(pics) - before, err
		},
	)
	if err != nil {
		return pics, fmt.Errorf("ffmpeg: send packet: %w", err)
	}
	return s.receive(pics)
}

// Flush enters draining mode and collects the delayed frames.
func (s *ffmpegSource) Flush() ([]picture, error) {
	if err := s.ctx.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return nil, fmt.Errorf("ffmpeg: flush: %w", err)
	}
	return s.receive(nil)
}

// receive appends every frame the decoder has ready to pics.
func (s *ffmpegSource) receive(pics []picture) ([]picture, error) {
	for i := len(pics); ; i++ {
		err := s.ctx.ReceiveFrame(s.frame)
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			return pics, nil
		}
		if err != nil {
			return pics, fmt.Errorf("ffmpeg: receive frame: %w", err)
		}

		pic, err := s.toPicture(s.frame, i)
		s.frame.Unref()
		if err != nil {
			return pics, err
		}
		pics = append(pics, pic)
	}
}

// toPicture copies the frame into a packed yuv420p buffer owned by s.
// The i-th buffer is reused by the i-th frame of the next call.
func (s *ffmpegSource) toPicture(f *astiav.Frame, i int) (picture, error) {
	src := f
	if f.PixelFormat() != astiav.PixelFormatYuv420P && f.PixelFormat() != astiav.PixelFormatYuvj420P {
		if err := s.ensureScaler(f); err != nil {
			return picture{}, err
		}
		if err := s.ssc.ScaleFrame(f, s.scaled); err != nil {
			return picture{}, fmt.Errorf("ffmpeg: scale frame: %w", err)
		}
		src = s.scaled
	}

	n, err := src.ImageBufferSize(1)
	if err != nil {
		return picture{}, fmt.Errorf("ffmpeg: image buffer size: %w", err)
	}
	for len(s.bufs) <= i {
		s.bufs = append(s.bufs, nil)
	}
	s.bufs[i] = grow(s.bufs[i], n)
	if _, err := src.ImageCopyToBuffer(s.bufs[i], 1); err != nil {
		return picture{}, fmt.Errorf("ffmpeg: image copy: %w", err)
	}

	w, h := src.Width(), src.Height()
	cw, ch := (w+1)/2, (h+1)/2
	buf := s.bufs[i]
	ySize, cSize := w*h, cw*ch
	return picture{
		width:   w,
		height:  h,
		pts:     f.Pts(),
		y:       buf[:ySize],
		u:       buf[ySize : ySize+cSize],
		v:       buf[ySize+cSize : ySize+2*cSize],
		yStride: w,
		uStride: cw,
		vStride: cw,
	}, nil
}

func (s *ffmpegSource) ensureScaler(f *astiav.Frame) error {
	w, h, pix := f.Width(), f.Height(), f.PixelFormat()
	if s.ssc != nil && w == s.srcW && h == s.srcH && pix == s.srcPix {
		return nil
	}
	s.freeScaler()

	ssc, err := astiav.CreateSoftwareScaleContext(w, h, pix, w, h, astiav.PixelFormatYuv420P,
		astiav.NewSoftwareScaleContextFlags())
	if err != nil {
		return fmt.Errorf("ffmpeg: scaler %dx%d %s: %w", w, h, pix.String(), err)
	}
	dst := astiav.AllocFrame()
	dst.SetWidth(w)
	dst.SetHeight(h)
	dst.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		ssc.Free()
		return fmt.Errorf("ffmpeg: scaler buffer: %w", err)
	}

	s.ssc, s.scaled = ssc, dst
	s.srcW, s.srcH, s.srcPix = w, h, pix
	logrus.WithFields(logrus.Fields{
		"function": "ensureScaler",
		"width":    w,
		"height":   h,
		"src_pix":  pix.String(),
	}).Debug("FFmpeg pixel format converter ready")
	return nil
}

func (s *ffmpegSource) freeScaler() {
	if s.scaled != nil {
		s.scaled.Free()
		s.scaled = nil
	}
	if s.ssc != nil {
		s.ssc.Free()
		s.ssc = nil
	}
}

func (s *ffmpegSource) Close() error {
	s.freeScaler()
	if s.frame != nil {
		s.frame.Free()
	}
	if s.pkt != nil {
		s.pkt.Free()
	}
	if s.ctx != nil {
		s.ctx.Free()
	}
	return nil
}
