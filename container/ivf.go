package container

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pion/webrtc/v3/pkg/media/ivfreader"
	"github.com/sirupsen/logrus"
)

// ivfReader reads VP8/VP9/AV1 elementary streams stored in IVF files.
type ivfReader struct {
	trackCursor
	file   io.Closer
	reader *ivfreader.IVFReader
	header *ivfreader.IVFFileHeader
}

func newIVFReader(path string, file io.ReadCloser) (*ivfReader, error) {
	reader, header, err := ivfreader.NewWith(file)
	if err != nil {
		return nil, newError("open", path, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if header.TimebaseDenominator == 0 || header.TimebaseNumerator == 0 {
		return nil, newError("open", path, fmt.Errorf("%w: zero IVF timebase", ErrMalformed))
	}

	r := &ivfReader{
		file:   file,
		reader: reader,
		header: header,
	}

	den := int64(header.TimebaseDenominator)
	num := int64(header.TimebaseNumerator)
	track := Track{
		Index:          0,
		MediaType:      MediaTypeVideo,
		MIME:           ivfMIME(header.FourCC),
		Width:          int(header.Width),
		Height:         int(header.Height),
		DurationMicros: int64(header.NumFrames) * 1_000_000 * num / den,
		FrameRate:      float64(den) / float64(num),
	}

	r.trackCursor = trackCursor{
		path:     path,
		tracks:   []Track{track},
		selected: -1,
		load:     r.next,
	}

	logrus.WithFields(logrus.Fields{
		"function":   "newIVFReader",
		"fourcc":     header.FourCC,
		"width":      header.Width,
		"height":     header.Height,
		"num_frames": header.NumFrames,
		"frame_rate": track.FrameRate,
	}).Debug("IVF header parsed")

	return r, nil
}

// next parses the following IVF frame. Timestamps are in units of
// numerator/denominator seconds.
func (r *ivfReader) next() (Sample, error) {
	payload, frameHeader, err := r.reader.ParseNextFrame()
	if errors.Is(err, io.EOF) {
		return Sample{EndOfStream: true}, nil
	}
	if err != nil {
		return Sample{}, newError("read", r.path, fmt.Errorf("%w: %v", ErrMalformed, err))
	}

	pts := int64(frameHeader.Timestamp) * 1_000_000 *
		int64(r.header.TimebaseNumerator) / int64(r.header.TimebaseDenominator)

	return Sample{
		Data:      payload,
		PTSMicros: pts,
	}, nil
}

func (r *ivfReader) Close() error {
	return r.file.Close()
}

// ivfMIME maps an IVF FourCC onto a codec MIME type.
func ivfMIME(fourcc string) string {
	switch strings.ToUpper(fourcc) {
	case "VP80":
		return MIMEVP8
	case "VP90":
		return MIMEVP9
	case "AV01":
		return MIMEAV1
	default:
		return "video/x-ivf-" + strings.ToLower(strings.TrimSpace(fourcc))
	}
}
