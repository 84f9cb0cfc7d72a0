package container

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	y4mMagic      = "YUV4MPEG2"
	y4mFrameMagic = "FRAME"

	// maxY4MDimension bounds W and H so a frame record stays allocatable.
	maxY4MDimension = 16384
)

// y4mReader reads uncompressed YUV4MPEG2 streams. Each FRAME record holds
// one planar 4:2:0 picture (Y, then Cb, then Cr).
type y4mReader struct {
	trackCursor
	file      io.Closer
	br        *bufio.Reader
	frameSize int
	rateNum   int64
	rateDen   int64
	frame     int64
}

func newY4MReader(path string, file *os.File) (*y4mReader, error) {
	br := bufio.NewReader(file)
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, newError("open", path, fmt.Errorf("%w: y4m header: %v", ErrMalformed, err))
	}

	h, err := parseY4MHeader(line)
	if err != nil {
		return nil, newError("open", path, err)
	}

	r := &y4mReader{
		file:      file,
		br:        br,
		frameSize: h.frameSize(),
		rateNum:   h.rateNum,
		rateDen:   h.rateDen,
	}

	track := Track{
		Index:     0,
		MediaType: MediaTypeVideo,
		MIME:      MIMERawYUV420,
		Width:     h.width,
		Height:    h.height,
		FrameRate: float64(h.rateNum) / float64(h.rateDen),
	}
	if st, err := file.Stat(); err == nil {
		record := int64(len(y4mFrameMagic)+1) + int64(r.frameSize)
		frames := (st.Size() - int64(len(line))) / record
		track.DurationMicros = r.ptsOf(frames)
	}

	r.trackCursor = trackCursor{
		path:     path,
		tracks:   []Track{track},
		selected: -1,
		load:     r.next,
	}

	logrus.WithFields(logrus.Fields{
		"function":    "newY4MReader",
		"width":       h.width,
		"height":      h.height,
		"rate":        fmt.Sprintf("%d:%d", h.rateNum, h.rateDen),
		"colorspace":  h.colorspace,
		"duration_us": track.DurationMicros,
	}).Debug("Y4M header parsed")

	return r, nil
}

// next reads one FRAME record. Frame parameters after the FRAME tag are
// ignored.
func (r *y4mReader) next() (Sample, error) {
	line, err := r.br.ReadString('\n')
	if err == io.EOF && line == "" {
		return Sample{EndOfStream: true}, nil
	}
	if err != nil {
		return Sample{}, newError("read", r.path, fmt.Errorf("%w: frame header: %v", ErrMalformed, err))
	}
	if !strings.HasPrefix(line, y4mFrameMagic) {
		return Sample{}, newError("read", r.path, fmt.Errorf("%w: expected FRAME, got %q", ErrMalformed, strings.TrimSpace(line)))
	}

	data := make([]byte, r.frameSize)
	if _, err := io.ReadFull(r.br, data); err != nil {
		return Sample{}, newError("read", r.path, fmt.Errorf("%w: truncated frame %d: %v", ErrMalformed, r.frame, err))
	}

	s := Sample{
		Data:      data,
		PTSMicros: r.ptsOf(r.frame),
	}
	r.frame++
	return s, nil
}

func (r *y4mReader) ptsOf(frame int64) int64 {
	return frame * 1_000_000 * r.rateDen / r.rateNum
}

func (r *y4mReader) Close() error {
	return r.file.Close()
}

type y4mHeader struct {
	width      int
	height     int
	rateNum    int64
	rateDen    int64
	colorspace string
}

// frameSize is the byte size of one 4:2:0 frame; odd dimensions round the
// chroma planes up.
func (h y4mHeader) frameSize() int {
	cw := (h.width + 1) / 2
	ch := (h.height + 1) / 2
	return h.width*h.height + 2*cw*ch
}

// parseY4MHeader parses the stream header line, e.g.
// "YUV4MPEG2 W64 H48 F10:1 Ip A1:1 C420jpeg".
func parseY4MHeader(line string) (y4mHeader, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != y4mMagic {
		return y4mHeader{}, fmt.Errorf("%w: missing %s signature", ErrMalformed, y4mMagic)
	}

	h := y4mHeader{rateNum: 25, rateDen: 1, colorspace: "420jpeg"}
	for _, f := range fields[1:] {
		if len(f) < 2 {
			continue
		}
		val := f[1:]
		switch f[0] {
		case 'W':
			w, err := strconv.Atoi(val)
			if err != nil {
				return y4mHeader{}, fmt.Errorf("%w: bad width %q", ErrMalformed, val)
			}
			h.width = w
		case 'H':
			hh, err := strconv.Atoi(val)
			if err != nil {
				return y4mHeader{}, fmt.Errorf("%w: bad height %q", ErrMalformed, val)
			}
			h.height = hh
		case 'F':
			num, den, ok := strings.Cut(val, ":")
			n, err1 := strconv.ParseInt(num, 10, 64)
			d, err2 := strconv.ParseInt(den, 10, 64)
			if !ok || err1 != nil || err2 != nil || n <= 0 || d <= 0 {
				return y4mHeader{}, fmt.Errorf("%w: bad frame rate %q", ErrMalformed, val)
			}
			h.rateNum, h.rateDen = n, d
		case 'C':
			h.colorspace = val
		}
	}

	if h.width <= 0 || h.height <= 0 || h.width > maxY4MDimension || h.height > maxY4MDimension {
		return y4mHeader{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformed, h.width, h.height)
	}
	if !strings.HasPrefix(h.colorspace, "420") {
		return y4mHeader{}, fmt.Errorf("%w: C%s", ErrUnsupportedColorspace, h.colorspace)
	}
	return h, nil
}
