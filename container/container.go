package container

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Codec MIME types reported in Track.MIME.
const (
	MIMEVP8       = "video/x-vnd.on2.vp8"
	MIMEVP9       = "video/x-vnd.on2.vp9"
	MIMEAV1       = "video/av01"
	MIMEAVC       = "video/avc"
	MIMEHEVC      = "video/hevc"
	MIMERawYUV420 = "video/x-raw-yuv420p"
	MIMEAAC       = "audio/mp4a-latm"
)

// Media types reported in Track.MediaType.
const (
	MediaTypeVideo = "video"
	MediaTypeAudio = "audio"
	MediaTypeOther = "other"
)

// Track describes one elementary stream found in a container.
// A Track is immutable once Open returns.
type Track struct {
	Index          int
	MediaType      string
	MIME           string
	Width          int
	Height         int
	DurationMicros int64
	FrameRate      float64
	// CodecConfig holds codec private data, e.g. an AVCDecoderConfigurationRecord.
	CodecConfig []byte
}

// Sample is one compressed access unit of the selected track.
type Sample struct {
	Data        []byte
	PTSMicros   int64
	EndOfStream bool
}

// Reader iterates the samples of a container file.
//
// ReadSample returns the current sample and keeps returning it until Advance
// is called. Readers are not safe for concurrent use; a playback session owns
// its reader exclusively.
type Reader interface {
	// Tracks lists the tracks discovered when the file was opened.
	Tracks() []Track
	// SelectTrack restricts subsequent reads to the track at index.
	SelectTrack(index int) error
	// ReadSample returns the current sample of the selected track, or a
	// Sample with EndOfStream set once the track is exhausted.
	ReadSample() (Sample, error)
	// Advance moves to the next sample.
	Advance() error
	// Close releases the underlying file.
	Close() error
}

type format int

const (
	formatUnknown format = iota
	formatIVF
	formatY4M
	formatMP4
)

func (f format) String() string {
	switch f {
	case formatIVF:
		return "ivf"
	case formatY4M:
		return "y4m"
	case formatMP4:
		return "mp4"
	default:
		return "unknown"
	}
}

// Open opens the container at path and discovers its tracks.
func Open(path string) (Reader, error) {
	logrus.WithFields(logrus.Fields{
		"function": "container.Open",
		"path":     path,
	}).Debug("Opening container")

	file, err := os.Open(path)
	if err != nil {
		return nil, newError("open", path, err)
	}

	head := make([]byte, 12)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, newError("open", path, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, newError("open", path, err)
	}

	f := detectFormat(head[:n], path)

	var r Reader
	switch f {
	case formatIVF:
		r, err = newIVFReader(path, file)
	case formatY4M:
		r, err = newY4MReader(path, file)
	case formatMP4:
		r, err = newMP4Reader(path, file)
	default:
		err = newError("open", path, ErrUnknownFormat)
	}
	if err != nil {
		file.Close()
		logrus.WithFields(logrus.Fields{
			"function": "container.Open",
			"path":     path,
			"format":   f.String(),
			"error":    err.Error(),
		}).Error("Failed to open container")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "container.Open",
		"path":        path,
		"format":      f.String(),
		"track_count": len(r.Tracks()),
	}).Info("Container opened")

	return r, nil
}

// detectFormat identifies the container by magic bytes, falling back to the
// file extension for truncated headers.
func detectFormat(head []byte, path string) format {
	switch {
	case bytes.HasPrefix(head, []byte("DKIF")):
		return formatIVF
	case bytes.HasPrefix(head, []byte("YUV4MPEG2")):
		return formatY4M
	case len(head) >= 8 && string(head[4:8]) == "ftyp":
		return formatMP4
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ivf":
		return formatIVF
	case ".y4m":
		return formatY4M
	case ".mp4", ".m4v", ".mov":
		return formatMP4
	}
	return formatUnknown
}

// FindTrack returns the index of the first track whose MIME type starts with
// prefix (e.g. "video/"), or -1 if there is none.
func FindTrack(tracks []Track, prefix string) int {
	for _, t := range tracks {
		if strings.HasPrefix(t.MIME, prefix) {
			return t.Index
		}
	}
	return -1
}

// trackCursor holds the selection and current-sample state shared by the
// backends. load fetches the next sample of the selected track.
type trackCursor struct {
	path     string
	tracks   []Track
	selected int
	cur      *Sample
	done     bool
	load     func() (Sample, error)
}

func (c *trackCursor) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

func (c *trackCursor) SelectTrack(index int) error {
	if index < 0 || index >= len(c.tracks) {
		return newError("select", c.path, ErrTrackIndex)
	}
	c.selected = index
	return nil
}

func (c *trackCursor) ReadSample() (Sample, error) {
	if c.selected < 0 {
		return Sample{}, newError("read", c.path, ErrNoTrackSelected)
	}
	if c.done {
		return Sample{EndOfStream: true}, nil
	}
	if c.cur == nil {
		s, err := c.load()
		if err != nil {
			return Sample{}, err
		}
		if s.EndOfStream {
			c.done = true
			return s, nil
		}
		c.cur = &s
	}
	return *c.cur, nil
}

func (c *trackCursor) Advance() error {
	if c.selected < 0 {
		return newError("advance", c.path, ErrNoTrackSelected)
	}
	if c.cur == nil && !c.done {
		// Skip the sample that was never read.
		s, err := c.load()
		if err != nil {
			return err
		}
		if s.EndOfStream {
			c.done = true
		}
	}
	c.cur = nil
	return nil
}
