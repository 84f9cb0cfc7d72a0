package container

import (
	"fmt"
	"io"
	"os"

	"github.com/abema/go-mp4"
	"github.com/sirupsen/logrus"
)

// mp4Sample locates one access unit inside the file.
type mp4Sample struct {
	offset int64
	size   int
	pts    int64
}

// mp4Reader reads ISO-BMFF files. Sample tables are flattened at open time;
// edit lists are not applied.
type mp4Reader struct {
	trackCursor
	file   *os.File
	tables [][]mp4Sample
	next   int
}

func newMP4Reader(path string, file *os.File) (*mp4Reader, error) {
	info, err := mp4.Probe(file)
	if err != nil {
		return nil, newError("open", path, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if len(info.Tracks) == 0 {
		return nil, newError("open", path, fmt.Errorf("%w: no tracks", ErrMalformed))
	}

	avcConfigs, err := readAVCConfigs(file)
	if err != nil {
		return nil, newError("open", path, fmt.Errorf("%w: avcC: %v", ErrMalformed, err))
	}

	r := &mp4Reader{file: file}
	tracks := make([]Track, 0, len(info.Tracks))
	avcSeen := 0
	for i, t := range info.Tracks {
		track := Track{Index: i}
		if t.Timescale != 0 {
			track.DurationMicros = int64(t.Duration) * 1_000_000 / int64(t.Timescale)
		}

		switch t.Codec {
		case mp4.CodecAVC1:
			track.MediaType = MediaTypeVideo
			track.MIME = MIMEAVC
			if t.AVC != nil {
				track.Width = int(t.AVC.Width)
				track.Height = int(t.AVC.Height)
			}
			if avcSeen < len(avcConfigs) {
				track.CodecConfig = avcConfigs[avcSeen]
			}
			avcSeen++
			if track.DurationMicros > 0 && len(t.Samples) > 0 {
				track.FrameRate = float64(len(t.Samples)) * 1e6 / float64(track.DurationMicros)
			}
		case mp4.CodecMP4A:
			track.MediaType = MediaTypeAudio
			track.MIME = MIMEAAC
		default:
			track.MediaType = MediaTypeOther
			track.MIME = "application/octet-stream"
		}

		table, err := flattenSampleTable(t)
		if err != nil {
			return nil, newError("open", path, err)
		}
		tracks = append(tracks, track)
		r.tables = append(r.tables, table)

		logrus.WithFields(logrus.Fields{
			"function":     "newMP4Reader",
			"track_id":     t.TrackID,
			"mime":         track.MIME,
			"width":        track.Width,
			"height":       track.Height,
			"sample_count": len(table),
			"duration_us":  track.DurationMicros,
		}).Debug("MP4 track discovered")
	}

	r.trackCursor = trackCursor{
		path:     path,
		tracks:   tracks,
		selected: -1,
		load:     r.readNext,
	}
	return r, nil
}

// SelectTrack switches to a track and rewinds to its first sample.
func (r *mp4Reader) SelectTrack(index int) error {
	if err := r.trackCursor.SelectTrack(index); err != nil {
		return err
	}
	r.next = 0
	r.cur = nil
	r.done = false
	return nil
}

func (r *mp4Reader) readNext() (Sample, error) {
	table := r.tables[r.selected]
	if r.next >= len(table) {
		return Sample{EndOfStream: true}, nil
	}
	s := table[r.next]
	data := make([]byte, s.size)
	if _, err := r.file.ReadAt(data, s.offset); err != nil {
		return Sample{}, newError("read", r.path, fmt.Errorf("%w: sample %d: %v", ErrMalformed, r.next, err))
	}
	r.next++
	return Sample{Data: data, PTSMicros: s.pts}, nil
}

func (r *mp4Reader) Close() error {
	return r.file.Close()
}

// flattenSampleTable walks the chunk table and assigns every sample its file
// offset and presentation time (decode time plus composition offset).
func flattenSampleTable(t *mp4.Track) ([]mp4Sample, error) {
	if t.Timescale == 0 {
		return nil, fmt.Errorf("%w: track %d has zero timescale", ErrMalformed, t.TrackID)
	}
	out := make([]mp4Sample, 0, len(t.Samples))
	var dts int64
	si := 0
	for _, chunk := range t.Chunks {
		offset := int64(chunk.DataOffset)
		for n := uint32(0); n < chunk.SamplesPerChunk; n++ {
			if si >= len(t.Samples) {
				return nil, fmt.Errorf("%w: track %d chunk table exceeds sample count", ErrMalformed, t.TrackID)
			}
			s := t.Samples[si]
			pts := dts + s.CompositionTimeOffset
			out = append(out, mp4Sample{
				offset: offset,
				size:   int(s.Size),
				pts:    pts * 1_000_000 / int64(t.Timescale),
			})
			offset += int64(s.Size)
			dts += int64(s.TimeDelta)
			si++
		}
	}
	return out, nil
}

// readAVCConfigs returns the raw avcC payloads in track order.
func readAVCConfigs(rs io.ReadSeeker) ([][]byte, error) {
	boxes, err := mp4.ExtractBox(rs, nil, mp4.BoxPath{
		mp4.BoxTypeMoov(),
		mp4.BoxTypeTrak(),
		mp4.BoxTypeMdia(),
		mp4.BoxTypeMinf(),
		mp4.BoxTypeStbl(),
		mp4.BoxTypeStsd(),
		mp4.BoxTypeAvc1(),
		mp4.BoxTypeAvcC(),
	})
	if err != nil {
		return nil, err
	}
	configs := make([][]byte, 0, len(boxes))
	for _, b := range boxes {
		payload := make([]byte, b.Size-b.HeaderSize)
		if _, err := rs.Seek(int64(b.Offset+b.HeaderSize), io.SeekStart); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(rs, payload); err != nil {
			return nil, err
		}
		configs = append(configs, payload)
	}
	return configs, nil
}
