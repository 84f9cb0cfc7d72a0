package session

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/nv21play/codec"
	"github.com/opd-ai/nv21play/container"
	"github.com/stretchr/testify/require"
)

// writeY4M writes a 4:2:0 Y4M clip whose frame n is filled with byte n.
func writeY4M(t *testing.T, w, h, frames int, rate string) string {
	t.Helper()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "YUV4MPEG2 W%d H%d F%s Ip A1:1 C420jpeg\n", w, h, rate)
	size := w*h + 2*((w+1)/2)*((h+1)/2)
	for n := 0; n < frames; n++ {
		buf.WriteString("FRAME\n")
		buf.Write(bytes.Repeat([]byte{byte(n)}, size))
	}
	path := filepath.Join(t.TempDir(), "clip.y4m")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

type frameEvent struct {
	pts   int64
	first byte
	size  int
}

// recorder is a Listener that records every callback.
type recorder struct {
	mu         sync.Mutex
	prepared   [][2]int
	frames     []frameEvent
	formats    [][2]int
	errs       []error
	stopped    int
	onFrame    func(pts int64)
	onPrepared func(w, h int)
	onFormat   func(w, h int)
	stoppedCh  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{stoppedCh: make(chan struct{}, 8)}
}

func (r *recorder) OnPrepared(w, h int) {
	r.mu.Lock()
	r.prepared = append(r.prepared, [2]int{w, h})
	hook := r.onPrepared
	r.mu.Unlock()
	if hook != nil {
		hook(w, h)
	}
}

func (r *recorder) OnPreviewCallback(frame []byte, pts int64) {
	r.mu.Lock()
	r.frames = append(r.frames, frameEvent{pts: pts, first: frame[0], size: len(frame)})
	hook := r.onFrame
	r.mu.Unlock()
	if hook != nil {
		hook(pts)
	}
}

func (r *recorder) OnFormatChanged(w, h int) {
	r.mu.Lock()
	r.formats = append(r.formats, [2]int{w, h})
	hook := r.onFormat
	r.mu.Unlock()
	if hook != nil {
		hook(w, h)
	}
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) OnStopped() {
	r.mu.Lock()
	r.stopped++
	r.mu.Unlock()
	r.stoppedCh <- struct{}{}
}

func (r *recorder) snapshot() (frames []frameEvent, errs []error, stopped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]frameEvent(nil), r.frames...), append([]error(nil), r.errs...), r.stopped
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
}

// fakeReader serves a fixed list of samples for a single track.
type fakeReader struct {
	tracks  []container.Track
	samples []container.Sample
	readErr error
	pos     int

	mu     sync.Mutex
	closed bool
}

func (f *fakeReader) Tracks() []container.Track { return f.tracks }

func (f *fakeReader) SelectTrack(index int) error {
	if index < 0 || index >= len(f.tracks) {
		return container.ErrTrackIndex
	}
	return nil
}

func (f *fakeReader) ReadSample() (container.Sample, error) {
	if f.readErr != nil {
		return container.Sample{}, f.readErr
	}
	if f.pos >= len(f.samples) {
		return container.Sample{EndOfStream: true}, nil
	}
	return f.samples[f.pos], nil
}

func (f *fakeReader) Advance() error {
	f.pos++
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func videoTrack(mime string, w, h int) container.Track {
	return container.Track{
		MediaType: container.MediaTypeVideo,
		MIME:      mime,
		Width:     w,
		Height:    h,
	}
}

// fakeDecoder plays back scripted outputs, then returns TryAgain forever.
type fakeDecoder struct {
	caps       codec.Capabilities
	outputs    []codec.Output
	releaseErr error
	started    chan struct{}

	mu       sync.Mutex
	next     int
	closed   bool
	released []int
}

func newFakeDecoder(outputs ...codec.Output) *fakeDecoder {
	return &fakeDecoder{
		caps:    codec.Capabilities{ColorFormats: []codec.ColorFormat{codec.ColorFormatI420}},
		outputs: outputs,
		started: make(chan struct{}),
	}
}

func (f *fakeDecoder) Configure(container.Track, codec.ColorFormat) error { return nil }

func (f *fakeDecoder) Start() error {
	close(f.started)
	return nil
}

func (f *fakeDecoder) AcquireInputSlot(time.Duration) (int, bool, error) { return 0, true, nil }

func (f *fakeDecoder) SubmitInput(int, []byte, int64, bool) error { return nil }

func (f *fakeDecoder) PollOutput(timeout time.Duration) (codec.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next < len(f.outputs) {
		out := f.outputs[f.next]
		f.next++
		return out, nil
	}
	return codec.Output{Kind: codec.OutputTryAgain}, nil
}

func (f *fakeDecoder) ReleaseOutput(index int, render bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, index)
	return f.releaseErr
}

func (f *fakeDecoder) Capabilities() codec.Capabilities { return f.caps }

func (f *fakeDecoder) Name() string { return "fake" }

func (f *fakeDecoder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeDecoder) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeDecoder) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

// i420Output builds an ImageReady output over a packed I420 frame whose
// luma is filled with fill.
func i420Output(index, w, h int, pts int64, fill byte) codec.Output {
	luma := bytes.Repeat([]byte{fill}, w*h)
	u := bytes.Repeat([]byte{0x40}, (w/2)*(h/2))
	v := bytes.Repeat([]byte{0xc0}, (w/2)*(h/2))
	return codec.Output{
		Kind:  codec.OutputImageReady,
		Index: index,
		Info:  codec.BufferInfo{PTSMicros: pts, Size: w * h * 3 / 2},
		Image: &codec.Image{
			Format:    codec.ColorFormatI420,
			Width:     w,
			Height:    h,
			Crop:      image.Rect(0, 0, w, h),
			PTSMicros: pts,
			Planes: []codec.Plane{
				{Data: luma, RowStride: w, PixelStride: 1},
				{Data: u, RowStride: w / 2, PixelStride: 1},
				{Data: v, RowStride: w / 2, PixelStride: 1},
			},
		},
	}
}

func eosOutput(index int) codec.Output {
	return codec.Output{
		Kind:  codec.OutputImageReady,
		Index: index,
		Info:  codec.BufferInfo{EndOfStream: true},
	}
}

// fakeSession wires a fake reader and decoder into a session.
func fakeSession(t *testing.T, rec *recorder, dec *fakeDecoder, opts ...Option) (*Session, *fakeReader) {
	t.Helper()
	reader := &fakeReader{
		tracks: []container.Track{videoTrack(container.MIMERawYUV420, 4, 4)},
		samples: []container.Sample{
			{Data: []byte{1}, PTSMicros: 0},
			{Data: []byte{2}, PTSMicros: 100000},
		},
	}
	base := []Option{
		WithTimeProvider(newManualClock()),
		WithReaderFactory(func(string) (container.Reader, error) { return reader, nil }),
		WithDecoderFactory(func(string) (codec.Decoder, error) { return dec, nil }),
	}
	return New("fake.y4m", rec, append(base, opts...)...), reader
}
