package codec

import (
	"testing"
	"time"

	"github.com/opd-ai/nv21play/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pollTimeout = 10 * time.Millisecond

// i420Frame builds a packed w x h I420 frame with Y=yv, U=uv, V=vv.
func i420Frame(w, h int, yv, uv, vv byte) []byte {
	cw, ch := (w+1)/2, (h+1)/2
	buf := make([]byte, w*h+2*cw*ch)
	for i := range buf {
		switch {
		case i < w*h:
			buf[i] = yv
		case i < w*h+cw*ch:
			buf[i] = uv
		default:
			buf[i] = vv
		}
	}
	return buf
}

func rawTrack(w, h int) container.Track {
	return container.Track{MediaType: container.MediaTypeVideo, MIME: container.MIMERawYUV420, Width: w, Height: h}
}

func startRaw(t *testing.T, w, h int, format ColorFormat, rowAlign int) Decoder {
	t.Helper()
	dec := NewRawDecoder(rowAlign)
	require.NoError(t, dec.Configure(rawTrack(w, h), format))
	require.NoError(t, dec.Start())
	t.Cleanup(func() { dec.Close() })
	return dec
}

func submit(t *testing.T, dec Decoder, data []byte, pts int64, eos bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		slot, ok, err := dec.AcquireInputSlot(pollTimeout)
		require.NoError(t, err)
		if ok {
			require.NoError(t, dec.SubmitInput(slot, data, pts, eos))
			return
		}
	}
	t.Fatal("no input slot became free")
}

// nextOutput polls until an event other than TryAgain arrives.
func nextOutput(t *testing.T, dec Decoder) Output {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		out, err := dec.PollOutput(pollTimeout)
		require.NoError(t, err)
		if out.Kind != OutputTryAgain {
			return out
		}
	}
	t.Fatal("no decoder output")
	return Output{}
}

func TestBufferQueue_FormatChangedThenImage(t *testing.T) {
	dec := startRaw(t, 4, 2, ColorFormatI420, 1)
	submit(t, dec, i420Frame(4, 2, 10, 20, 30), 0, false)

	out := nextOutput(t, dec)
	require.Equal(t, OutputFormatChanged, out.Kind)
	assert.Equal(t, OutputFormat{Width: 4, Height: 2, ColorFormat: ColorFormatI420}, out.Format)

	out = nextOutput(t, dec)
	require.Equal(t, OutputImageReady, out.Kind)
	require.NotNil(t, out.Image)
	assert.False(t, out.Info.EndOfStream)
	assert.Equal(t, int64(0), out.Info.PTSMicros)
	assert.Equal(t, 4*2+2*2*1, out.Info.Size)
	require.Len(t, out.Image.Planes, 3)
	assert.Equal(t, []byte{10, 10, 10, 10, 10, 10, 10, 10}, out.Image.Planes[0].Data)
	assert.Equal(t, []byte{20, 20}, out.Image.Planes[1].Data)
	assert.Equal(t, []byte{30, 30}, out.Image.Planes[2].Data)

	require.NoError(t, dec.ReleaseOutput(out.Index, true))
}

func TestBufferQueue_FormatChangedOnlyOnce(t *testing.T) {
	dec := startRaw(t, 4, 2, ColorFormatI420, 1)
	for i := 0; i < 3; i++ {
		submit(t, dec, i420Frame(4, 2, byte(i), 0, 0), int64(i)*1000, false)
	}

	var kinds []OutputKind
	for len(kinds) < 4 {
		out := nextOutput(t, dec)
		kinds = append(kinds, out.Kind)
		if out.Kind == OutputImageReady {
			require.NoError(t, dec.ReleaseOutput(out.Index, false))
		}
	}
	assert.Equal(t, []OutputKind{OutputFormatChanged, OutputImageReady, OutputImageReady, OutputImageReady}, kinds)
}

func TestBufferQueue_EndOfStream(t *testing.T) {
	dec := startRaw(t, 2, 2, ColorFormatI420, 1)
	submit(t, dec, i420Frame(2, 2, 1, 2, 3), 0, false)
	submit(t, dec, nil, 0, true)

	assert.Equal(t, OutputFormatChanged, nextOutput(t, dec).Kind)
	img := nextOutput(t, dec)
	require.Equal(t, OutputImageReady, img.Kind)
	require.NoError(t, dec.ReleaseOutput(img.Index, true))

	eos := nextOutput(t, dec)
	require.Equal(t, OutputImageReady, eos.Kind)
	assert.True(t, eos.Info.EndOfStream)
	assert.Nil(t, eos.Image)
	require.NoError(t, dec.ReleaseOutput(eos.Index, false))
}

func TestBufferQueue_InputAfterEOS(t *testing.T) {
	dec := startRaw(t, 2, 2, ColorFormatI420, 1)
	submit(t, dec, nil, 0, true)

	slot, ok, err := dec.AcquireInputSlot(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.ErrorIs(t, dec.SubmitInput(slot, []byte{1}, 0, false), ErrInputAfterEOS)
}

func TestBufferQueue_ReleaseErrors(t *testing.T) {
	dec := startRaw(t, 2, 2, ColorFormatI420, 1)
	submit(t, dec, i420Frame(2, 2, 1, 2, 3), 0, false)
	nextOutput(t, dec)
	out := nextOutput(t, dec)
	require.Equal(t, OutputImageReady, out.Kind)

	require.NoError(t, dec.ReleaseOutput(out.Index, true))
	assert.ErrorIs(t, dec.ReleaseOutput(out.Index, true), ErrBufferRelease)
	assert.ErrorIs(t, dec.ReleaseOutput(-1, true), ErrBufferRelease)
	assert.ErrorIs(t, dec.ReleaseOutput(defaultOutputSlots, true), ErrBufferRelease)
}

func TestBufferQueue_TryAgainWhenIdle(t *testing.T) {
	dec := startRaw(t, 2, 2, ColorFormatI420, 1)
	out, err := dec.PollOutput(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, OutputTryAgain, out.Kind)
}

func TestBufferQueue_InputSlotTimeout(t *testing.T) {
	dec := startRaw(t, 2, 2, ColorFormatI420, 1)
	for i := 0; i < defaultInputSlots; i++ {
		_, ok, err := dec.AcquireInputSlot(pollTimeout)
		require.NoError(t, err)
		require.True(t, ok)
	}
	slot, ok, err := dec.AcquireInputSlot(time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, -1, slot)
}

func TestBufferQueue_InvalidSlot(t *testing.T) {
	dec := startRaw(t, 2, 2, ColorFormatI420, 1)
	assert.ErrorIs(t, dec.SubmitInput(0, []byte{1}, 0, false), ErrInvalidSlot)
	assert.ErrorIs(t, dec.SubmitInput(99, []byte{1}, 0, false), ErrInvalidSlot)
}

func TestBufferQueue_DropsMalformedSample(t *testing.T) {
	dec := startRaw(t, 4, 4, ColorFormatI420, 1)
	submit(t, dec, []byte{1, 2, 3}, 0, false)
	submit(t, dec, i420Frame(4, 4, 9, 9, 9), 1000, false)

	assert.Equal(t, OutputFormatChanged, nextOutput(t, dec).Kind)
	out := nextOutput(t, dec)
	require.Equal(t, OutputImageReady, out.Kind)
	assert.Equal(t, int64(1000), out.Info.PTSMicros)
	require.NoError(t, dec.ReleaseOutput(out.Index, true))

	counter, ok := dec.(DropCounter)
	require.True(t, ok)
	assert.Equal(t, uint64(1), counter.DroppedFrames())
}

func TestBufferQueue_Lifecycle(t *testing.T) {
	dec := NewRawDecoder(1)

	assert.ErrorIs(t, dec.Start(), ErrNotConfigured)
	_, _, err := dec.AcquireInputSlot(time.Millisecond)
	assert.ErrorIs(t, err, ErrNotStarted)

	assert.ErrorIs(t, dec.Configure(rawTrack(2, 2), ColorFormat(99)), ErrUnsupportedColorFormat)
	assert.ErrorIs(t, dec.Configure(rawTrack(0, 2), ColorFormatI420), ErrInvalidCodecConfig)

	require.NoError(t, dec.Configure(rawTrack(2, 2), ColorFormatNV21))
	require.NoError(t, dec.Start())
	assert.ErrorIs(t, dec.Start(), ErrAlreadyStarted)
	assert.ErrorIs(t, dec.Configure(rawTrack(2, 2), ColorFormatNV21), ErrAlreadyStarted)

	require.NoError(t, dec.Close())
	require.NoError(t, dec.Close())
	_, err = dec.PollOutput(time.Millisecond)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBufferQueue_CloseWithUnreleasedBuffers(t *testing.T) {
	dec := NewRawDecoder(1)
	require.NoError(t, dec.Configure(rawTrack(2, 2), ColorFormatI420))
	require.NoError(t, dec.Start())

	// Fill every output buffer so the decode goroutine blocks.
	for i := 0; i < defaultOutputSlots+2; i++ {
		submit(t, dec, i420Frame(2, 2, 0, 0, 0), int64(i), false)
	}

	done := make(chan struct{})
	go func() {
		dec.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a full output queue")
	}
}

func TestBufferQueue_Capabilities(t *testing.T) {
	dec := NewRawDecoder(1)
	caps := dec.Capabilities()
	assert.True(t, caps.Supports(ColorFormatYUV420Flexible))
	assert.True(t, caps.Supports(ColorFormatNV21))
	assert.False(t, caps.Supports(ColorFormatUnknown))
	assert.Equal(t, "raw.yuv420p", dec.Name())
}
