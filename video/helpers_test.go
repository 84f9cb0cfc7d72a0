package video

import (
	"testing"
	"time"

	"github.com/opd-ai/nv21play/codec"
	"github.com/opd-ai/nv21play/container"
	"github.com/stretchr/testify/require"
)

// decodeRaw pushes one packed I420 frame through the raw decoder with
// 16-byte row alignment and returns the decoded image in format cf.
func decodeRaw(t *testing.T, frame []byte, w, h int, cf codec.ColorFormat) *codec.Image {
	t.Helper()

	dec := codec.NewRawDecoder(16)
	t.Cleanup(func() { dec.Close() })
	track := container.Track{MediaType: container.MediaTypeVideo, MIME: container.MIMERawYUV420, Width: w, Height: h}
	require.NoError(t, dec.Configure(track, cf))
	require.NoError(t, dec.Start())

	slot, ok, err := dec.AcquireInputSlot(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, dec.SubmitInput(slot, frame, 0, false))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		out, err := dec.PollOutput(10 * time.Millisecond)
		require.NoError(t, err)
		if out.Kind == codec.OutputImageReady {
			require.NotNil(t, out.Image)
			return out.Image
		}
	}
	t.Fatal("raw decoder produced no image")
	return nil
}
