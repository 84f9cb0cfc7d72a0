// Package codec decodes compressed video samples through a buffer-queue
// protocol modeled on hardware codecs.
//
// A Decoder hands out input slots, accepts filled slots, and reports output
// as tagged events: ImageReady (a decoded picture in an output buffer that
// must be released), FormatChanged, BuffersChanged, or TryAgain when nothing
// was ready within the poll timeout. Timeouts are routine; callers retry on
// their next pump cycle.
//
// Backends are looked up by MIME type:
//
//	dec, err := codec.NewDecoderByType(track.MIME)
//	if errors.Is(err, codec.ErrUnsupportedCodec) {
//		// no backend for this track
//	}
//
// Built-in backends are a pure Go VP8 key-frame decoder and a raw I420
// pass-through for YUV4MPEG2 files. Building with the ffmpeg tag adds
// libavcodec decoders for H.264, HEVC, VP8, VP9 and AV1.
//
// Software backends can lay out output in any of I420, YV12, NV12 or NV21,
// always exposing planes in Y, U, V order so consumers can handle every
// layout through row and pixel strides alone.
package codec
