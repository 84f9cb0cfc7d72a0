package codec

import (
	"image"
	"time"

	"github.com/opd-ai/nv21play/container"
)

// ColorFormat identifies the memory layout of decoder output buffers.
type ColorFormat int

const (
	ColorFormatUnknown ColorFormat = iota
	// ColorFormatYUV420Flexible lets the decoder choose any 4:2:0 layout;
	// the planes of each Image describe where the samples live.
	ColorFormatYUV420Flexible
	ColorFormatI420
	ColorFormatYV12
	ColorFormatNV12
	ColorFormatNV21
)

// String returns the name of the color format.
func (c ColorFormat) String() string {
	switch c {
	case ColorFormatYUV420Flexible:
		return "YUV420Flexible"
	case ColorFormatI420:
		return "I420"
	case ColorFormatYV12:
		return "YV12"
	case ColorFormatNV12:
		return "NV12"
	case ColorFormatNV21:
		return "NV21"
	default:
		return "Unknown"
	}
}

// Plane is a view over one component of a decoded image.
type Plane struct {
	Data        []byte
	RowStride   int
	PixelStride int
}

// Image is a decoded picture. Planes are always ordered Y, U (Cb), V (Cr)
// regardless of the underlying Format; semi-planar formats expose U and V as
// views with PixelStride 2 over the same interleaved memory.
//
// An Image borrows decoder memory and is valid only until its output buffer
// is released.
type Image struct {
	Format    ColorFormat
	Width     int
	Height    int
	Crop      image.Rectangle
	Planes    []Plane
	PTSMicros int64
}

// OutputKind tags the result of PollOutput.
type OutputKind int

const (
	// OutputTryAgain means no output was ready within the timeout.
	OutputTryAgain OutputKind = iota
	// OutputFormatChanged announces new output dimensions or layout.
	OutputFormatChanged
	// OutputBuffersChanged means previously returned buffer views are stale.
	OutputBuffersChanged
	// OutputImageReady carries a dequeued output buffer.
	OutputImageReady
)

// String returns the name of the output kind.
func (k OutputKind) String() string {
	switch k {
	case OutputTryAgain:
		return "TryAgain"
	case OutputFormatChanged:
		return "FormatChanged"
	case OutputBuffersChanged:
		return "BuffersChanged"
	case OutputImageReady:
		return "ImageReady"
	default:
		return "Unknown"
	}
}

// BufferInfo is the metadata of a dequeued output buffer.
type BufferInfo struct {
	PTSMicros   int64
	Size        int
	EndOfStream bool
}

// OutputFormat describes the output after a FormatChanged event.
type OutputFormat struct {
	Width       int
	Height      int
	ColorFormat ColorFormat
}

// Output is the tagged result of PollOutput. Index, Info and Image are set
// for OutputImageReady; Image is nil for an empty end-of-stream buffer.
// Format is set for OutputFormatChanged.
type Output struct {
	Kind   OutputKind
	Index  int
	Info   BufferInfo
	Image  *Image
	Format OutputFormat
}

// Capabilities lists what a decoder can emit.
type Capabilities struct {
	ColorFormats []ColorFormat
}

// Supports reports whether cf is among the advertised color formats.
func (c Capabilities) Supports(cf ColorFormat) bool {
	for _, f := range c.ColorFormats {
		if f == cf {
			return true
		}
	}
	return false
}

// Decoder drives a stateful codec through an input/output buffer queue.
//
// The protocol mirrors hardware codecs: acquire an input slot, fill and
// submit it, poll for output, and release every ImageReady buffer exactly
// once. A Decoder is owned by one goroutine.
type Decoder interface {
	// Configure prepares the decoder for the track and output color format.
	Configure(track container.Track, format ColorFormat) error
	// Start begins decoding.
	Start() error
	// AcquireInputSlot returns a writable input slot. ok is false when no
	// slot became free within timeout; the caller retries later.
	AcquireInputSlot(timeout time.Duration) (slot int, ok bool, err error)
	// SubmitInput queues a filled slot. data may be empty when eos is set.
	SubmitInput(slot int, data []byte, ptsMicros int64, eos bool) error
	// PollOutput dequeues one output event, or OutputTryAgain on timeout.
	PollOutput(timeout time.Duration) (Output, error)
	// ReleaseOutput returns an ImageReady buffer to the decoder. render
	// requests the buffer be shown on the decoder's surface if it has one.
	ReleaseOutput(index int, render bool) error
	// Capabilities reports the supported output color formats.
	Capabilities() Capabilities
	// Name identifies the backend.
	Name() string
	// Close stops decoding and frees all buffers.
	Close() error
}

// DropCounter is implemented by decoders that skip undecodable samples.
type DropCounter interface {
	DroppedFrames() uint64
}
