package codec

import (
	"errors"
	"fmt"
)

// Configuration errors
var (
	// ErrUnsupportedCodec indicates no registered backend handles the MIME type
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrUnsupportedColorFormat indicates the backend cannot emit the requested color format
	ErrUnsupportedColorFormat = errors.New("unsupported color format")

	// ErrInvalidCodecConfig indicates malformed codec private data (e.g. avcC)
	ErrInvalidCodecConfig = errors.New("invalid codec configuration")
)

// Lifecycle errors
var (
	// ErrNotConfigured indicates Start was called before Configure
	ErrNotConfigured = errors.New("decoder not configured")

	// ErrNotStarted indicates a queue operation before Start
	ErrNotStarted = errors.New("decoder not started")

	// ErrAlreadyStarted indicates Configure or Start on a running decoder
	ErrAlreadyStarted = errors.New("decoder already started")

	// ErrDecoderStalled indicates a decoder refused input with no output to drain
	ErrDecoderStalled = errors.New("decoder refuses input with no output pending")

	// ErrClosed indicates the decoder has been closed
	ErrClosed = errors.New("decoder closed")
)

// Buffer queue errors
var (
	// ErrBufferRelease indicates release of an unknown or already released output buffer
	ErrBufferRelease = errors.New("invalid output buffer release")

	// ErrInvalidSlot indicates a submit on an input slot that was not acquired
	ErrInvalidSlot = errors.New("invalid input slot")

	// ErrInputAfterEOS indicates input was submitted after the end-of-stream buffer
	ErrInputAfterEOS = errors.New("input submitted after end of stream")
)

// Per-sample decode errors. These drop one frame; they never stop the queue.
var (
	// ErrNonKeyFrame indicates an inter frame the backend cannot reconstruct
	ErrNonKeyFrame = errors.New("non-key frame not supported")

	// ErrFrameSize indicates a raw frame whose size does not match the track geometry
	ErrFrameSize = errors.New("frame size mismatch")
)

// UnsupportedCodecError reports the MIME type no backend could serve.
type UnsupportedCodecError struct {
	MIME string
}

func (e *UnsupportedCodecError) Error() string {
	return fmt.Sprintf("codec: no decoder for %q", e.MIME)
}

// Is reports whether target is ErrUnsupportedCodec.
func (e *UnsupportedCodecError) Is(target error) bool {
	return target == ErrUnsupportedCodec
}

// Error represents a decoder error with additional context
type Error struct {
	Op    string // operation that caused the error
	Codec string // decoder name if relevant
	Err   error  // underlying error
}

func (e *Error) Error() string {
	if e.Codec != "" {
		return fmt.Sprintf("codec %s %s: %v", e.Op, e.Codec, e.Err)
	}
	return fmt.Sprintf("codec %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates a new codec Error
func newError(op, codec string, err error) *Error {
	return &Error{
		Op:    op,
		Codec: codec,
		Err:   err,
	}
}
