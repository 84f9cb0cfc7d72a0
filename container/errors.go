package container

import (
	"errors"
	"fmt"
)

// ErrContainer is matched by every error returned from this package, so
// callers can classify failures with errors.Is(err, ErrContainer).
var ErrContainer = errors.New("container error")

// Open and parse errors.
var (
	// ErrUnknownFormat indicates the file is not one of the supported containers.
	ErrUnknownFormat = errors.New("unrecognized container format")

	// ErrMalformed indicates the container structure could not be parsed.
	ErrMalformed = errors.New("malformed container")

	// ErrUnsupportedColorspace indicates a raw stream uses a chroma layout other than 4:2:0.
	ErrUnsupportedColorspace = errors.New("unsupported raw colorspace")
)

// Track selection errors.
var (
	// ErrNoTrackSelected indicates ReadSample was called before SelectTrack.
	ErrNoTrackSelected = errors.New("no track selected")

	// ErrTrackIndex indicates a track index outside the discovered tracks.
	ErrTrackIndex = errors.New("track index out of range")
)

// Error carries the operation and file that failed together with the cause.
type Error struct {
	Op   string // operation that failed, e.g. "open", "read"
	Path string // container path if known
	Err  error  // underlying error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("container %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("container %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrContainer.
func (e *Error) Is(target error) bool {
	return target == ErrContainer
}

// newError creates a new container Error.
func newError(op, path string, err error) *Error {
	return &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
