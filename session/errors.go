package session

import (
	"errors"
	"fmt"
)

// State machine errors.
var (
	// ErrInvalidTransition indicates the requested state change is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Stream errors.
var (
	// ErrNoVideoTrack indicates the container holds no video/ track
	ErrNoVideoTrack = errors.New("no video track")

	// ErrDecode is matched by every DecodeError
	ErrDecode = errors.New("decode error")
)

// DecodeError reports a failure of the decode loop after the session
// started, such as an unreadable sample or a broken decoder queue.
type DecodeError struct {
	Op  string // loop step that failed, e.g. "read sample"
	Err error  // underlying error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// newDecodeError creates a new DecodeError
func newDecodeError(op string, err error) *DecodeError {
	return &DecodeError{
		Op:  op,
		Err: err,
	}
}
