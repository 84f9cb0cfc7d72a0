package render

import (
	"errors"
	"fmt"
)

// Program setup errors.
var (
	// ErrShaderCompile indicates a shader failed to compile
	ErrShaderCompile = errors.New("shader compilation failed")

	// ErrProgramLink indicates the shader program failed to link
	ErrProgramLink = errors.New("program link failed")
)

// Frame errors.
var (
	// ErrNoFrameSize indicates a frame was submitted before SetFrameSize
	ErrNoFrameSize = errors.New("frame size not set")

	// ErrFrameSize indicates the frame planes do not match the frame size
	ErrFrameSize = errors.New("frame size mismatch")

	// ErrNoFrame indicates no frame has been submitted yet
	ErrNoFrame = errors.New("no frame submitted")
)

// GLError reports a non-zero glGetError code after an operation.
type GLError struct {
	Op   string
	Code uint32
}

func (e *GLError) Error() string {
	return fmt.Sprintf("gl %s: error 0x%04x", e.Op, e.Code)
}

// checkGL drains the GL error queue and reports the first error.
func checkGL(gl GL, op string) error {
	code := gl.GetError()
	if code == NoError {
		return nil
	}
	for gl.GetError() != NoError {
	}
	return &GLError{Op: op, Code: code}
}
