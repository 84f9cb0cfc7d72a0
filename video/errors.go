package video

import "errors"

// Sentinel errors for repacking and scaling.
var (
	// ErrUnsupportedPixelFormat indicates an image layout the repacker cannot read.
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")

	// ErrPlaneBounds indicates plane strides that address bytes past the plane data.
	ErrPlaneBounds = errors.New("plane strides exceed plane data")

	// ErrInvalidDimensions indicates a zero, negative or mismatched frame size.
	ErrInvalidDimensions = errors.New("invalid frame dimensions")
)
