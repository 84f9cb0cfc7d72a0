package video

import (
	"fmt"
)

// Scaler resizes NV21 frames with bilinear interpolation. The detection
// side channel uses it to shrink frames before handing them to a detector.
type Scaler struct {
	// No fields needed for stateless scaling operations
}

// NewScaler creates a new NV21 frame scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// ScaleNV21 resizes a w x h NV21 frame to dw x dh.
//
// Target dimensions must be even so the chroma pairs stay aligned. When
// the size is unchanged the result is a copy of src.
func (s *Scaler) ScaleNV21(src []byte, w, h, dw, dh int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: source %dx%d", ErrInvalidDimensions, w, h)
	}
	if dw <= 0 || dh <= 0 || dw%2 != 0 || dh%2 != 0 {
		return nil, fmt.Errorf("%w: target %dx%d must be positive and even", ErrInvalidDimensions, dw, dh)
	}

	lumaSize := w * h
	cw, ch := w/2, h/2
	if len(src) < lumaSize+2*cw*ch {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidDimensions, len(src), w, h)
	}

	if !s.IsScalingRequired(w, h, dw, dh) {
		return append([]byte(nil), src[:lumaSize+2*cw*ch]...), nil
	}

	dst := make([]byte, dw*dh*3/2)
	dLuma := dw * dh

	s.scalePlane(src[:lumaSize], w, h, w, 1, dst[:dLuma], dw, dh, dw, 1)

	if cw > 0 && ch > 0 {
		// V then U, each scaled as its own channel of the interleaved plane.
		srcChroma := src[lumaSize:]
		dstChroma := dst[dLuma:]
		s.scalePlane(srcChroma, cw, ch, 2*cw, 2, dstChroma, dw/2, dh/2, dw, 2)
		s.scalePlane(srcChroma[1:], cw, ch, 2*cw, 2, dstChroma[1:], dw/2, dh/2, dw, 2)
	}
	return dst, nil
}

// scalePlane scales a single channel using bilinear interpolation.
// Samples sit pixelStride bytes apart within rows of rowStride bytes.
func (s *Scaler) scalePlane(src []byte, srcWidth, srcHeight, srcStride, srcPixel int,
	dst []byte, dstWidth, dstHeight, dstStride, dstPixel int) {

	// Calculate scaling ratios
	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := float64(x) * xRatio
			srcY := float64(y) * yRatio

			x1 := int(srcX)
			y1 := int(srcY)
			x2 := x1 + 1
			y2 := y1 + 1

			// Clamp to bounds
			if x2 >= srcWidth {
				x2 = srcWidth - 1
			}
			if y2 >= srcHeight {
				y2 = srcHeight - 1
			}

			fx := srcX - float64(x1)
			fy := srcY - float64(y1)

			p11 := float64(src[y1*srcStride+x1*srcPixel])
			p12 := float64(src[y1*srcStride+x2*srcPixel])
			p21 := float64(src[y2*srcStride+x1*srcPixel])
			p22 := float64(src[y2*srcStride+x2*srcPixel])

			top := p11*(1-fx) + p12*fx
			bottom := p21*(1-fx) + p22*fx
			pixel := top*(1-fy) + bottom*fy

			dst[y*dstStride+x*dstPixel] = byte(pixel + 0.5) // Round to nearest
		}
	}
}

// FitWidth returns dimensions no wider than maxWidth that keep the aspect
// ratio, rounded down to even values. maxWidth <= 0 means no limit.
func (s *Scaler) FitWidth(w, h, maxWidth int) (int, int) {
	if maxWidth <= 0 || w <= maxWidth {
		return w &^ 1, h &^ 1
	}
	dh := h * maxWidth / w
	return maxWidth &^ 1, dh &^ 1
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight int) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}
