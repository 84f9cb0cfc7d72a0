package video

import (
	"fmt"
	"image"

	"github.com/opd-ai/nv21play/codec"
	"github.com/sirupsen/logrus"
)

// Layout is the byte layout the repacker writes.
type Layout int

const (
	// LayoutNV21 writes luma followed by interleaved V/U pairs.
	LayoutNV21 Layout = iota
	// LayoutI420 writes luma, then the U plane, then the V plane.
	LayoutI420
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutNV21:
		return "NV21"
	case LayoutI420:
		return "I420"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// supportedFormats are the decoder output formats the repacker can read,
// in order of preference after the flexible format.
var supportedFormats = []codec.ColorFormat{
	codec.ColorFormatI420,
	codec.ColorFormatYV12,
	codec.ColorFormatNV12,
	codec.ColorFormatNV21,
}

// IsSupportedFormat reports whether images of format cf can be repacked.
func IsSupportedFormat(cf codec.ColorFormat) bool {
	if cf == codec.ColorFormatYUV420Flexible {
		return true
	}
	for _, f := range supportedFormats {
		if f == cf {
			return true
		}
	}
	return false
}

// NegotiateColorFormat picks the decoder output format: the flexible 4:2:0
// format when advertised, otherwise the first advertised layout the repacker
// understands.
func NegotiateColorFormat(caps codec.Capabilities) (codec.ColorFormat, error) {
	for _, cf := range caps.ColorFormats {
		logrus.WithFields(logrus.Fields{
			"function":     "NegotiateColorFormat",
			"color_format": cf.String(),
			"repackable":   IsSupportedFormat(cf),
		}).Debug("Decoder supports color format")
	}

	if caps.Supports(codec.ColorFormatYUV420Flexible) {
		return codec.ColorFormatYUV420Flexible, nil
	}
	for _, cf := range caps.ColorFormats {
		if IsSupportedFormat(cf) {
			return cf, nil
		}
	}
	return codec.ColorFormatUnknown, fmt.Errorf("%w: decoder offers %v", ErrUnsupportedPixelFormat, caps.ColorFormats)
}

// FrameBuffer is a reusable repack destination sized w*h*3/2. It
// reallocates only when that size changes.
type FrameBuffer struct {
	data          []byte
	width, height int
	allocations   int
}

// Ensure sizes the buffer for a w x h frame and returns it.
func (b *FrameBuffer) Ensure(w, h int) []byte {
	size := w * h * 3 / 2
	if b.data == nil || len(b.data) != size {
		b.data = make([]byte, size)
		b.allocations++
	}
	b.width, b.height = w, h
	return b.data
}

// Bytes returns the current contents.
func (b *FrameBuffer) Bytes() []byte {
	return b.data
}

// Size returns the dimensions of the last repacked frame.
func (b *FrameBuffer) Size() (width, height int) {
	return b.width, b.height
}

// Allocations counts how many times the backing array was allocated.
func (b *FrameBuffer) Allocations() int {
	return b.allocations
}

// Repacker converts decoded planar images into one contiguous buffer.
type Repacker struct {
	layout Layout
}

// NewRepacker creates a repacker that writes layout.
func NewRepacker(layout Layout) *Repacker {
	return &Repacker{layout: layout}
}

// Layout returns the output layout.
func (r *Repacker) Layout() Layout {
	return r.layout
}

// activeRect returns the crop rectangle, or the full image when no crop is set.
func activeRect(img *codec.Image) image.Rectangle {
	if img.Crop.Empty() {
		return image.Rect(0, 0, img.Width, img.Height)
	}
	return img.Crop
}

// Check validates the plane layout of img without copying. Sessions call
// it on the first frame so layout errors surface once.
func (r *Repacker) Check(img *codec.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrUnsupportedPixelFormat)
	}
	if !IsSupportedFormat(img.Format) {
		return fmt.Errorf("%w: %s", ErrUnsupportedPixelFormat, img.Format)
	}
	if len(img.Planes) != 3 {
		return fmt.Errorf("%w: %d planes", ErrUnsupportedPixelFormat, len(img.Planes))
	}

	crop := activeRect(img)
	if crop.Dx() <= 0 || crop.Dy() <= 0 || crop.Min.X < 0 || crop.Min.Y < 0 {
		return fmt.Errorf("%w: crop %v", ErrInvalidDimensions, crop)
	}

	for i, p := range img.Planes {
		shift := 0
		if i > 0 {
			shift = 1
		}
		if p.PixelStride < 1 || p.RowStride < 1 {
			return fmt.Errorf("%w: plane %d strides %d/%d", ErrUnsupportedPixelFormat, i, p.RowStride, p.PixelStride)
		}
		w, h := crop.Dx()>>shift, crop.Dy()>>shift
		if w == 0 || h == 0 {
			continue
		}
		start := p.RowStride*(crop.Min.Y>>shift) + p.PixelStride*(crop.Min.X>>shift)
		last := start + p.RowStride*(h-1) + p.PixelStride*(w-1)
		if last >= len(p.Data) {
			return fmt.Errorf("%w: plane %d needs %d bytes, has %d", ErrPlaneBounds, i, last+1, len(p.Data))
		}
	}
	return nil
}

// Repack copies the crop region of img into buf and returns the filled
// bytes.
//
// Luma comes first; chroma follows in the repacker's layout. For NV21, V
// samples land on even offsets from w*h and U samples on odd ones. Row and
// pixel strides of every plane are honored, so padded or semi-planar
// decoder output repacks the same as tightly packed planes. buf is only
// reallocated when the crop size changes.
//
// Parameters:
//   - img: Decoded image, validated with Check on every call
//   - buf: Session-owned destination buffer, reused across calls
//
// Returns:
//   - []byte: w*h*3/2 bytes backed by buf, valid until the next call
//   - error: ErrUnsupportedPixelFormat or ErrPlaneBounds for bad planes
func (r *Repacker) Repack(img *codec.Image, buf *FrameBuffer) ([]byte, error) {
	if err := r.Check(img); err != nil {
		return nil, err
	}

	crop := activeRect(img)
	width, height := crop.Dx(), crop.Dy()
	out := buf.Ensure(width, height)
	lumaSize := width * height

	for i, p := range img.Planes {
		var shift, offset, outStride int
		switch i {
		case 0:
			offset, outStride = 0, 1
		case 1:
			shift = 1
			if r.layout == LayoutNV21 {
				offset, outStride = lumaSize+1, 2
			} else {
				offset, outStride = lumaSize, 1
			}
		case 2:
			shift = 1
			if r.layout == LayoutNV21 {
				offset, outStride = lumaSize, 2
			} else {
				offset, outStride = lumaSize+(width/2)*(height/2), 1
			}
		}

		w, h := width>>shift, height>>shift
		start := p.RowStride*(crop.Min.Y>>shift) + p.PixelStride*(crop.Min.X>>shift)
		copyPlane(out[offset:], outStride, p, start, w, h)
	}
	return out, nil
}

// copyPlane reads a w x h block of p starting at byte start and writes it
// outStride bytes apart. Rows with unit strides on both sides are bulk copied.
func copyPlane(dst []byte, outStride int, p codec.Plane, start, w, h int) {
	if w == 0 || h == 0 {
		return
	}
	pos := 0
	for row := 0; row < h; row++ {
		base := start + row*p.RowStride
		if p.PixelStride == 1 && outStride == 1 {
			copy(dst[pos:pos+w], p.Data[base:base+w])
			pos += w
			continue
		}
		rowData := p.Data[base : base+(w-1)*p.PixelStride+1]
		for col := 0; col < w; col++ {
			dst[pos] = rowData[col*p.PixelStride]
			pos += outStride
		}
	}
}

// SplitNV21 returns the luma and interleaved chroma views of an NV21 buffer.
func SplitNV21(frame []byte, width, height int) (luma, chroma []byte, err error) {
	lumaSize := width * height
	if width <= 0 || height <= 0 || len(frame) < lumaSize+2*(width/2)*(height/2) {
		return nil, nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidDimensions, len(frame), width, height)
	}
	return frame[:lumaSize], frame[lumaSize:], nil
}
