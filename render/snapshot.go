package render

import (
	"fmt"
	"image"
	"math"
)

// ShadeNV21 converts an NV21 frame to RGBA with the same arithmetic as
// FragmentShaderSource, sampling chroma at the nearest 2x2 block.
func ShadeNV21(nv21 []byte, width, height int) (*image.RGBA, error) {
	lumaSize := width * height
	cw, ch := width/2, height/2
	if width <= 0 || height <= 0 || len(nv21) < lumaSize+2*cw*ch {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrFrameSize, len(nv21), width, height)
	}
	return shade(nv21[:lumaSize], nv21[lumaSize:lumaSize+2*cw*ch], width, height), nil
}

func shade(luma, chroma []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	cw, ch := width/2, height/2

	for y := 0; y < height; y++ {
		cy := min(y/2, ch-1)
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			yy := float64(luma[y*width+x]) / 255
			var u, v float64
			if cw > 0 && ch > 0 {
				ci := 2 * (cy*cw + min(x/2, cw-1))
				v = float64(chroma[ci])/255 - 0.5
				u = float64(chroma[ci+1])/255 - 0.5
			}

			row[4*x+0] = toByte(yy + 1.5748*v)
			row[4*x+1] = toByte(yy - 0.1873*u - 0.4681*v)
			row[4*x+2] = toByte(yy + 1.8556*u)
			row[4*x+3] = 0xff
		}
	}
	return img
}

func toByte(c float64) uint8 {
	if c <= 0 {
		return 0
	}
	if c >= 1 {
		return 0xff
	}
	return uint8(math.Round(c * 255))
}

// Snapshot shades the current frame on the CPU. It does not touch GL and
// may be called from any goroutine.
func (r *Renderer) Snapshot() (*image.RGBA, error) {
	var img *image.RGBA
	ok := r.slot.Inspect(func(f *Frame) {
		img = shade(f.Luma, f.Chroma, f.Width, f.Height)
	})
	if !ok {
		return nil, ErrNoFrame
	}
	return img, nil
}
