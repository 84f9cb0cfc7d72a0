package codec

import "image"

// softwareFormats is what the buffer-queue backends can lay out.
var softwareFormats = []ColorFormat{
	ColorFormatYUV420Flexible,
	ColorFormatI420,
	ColorFormatYV12,
	ColorFormatNV12,
	ColorFormatNV21,
}

// picture is a planar 4:2:0 frame produced by a backend. The plane slices
// are only valid until the backend decodes again.
type picture struct {
	width, height             int
	pts                       int64
	y, u, v                   []byte
	yStride, uStride, vStride int
}

// alignUp rounds n up to a multiple of align (align <= 1 is a no-op).
func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// layoutPicture copies pic into dst using the memory layout of format.
// dst's backing store is reused when large enough. Rows are padded to
// rowAlign bytes, mimicking hardware stride alignment.
func layoutPicture(dst *Image, format ColorFormat, rowAlign int, pic *picture) {
	w, h := pic.width, pic.height
	cw, ch := (w+1)/2, (h+1)/2

	var back []byte
	if len(dst.Planes) > 0 {
		back = dst.Planes[0].Data[:cap(dst.Planes[0].Data)]
	}

	dst.Format = format
	dst.Width = w
	dst.Height = h
	dst.Crop = image.Rect(0, 0, w, h)
	dst.PTSMicros = pic.pts
	if cap(dst.Planes) < 3 {
		dst.Planes = make([]Plane, 3)
	}
	dst.Planes = dst.Planes[:3]

	switch format {
	case ColorFormatNV12, ColorFormatNV21:
		yStride := alignUp(w, rowAlign)
		cStride := alignUp(2*cw, rowAlign)
		ySize := yStride * h
		total := ySize + cStride*ch
		back = grow(back, total)

		copyRows(back, yStride, 1, pic.y, pic.yStride, w, h)
		first, second := pic.u, pic.v
		firstStride, secondStride := pic.uStride, pic.vStride
		if format == ColorFormatNV21 {
			first, second = pic.v, pic.u
			firstStride, secondStride = pic.vStride, pic.uStride
		}
		copyRows(back[ySize:], cStride, 2, first, firstStride, cw, ch)
		copyRows(back[ySize+1:], cStride, 2, second, secondStride, cw, ch)

		// Chroma views end at the last sample, as hardware planes do.
		chromaLen := cStride*(ch-1) + 2*(cw-1) + 1
		firstView := Plane{Data: back[ySize : ySize+chromaLen], RowStride: cStride, PixelStride: 2}
		secondView := Plane{Data: back[ySize+1 : ySize+1+chromaLen], RowStride: cStride, PixelStride: 2}

		dst.Planes[0] = Plane{Data: back[:ySize], RowStride: yStride, PixelStride: 1}
		if format == ColorFormatNV12 {
			dst.Planes[1], dst.Planes[2] = firstView, secondView
		} else {
			dst.Planes[1], dst.Planes[2] = secondView, firstView
		}

	default:
		// I420, YV12 and the flexible format are fully planar.
		yStride := alignUp(w, rowAlign)
		cStride := alignUp(cw, rowAlign)
		ySize := yStride * h
		cSize := cStride * ch
		back = grow(back, ySize+2*cSize)

		uOff, vOff := ySize, ySize+cSize
		if format == ColorFormatYV12 {
			uOff, vOff = vOff, uOff
		}
		copyRows(back, yStride, 1, pic.y, pic.yStride, w, h)
		copyRows(back[uOff:], cStride, 1, pic.u, pic.uStride, cw, ch)
		copyRows(back[vOff:], cStride, 1, pic.v, pic.vStride, cw, ch)

		dst.Planes[0] = Plane{Data: back[:ySize], RowStride: yStride, PixelStride: 1}
		dst.Planes[1] = Plane{Data: back[uOff : uOff+cSize], RowStride: cStride, PixelStride: 1}
		dst.Planes[2] = Plane{Data: back[vOff : vOff+cSize], RowStride: cStride, PixelStride: 1}
	}
}

// grow returns buf resliced to n bytes, allocating only when capacity is short.
func grow(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}

// copyRows writes a width x rows block from src into dst, placing samples
// pixelStride bytes apart.
func copyRows(dst []byte, dstStride, pixelStride int, src []byte, srcStride, width, rows int) {
	for r := 0; r < rows; r++ {
		s := src[r*srcStride : r*srcStride+width]
		d := dst[r*dstStride:]
		if pixelStride == 1 {
			copy(d, s)
			continue
		}
		for i, b := range s {
			d[i*pixelStride] = b
		}
	}
}
