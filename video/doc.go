// Package video converts decoded images into the contiguous NV21 buffers
// the renderer and the detection side channel consume.
//
// # Repacking
//
// A decoder hands out planes with arbitrary row and pixel strides and an
// optional crop rectangle. The Repacker reads only the crop region and
// writes a w*h*3/2 buffer:
//
//	NV21: Y[w*h] then V0 U0 V1 U1 ... (V at even offsets from w*h)
//	I420: Y[w*h] then U[w/2*h/2] then V[w/2*h/2]
//
// The renderer's chroma texture is uploaded as LUMINANCE_ALPHA, so in NV21
// the V sample arrives in the red channel and U in the alpha channel.
//
// The destination is a FrameBuffer owned by the caller and reused across
// frames; it is reallocated only when w*h*3/2 changes:
//
//	var buf video.FrameBuffer
//	r := video.NewRepacker(video.LayoutNV21)
//	frame, err := r.Repack(img, &buf)
//
// # Scaling
//
// Scaler shrinks NV21 frames with bilinear interpolation before they are
// passed to a face detector.
package video
