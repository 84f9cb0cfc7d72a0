// Package render draws NV21 frames with OpenGL ES 2.
//
// The Renderer uploads the luma plane as a LUMINANCE texture and the
// interleaved V/U plane as a half-size LUMINANCE_ALPHA texture, then runs a
// fragment shader that converts to RGB with BT.709 coefficients. Frames
// reach the renderer through a single-slot mailbox: a newer frame replaces
// an older one that was never drawn.
//
// GL access goes through the GL interface so the renderer can be driven by
// the render/gles2 binding or by a test double. ShadeNV21 reproduces the
// shader on the CPU for snapshots and tests.
package render
