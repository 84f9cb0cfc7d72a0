package render

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Full-viewport quad as a 4-vertex triangle strip.
var (
	quadPositions = []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}
	// Row 0 of the frame is the top of the picture.
	quadTexCoords = []float32{
		0, 1,
		1, 1,
		0, 0,
		1, 0,
	}
)

// Renderer draws NV21 frames with a two-texture shader: luma as a
// LUMINANCE texture of w x h and chroma as a LUMINANCE_ALPHA texture of
// w/2 x h/2.
//
// SurfaceCreated, SurfaceChanged and RenderOnce must run on the GL
// goroutine. SetFrameSize, SubmitFrame and Submit may be called from any
// goroutine.
type Renderer struct {
	gl GL

	// GL goroutine state.
	program     uint32
	posAttrib   uint32
	texAttrib   uint32
	yUniform    int32
	uvUniform   int32
	posBuffer   uint32
	texBuffer   uint32
	yTexture    uint32
	uvTexture   uint32
	programOK   bool
	texturesOK  bool
	uploaded    bool
	viewWidth   int32
	viewHeight  int32
	framesDrawn uint64

	slot FrameSlot

	sizeMu sync.Mutex
	width  int
	height int
}

// New creates a renderer over gl. No GL call is made until SurfaceCreated
// or the first RenderOnce.
func New(gl GL) *Renderer {
	return &Renderer{gl: gl}
}

// SurfaceCreated builds the shader program and vertex buffers for a new GL
// context. Objects from a previous context are abandoned, not deleted.
func (r *Renderer) SurfaceCreated() error {
	r.programOK = false
	r.texturesOK = false
	r.uploaded = false
	return r.setup()
}

// SurfaceChanged sets the viewport to the surface size.
func (r *Renderer) SurfaceChanged(width, height int) {
	r.viewWidth, r.viewHeight = int32(width), int32(height)
	r.gl.Viewport(0, 0, r.viewWidth, r.viewHeight)

	logrus.WithFields(logrus.Fields{
		"function": "SurfaceChanged",
		"width":    width,
		"height":   height,
	}).Debug("Viewport updated")
}

// SetFrameSize records the dimensions used by SubmitFrame.
func (r *Renderer) SetFrameSize(width, height int) {
	r.sizeMu.Lock()
	defer r.sizeMu.Unlock()
	if r.width == width && r.height == height {
		return
	}
	r.width, r.height = width, height

	logrus.WithFields(logrus.Fields{
		"function": "SetFrameSize",
		"width":    width,
		"height":   height,
	}).Info("Frame size set")
}

// FrameSize returns the dimensions recorded by SetFrameSize.
func (r *Renderer) FrameSize() (int, int) {
	r.sizeMu.Lock()
	defer r.sizeMu.Unlock()
	return r.width, r.height
}

// SubmitFrame stores references to the luma and chroma planes of the next
// frame. It does not draw; the caller requests a redraw from the host. The
// planes must stay untouched until they are replaced by a later submit.
func (r *Renderer) SubmitFrame(luma, chroma []byte) error {
	w, h := r.FrameSize()
	f := &Frame{Luma: luma, Chroma: chroma, Width: w, Height: h}
	if err := f.Validate(); err != nil {
		return err
	}
	r.slot.Put(f)
	return nil
}

// Submit stores f as the current frame and returns the frame it replaced.
// The returned frame is no longer referenced by the renderer.
func (r *Renderer) Submit(f *Frame) (*Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return r.slot.Put(f), nil
}

// Slot exposes the frame mailbox for statistics.
func (r *Renderer) Slot() *FrameSlot {
	return &r.slot
}

// FramesDrawn returns how many draws included a frame.
func (r *Renderer) FramesDrawn() uint64 {
	return r.framesDrawn
}

// RenderOnce clears the surface and draws the current frame, if any.
//
// It must run on the goroutine that owns the GL context. Textures are
// created lazily on the first call after SurfaceCreated. A frame that has
// not been uploaded yet is copied into the luma (LUMINANCE, w x h) and
// chroma (LUMINANCE_ALPHA, w/2 x h/2) textures while the frame slot is
// locked; redraws of the same frame skip the upload.
//
// Returns:
//   - error: Program setup failures, or a *GLError left in the GL error
//     queue by the clear or the draw
func (r *Renderer) RenderOnce() error {
	if !r.programOK {
		if err := r.setup(); err != nil {
			return err
		}
	}
	if !r.texturesOK {
		r.createTextures()
	}

	gl := r.gl
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(ColorBufferBit)

	drawn := r.slot.View(func(f *Frame, fresh bool) {
		if fresh || !r.uploaded {
			r.upload(f)
		}
	})
	if !drawn {
		return checkGL(gl, "clear")
	}

	gl.UseProgram(r.program)
	gl.ActiveTexture(Texture0)
	gl.BindTexture(Texture2D, r.yTexture)
	gl.Uniform1i(r.yUniform, 0)
	gl.ActiveTexture(Texture1)
	gl.BindTexture(Texture2D, r.uvTexture)
	gl.Uniform1i(r.uvUniform, 1)

	gl.BindBuffer(ArrayBuffer, r.posBuffer)
	gl.EnableVertexAttribArray(r.posAttrib)
	gl.VertexAttribPointer(r.posAttrib, 2, Float, false, 0, 0)
	gl.BindBuffer(ArrayBuffer, r.texBuffer)
	gl.EnableVertexAttribArray(r.texAttrib)
	gl.VertexAttribPointer(r.texAttrib, 2, Float, false, 0, 0)

	gl.DrawArrays(TriangleStrip, 0, 4)
	if err := checkGL(gl, "draw"); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "RenderOnce",
			"error":    err.Error(),
		}).Error("Draw failed")
		return err
	}
	r.framesDrawn++
	return nil
}

// setup builds the program and the static vertex buffers.
func (r *Renderer) setup() error {
	gl := r.gl
	program, err := buildProgram(gl)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "setup",
			"error":    err.Error(),
		}).Error("Failed to build shader program")
		return err
	}
	r.program = program
	r.posAttrib = uint32(gl.GetAttribLocation(program, attribPosition))
	r.texAttrib = uint32(gl.GetAttribLocation(program, attribTexCoord))
	r.yUniform = gl.GetUniformLocation(program, uniformY)
	r.uvUniform = gl.GetUniformLocation(program, uniformUV)

	r.posBuffer = gl.GenBuffer()
	gl.BindBuffer(ArrayBuffer, r.posBuffer)
	gl.BufferData(ArrayBuffer, quadPositions, StaticDraw)
	r.texBuffer = gl.GenBuffer()
	gl.BindBuffer(ArrayBuffer, r.texBuffer)
	gl.BufferData(ArrayBuffer, quadTexCoords, StaticDraw)
	gl.BindBuffer(ArrayBuffer, 0)

	if err := checkGL(gl, "setup"); err != nil {
		return err
	}
	r.programOK = true

	logrus.WithFields(logrus.Fields{
		"function": "setup",
		"program":  program,
	}).Info("Renderer ready")
	return nil
}

func (r *Renderer) createTextures() {
	r.yTexture = r.newTexture()
	r.uvTexture = r.newTexture()
	r.texturesOK = true
	r.uploaded = false
}

func (r *Renderer) newTexture() uint32 {
	gl := r.gl
	tex := gl.GenTexture()
	gl.BindTexture(Texture2D, tex)
	gl.TexParameteri(Texture2D, TextureMinFilter, Linear)
	gl.TexParameteri(Texture2D, TextureMagFilter, Linear)
	gl.TexParameteri(Texture2D, TextureWrapS, ClampToEdge)
	gl.TexParameteri(Texture2D, TextureWrapT, ClampToEdge)
	return tex
}

// upload runs under the slot lock.
func (r *Renderer) upload(f *Frame) {
	gl := r.gl
	w, h := int32(f.Width), int32(f.Height)

	gl.PixelStorei(UnpackAlignment, 1)
	gl.ActiveTexture(Texture0)
	gl.BindTexture(Texture2D, r.yTexture)
	gl.TexImage2D(Texture2D, 0, Luminance, w, h, Luminance, UnsignedByte, f.Luma)
	gl.ActiveTexture(Texture1)
	gl.BindTexture(Texture2D, r.uvTexture)
	gl.TexImage2D(Texture2D, 0, LuminanceAlpha, w/2, h/2, LuminanceAlpha, UnsignedByte, f.Chroma)
	r.uploaded = true
}
