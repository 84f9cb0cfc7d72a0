package render

import (
	"fmt"
	"sync"
)

type texUpload struct {
	texture        uint32
	internalFormat int32
	width, height  int32
	size           int
	first          byte
}

// fakeGL records the calls the renderer makes.
type fakeGL struct {
	mu sync.Mutex

	next       uint32
	failKind   uint32
	failShader uint32
	failLink   bool
	errs       []uint32

	calls     []string
	bound     map[uint32]uint32
	active    uint32
	uploads   []texUpload
	buffers   map[uint32][]float32
	viewport  [4]int32
	draws     int
	drawMode  uint32
	drawCount int32
	uniforms  map[int32]int32
	textures  int
}

func newFakeGL() *fakeGL {
	return &fakeGL{
		bound:    map[uint32]uint32{},
		buffers:  map[uint32][]float32{},
		uniforms: map[int32]int32{},
	}
}

func (g *fakeGL) record(format string, args ...any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *fakeGL) id() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}

func (g *fakeGL) CreateShader(kind uint32) uint32 {
	id := g.id()
	g.record("CreateShader 0x%x", kind)
	g.mu.Lock()
	if g.failKind == kind {
		g.failShader = id
	}
	g.mu.Unlock()
	return id
}

func (g *fakeGL) ShaderSource(shader uint32, source string) { g.record("ShaderSource %d", shader) }

func (g *fakeGL) CompileShader(shader uint32) { g.record("CompileShader %d", shader) }

func (g *fakeGL) ShaderCompiled(shader uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failShader != shader
}

func (g *fakeGL) ShaderInfoLog(shader uint32) string { return "syntax error" }

func (g *fakeGL) DeleteShader(shader uint32) { g.record("DeleteShader %d", shader) }

func (g *fakeGL) CreateProgram() uint32 { return g.id() }

func (g *fakeGL) AttachShader(program, shader uint32) {
	g.record("AttachShader %d %d", program, shader)
}

func (g *fakeGL) LinkProgram(program uint32) { g.record("LinkProgram %d", program) }

func (g *fakeGL) ProgramLinked(program uint32) bool { return !g.failLink }

func (g *fakeGL) ProgramInfoLog(program uint32) string { return "link error" }

func (g *fakeGL) UseProgram(program uint32) { g.record("UseProgram %d", program) }

func (g *fakeGL) DeleteProgram(program uint32) { g.record("DeleteProgram %d", program) }

func (g *fakeGL) GetAttribLocation(program uint32, name string) int32 {
	if name == attribPosition {
		return 0
	}
	return 1
}

func (g *fakeGL) GetUniformLocation(program uint32, name string) int32 {
	if name == uniformY {
		return 10
	}
	return 11
}

func (g *fakeGL) Uniform1i(location, value int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uniforms[location] = value
}

func (g *fakeGL) GenBuffer() uint32 { return g.id() }

func (g *fakeGL) BindBuffer(target, buffer uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bound[target] = buffer
}

func (g *fakeGL) BufferData(target uint32, data []float32, usage uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buffers[g.bound[target]] = append([]float32(nil), data...)
}

func (g *fakeGL) DeleteBuffer(buffer uint32) {}

func (g *fakeGL) EnableVertexAttribArray(index uint32) {}

func (g *fakeGL) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	g.record("VertexAttribPointer %d %d", index, size)
}

func (g *fakeGL) GenTexture() uint32 {
	g.mu.Lock()
	g.textures++
	g.mu.Unlock()
	return g.id()
}

func (g *fakeGL) DeleteTexture(texture uint32) {}

func (g *fakeGL) ActiveTexture(unit uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = unit
}

func (g *fakeGL) BindTexture(target, texture uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bound[g.active] = texture
}

func (g *fakeGL) TexParameteri(target, pname uint32, param int32) {}

func (g *fakeGL) PixelStorei(pname uint32, param int32) {
	g.record("PixelStorei 0x%x %d", pname, param)
}

func (g *fakeGL) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	up := texUpload{
		texture:        g.bound[g.active],
		internalFormat: internalFormat,
		width:          width,
		height:         height,
		size:           len(pixels),
	}
	if len(pixels) > 0 {
		up.first = pixels[0]
	}
	g.uploads = append(g.uploads, up)
}

func (g *fakeGL) Viewport(x, y, width, height int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.viewport = [4]int32{x, y, width, height}
}

func (g *fakeGL) ClearColor(r, gr, b, a float32) { g.record("ClearColor %v %v %v %v", r, gr, b, a) }

func (g *fakeGL) Clear(mask uint32) { g.record("Clear 0x%x", mask) }

func (g *fakeGL) DrawArrays(mode uint32, first, count int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.draws++
	g.drawMode = mode
	g.drawCount = count
}

func (g *fakeGL) GetError() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.errs) == 0 {
		return NoError
	}
	code := g.errs[0]
	g.errs = g.errs[1:]
	return code
}
