package render

// GL is the subset of OpenGL ES 2.0 the renderer uses. Implementations must
// be called on the goroutine that owns the GL context.
type GL interface {
	CreateShader(kind uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	ShaderCompiled(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	ProgramLinked(program uint32) bool
	ProgramInfoLog(program uint32) string
	UseProgram(program uint32)
	DeleteProgram(program uint32)
	GetAttribLocation(program uint32, name string) int32
	GetUniformLocation(program uint32, name string) int32
	Uniform1i(location, value int32)

	GenBuffer() uint32
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, data []float32, usage uint32)
	DeleteBuffer(buffer uint32)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int)

	GenTexture() uint32
	DeleteTexture(texture uint32)
	ActiveTexture(unit uint32)
	BindTexture(target, texture uint32)
	TexParameteri(target, pname uint32, param int32)
	PixelStorei(pname uint32, param int32)
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	DrawArrays(mode uint32, first, count int32)
	GetError() uint32
}

// OpenGL ES 2.0 enumerants used by the renderer.
const (
	NoError = 0

	VertexShader   = 0x8B31
	FragmentShader = 0x8B30

	ArrayBuffer = 0x8892
	StaticDraw  = 0x88E4
	Float       = 0x1406

	Texture2D        = 0x0DE1
	Texture0         = 0x84C0
	Texture1         = 0x84C1
	TextureMinFilter = 0x2801
	TextureMagFilter = 0x2800
	TextureWrapS     = 0x2802
	TextureWrapT     = 0x2803
	Linear           = 0x2601
	ClampToEdge      = 0x812F
	UnpackAlignment  = 0x0CF5

	Luminance      = 0x1909
	LuminanceAlpha = 0x190A
	UnsignedByte   = 0x1401

	ColorBufferBit = 0x4000
	TriangleStrip  = 0x0005
)
