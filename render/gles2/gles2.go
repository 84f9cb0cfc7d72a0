// Package gles2 implements render.GL over the go-gl OpenGL ES 2 bindings.
//
// Init must be called on the goroutine that owns a current GL context,
// after the context has been created.
package gles2

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v3.1/gles2"
	"github.com/opd-ai/nv21play/render"
	"github.com/sirupsen/logrus"
)

// Context is a render.GL backed by the process-wide go-gl function table.
type Context struct{}

var _ render.GL = Context{}

// Init loads the GLES 2 entry points for the current context.
func Init() (Context, error) {
	if err := gl.Init(); err != nil {
		return Context{}, fmt.Errorf("gles2 init: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "gles2.Init",
		"version":  gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer": gl.GoStr(gl.GetString(gl.RENDERER)),
	}).Info("OpenGL ES context ready")
	return Context{}, nil
}

func (Context) CreateShader(kind uint32) uint32 { return gl.CreateShader(kind) }

func (Context) ShaderSource(shader uint32, source string) {
	src, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, src, nil)
}

func (Context) CompileShader(shader uint32) { gl.CompileShader(shader) }

func (Context) ShaderCompiled(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (Context) ShaderInfoLog(shader uint32) string {
	var length int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(shader, length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (Context) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (Context) CreateProgram() uint32 { return gl.CreateProgram() }

func (Context) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (Context) LinkProgram(program uint32) { gl.LinkProgram(program) }

func (Context) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (Context) ProgramInfoLog(program uint32) string {
	var length int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(program, length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (Context) UseProgram(program uint32) { gl.UseProgram(program) }

func (Context) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (Context) GetAttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (Context) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (Context) Uniform1i(location, value int32) { gl.Uniform1i(location, value) }

func (Context) GenBuffer() uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return buf
}

func (Context) BindBuffer(target, buffer uint32) { gl.BindBuffer(target, buffer) }

func (Context) BufferData(target uint32, data []float32, usage uint32) {
	gl.BufferData(target, 4*len(data), gl.Ptr(data), usage)
}

func (Context) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (Context) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }

func (Context) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, xtype, normalized, stride, gl.PtrOffset(offset))
}

func (Context) GenTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	return tex
}

func (Context) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (Context) ActiveTexture(unit uint32) { gl.ActiveTexture(unit) }

func (Context) BindTexture(target, texture uint32) { gl.BindTexture(target, texture) }

func (Context) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

func (Context) PixelStorei(pname uint32, param int32) { gl.PixelStorei(pname, param) }

func (Context) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	if len(pixels) == 0 {
		gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, nil)
		return
	}
	gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, gl.Ptr(pixels))
}

func (Context) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (Context) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (Context) Clear(mask uint32) { gl.Clear(mask) }

func (Context) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }

func (Context) GetError() uint32 { return gl.GetError() }
