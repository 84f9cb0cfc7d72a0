package render

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// VertexShaderSource passes the quad position and texture coordinate
// through.
const VertexShaderSource = `attribute vec4 aPosition;
attribute vec2 aTexCoord;
varying vec2 vTexCoord;
void main() {
    gl_Position = aPosition;
    vTexCoord = aTexCoord;
}
`

// FragmentShaderSource converts NV21 to RGB with BT.709 coefficients. The
// chroma texture is LUMINANCE_ALPHA, so V lands in .r and U in .a.
const FragmentShaderSource = `precision mediump float;
varying vec2 vTexCoord;
uniform sampler2D yTexture;
uniform sampler2D uvTexture;
void main() {
    float y = texture2D(yTexture, vTexCoord).r;
    vec4 uv = texture2D(uvTexture, vTexCoord);
    float u = uv.a - 0.5;
    float v = uv.r - 0.5;
    float r = y + 1.5748 * v;
    float g = y - 0.1873 * u - 0.4681 * v;
    float b = y + 1.8556 * u;
    gl_FragColor = vec4(r, g, b, 1.0);
}
`

// Shader attribute and uniform names.
const (
	attribPosition = "aPosition"
	attribTexCoord = "aTexCoord"
	uniformY       = "yTexture"
	uniformUV      = "uvTexture"
)

func compileShader(gl GL, kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	gl.ShaderSource(shader, source)
	gl.CompileShader(shader)
	if !gl.ShaderCompiled(shader) {
		log := gl.ShaderInfoLog(shader)
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: kind 0x%x: %s", ErrShaderCompile, kind, log)
	}
	return shader, nil
}

// buildProgram compiles both shaders and links them.
func buildProgram(gl GL) (uint32, error) {
	vs, err := compileShader(gl, VertexShader, VertexShaderSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(gl, FragmentShader, FragmentShaderSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	if !gl.ProgramLinked(program) {
		log := gl.ProgramInfoLog(program)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: %s", ErrProgramLink, log)
	}

	logrus.WithFields(logrus.Fields{
		"function": "buildProgram",
		"program":  program,
	}).Debug("NV21 shader program linked")
	return program, nil
}
