package gles2

import (
	"testing"

	gl "github.com/go-gl/gl/v3.1/gles2"
	"github.com/opd-ai/nv21play/render"
	"github.com/stretchr/testify/assert"
)

func TestEnumsMatchBinding(t *testing.T) {
	tests := []struct {
		name string
		ours uint32
		gl   uint32
	}{
		{"VERTEX_SHADER", render.VertexShader, gl.VERTEX_SHADER},
		{"FRAGMENT_SHADER", render.FragmentShader, gl.FRAGMENT_SHADER},
		{"ARRAY_BUFFER", render.ArrayBuffer, gl.ARRAY_BUFFER},
		{"STATIC_DRAW", render.StaticDraw, gl.STATIC_DRAW},
		{"FLOAT", render.Float, gl.FLOAT},
		{"TEXTURE_2D", render.Texture2D, gl.TEXTURE_2D},
		{"TEXTURE0", render.Texture0, gl.TEXTURE0},
		{"TEXTURE1", render.Texture1, gl.TEXTURE1},
		{"TEXTURE_MIN_FILTER", render.TextureMinFilter, gl.TEXTURE_MIN_FILTER},
		{"TEXTURE_MAG_FILTER", render.TextureMagFilter, gl.TEXTURE_MAG_FILTER},
		{"TEXTURE_WRAP_S", render.TextureWrapS, gl.TEXTURE_WRAP_S},
		{"TEXTURE_WRAP_T", render.TextureWrapT, gl.TEXTURE_WRAP_T},
		{"LINEAR", render.Linear, gl.LINEAR},
		{"CLAMP_TO_EDGE", render.ClampToEdge, gl.CLAMP_TO_EDGE},
		{"UNPACK_ALIGNMENT", render.UnpackAlignment, gl.UNPACK_ALIGNMENT},
		{"LUMINANCE", render.Luminance, gl.LUMINANCE},
		{"LUMINANCE_ALPHA", render.LuminanceAlpha, gl.LUMINANCE_ALPHA},
		{"UNSIGNED_BYTE", render.UnsignedByte, gl.UNSIGNED_BYTE},
		{"COLOR_BUFFER_BIT", render.ColorBufferBit, gl.COLOR_BUFFER_BIT},
		{"TRIANGLE_STRIP", render.TriangleStrip, gl.TRIANGLE_STRIP},
		{"NO_ERROR", render.NoError, gl.NO_ERROR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.gl, tt.ours)
		})
	}
}
