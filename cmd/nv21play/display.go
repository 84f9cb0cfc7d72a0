package main

import (
	"fmt"

	"github.com/opd-ai/nv21play/render"
	"github.com/opd-ai/nv21play/render/gles2"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

// display is an SDL2 window with an OpenGL ES 2.0 context driving a
// render.Renderer. All methods must run on the main thread.
type display struct {
	window   *sdl.Window
	glCtx    sdl.GLContext
	renderer *render.Renderer
}

// newDisplay opens the window and prepares the renderer for drawing.
func newDisplay(title string, width, height int) (*display, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	attrs := []struct {
		attr  sdl.GLattr
		value int
	}{
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_ES},
		{sdl.GL_CONTEXT_MAJOR_VERSION, 2},
		{sdl.GL_CONTEXT_MINOR_VERSION, 0},
	}
	for _, a := range attrs {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			sdl.Quit()
			return nil, fmt.Errorf("sdl gl attribute: %w", err)
		}
	}

	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height), sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl window: %w", err)
	}
	glCtx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl gl context: %w", err)
	}
	if err := sdl.GLSetSwapInterval(1); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "newDisplay",
			"error":    err.Error(),
		}).Debug("VSync unavailable")
	}

	d := &display{window: win, glCtx: glCtx}
	glc, err := gles2.Init()
	if err != nil {
		d.Close()
		return nil, err
	}
	d.renderer = render.New(glc)
	if err := d.renderer.SurfaceCreated(); err != nil {
		d.Close()
		return nil, err
	}
	d.resize()
	return d, nil
}

func (d *display) resize() {
	w, h := d.window.GLGetDrawableSize()
	d.renderer.SurfaceChanged(int(w), int(h))
}

// poll drains pending window events. It returns false once the window
// has been closed.
func (d *display) poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				d.resize()
			}
		}
	}
	return true
}

// draw renders the latest frame and presents it.
func (d *display) draw() error {
	if err := d.renderer.RenderOnce(); err != nil {
		return err
	}
	d.window.GLSwap()
	return nil
}

// Close releases the GL context, the window and SDL.
func (d *display) Close() {
	sdl.GLDeleteContext(d.glCtx)
	d.window.Destroy()
	sdl.Quit()
}
