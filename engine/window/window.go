// Package window is the GLFW glue between the OS and the renderer: it owns
// the native window, produces the surface descriptor the renderer
// configures against, and surfaces resize and close events to the engine
// loop.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window owns one GLFW window. All methods must be called from the thread
// that created it (the engine loop locks its OS thread for this reason).
type Window struct {
	win    *glfw.Window
	width  int
	height int

	onResize func(width, height int)
}

// New creates the window. WebGPU provides its own graphics API, so GLFW's
// OpenGL context creation is disabled.
func New(title string, width, height int, options ...WindowBuilderOption) (*Window, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: init GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: create: %w", err)
	}

	w := &Window{win: win}
	for _, opt := range options {
		opt(w)
	}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})

	// Framebuffer size, not window size: on high-DPI displays the two
	// differ and the surface needs pixel dimensions.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, fbWidth, fbHeight int) {
		w.width = fbWidth
		w.height = fbHeight
		if w.onResize != nil {
			w.onResize(fbWidth, fbHeight)
		}
	})
	w.width, w.height = win.GetFramebufferSize()

	return w, nil
}

// SurfaceDescriptor returns the platform-appropriate descriptor for
// wgpu.Instance.CreateSurface.
func (w *Window) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w.win)
}

// Size returns the current framebuffer size in pixels.
func (w *Window) Size() (width, height int) { return w.width, w.height }

// Poll pumps pending OS events and reports whether the window should stay
// open.
func (w *Window) Poll() bool {
	glfw.PollEvents()
	return !w.win.ShouldClose()
}

// Close destroys the window and shuts GLFW down.
func (w *Window) Close() {
	w.win.Destroy()
	glfw.Terminate()
}

// WindowBuilderOption configures a window during New.
type WindowBuilderOption func(*Window)

// WithResizeCallback registers the handler invoked with the new framebuffer
// size on every resize.
func WithResizeCallback(fn func(width, height int)) WindowBuilderOption {
	return func(w *Window) {
		w.onResize = fn
	}
}
