// Package window opens the native window a renderer draws into: a GLFW window carrying either
// an OpenGL context or no client API, in which case WebGPU creates its own surface.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// ClientAPI selects the graphics API the window is created for.
type ClientAPI int

const (
	// ClientAPINone creates a window without a context, for WebGPU surfaces.
	ClientAPINone ClientAPI = iota
	// ClientAPIOpenGL creates a window with a core profile OpenGL context made current on the
	// calling thread.
	ClientAPIOpenGL
)

// Window defines the interface for a platform window the renderer presents to.
type Window interface {
	// SetUpdateCallback sets the callback run once per processed event batch.
	//
	// Parameters:
	//   - callback: the frame function
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the callback run when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: receives the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback run on key press and repeat.
	//
	// Parameters:
	//   - callback: receives the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns the platform surface descriptor for WebGPU surface creation.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, nil before the window exists
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SwapBuffers presents the back buffer of an OpenGL window. It does nothing for
	// ClientAPINone windows.
	SwapBuffers()

	// ClientAPI returns the API the window was created for.
	ClientAPI() ClientAPI

	// IsRunning reports whether the window is open and has not been asked to close.
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: an error if the window was never created
	Close() error

	// ProcessMessages runs the event loop, invoking the update callback after each batch of
	// events, until the window closes.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	minWidth, minHeight int
	maxWidth, maxHeight int
	width, height       int

	api        ClientAPI
	glMajor    int
	glMinor    int
	vsync      bool
	resizeable bool

	// internalWindow holds the platform window.
	internalWindow any

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new window.
//
// Parameters:
//   - options: a variadic list of WindowBuilderOption functions
//
// Returns:
//   - Window: the window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:      "oxy-shader",
		minWidth:   320,
		minHeight:  200,
		maxWidth:   3840,
		maxHeight:  2160,
		width:      1280,
		height:     720,
		glMajor:    4,
		glMinor:    3,
		vsync:      true,
		resizeable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) SwapBuffers() {
	if w.api == ClientAPIOpenGL {
		platformSwapBuffers(w)
	}
}

func (w *engineWindow) ClientAPI() ClientAPI {
	return w.api
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
