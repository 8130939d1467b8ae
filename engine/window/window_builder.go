package window

// WindowBuilderOption is a functional option for configuring a Window via NewWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title
//
// Returns:
//   - WindowBuilderOption: a function that sets the title
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size in screen coordinates.
//
// Parameters:
//   - width, height: the size
//
// Returns:
//   - WindowBuilderOption: a function that sets the size
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}

// WithSizeLimits bounds the size the user can resize the window to.
//
// Parameters:
//   - minWidth, minHeight: the smallest size
//   - maxWidth, maxHeight: the largest size
//
// Returns:
//   - WindowBuilderOption: a function that sets the limits
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = minWidth, minHeight
		w.maxWidth, w.maxHeight = maxWidth, maxHeight
	}
}

// WithClientAPI selects the graphics API. OpenGL windows get a core profile context of the
// version set by WithGLVersion, 4.3 by default.
//
// Parameters:
//   - api: ClientAPINone or ClientAPIOpenGL
//
// Returns:
//   - WindowBuilderOption: a function that sets the client API
func WithClientAPI(api ClientAPI) WindowBuilderOption {
	return func(w *engineWindow) {
		w.api = api
	}
}

// WithGLVersion sets the requested OpenGL context version.
//
// Parameters:
//   - major, minor: the version, e.g. 3 and 3
//
// Returns:
//   - WindowBuilderOption: a function that sets the version
func WithGLVersion(major, minor int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.glMajor = major
		w.glMinor = minor
	}
}

// WithVSync sets whether OpenGL buffer swaps wait for vertical blank.
//
// Parameters:
//   - enabled: true to synchronise swaps
//
// Returns:
//   - WindowBuilderOption: a function that sets vsync
func WithVSync(enabled bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.vsync = enabled
	}
}

// WithResizeable sets whether the user can resize the window.
//
// Parameters:
//   - resizeable: true to allow resizing
//
// Returns:
//   - WindowBuilderOption: a function that sets the flag
func WithResizeable(resizeable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizeable = resizeable
	}
}
