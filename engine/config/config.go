// Package config loads the demo and engine settings from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Carmen-Shannon/oxy-shader/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/window"
)

// ErrInvalid is returned when a configuration value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration written as a Go duration string, e.g. "500ms".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the root of a configuration file.
type Config struct {
	// Backend is "wgpu" or "gl".
	Backend string `toml:"backend"`
	// LogLevel is one of "debug", "info", "warn" or "error".
	LogLevel string         `toml:"log_level"`
	Window   WindowConfig   `toml:"window"`
	Render   RenderConfig   `toml:"render"`
	GL       GLConfig       `toml:"gl"`
	Textures TextureConfig  `toml:"textures"`
	Profiler ProfilerConfig `toml:"profiler"`
}

type WindowConfig struct {
	Title      string `toml:"title"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	VSync      bool   `toml:"vsync"`
	Resizeable bool   `toml:"resizeable"`
}

type RenderConfig struct {
	// MSAA is the WebGPU sample count, 1 or 4.
	MSAA int `toml:"msaa"`
	// ForceSoftware requests a fallback adapter.
	ForceSoftware bool `toml:"force_software"`
}

// GLConfig caps the OpenGL backend below what the driver reports.
type GLConfig struct {
	// Version is the GLSL version to assume, e.g. 330; 0 uses the context's version.
	Version int `toml:"version"`
	// UniformBuffers disables uniform blocks when set to false.
	UniformBuffers *bool `toml:"uniform_buffers"`
}

type TextureConfig struct {
	Workers int `toml:"workers"`
	Queue   int `toml:"queue"`
}

type ProfilerConfig struct {
	Interval Duration `toml:"interval"`
	Memory   bool     `toml:"memory"`
}

// Default returns the configuration used for missing keys.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Backend:  "wgpu",
		LogLevel: "info",
		Window: WindowConfig{
			Title:      "oxy-shader",
			Width:      1280,
			Height:     720,
			VSync:      true,
			Resizeable: true,
		},
		Render:   RenderConfig{MSAA: 4},
		Textures: TextureConfig{Workers: 4, Queue: 64},
		Profiler: ProfilerConfig{Interval: Duration(time.Second), Memory: true},
	}
}

// Load reads and validates the configuration file at path.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - Config: the configuration, defaults filled in
//   - error: a read, decode or validation failure
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Decode reads a configuration over the defaults. Unknown keys are an error.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the configuration
//   - error: a decode or validation failure
func Decode(r io.Reader) (Config, error) {
	c := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every value of c.
//
// Returns:
//   - error: wraps ErrInvalid naming the first bad key
func (c Config) Validate() error {
	if _, err := c.BackendType(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size %dx%d: %w", c.Window.Width, c.Window.Height, ErrInvalid)
	case c.Render.MSAA != 1 && c.Render.MSAA != 4:
		return fmt.Errorf("render.msaa %d, want 1 or 4: %w", c.Render.MSAA, ErrInvalid)
	case c.GL.Version != 0 && (c.GL.Version < 330 || c.GL.Version%10 != 0):
		return fmt.Errorf("gl.version %d: %w", c.GL.Version, ErrInvalid)
	case c.Textures.Workers < 1 || c.Textures.Queue < 1:
		return fmt.Errorf("textures.workers %d, textures.queue %d: %w", c.Textures.Workers, c.Textures.Queue, ErrInvalid)
	case c.Profiler.Interval <= 0:
		return fmt.Errorf("profiler.interval %s: %w", time.Duration(c.Profiler.Interval), ErrInvalid)
	}
	return nil
}

// BackendType returns the renderer backend selected by Backend.
func (c Config) BackendType() (renderer.RendererBackendType, error) {
	switch strings.ToLower(c.Backend) {
	case "wgpu", "webgpu":
		return renderer.BackendTypeWGPU, nil
	case "gl", "opengl":
		return renderer.BackendTypeGL, nil
	}
	return 0, fmt.Errorf("backend %q: %w", c.Backend, ErrInvalid)
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, ErrInvalid)
	}
	return l, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	l, _ := c.Level()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// WindowOptions returns the window options of c. The OpenGL backend gets a GL 4.3 core context
// and the WebGPU backend a window without a client API.
func (c Config) WindowOptions() []window.WindowBuilderOption {
	opts := []window.WindowBuilderOption{
		window.WithTitle(c.Window.Title),
		window.WithSize(c.Window.Width, c.Window.Height),
		window.WithVSync(c.Window.VSync),
		window.WithResizeable(c.Window.Resizeable),
	}
	if bt, _ := c.BackendType(); bt == renderer.BackendTypeGL {
		opts = append(opts, window.WithClientAPI(window.ClientAPIOpenGL), window.WithGLVersion(4, 3))
	}
	return opts
}

// RendererOptions returns the renderer options of c.
//
// Parameters:
//   - logger: the logger shared by the renderer, its profiler and its resource context
//
// Returns:
//   - []renderer.RendererBuilderOption: the options
func (c Config) RendererOptions(logger *slog.Logger) []renderer.RendererBuilderOption {
	mode := renderer.PresentModeUncapped
	if c.Window.VSync {
		mode = renderer.PresentModeVSync
	}
	opts := []renderer.RendererBuilderOption{
		renderer.WithLogger(logger),
		renderer.WithPresentMode(mode),
		renderer.WithMSAA(renderer.MSAASampleCount(c.Render.MSAA)),
		renderer.WithForceSoftwareRenderer(c.Render.ForceSoftware),
		renderer.WithProfiler(profiler.NewProfiler(
			profiler.WithLogger(logger),
			profiler.WithInterval(time.Duration(c.Profiler.Interval)),
			profiler.WithMemoryStats(c.Profiler.Memory),
		)),
		renderer.WithContextOptions(resource.WithWorkers(c.Textures.Workers, c.Textures.Queue)),
	}
	if c.GL.Version != 0 {
		opts = append(opts, renderer.WithGLVersion(c.GL.Version))
	}
	if c.GL.UniformBuffers != nil {
		opts = append(opts, renderer.WithUniformBuffers(*c.GL.UniformBuffers))
	}
	return opts
}
