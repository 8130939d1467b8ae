// Command shaderdemo draws an instanced, textured grid through either renderer backend. The
// shaders are generated from one IR program for both WGSL and GLSL.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-shader/engine/config"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer"
	"github.com/Carmen-Shannon/oxy-shader/engine/window"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	backend := flag.String("backend", "", "override the configured backend (wgpu or gl)")
	texture := flag.String("texture", "", "image file to draw instead of the checkerboard")
	flag.Parse()

	if err := run(*configPath, *backend, *texture); err != nil {
		fmt.Fprintln(os.Stderr, "shaderdemo:", err)
		os.Exit(1)
	}
}

func run(configPath, backend, texture string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if backend != "" {
		cfg.Backend = backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger := cfg.Logger(os.Stderr)
	bt, _ := cfg.BackendType()

	w := window.NewWindow(cfg.WindowOptions()...)
	defer w.Close()

	r, err := renderer.NewRenderer(bt, w, cfg.RendererOptions(logger)...)
	if err != nil {
		return err
	}
	defer r.Release()

	s, err := newScene(texture)
	if err != nil {
		return err
	}
	defer s.release()
	if err := r.RegisterPipelines(s.pipeline); err != nil {
		return err
	}
	logger.Info("scene ready", "backend", bt, "scene", s)

	w.SetResizeCallback(r.Resize)
	start := time.Now()
	w.SetUpdateCallback(func() {
		frame(r, s, time.Since(start).Seconds(), logger)
	})
	w.ProcessMessages()
	return nil
}

// frame updates the scene and renders it. A draw whose texture is still loading is skipped
// and retried next frame.
func frame(r renderer.Renderer, s *scene, t float64, logger *slog.Logger) {
	s.update(t)
	if err := r.BeginFrame(); err != nil {
		logger.Warn("frame skipped", "err", err)
		return
	}
	if _, err := r.DrawCall(pipelineKey, s.state, s.quad, s.instances); err != nil {
		logger.Error("draw failed", "err", err)
	}
	r.EndFrame()
	r.Present()
}
