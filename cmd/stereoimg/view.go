package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stereo/engine/window"
	"github.com/Carmen-Shannon/oxy-stereo/engine/xr"
)

func init() {
	// glfw must run on the main thread
	runtime.LockOSThread()
}

func runView(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	wiggle := fs.Bool("wiggle", false, "alternate the eyes")
	watch := fs.Bool("watch", false, "reload when the local file changes")
	profile := fs.Bool("profile", false, "log frame timings")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	src, err := sourceArg(fs)
	if err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}
	opts, err := cf.options(cfg, src)
	if err != nil {
		return err
	}
	opts.Wiggle = opts.Wiggle || *wiggle
	opts.Watch = *watch

	backend, err := renderer.ParseBackendType(cfg.Viewer.Backend)
	if err != nil {
		return err
	}
	l, err := newLoader(ctx, cfg, src)
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Viewer.Title),
		window.WithSize(cfg.Viewer.Width, cfg.Viewer.Height),
	)
	if err != nil {
		return err
	}

	v := engine.NewViewer(
		engine.WithObserver(win),
		engine.WithSession(xr.NewSideBySide(xr.WithCrossEyed(cfg.Viewer.CrossEyed))),
		engine.WithLoader(l),
		engine.WithFrameLimit(cfg.Viewer.FrameLimit),
		engine.WithProfiling(*profile),
		engine.WithOptions(opts),
		engine.WithRendererFactory(func(width, height int) (renderer.Renderer, error) {
			ropts := []renderer.RendererBuilderOption{renderer.WithMaxTextureSize(cfg.Viewer.MaxTextureSize)}
			if backend == renderer.BackendTypeWGPU {
				ropts = append(ropts, renderer.WithSurface(win.SurfaceDescriptor()))
			}
			return renderer.NewRenderer(backend, width, height, ropts...)
		}),
	)
	if err := v.Attach(ctx); err != nil {
		_ = win.Close()
		return err
	}

	quit := false
	win.SetKeyDownCallback(func(keyCode uint32) {
		if keyCode == common.KeyEsc {
			quit = true
			return
		}
		v.HandleKey(keyCode)
	})
	win.SetDragCallback(v.HandleDrag)
	win.SetUpdateCallback(func() {
		if !quit && ctx.Err() == nil {
			return
		}
		v.Detach()
		if err := win.Close(); err != nil {
			slog.Warn("failed to close window", "error", err)
		}
	})

	slog.Info("viewing", "source", src, "keys", "arrows turn, D debug, W wiggle, R reload, V side-by-side, Esc quit")
	win.ProcessMessages()

	// closing from the title bar leaves the window for us to destroy
	v.Detach()
	_ = win.Close()
	return v.CurrentState().Err
}
