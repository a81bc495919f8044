package engine

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/loader"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stereo/engine/window"
	"github.com/Carmen-Shannon/oxy-stereo/engine/xr"
)

// SnapshotEye selects what a snapshot shows.
type SnapshotEye int

const (
	SnapshotLeft SnapshotEye = iota
	SnapshotRight
	// SnapshotBoth renders the eyes side by side.
	SnapshotBoth
)

// ParseSnapshotEye parses "left", "right" or "both". Empty is left.
func ParseSnapshotEye(s string) (SnapshotEye, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return SnapshotLeft, nil
	case "right":
		return SnapshotRight, nil
	case "both", "sbs":
		return SnapshotBoth, nil
	}
	return SnapshotLeft, fmt.Errorf("unknown eye %q", s)
}

// SnapshotOptions size and aim a snapshot.
type SnapshotOptions struct {
	Width, Height int
	Eye           SnapshotEye
	// Yaw and Pitch turn the view in radians.
	Yaw, Pitch float32
}

// Snapshot renders one frame of opts headless.
//
// Parameters:
//   - ctx: bounds loading and decoding
//   - l: the loader for opts.Source
//   - opts: the viewer options
//   - snap: frame size and eye
//
// Returns:
//   - *image.RGBA: the rendered frame
//   - error: a load, decode or renderer error
func Snapshot(ctx context.Context, l loader.Loader, opts Options, snap SnapshotOptions) (*image.RGBA, error) {
	var session xr.Session = xr.None()
	if snap.Eye == SnapshotBoth {
		session = xr.NewSideBySide()
	}
	opts.Wiggle, opts.Watch = false, false

	v := NewViewer(
		WithObserver(window.NewFixedSize(snap.Width, snap.Height)),
		WithLoader(l),
		WithSession(session),
		WithFrameLimit(1),
		WithRendererFactory(func(width, height int) (renderer.Renderer, error) {
			return renderer.NewRenderer(renderer.BackendTypeHeadless, width, height)
		}),
	)
	if err := v.Attach(ctx); err != nil {
		return nil, err
	}
	defer v.Detach()

	if err := v.Configure(opts).Wait(ctx); err != nil {
		return nil, err
	}

	st := v.CurrentState()
	if snap.Eye == SnapshotRight {
		st.Camera.SetLayer(common.LayerRight)
	}
	ctrl := st.Camera.Controller()
	ctrl.SetYaw(snap.Yaw)
	ctrl.SetPitch(snap.Pitch)
	if snap.Eye == SnapshotBoth {
		sctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := session.Enter(sctx); err != nil {
			return nil, err
		}
	}

	if err := v.RenderFrame(); err != nil {
		return nil, err
	}
	return st.Renderer.Frame(), nil
}
