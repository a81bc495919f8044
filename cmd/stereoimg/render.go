package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-stereo/engine"
	"github.com/Carmen-Shannon/oxy-stereo/engine/decoder"
	"github.com/Carmen-Shannon/oxy-stereo/engine/detector"
)

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	out := fs.String("o", "", "output PNG")
	eye := fs.String("eye", "left", "left, right or both")
	width := fs.Int("w", 800, "frame width")
	height := fs.Int("h", 600, "frame height")
	yaw := fs.Float64("yaw", 0, "view yaw in radians")
	pitch := fs.Float64("pitch", 0, "view pitch in radians")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	src, err := sourceArg(fs)
	if err != nil {
		return err
	}
	if *out == "" || *width <= 0 || *height <= 0 {
		return errors.New("missing required arguments")
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}
	opts, err := cf.options(cfg, src)
	if err != nil {
		return err
	}
	snapEye, err := engine.ParseSnapshotEye(*eye)
	if err != nil {
		return err
	}
	l, err := newLoader(ctx, cfg, src)
	if err != nil {
		return err
	}

	img, err := engine.Snapshot(ctx, l, opts, engine.SnapshotOptions{
		Width:  *width,
		Height: *height,
		Eye:    snapEye,
		Yaw:    float32(*yaw),
		Pitch:  float32(*pitch),
	})
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Clean(*out))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("rendered", "source", src, "out", *out, "width", *width, "height", *height)
	return nil
}

func runDetect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	cf := addCommonFlags(fs)
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
	l, err := newLoader(ctx, cfg, src)
	if err != nil {
		return err
	}
	source, err := l.Load(ctx, src)
	if err != nil {
		return err
	}

	sel := detector.Detect(source, opts.Layout, decoder.Options{Angle: opts.Angle, Projection: opts.Projection})
	fmt.Fprintf(os.Stdout, "%s\t%s\n", sel.Layout, sel.Reason)
	return nil
}
