// Command stereoimg views, renders and serves stereoscopic photos.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Carmen-Shannon/oxy-stereo/engine"
	"github.com/Carmen-Shannon/oxy-stereo/engine/loader"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/Carmen-Shannon/oxy-stereo/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "view":
		err = runView(ctx, os.Args[2:])
	case "render":
		err = runRender(ctx, os.Args[2:])
	case "detect":
		err = runDetect(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "login":
		err = runLogin(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: stereoimg <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  view   [-config c.toml] [-type left-right] [-angle 180] [-projection fisheye] [-debug] [-wiggle] [-watch] <src>")
	fmt.Fprintln(os.Stderr, "  render [-config c.toml] [-type ...] -o out.png [-eye left|right|both] [-w 800] [-h 600] <src>")
	fmt.Fprintln(os.Stderr, "  detect [-config c.toml] [-type ...] <src>")
	fmt.Fprintln(os.Stderr, "  serve  [-config c.toml] [-addr :8000]")
	fmt.Fprintln(os.Stderr, "  login  [-config c.toml]")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// commonFlags are shared by every subcommand that opens a source.
type commonFlags struct {
	config     *string
	verbose    *bool
	layout     *string
	angle      *float64
	projection *string
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		config:     fs.String("config", "", "config file (.toml, .yaml)"),
		verbose:    fs.Bool("v", false, "debug logging"),
		layout:     fs.String("type", "", "stereo layout: vr180, vr, left-right, right-left, top-bottom, bottom-top, anaglyph, depth"),
		angle:      fs.Float64("angle", 0, "horizontal field of view in degrees"),
		projection: fs.String("projection", "", "equirectangular or fisheye"),
		debug:      fs.Bool("debug", false, "draw the wireframe overlay"),
	}
}

// load reads the config and sets up logging.
func (f *commonFlags) load() (config.Config, error) {
	level := slog.LevelInfo
	if *f.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return config.Load(*f.config)
}

// options builds viewer options for src from the flags and config.
func (f *commonFlags) options(cfg config.Config, src string) (engine.Options, error) {
	layout, err := stereo.ParseLayoutKind(*f.layout)
	if err != nil {
		return engine.Options{}, err
	}
	projection, err := stereo.ParseProjection(*f.projection)
	if err != nil {
		return engine.Options{}, err
	}
	if *f.angle < 0 || *f.angle > 360 {
		return engine.Options{}, fmt.Errorf("invalid angle %v", *f.angle)
	}
	return engine.Options{
		Source:     src,
		Layout:     layout,
		Angle:      *f.angle,
		Projection: projection,
		Debug:      *f.debug || cfg.Viewer.Debug,
		Wiggle:     cfg.Viewer.Wiggle,
	}, nil
}

// newLoader creates a loader for src. s3:// sources get an S3 client from cfg.
func newLoader(ctx context.Context, cfg config.Config, src string) (loader.Loader, error) {
	opts := []loader.LoaderBuilderOption{}
	if loader.BackendTypeOf(src) == loader.BackendTypeS3 {
		client, err := loader.NewS3Client(ctx, loader.S3Config{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, loader.WithS3Client(client))
	}
	if loader.BackendTypeOf(src) == loader.BackendTypeDrive {
		return nil, errors.New("drive:// sources are only served by 'stereoimg serve'")
	}
	return loader.NewLoader(opts...), nil
}

// sourceArg returns the single positional argument.
func sourceArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", errors.New("expected exactly one source")
	}
	return strings.TrimSpace(fs.Arg(0)), nil
}
