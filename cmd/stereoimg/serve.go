package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/internal/config"
	"github.com/Carmen-Shannon/oxy-stereo/internal/server"
	"github.com/pkg/browser"
)

func loadConfig(path string, verbose bool) (config.Config, error) {
	cf := &commonFlags{config: &path, verbose: &verbose}
	return cf.load()
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (.toml, .yaml)")
	verbose := fs.Bool("v", false, "debug logging")
	addr := fs.String("addr", "", "listen address, overrides the config")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath, *verbose)
	if err != nil {
		return err
	}
	cfg.Server.Addr = common.Coalesce(*addr, cfg.Server.Addr)

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.ListenAndServe(ctx)
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (.toml, .yaml)")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath, false)
	if err != nil {
		return err
	}

	u, err := url.Parse(cfg.Server.RedirectURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid redirect url %q", cfg.Server.RedirectURL)
	}
	u.Path, u.RawQuery = "/signin", ""
	slog.Info("opening browser", "url", u.String())
	if err := browser.OpenURL(u.String()); err != nil {
		fmt.Fprintln(os.Stdout, "Open", u.String(), "to sign in.")
	}
	return nil
}
