// Package config loads stereoimg settings from a TOML or YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STEREOIMG_"

// ErrUnknownFormat is returned for a config file with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown config format")

// Config is the full stereoimg configuration.
type Config struct {
	Viewer Viewer `toml:"viewer" yaml:"viewer"`
	Server Server `toml:"server" yaml:"server"`
	Google Google `toml:"google" yaml:"google"`
	S3     S3     `toml:"s3" yaml:"s3"`
}

// Viewer configures the desktop window and render loop.
type Viewer struct {
	Title          string  `toml:"title" yaml:"title"`
	Width          int     `toml:"width" yaml:"width"`
	Height         int     `toml:"height" yaml:"height"`
	FrameLimit     float64 `toml:"frame_limit" yaml:"frame_limit"`
	MaxTextureSize int     `toml:"max_texture_size" yaml:"max_texture_size"`
	// Backend is "wgpu" or "headless".
	Backend   string `toml:"backend" yaml:"backend"`
	Debug     bool   `toml:"debug" yaml:"debug"`
	Wiggle    bool   `toml:"wiggle" yaml:"wiggle"`
	CrossEyed bool   `toml:"cross_eyed" yaml:"cross_eyed"`
}

// Server configures the HTTP front end.
type Server struct {
	Addr          string        `toml:"addr" yaml:"addr"`
	RedirectURL   string        `toml:"redirect_url" yaml:"redirect_url"`
	DBPath        string        `toml:"db_path" yaml:"db_path"`
	SessionSecret string        `toml:"session_secret" yaml:"session_secret"`
	SessionTTL    time.Duration `toml:"session_ttl" yaml:"session_ttl"`
}

// Google holds the OAuth client used for sign-in and Drive access.
type Google struct {
	ClientID     string   `toml:"client_id" yaml:"client_id"`
	ClientSecret string   `toml:"client_secret" yaml:"client_secret"`
	Scopes       []string `toml:"scopes" yaml:"scopes"`
}

// S3 configures s3:// sources.
type S3 struct {
	Region          string `toml:"region" yaml:"region"`
	Endpoint        string `toml:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key" yaml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style" yaml:"use_path_style"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Viewer: Viewer{
			Title:      "stereoimg",
			Width:      1280,
			Height:     720,
			FrameLimit: 60,
			Backend:    "wgpu",
		},
		Server: Server{
			Addr:        ":8000",
			RedirectURL: "http://localhost:8000/callback",
			DBPath:      "stereoimg.db",
			SessionTTL:  7 * 24 * time.Hour,
		},
		Google: Google{
			Scopes: []string{"https://www.googleapis.com/auth/drive.readonly"},
		},
	}
}

// decoder is implemented by the toml and yaml decoders.
type decoder interface {
	Decode(v any) error
}

type decoderFunc func(r io.Reader) decoder

var decoders = map[string]decoderFunc{
	".toml": func(r io.Reader) decoder { return toml.NewDecoder(r) },
	".yaml": func(r io.Reader) decoder { return yaml.NewDecoder(r) },
	".yml":  func(r io.Reader) decoder { return yaml.NewDecoder(r) },
}

// Load reads path over the defaults and then applies environment overrides.
// An empty path loads defaults and environment only.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file, or ""
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the file cannot be read or parsed
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Read(&cfg, f, filepath.Ext(path)); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Read decodes r into cfg using the format named by ext.
//
// Parameters:
//   - cfg: the configuration to fill; fields absent from r keep their values
//   - r: the encoded configuration
//   - ext: ".toml", ".yaml" or ".yml"
//
// Returns:
//   - error: ErrUnknownFormat or a parse error
func Read(cfg *Config, r io.Reader, ext string) error {
	newDecoder, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err := newDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET are honoured alongside the prefixed names.
//
// Parameters:
//   - lookup: usually os.LookupEnv
//
// Returns:
//   - error: an error naming the variable that failed to parse
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, names ...string) {
		for _, name := range names {
			if v, ok := lookup(name); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	var errs []error
	integer := func(dst *int, name string) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	float := func(dst *float64, name string) {
		if v, ok := lookup(name); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(dst *bool, name string) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(dst *time.Duration, name string) {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}

	str(&c.Viewer.Title, EnvPrefix+"TITLE")
	integer(&c.Viewer.Width, EnvPrefix+"WIDTH")
	integer(&c.Viewer.Height, EnvPrefix+"HEIGHT")
	float(&c.Viewer.FrameLimit, EnvPrefix+"FRAME_LIMIT")
	integer(&c.Viewer.MaxTextureSize, EnvPrefix+"MAX_TEXTURE_SIZE")
	str(&c.Viewer.Backend, EnvPrefix+"BACKEND")
	boolean(&c.Viewer.Debug, EnvPrefix+"DEBUG")
	boolean(&c.Viewer.Wiggle, EnvPrefix+"WIGGLE")
	boolean(&c.Viewer.CrossEyed, EnvPrefix+"CROSS_EYED")

	str(&c.Server.Addr, EnvPrefix+"ADDR")
	str(&c.Server.RedirectURL, EnvPrefix+"REDIRECT_URL")
	str(&c.Server.DBPath, EnvPrefix+"DB_PATH")
	str(&c.Server.SessionSecret, EnvPrefix+"SESSION_SECRET")
	duration(&c.Server.SessionTTL, EnvPrefix+"SESSION_TTL")

	str(&c.Google.ClientID, EnvPrefix+"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	str(&c.Google.ClientSecret, EnvPrefix+"GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")

	str(&c.S3.Region, EnvPrefix+"S3_REGION", "AWS_REGION")
	str(&c.S3.Endpoint, EnvPrefix+"S3_ENDPOINT")
	str(&c.S3.AccessKeyID, EnvPrefix+"S3_ACCESS_KEY_ID")
	str(&c.S3.SecretAccessKey, EnvPrefix+"S3_SECRET_ACCESS_KEY")
	boolean(&c.S3.UsePathStyle, EnvPrefix+"S3_USE_PATH_STYLE")

	return errors.Join(errs...)
}

// Validate checks the settings the server needs.
//
// Returns:
//   - error: a joined error listing every missing setting
func (s Server) Validate(g Google) error {
	var errs []error
	if g.ClientID == "" {
		errs = append(errs, errors.New("google client id is required"))
	}
	if g.ClientSecret == "" {
		errs = append(errs, errors.New("google client secret is required"))
	}
	if s.SessionSecret == "" {
		errs = append(errs, errors.New("session secret is required"))
	}
	if s.RedirectURL == "" {
		errs = append(errs, errors.New("redirect url is required"))
	}
	return errors.Join(errs...)
}
