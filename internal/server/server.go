// Package server is the web front end: Google sign-in, Drive listing and
// server-side stereo snapshots of Drive photos.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-stereo/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Server serves the HTTP front end.
type Server struct {
	cfg          config.Config
	oauth        *oauth2.Config
	store        *Store
	ownsStore    bool
	signer       *sessionSigner
	driveOptions []option.ClientOption
	renderLimit  time.Duration
	handler      http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithStore uses an already open session store. The caller closes it.
func WithStore(store *Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithOAuthEndpoint replaces the Google OAuth endpoint.
func WithOAuthEndpoint(endpoint oauth2.Endpoint) Option {
	return func(s *Server) {
		s.oauth.Endpoint = endpoint
	}
}

// WithDriveOptions adds client options to every Drive service the server creates.
func WithDriveOptions(opts ...option.ClientOption) Option {
	return func(s *Server) {
		s.driveOptions = append(s.driveOptions, opts...)
	}
}

// WithClock replaces time.Now for session cookies.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.signer.now = now
	}
}

// WithRenderTimeout bounds each /api/render request. Defaults to 30 seconds.
func WithRenderTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.renderLimit = d
		}
	}
}

// New creates a Server from cfg. The session database at cfg.Server.DBPath is
// opened unless WithStore is given.
//
// Parameters:
//   - ctx: bounds opening the session store
//   - cfg: the loaded configuration
//   - options: functional options
//
// Returns:
//   - *Server: the server
//   - error: a configuration or database error
func New(ctx context.Context, cfg config.Config, options ...Option) (*Server, error) {
	if err := cfg.Server.Validate(cfg.Google); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	s := &Server{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.Server.RedirectURL,
			Scopes:       cfg.Google.Scopes,
		},
		signer: &sessionSigner{
			secret: []byte(cfg.Server.SessionSecret),
			ttl:    cfg.Server.SessionTTL,
			now:    time.Now,
		},
		renderLimit: 30 * time.Second,
	}
	if s.signer.ttl <= 0 {
		s.signer.ttl = 24 * time.Hour
	}
	for _, option := range options {
		option(s)
	}
	if s.store == nil {
		store, err := OpenStore(ctx, cfg.Server.DBPath)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.ownsStore = true
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /signin", s.handleSignIn)
	mux.HandleFunc("GET /callback", s.handleCallback)
	mux.HandleFunc("GET /signout", s.handleSignOut)
	mux.HandleFunc("GET /protected", s.handleProtected)
	mux.HandleFunc("GET /api/google_drive", s.handleDriveList)
	mux.HandleFunc("GET /api/thumbnails", s.handleThumbnails)
	mux.HandleFunc("GET /api/render", s.handleRender)
	return Logger(Recover(mux))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Server.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the session store if the server opened it.
func (s *Server) Close() error {
	if s.ownsStore {
		return s.store.Close()
	}
	return nil
}
