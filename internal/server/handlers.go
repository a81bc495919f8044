package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-stereo/engine"
	"github.com/Carmen-Shannon/oxy-stereo/engine/loader"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const imageQuery = "mimeType='image/png' or mimeType='image/jpeg'"

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>stereoimg</title></head>
<body>
<h1>stereoimg</h1>
<p>Provider: Google</p>
<p>Signed in: {{if .SignedIn}}Yes{{else}}No{{end}}</p>
{{if .SignedIn}}<a href="/signout"><button>Sign out</button></a>
<p><a href="/api/google_drive">Your stereo photos on Google Drive</a></p>
{{else}}<a href="/signin"><button>Sign in with Google</button></a>{{end}}
</body>
</html>
`))

// DriveFile is one entry of the Drive listing.
type DriveFile struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	WebContentLink string   `json:"webContentLink,omitempty"`
	Parents        []string `json:"parents,omitempty"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	_, err := s.signer.sessionID(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, struct{ SignedIn bool }{SignedIn: err == nil}); err != nil {
		slog.Error("failed to render home page", "error", err)
	}
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	setCookie(w, r, stateCookie, state, time.Now().Add(10*time.Minute))
	url := s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	clearCookie(w, stateCookie)

	if msg := r.URL.Query().Get("error"); msg != "" {
		http.Error(w, "Sign-in failed: "+msg, http.StatusUnauthorized)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	tok, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("failed to exchange authorization code", "error", err)
		http.Error(w, "Failed to exchange authorization code", http.StatusBadGateway)
		return
	}

	sessionID := uuid.NewString()
	if err := s.store.Save(r.Context(), sessionID, tok); err != nil {
		slog.Error("failed to store session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	signed, expires, err := s.signer.issue(sessionID)
	if err != nil {
		slog.Error("failed to sign session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	setCookie(w, r, sessionCookie, signed, expires)
	slog.Info("signed in", "session", sessionID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if id, err := s.signer.sessionID(r); err == nil {
		if err := s.store.Delete(r.Context(), id); err != nil {
			slog.Warn("failed to delete session", "session", id, "error", err)
		}
	}
	clearCookie(w, sessionCookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	if _, err := s.token(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	fmt.Fprint(w, "You are allowed")
}

// token returns the OAuth token of the request's session.
func (s *Server) token(r *http.Request) (*oauth2.Token, error) {
	id, err := s.signer.sessionID(r)
	if err != nil {
		return nil, err
	}
	return s.store.Token(r.Context(), id)
}

// driveService returns a Drive client authorized as the request's session.
// A nil service with a nil error means the request is not signed in.
func (s *Server) driveService(ctx context.Context, r *http.Request) (*drive.Service, error) {
	tok, err := s.token(r)
	if errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(s.oauth.Client(ctx, tok))}, s.driveOptions...)
	return drive.NewService(ctx, opts...)
}

func (s *Server) handleDriveList(w http.ResponseWriter, r *http.Request) {
	srv, err := s.driveService(r.Context(), r)
	if err != nil {
		slog.Error("failed to create drive client", "error", err)
		http.Error(w, "Failed to list Google Drive files", http.StatusInternalServerError)
		return
	}
	if srv == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := srv.Files.List().
		Q(imageQuery).
		Fields("files(id,name,webContentLink,parents)").
		Context(r.Context()).
		Do()
	if err != nil {
		slog.Error("failed to list drive files", "error", err)
		http.Error(w, "Failed to list Google Drive files", http.StatusInternalServerError)
		return
	}
	files := make([]DriveFile, 0, len(list.Files))
	for _, f := range list.Files {
		files = append(files, DriveFile{ID: f.Id, Name: f.Name, WebContentLink: f.WebContentLink, Parents: f.Parents})
	}
	writeJSON(w, files)
}

func (s *Server) handleThumbnails(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		http.Error(w, "Missing folder", http.StatusBadRequest)
		return
	}
	srv, err := s.driveService(r.Context(), r)
	if err != nil {
		slog.Error("failed to create drive client", "error", err)
		http.Error(w, "Failed to list thumbnails", http.StatusInternalServerError)
		return
	}
	if srv == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	q := fmt.Sprintf("'%s' in parents and (%s) and trashed = false", strings.ReplaceAll(folder, "'", `\'`), imageQuery)
	list, err := srv.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name, hasThumbnail, thumbnailLink, mimeType, webContentLink)").
		PageSize(1000).
		Context(r.Context()).
		Do()
	if err != nil {
		slog.Error("failed to list thumbnails", "folder", folder, "error", err)
		http.Error(w, "Failed to list thumbnails", http.StatusInternalServerError)
		return
	}
	thumbnails := make([]string, 0, len(list.Files))
	for _, f := range list.Files {
		if f.ThumbnailLink == "" {
			slog.Warn("no thumbnail available", "file", f.Name)
			continue
		}
		thumbnails = append(thumbnails, f.ThumbnailLink)
	}
	writeJSON(w, thumbnails)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		http.Error(w, "Missing id", http.StatusBadRequest)
		return
	}
	opts, snap, err := renderParams(q.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts.Source = "drive://" + id

	srv, err := s.driveService(r.Context(), r)
	if err != nil {
		slog.Error("failed to create drive client", "error", err)
		http.Error(w, "Failed to render", http.StatusInternalServerError)
		return
	}
	if srv == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.renderLimit)
	defer cancel()
	img, err := engine.Snapshot(ctx, loader.NewLoader(loader.WithDriveService(srv), loader.WithCacheSize(0)), opts, snap)
	switch {
	case errors.Is(err, loader.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	case errors.Is(err, stereo.ErrDecode), errors.Is(err, loader.ErrNotImage):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		slog.Error("failed to render snapshot", "id", id, "error", err)
		http.Error(w, "Failed to render", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		slog.Error("failed to encode snapshot", "id", id, "error", err)
	}
}

// renderParams parses the viewer attributes of a render request.
func renderParams(get func(string) string) (engine.Options, engine.SnapshotOptions, error) {
	var (
		opts engine.Options
		snap = engine.SnapshotOptions{Width: 800, Height: 600}
		err  error
	)
	if opts.Layout, err = stereo.ParseLayoutKind(get("type")); err != nil {
		return opts, snap, err
	}
	if opts.Projection, err = stereo.ParseProjection(get("projection")); err != nil {
		return opts, snap, err
	}
	if v := get("angle"); v != "" {
		if opts.Angle, err = strconv.ParseFloat(v, 64); err != nil || opts.Angle <= 0 || opts.Angle > 360 {
			return opts, snap, fmt.Errorf("invalid angle %q", v)
		}
	}
	opts.Debug = get("debug") == "true"
	if snap.Eye, err = engine.ParseSnapshotEye(get("eye")); err != nil {
		return opts, snap, err
	}
	for _, dim := range []struct {
		key string
		dst *int
	}{{"w", &snap.Width}, {"h", &snap.Height}} {
		v := get(dim.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 4096 {
			return opts, snap, fmt.Errorf("invalid %s %q", dim.key, v)
		}
		*dim.dst = n
	}
	return opts, snap, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
