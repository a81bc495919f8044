// Package loader fetches encoded stereo photos from local files, HTTP URLs,
// Google Drive and S3, and watches local files for changes.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/h2non/filetype"
)

// DefaultMaxBytes is the default size limit for a single source.
const DefaultMaxBytes = 256 << 20

// DefaultCacheSize is the default number of remote sources kept in memory.
const DefaultCacheSize = 8

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	backends map[LoaderBackendType]loaderBackend

	httpClient *http.Client
	maxBytes   int64
	cacheSize  int

	cache      map[string]stereo.Source
	cacheOrder []string
}

// Loader resolves source references into encoded image bytes.
//
// Remote sources (http, drive, s3) are cached by reference; local files are
// read on every Load so edits are picked up.
type Loader interface {
	// Load fetches the source named by ref and checks that it is an image.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - ref: a path, file://, http(s)://, drive://<fileID> or s3://<bucket>/<key> reference
	//
	// Returns:
	//   - stereo.Source: the bytes and display name
	//   - error: an error wrapping ErrNotFound, ErrNoBackend, ErrNotImage, ErrTooLarge or ErrInvalidReference
	Load(ctx context.Context, ref string) (stereo.Source, error)

	// Cached returns a cached remote source.
	//
	// Parameters:
	//   - ref: the source reference
	//
	// Returns:
	//   - stereo.Source: the cached source
	//   - bool: true if ref was cached
	Cached(ref string) (stereo.Source, bool)

	// Invalidate drops ref from the cache so the next Load fetches it again.
	//
	// Parameters:
	//   - ref: the source reference
	Invalidate(ref string)

	// Watch calls onChange whenever the local file named by ref is written,
	// created or replaced, until ctx is cancelled. Remote references cannot be watched.
	//
	// Parameters:
	//   - ctx: stops the watch when cancelled
	//   - ref: a local path or file:// reference
	//   - onChange: called from the watch goroutine after changes settle
	//
	// Returns:
	//   - error: an error if the watch could not be started
	Watch(ctx context.Context, ref string, onChange func()) error
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the file and HTTP backends enabled. Drive
// and S3 are enabled through WithDriveService and WithS3Client.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		backends:   make(map[LoaderBackendType]loaderBackend),
		httpClient: http.DefaultClient,
		maxBytes:   DefaultMaxBytes,
		cacheSize:  DefaultCacheSize,
		cache:      make(map[string]stereo.Source),
	}
	for _, option := range options {
		option(l)
	}
	l.backends[BackendTypeFile] = newFileLoaderBackend()
	l.backends[BackendTypeHTTP] = newHTTPLoaderBackend(l.httpClient)
	return l
}

func (l *loader) Load(ctx context.Context, ref string) (stereo.Source, error) {
	kind := BackendTypeOf(ref)
	if kind != BackendTypeFile {
		if src, ok := l.Cached(ref); ok {
			return src, nil
		}
	}

	l.mu.RLock()
	backend, ok := l.backends[kind]
	l.mu.RUnlock()
	if !ok {
		return stereo.Source{}, fmt.Errorf("load %s: %s: %w", ref, kind, ErrNoBackend)
	}

	src, err := backend.Load(ctx, ref, l.maxBytes)
	if err != nil {
		return stereo.Source{}, fmt.Errorf("load %s: %w", ref, err)
	}
	if !filetype.IsImage(src.Data) {
		return stereo.Source{}, fmt.Errorf("load %s: %w", ref, ErrNotImage)
	}
	slog.Debug("source loaded", "ref", ref, "backend", kind.String(), "name", src.Name, "bytes", len(src.Data))

	if kind != BackendTypeFile {
		l.store(ref, src)
	}
	return src, nil
}

func (l *loader) Cached(ref string) (stereo.Source, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src, ok := l.cache[ref]
	return src, ok
}

func (l *loader) Invalidate(ref string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[ref]; !ok {
		return
	}
	delete(l.cache, ref)
	for i, r := range l.cacheOrder {
		if r == ref {
			l.cacheOrder = append(l.cacheOrder[:i], l.cacheOrder[i+1:]...)
			break
		}
	}
}

// store caches a remote source, evicting the oldest entry when full.
func (l *loader) store(ref string, src stereo.Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cacheSize <= 0 {
		return
	}
	if _, ok := l.cache[ref]; !ok {
		l.cacheOrder = append(l.cacheOrder, ref)
	}
	l.cache[ref] = src
	for len(l.cacheOrder) > l.cacheSize {
		oldest := l.cacheOrder[0]
		l.cacheOrder = l.cacheOrder[1:]
		delete(l.cache, oldest)
	}
}

// readLimited reads at most maxBytes from r, failing with ErrTooLarge beyond that.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
