package loader

import (
	"context"
	"errors"
	"strings"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// LoaderBackendType identifies where a source reference is fetched from.
type LoaderBackendType int

const (
	// BackendTypeFile reads a local path or file:// URL.
	BackendTypeFile LoaderBackendType = iota
	// BackendTypeHTTP fetches an http:// or https:// URL.
	BackendTypeHTTP
	// BackendTypeDrive downloads a Google Drive file given as drive://<fileID>.
	BackendTypeDrive
	// BackendTypeS3 reads an object given as s3://<bucket>/<key>.
	BackendTypeS3
)

// String returns the scheme-like name of the backend type.
func (t LoaderBackendType) String() string {
	switch t {
	case BackendTypeHTTP:
		return "http"
	case BackendTypeDrive:
		return "drive"
	case BackendTypeS3:
		return "s3"
	default:
		return "file"
	}
}

// BackendTypeOf selects the backend for a source reference by its scheme.
// References without a known scheme are local paths.
//
// Parameters:
//   - ref: the source reference
//
// Returns:
//   - LoaderBackendType: the backend that can load ref
func BackendTypeOf(ref string) LoaderBackendType {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return BackendTypeHTTP
	case strings.HasPrefix(lower, "drive://"):
		return BackendTypeDrive
	case strings.HasPrefix(lower, "s3://"):
		return BackendTypeS3
	default:
		return BackendTypeFile
	}
}

var (
	// ErrNotFound is returned when the referenced source does not exist.
	ErrNotFound = errors.New("source not found")

	// ErrNoBackend is returned when the backend for a reference is not configured.
	ErrNoBackend = errors.New("no loader backend configured")

	// ErrNotImage is returned when the loaded bytes are not an image.
	ErrNotImage = errors.New("source is not an image")

	// ErrTooLarge is returned when a source exceeds the configured size limit.
	ErrTooLarge = errors.New("source exceeds size limit")

	// ErrInvalidReference is returned for a malformed source reference.
	ErrInvalidReference = errors.New("invalid source reference")
)

// loaderBackend fetches the bytes of one kind of source reference.
type loaderBackend interface {
	// Load fetches ref.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - ref: the full source reference including its scheme
	//   - maxBytes: the size limit; larger sources fail with ErrTooLarge
	//
	// Returns:
	//   - stereo.Source: the bytes and a display name used for filename heuristics
	//   - error: an error wrapping one of the package sentinels when applicable
	Load(ctx context.Context, ref string, maxBytes int64) (stereo.Source, error)
}
