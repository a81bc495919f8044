package loader

import (
	"net/http"

	"google.golang.org/api/drive/v3"
)

// LoaderBuilderOption is a functional option for configuring a Loader.
type LoaderBuilderOption func(*loader)

// WithHTTPClient sets the client used for http(s) sources.
//
// Parameters:
//   - client: the HTTP client; nil keeps http.DefaultClient
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client to a loader
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// WithDriveService enables drive:// sources using an authorized Drive client.
//
// Parameters:
//   - srv: the Drive v3 service
//
// Returns:
//   - LoaderBuilderOption: a function that registers the Drive backend
func WithDriveService(srv *drive.Service) LoaderBuilderOption {
	return func(l *loader) {
		if srv != nil {
			l.backends[BackendTypeDrive] = newDriveLoaderBackend(srv)
		}
	}
}

// WithS3Client enables s3:// sources.
//
// Parameters:
//   - client: anything with the s3.Client GetObject method
//
// Returns:
//   - LoaderBuilderOption: a function that registers the S3 backend
func WithS3Client(client S3API) LoaderBuilderOption {
	return func(l *loader) {
		if client != nil {
			l.backends[BackendTypeS3] = newS3LoaderBackend(client)
		}
	}
}

// WithMaxBytes sets the per-source size limit. Non-positive disables the limit.
func WithMaxBytes(n int64) LoaderBuilderOption {
	return func(l *loader) {
		l.maxBytes = n
	}
}

// WithCacheSize sets how many remote sources are cached. Zero disables caching.
func WithCacheSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n >= 0 {
			l.cacheSize = n
		}
	}
}
