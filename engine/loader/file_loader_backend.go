package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

type fileLoaderBackend struct{}

var _ loaderBackend = &fileLoaderBackend{}

func newFileLoaderBackend() *fileLoaderBackend {
	return &fileLoaderBackend{}
}

func (b *fileLoaderBackend) Load(ctx context.Context, ref string, maxBytes int64) (stereo.Source, error) {
	if err := ctx.Err(); err != nil {
		return stereo.Source{}, err
	}
	path, err := localPath(ref)
	if err != nil {
		return stereo.Source{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stereo.Source{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return stereo.Source{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return stereo.Source{}, err
	}
	if info.IsDir() {
		return stereo.Source{}, fmt.Errorf("%s is a directory: %w", path, ErrInvalidReference)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return stereo.Source{}, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}

	data, err := readLimited(f, maxBytes)
	if err != nil {
		return stereo.Source{}, err
	}
	return stereo.Source{Name: filepath.Base(path), Data: data}, nil
}

// localPath converts a plain path or file:// URL into a filesystem path.
func localPath(ref string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(ref), "file://") {
		if ref == "" {
			return "", ErrInvalidReference
		}
		return ref, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if u.Path == "" {
		return "", ErrInvalidReference
	}
	return filepath.FromSlash(u.Path), nil
}
