package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// driveLoaderBackend downloads drive://<fileID> sources.
type driveLoaderBackend struct {
	srv *drive.Service
}

var _ loaderBackend = &driveLoaderBackend{}

func newDriveLoaderBackend(srv *drive.Service) *driveLoaderBackend {
	return &driveLoaderBackend{srv: srv}
}

func (b *driveLoaderBackend) Load(ctx context.Context, ref string, maxBytes int64) (stereo.Source, error) {
	id := strings.Trim(ref[len("drive://"):], "/")
	if id == "" {
		return stereo.Source{}, ErrInvalidReference
	}

	// The name matters for filename-based layout detection.
	meta, err := b.srv.Files.Get(id).Fields("id, name, size").Context(ctx).Do()
	if err != nil {
		return stereo.Source{}, driveError(err)
	}
	if maxBytes > 0 && meta.Size > maxBytes {
		return stereo.Source{}, ErrTooLarge
	}

	resp, err := b.srv.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return stereo.Source{}, driveError(err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, maxBytes)
	if err != nil {
		return stereo.Source{}, err
	}
	return stereo.Source{Name: meta.Name, Data: data}, nil
}

func driveError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", gerr.Message, ErrNotFound)
	}
	return err
}
