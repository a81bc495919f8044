package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

type httpLoaderBackend struct {
	client *http.Client
}

var _ loaderBackend = &httpLoaderBackend{}

func newHTTPLoaderBackend(client *http.Client) *httpLoaderBackend {
	return &httpLoaderBackend{client: client}
}

func (b *httpLoaderBackend) Load(ctx context.Context, ref string, maxBytes int64) (stereo.Source, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return stereo.Source{}, ErrInvalidReference
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return stereo.Source{}, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return stereo.Source{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return stereo.Source{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return stereo.Source{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return stereo.Source{}, ErrTooLarge
	}

	data, err := readLimited(resp.Body, maxBytes)
	if err != nil {
		return stereo.Source{}, err
	}
	return stereo.Source{Name: path.Base(u.Path), Data: data}, nil
}
