package loader

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-stereo/internal/fixture"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

var testJPEG = fixture.JPEG(fixture.Solid(8, 8, color.RGBA{R: 200, G: 10, B: 10, A: 255}))

func TestBackendTypeOf(t *testing.T) {
	tests := []struct {
		ref  string
		want LoaderBackendType
	}{
		{"photo.jpg", BackendTypeFile},
		{"/tmp/photo.jpg", BackendTypeFile},
		{"file:///tmp/photo.jpg", BackendTypeFile},
		{"http://example.com/a.jpg", BackendTypeHTTP},
		{"HTTPS://example.com/a.jpg", BackendTypeHTTP},
		{"drive://1AbC", BackendTypeDrive},
		{"s3://bucket/key.jpg", BackendTypeS3},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, BackendTypeOf(tt.ref))
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PORTRAIT.JPG")
	require.NoError(t, os.WriteFile(path, testJPEG, 0o644))

	l := NewLoader()
	src, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "PORTRAIT.JPG", src.Name)
	assert.Equal(t, testJPEG, src.Data)

	src, err = l.Load(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, "PORTRAIT.JPG", src.Name)

	_, ok := l.Cached(path)
	assert.False(t, ok, "local files are not cached")
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(WithMaxBytes(16))

	_, err := l.Load(context.Background(), filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, ErrNotFound)

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))
	_, err = l.Load(context.Background(), text)
	assert.ErrorIs(t, err, ErrNotImage)

	big := filepath.Join(dir, "big.jpg")
	require.NoError(t, os.WriteFile(big, testJPEG, 0o644))
	_, err = l.Load(context.Background(), big)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = l.Load(context.Background(), dir)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestLoadHTTPCaches(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photos/left_right.jpg" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(testJPEG)
	}))
	defer ts.Close()

	l := NewLoader(WithHTTPClient(ts.Client()))
	ref := ts.URL + "/photos/left_right.jpg"

	src, err := l.Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "left_right.jpg", src.Name)

	_, err = l.Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	l.Invalidate(ref)
	_, err = l.Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	_, err = l.Load(context.Background(), ts.URL+"/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheEvictsOldest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testJPEG)
	}))
	defer ts.Close()

	l := NewLoader(WithHTTPClient(ts.Client()), WithCacheSize(2))
	for _, name := range []string{"/a.jpg", "/b.jpg", "/c.jpg"} {
		_, err := l.Load(context.Background(), ts.URL+name)
		require.NoError(t, err)
	}
	_, ok := l.Cached(ts.URL + "/a.jpg")
	assert.False(t, ok)
	_, ok = l.Cached(ts.URL + "/c.jpg")
	assert.True(t, ok)
}

func TestLoadWithoutBackend(t *testing.T) {
	l := NewLoader()
	_, err := l.Load(context.Background(), "drive://abc")
	assert.ErrorIs(t, err, ErrNoBackend)
	_, err = l.Load(context.Background(), "s3://bucket/key.jpg")
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestLoadDrive(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/abc" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"File not found"}}`)
			return
		}
		if r.URL.Query().Get("alt") == "media" {
			_, _ = w.Write(testJPEG)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"abc","name":"PORTRAIT.JPG","size":"10"}`)
	}))
	defer ts.Close()

	srv, err := drive.NewService(context.Background(),
		option.WithHTTPClient(ts.Client()),
		option.WithEndpoint(ts.URL+"/"),
	)
	require.NoError(t, err)

	l := NewLoader(WithDriveService(srv))
	src, err := l.Load(context.Background(), "drive://abc")
	require.NoError(t, err)
	assert.Equal(t, "PORTRAIT.JPG", src.Name)
	assert.Equal(t, testJPEG, src.Data)

	_, err = l.Load(context.Background(), "drive://nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Load(context.Background(), "drive://")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestLoadS3(t *testing.T) {
	l := NewLoader(WithS3Client(&fakeS3{objects: map[string][]byte{
		"photos/trip/vr.jpg": testJPEG,
	}}))

	src, err := l.Load(context.Background(), "s3://photos/trip/vr.jpg")
	require.NoError(t, err)
	assert.Equal(t, "vr.jpg", src.Name)

	_, err = l.Load(context.Background(), "s3://photos/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Load(context.Background(), "s3://photos")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestWatchFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.jpg")
	require.NoError(t, os.WriteFile(path, testJPEG, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired atomic.Int32
	l := NewLoader()
	require.NoError(t, l.Watch(ctx, path, func() { fired.Add(1) }))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.jpg"), testJPEG, 0o644))
	require.NoError(t, os.WriteFile(path, append([]byte(nil), testJPEG...), 0o644))

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatchRejectsRemote(t *testing.T) {
	l := NewLoader()
	err := l.Watch(context.Background(), "https://example.com/a.jpg", func() {})
	assert.True(t, errors.Is(err, ErrInvalidReference))
}
