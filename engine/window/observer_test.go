package window

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedSizeNotifiesSubscribers(t *testing.T) {
	f := NewFixedSize(800, 0)
	w, h := f.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 0, h)

	var mu sync.Mutex
	var got [][2]int
	cancel := f.OnResize(func(width, height int) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, [2]int{width, height})
	})
	calls := 0
	f.OnResize(func(width, height int) { calls++ })

	f.Resize(640, 480)
	cancel()
	cancel()
	f.Resize(320, 240)

	assert.Equal(t, [][2]int{{640, 480}}, got)
	assert.Equal(t, 2, calls)
	w, h = f.Size()
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

func TestWindowOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720}
	for _, opt := range []WindowBuilderOption{
		WithTitle("viewer"),
		WithSize(0, 600),
		WithMinSize(100, 50),
		WithMaxSize(1920, 1080),
	} {
		opt(w)
	}
	assert.Equal(t, "viewer", w.title)
	assert.Equal(t, 1280, w.width)
	assert.Equal(t, 600, w.height)
	assert.Equal(t, [2]int{100, 50}, [2]int{w.minWidth, w.minHeight})
	assert.Equal(t, [2]int{1920, 1080}, [2]int{w.maxWidth, w.maxHeight})
}
