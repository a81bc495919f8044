package window

import (
	"sync"
)

// ResizeObserver reports the drawable size of a render target and notifies
// subscribers when it changes.
type ResizeObserver interface {
	// Size returns the current drawable size in pixels.
	//
	// Returns:
	//   - int: width
	//   - int: height
	Size() (int, int)

	// OnResize subscribes to size changes.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	//
	// Returns:
	//   - func(): cancels the subscription
	OnResize(callback func(width, height int)) func()
}

// resizeListeners fans a resize out to every subscriber.
type resizeListeners struct {
	mu        sync.Mutex
	nextID    int
	callbacks map[int]func(width, height int)
}

func (l *resizeListeners) add(callback func(width, height int)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.callbacks == nil {
		l.callbacks = make(map[int]func(width, height int))
	}
	id := l.nextID
	l.nextID++
	l.callbacks[id] = callback

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.callbacks, id)
		})
	}
}

func (l *resizeListeners) notify(width, height int) {
	l.mu.Lock()
	callbacks := make([]func(width, height int), 0, len(l.callbacks))
	for _, cb := range l.callbacks {
		callbacks = append(callbacks, cb)
	}
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb(width, height)
	}
}

// FixedSize is a ResizeObserver for off-screen targets. Its size only changes
// through Resize.
type FixedSize struct {
	mu            sync.Mutex
	width, height int
	listeners     resizeListeners
}

var _ ResizeObserver = &FixedSize{}

// NewFixedSize creates an off-screen ResizeObserver of the given size.
//
// Parameters:
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - *FixedSize: the observer
func NewFixedSize(width, height int) *FixedSize {
	return &FixedSize{width: width, height: height}
}

// Size returns the current size.
func (f *FixedSize) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height
}

// OnResize subscribes to Resize calls.
func (f *FixedSize) OnResize(callback func(width, height int)) func() {
	return f.listeners.add(callback)
}

// Resize changes the size and notifies subscribers.
//
// Parameters:
//   - width: new width in pixels
//   - height: new height in pixels
func (f *FixedSize) Resize(width, height int) {
	f.mu.Lock()
	f.width, f.height = width, height
	f.mu.Unlock()
	f.listeners.notify(width, height)
}
