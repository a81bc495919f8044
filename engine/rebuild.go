package engine

import (
	"context"
	"sync"
)

// RebuildHandle tracks one Configure call.
type RebuildHandle interface {
	// Generation returns the configuration generation of this rebuild.
	// Generations increase by one per Configure call.
	//
	// Returns:
	//   - uint64: the generation
	Generation() uint64

	// Done is closed when the rebuild has been applied, discarded or has failed.
	//
	// Returns:
	//   - <-chan struct{}: the completion channel
	Done() <-chan struct{}

	// Wait blocks until the rebuild completes or ctx is done.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: nil if the new scene is showing, ErrSuperseded, ErrDetached,
	//     the rebuild error, or ctx.Err()
	Wait(ctx context.Context) error
}

type rebuildHandle struct {
	generation uint64
	done       chan struct{}
	once       sync.Once
	err        error
}

var _ RebuildHandle = &rebuildHandle{}

func newRebuildHandle(generation uint64) *rebuildHandle {
	return &rebuildHandle{generation: generation, done: make(chan struct{})}
}

func (h *rebuildHandle) Generation() uint64 {
	return h.generation
}

func (h *rebuildHandle) Done() <-chan struct{} {
	return h.done
}

func (h *rebuildHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish records err and closes done. Only the first call has an effect.
func (h *rebuildHandle) finish(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}
