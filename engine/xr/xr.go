package xr

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/common"
)

// ErrUnavailable is returned by Enter when the session capability is missing.
var ErrUnavailable = errors.New("immersive session unavailable")

// View is one eye of an active session: the camera layer it shows and the
// fraction of the frame it occupies, with the origin at the top left.
type View struct {
	Layer               int
	X, Y, Width, Height float32
}

// Session is an immersive display capability. The viewer offers it when
// Available reports true and renders every View each frame while Active.
type Session interface {
	// Available reports whether a session can be entered.
	//
	// Parameters:
	//   - ctx: context for capability probing
	//
	// Returns:
	//   - bool: true when Enter can succeed
	Available(ctx context.Context) bool

	// Enter starts the session. Entering an active session is a no-op.
	//
	// Parameters:
	//   - ctx: context for session setup
	//
	// Returns:
	//   - error: ErrUnavailable or a setup error
	Enter(ctx context.Context) error

	// Exit ends the session. Exiting an inactive session is a no-op.
	Exit()

	// Active reports whether the session is running.
	//
	// Returns:
	//   - bool: true between Enter and Exit
	Active() bool

	// Views returns the per-eye views to render while active.
	//
	// Returns:
	//   - []View: the views, left eye first
	Views() []View
}

type noSession struct{}

var _ Session = noSession{}

// None returns a Session that is never available.
func None() Session {
	return noSession{}
}

func (noSession) Available(context.Context) bool { return false }

func (noSession) Enter(context.Context) error { return ErrUnavailable }

func (noSession) Exit() {}

func (noSession) Active() bool { return false }

func (noSession) Views() []View { return nil }

// sideBySide shows the left eye in the left half of the frame and the right
// eye in the right half, for stereo displays and viewers that take a
// side-by-side signal.
type sideBySide struct {
	mu        *sync.Mutex
	active    bool
	crossEyed bool
}

var _ Session = &sideBySide{}

// NewSideBySide creates a desktop Session that splits the frame between the eyes.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Session: the session, inactive until Enter
func NewSideBySide(options ...SideBySideOption) Session {
	s := &sideBySide{mu: &sync.Mutex{}}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *sideBySide) Available(context.Context) bool {
	return true
}

func (s *sideBySide) Enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		s.active = true
		slog.Info("immersive session started", "mode", "side-by-side", "crossEyed", s.crossEyed)
	}
	return nil
}

func (s *sideBySide) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.active = false
		slog.Info("immersive session ended", "mode", "side-by-side")
	}
}

func (s *sideBySide) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *sideBySide) Views() []View {
	s.mu.Lock()
	defer s.mu.Unlock()
	left, right := float32(0), float32(0.5)
	if s.crossEyed {
		left, right = right, left
	}
	return []View{
		{Layer: common.LayerLeft, X: left, Width: 0.5, Height: 1},
		{Layer: common.LayerRight, X: right, Width: 0.5, Height: 1},
	}
}
