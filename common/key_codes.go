package common

// Virtual key codes for the viewer's keyboard shortcuts.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyD   = 68  // D key (ASCII), toggles the debug wireframe
	KeyR   = 82  // R key (ASCII), reloads the current source
	KeyV   = 86  // V key (ASCII), enters or exits the immersive session
	KeyW   = 87  // W key (ASCII), toggles wiggle mode
	KeyEsc = 256 // Escape key (GLFW)

	KeyRight = 262 // Right arrow (GLFW), turns the view right
	KeyLeft  = 263 // Left arrow (GLFW), turns the view left
	KeyDown  = 264 // Down arrow (GLFW), tilts the view down
	KeyUp    = 265 // Up arrow (GLFW), tilts the view up
)
