// Package host defines the abstraction over the terminal multiplexer that
// owns the real tabs and panes. The engine only ever talks to a Host and
// consumes Events; concrete backends live in subpackages.
package host

// Host is the set of operations the plugin asks the multiplexer to perform.
// Implementations are expected to be synchronous and cheap to call from the
// event loop.
type Host interface {
	// OpenCommandPane opens a new terminal pane running argv in cwd. The
	// context map is attached to the request and echoed back verbatim on
	// the PaneSpawned event for the resulting pane.
	OpenCommandPane(argv []string, cwd string, context map[string]string) error

	// ClosePane closes the pane with the given host id.
	ClosePane(id int) error

	// FocusPane moves focus to the pane with the given host id.
	FocusPane(id int) error

	// GoToTab switches to the tab with the given name.
	GoToTab(name string) error

	// NewTab creates a tab with the given name and working directory.
	NewTab(name, cwd string) error
}
