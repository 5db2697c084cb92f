// Package hashmgr abstracts the browser history mechanism the router runs on.
//
// A HashManager emits every hash the window moves to and accepts hash updates
// with push or replace semantics. New picks the best implementation for a
// Window once, at construction:
//
//   - HistoryManager when the window exposes the History API,
//   - PlainManager when it only has a location hash,
//   - NullManager when there is no window at all.
package hashmgr

import (
	"log/slog"

	"github.com/nfrund/hashrouter/internal/observable"
)

// HashManager is the router's view of the browser location.
type HashManager interface {
	// HashChanged emits each hash the window moves to, including the "#".
	HashChanged() observable.Source[string]

	// CurrentHash returns the hash the window shows right now.
	CurrentHash() string

	// UpdateHash moves the window to hash. With replace the current history
	// entry is overwritten instead of a new one being pushed, where the
	// implementation can tell the two apart.
	UpdateHash(hash string, state any, title string, replace bool)

	// Close releases the window listeners.
	Close()
}

// Window is the subset of a browser window the managers need.
type Window interface {
	// Hash returns location.hash.
	Hash() string
	// SetHash assigns location.hash, which adds a history entry and fires a
	// hash change when the hash differs.
	SetHash(hash string)
	// History returns the History API, or nil when it is unavailable.
	History() History
	// OnHashChange registers fn for native hash change events.
	OnHashChange(fn func(hash string)) observable.Subscription
}

// History is the pushState/replaceState half of the History API. Neither
// call fires a hash change.
type History interface {
	PushState(state any, title, url string)
	ReplaceState(state any, title, url string)
}

// New returns the manager best suited to win. A nil window yields a
// NullManager so the router can run outside a browser.
func New(win Window, logger *slog.Logger) HashManager {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", "hashmgr")

	if win == nil {
		logger.Debug("No window available, hash routing disabled")
		return NewNullManager()
	}
	if h := win.History(); h != nil {
		logger.Debug("Using history hash manager")
		return NewHistoryManager(win, h, logger)
	}

	logger.Debug("History API unavailable, using plain hash manager")
	return NewPlainManager(win, logger)
}
