package hashmgr

import (
	"log/slog"

	"github.com/nfrund/hashrouter/internal/observable"
)

// PlainManager drives the location hash directly. It relies on the window's
// native hash change events and cannot replace history entries: every update
// grows the history.
type PlainManager struct {
	win     Window
	changed *observable.Subject[string]
	native  observable.Subscription
	logger  *slog.Logger
}

// NewPlainManager creates a manager over win.
func NewPlainManager(win Window, logger *slog.Logger) *PlainManager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &PlainManager{
		win:     win,
		changed: observable.NewSubject[string](),
		logger:  logger,
	}
	m.native = win.OnHashChange(m.changed.Emit)
	return m
}

// HashChanged implements HashManager.
func (m *PlainManager) HashChanged() observable.Source[string] {
	return m.changed
}

// CurrentHash implements HashManager.
func (m *PlainManager) CurrentHash() string {
	return m.win.Hash()
}

// UpdateHash implements HashManager. state, title and replace are ignored.
func (m *PlainManager) UpdateHash(hash string, _ any, _ string, replace bool) {
	if replace {
		m.logger.Debug("Replace requested but not supported, pushing instead", "hash", hash)
	}
	m.win.SetHash(hash)
}

// Close implements HashManager.
func (m *PlainManager) Close() {
	m.native.Unsubscribe()
}
