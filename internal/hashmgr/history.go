package hashmgr

import (
	"log/slog"

	"github.com/nfrund/hashrouter/internal/observable"
)

// HistoryManager updates the hash through pushState/replaceState. Because
// those calls do not fire a native hash change, it emits the new hash itself.
// Native changes (back/forward, manual edits) are forwarded as well.
type HistoryManager struct {
	win     Window
	history History
	changed *observable.Subject[string]
	native  observable.Subscription
	logger  *slog.Logger
}

// NewHistoryManager creates a manager over win using history for updates.
func NewHistoryManager(win Window, history History, logger *slog.Logger) *HistoryManager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &HistoryManager{
		win:     win,
		history: history,
		changed: observable.NewSubject[string](),
		logger:  logger,
	}
	m.native = win.OnHashChange(m.changed.Emit)
	return m
}

// HashChanged implements HashManager.
func (m *HistoryManager) HashChanged() observable.Source[string] {
	return m.changed
}

// CurrentHash implements HashManager.
func (m *HistoryManager) CurrentHash() string {
	return m.win.Hash()
}

// UpdateHash implements HashManager.
func (m *HistoryManager) UpdateHash(hash string, state any, title string, replace bool) {
	if replace {
		m.history.ReplaceState(state, title, hash)
	} else {
		m.history.PushState(state, title, hash)
	}
	m.logger.Debug("Hash updated", "hash", hash, "replace", replace)
	m.changed.Emit(hash)
}

// Close implements HashManager.
func (m *HistoryManager) Close() {
	m.native.Unsubscribe()
}
