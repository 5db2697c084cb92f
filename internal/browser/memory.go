// Package browser provides an in-process browser window for running the
// router without a real browser: a location hash, a history stack with
// back/forward traversal and a document title.
//
// It follows browser rules for hash change events: assigning a different hash
// and traversing history fire one, pushState and replaceState do not.
package browser

import (
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nfrund/hashrouter/internal/hashmgr"
	"github.com/nfrund/hashrouter/internal/observable"
)

// Entry is one history entry.
type Entry struct {
	Hash  string
	Title string
	// State is the msgpack encoding of the value passed to pushState or
	// replaceState; nil for entries created by hash assignment.
	State []byte
}

// MemoryWindow is a goroutine-safe in-memory browser window.
type MemoryWindow struct {
	mu      sync.Mutex
	entries []Entry
	index   int
	title   string
	history bool

	changed *observable.Subject[string]
}

// Option configures a MemoryWindow.
type Option func(*MemoryWindow)

// WithoutHistory hides the History API, as in browsers that lack it.
func WithoutHistory() Option {
	return func(w *MemoryWindow) {
		w.history = false
	}
}

// NewMemoryWindow creates a window showing initialHash.
func NewMemoryWindow(initialHash string, opts ...Option) *MemoryWindow {
	w := &MemoryWindow{
		entries: []Entry{{Hash: initialHash}},
		history: true,
		changed: observable.NewSubject[string](),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Hash implements hashmgr.Window.
func (w *MemoryWindow) Hash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.entries[w.index].Hash
}

// SetHash implements hashmgr.Window. Assigning the current hash is a no-op.
func (w *MemoryWindow) SetHash(hash string) {
	w.mu.Lock()
	if w.entries[w.index].Hash == hash {
		w.mu.Unlock()
		return
	}
	w.push(Entry{Hash: hash})
	w.mu.Unlock()

	w.changed.Emit(hash)
}

// History implements hashmgr.Window.
func (w *MemoryWindow) History() hashmgr.History {
	if !w.history {
		return nil
	}
	return w
}

// OnHashChange implements hashmgr.Window.
func (w *MemoryWindow) OnHashChange(fn func(hash string)) observable.Subscription {
	return w.changed.Subscribe(fn)
}

// PushState implements hashmgr.History.
func (w *MemoryWindow) PushState(state any, title, url string) {
	data := encodeState(state)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.push(Entry{Hash: url, Title: title, State: data})
}

// ReplaceState implements hashmgr.History.
func (w *MemoryWindow) ReplaceState(state any, title, url string) {
	data := encodeState(state)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[w.index] = Entry{Hash: url, Title: title, State: data}
}

// Back moves one entry back, like the browser back button.
func (w *MemoryWindow) Back() bool { return w.Go(-1) }

// Forward moves one entry forward.
func (w *MemoryWindow) Forward() bool { return w.Go(1) }

// Go moves delta entries through the history. It reports false, and does
// nothing, when the target is out of range.
func (w *MemoryWindow) Go(delta int) bool {
	w.mu.Lock()
	target := w.index + delta
	if delta == 0 || target < 0 || target >= len(w.entries) {
		w.mu.Unlock()
		return false
	}
	from := w.entries[w.index].Hash
	w.index = target
	to := w.entries[w.index].Hash
	w.mu.Unlock()

	if from != to {
		w.changed.Emit(to)
	}
	return true
}

// Entries returns a copy of the history stack and the current index.
func (w *MemoryWindow) Entries() ([]Entry, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out, w.index
}

// StateInto decodes the current entry's state into v.
func (w *MemoryWindow) StateInto(v any) error {
	w.mu.Lock()
	data := w.entries[w.index].State
	w.mu.Unlock()

	if data == nil {
		return fmt.Errorf("history entry has no state")
	}
	return msgpack.Unmarshal(data, v)
}

// Title returns the document title.
func (w *MemoryWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

// SetTitle sets the document title.
func (w *MemoryWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

// push drops forward entries and appends e. Callers hold w.mu.
func (w *MemoryWindow) push(e Entry) {
	w.entries = append(w.entries[:w.index+1], e)
	w.index = len(w.entries) - 1
}

func encodeState(state any) []byte {
	if state == nil {
		return nil
	}
	data, err := msgpack.Marshal(state)
	if err != nil {
		return nil
	}
	return data
}
