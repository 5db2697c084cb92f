package websocket

import (
	"encoding/json"
	"sync"

	"github.com/nfrund/hashrouter/internal/hashmgr"
	"github.com/nfrund/hashrouter/internal/observable"
)

// RemoteWindow is a browser tab seen through its websocket connection. The
// window keeps the last known location; commands are sent to the tab and
// hash changes it reports are dispatched to listeners.
type RemoteWindow struct {
	client     *Client
	hasHistory bool
	changes    *observable.Subject[string]

	mu    sync.Mutex
	hash  string
	title string
}

// NewRemoteWindow creates the window of client, starting at hash.
func NewRemoteWindow(client *Client, hash string, hasHistory bool) *RemoteWindow {
	return &RemoteWindow{
		client:     client,
		hasHistory: hasHistory,
		changes:    observable.NewSubject[string](),
		hash:       hash,
	}
}

// Hash returns the last known location hash.
func (w *RemoteWindow) Hash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hash
}

// SetHash assigns location.hash in the tab and fires a hash change when it
// differs. The tab's own report of the same change is ignored.
func (w *RemoteWindow) SetHash(hash string) {
	if !w.update(hash) {
		return
	}
	w.client.SendMessage(NewHashMessage(TypeAssign, hash, ""))
	w.changes.Emit(hash)
}

// History returns the window when the tab supports pushState.
func (w *RemoteWindow) History() hashmgr.History {
	if !w.hasHistory {
		return nil
	}
	return w
}

// OnHashChange registers fn for hash changes.
func (w *RemoteWindow) OnHashChange(fn func(hash string)) observable.Subscription {
	return w.changes.Subscribe(fn)
}

// PushState adds a history entry in the tab without a hash change event.
func (w *RemoteWindow) PushState(state any, title, url string) {
	w.update(url)
	w.client.SendMessage(w.stateMessage(TypePush, state, title, url))
}

// ReplaceState replaces the current history entry in the tab without a hash
// change event.
func (w *RemoteWindow) ReplaceState(state any, title, url string) {
	w.update(url)
	w.client.SendMessage(w.stateMessage(TypeReplace, state, title, url))
}

// SetTitle sets document.title in the tab.
func (w *RemoteWindow) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
	w.client.SendMessage(&Message{Type: TypeTitle, Title: title})
}

// Title returns the last title sent.
func (w *RemoteWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

// receive handles a hash change reported by the tab.
func (w *RemoteWindow) receive(hash string) {
	if w.update(hash) {
		w.changes.Emit(hash)
	}
}

func (w *RemoteWindow) update(hash string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if hash == w.hash {
		return false
	}
	w.hash = hash
	return true
}

func (w *RemoteWindow) stateMessage(msgType string, state any, title, url string) *Message {
	msg := NewHashMessage(msgType, url, title)
	if state == nil {
		return msg
	}
	raw, err := json.Marshal(state)
	if err != nil {
		w.client.logger.Warn("History state is not JSON encodable, sending without it", "error", err)
		return msg
	}
	msg.Payload = raw
	return msg
}

var (
	_ hashmgr.Window  = (*RemoteWindow)(nil)
	_ hashmgr.History = (*RemoteWindow)(nil)
)
