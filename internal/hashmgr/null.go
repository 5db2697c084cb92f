package hashmgr

import "github.com/nfrund/hashrouter/internal/observable"

// NullManager is used when there is no window. It never emits and ignores
// updates.
type NullManager struct{}

// NewNullManager creates a NullManager.
func NewNullManager() *NullManager {
	return &NullManager{}
}

// HashChanged implements HashManager.
func (NullManager) HashChanged() observable.Source[string] {
	return observable.Never[string]()
}

// CurrentHash implements HashManager.
func (NullManager) CurrentHash() string {
	return ""
}

// UpdateHash implements HashManager.
func (NullManager) UpdateHash(string, any, string, bool) {}

// Close implements HashManager.
func (NullManager) Close() {}
