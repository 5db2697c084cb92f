package routing

import (
	"sync"

	"github.com/nfrund/hashrouter/internal/observable"
)

type update struct {
	Hash    string
	Replace bool
}

// fakeHashes records updates and echoes them back as hash changes the way a
// history-capable manager does.
type fakeHashes struct {
	mu      sync.Mutex
	hash    string
	calls   []update
	changed *observable.Subject[string]
	// echo maps an updated hash to the hash reported back; nil echoes as-is.
	echo func(hash string) string
}

func newFakeHashes(initial string) *fakeHashes {
	return &fakeHashes{hash: initial, changed: observable.NewSubject[string]()}
}

func (f *fakeHashes) HashChanged() observable.Source[string] { return f.changed }

func (f *fakeHashes) CurrentHash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hash
}

func (f *fakeHashes) UpdateHash(hash string, _ any, _ string, replace bool) {
	reported := hash
	if f.echo != nil {
		reported = f.echo(hash)
	}
	f.mu.Lock()
	f.calls = append(f.calls, update{Hash: hash, Replace: replace})
	f.hash = reported
	f.mu.Unlock()
	f.changed.Emit(reported)
}

func (f *fakeHashes) Close() {}

func (f *fakeHashes) Calls() []update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]update(nil), f.calls...)
}

// settle drains chains of tasks that post follow-up tasks.
func settle(loop *observable.Loop) {
	for i := 0; i < 25; i++ {
		loop.Sync()
	}
}
