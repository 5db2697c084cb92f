package hashmgr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nfrund/hashrouter/internal/browser"
	"github.com/nfrund/hashrouter/internal/hashmgr"
)

func collect(m hashmgr.HashManager) *[]string {
	var got []string
	m.HashChanged().Subscribe(func(h string) { got = append(got, h) })
	return &got
}

func TestNew_PicksImplementation(t *testing.T) {
	assert.IsType(t, &hashmgr.NullManager{}, hashmgr.New(nil, nil))
	assert.IsType(t, &hashmgr.HistoryManager{}, hashmgr.New(browser.NewMemoryWindow("#/"), nil))
	assert.IsType(t, &hashmgr.PlainManager{}, hashmgr.New(browser.NewMemoryWindow("#/", browser.WithoutHistory()), nil))
}

func TestHistoryManager_SynthesizesEvents(t *testing.T) {
	win := browser.NewMemoryWindow("#/start")
	m := hashmgr.New(win, nil)
	defer m.Close()
	got := collect(m)

	assert.Equal(t, "#/start", m.CurrentHash())

	m.UpdateHash("#/a", nil, "", false)
	m.UpdateHash("#/b", nil, "", true)

	assert.Equal(t, []string{"#/a", "#/b"}, *got)
	entries, _ := win.Entries()
	assert.Len(t, entries, 2, "replace must not grow the history")
	assert.Equal(t, "#/b", win.Hash())
}

func TestHistoryManager_ForwardsNativeChanges(t *testing.T) {
	win := browser.NewMemoryWindow("#/")
	m := hashmgr.New(win, nil)
	got := collect(m)

	m.UpdateHash("#/a", nil, "", false)
	win.Back()

	assert.Equal(t, []string{"#/a", "#/"}, *got)

	m.Close()
	win.Forward()
	assert.Equal(t, []string{"#/a", "#/"}, *got, "no events after Close")
}

func TestPlainManager_AlwaysPushes(t *testing.T) {
	win := browser.NewMemoryWindow("#/", browser.WithoutHistory())
	m := hashmgr.New(win, nil)
	defer m.Close()
	got := collect(m)

	m.UpdateHash("#/a", nil, "", false)
	m.UpdateHash("#/b", nil, "", true)

	assert.Equal(t, []string{"#/a", "#/b"}, *got)
	entries, _ := win.Entries()
	assert.Len(t, entries, 3)
}

func TestNullManager(t *testing.T) {
	m := hashmgr.New(nil, nil)
	got := collect(m)

	assert.NotPanics(t, func() {
		m.UpdateHash("#/a", nil, "", false)
		m.Close()
	})
	assert.Empty(t, *got)
	assert.Equal(t, "", m.CurrentHash())
}
