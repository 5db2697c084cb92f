package observable

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsTasksInOrder(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	loop.Sync()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_PostFromTaskDoesNotRecurse(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	var (
		mu       sync.Mutex
		depth    int
		maxDepth int
		runs     int
	)
	var step func()
	step = func() {
		mu.Lock()
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		runs++
		again := runs < 1000
		mu.Unlock()

		if again {
			loop.Post(step)
		}

		mu.Lock()
		depth--
		mu.Unlock()
	}

	loop.Post(step)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 1000
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxDepth, "chained posts must run on separate ticks")
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	loop.Post(func() { panic("boom") })
	ran := false
	loop.Post(func() { ran = true })
	loop.Sync()

	assert.True(t, ran)
}

func TestLoop_CloseRejectsNewTasks(t *testing.T) {
	loop := NewLoop(nil)
	loop.Close()

	assert.False(t, loop.Post(func() {}))
	// Sync on a closed loop returns instead of blocking.
	loop.Sync()
	<-loop.Done()
}

func TestLoop_AfterFunc(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	fired := make(chan struct{})
	loop.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}
