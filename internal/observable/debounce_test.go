package observable

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	d := NewDebouncer(loop, 50*time.Millisecond)
	var calls atomic.Int32
	var last atomic.Int32

	for i := 1; i <= 10; i++ {
		i := i
		loop.Post(func() {
			d.Trigger(func() {
				calls.Add(1)
				last.Store(int32(i))
			})
		})
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(10), last.Load())
}

func TestDebouncer_ZeroWindowRunsImmediately(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	d := NewDebouncer(loop, 0)
	ran := false
	loop.Post(func() { d.Trigger(func() { ran = true }) })
	loop.Sync()

	assert.True(t, ran)
}

func TestDebouncer_Cancel(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	d := NewDebouncer(loop, 20*time.Millisecond)
	var calls atomic.Int32
	loop.Post(func() {
		d.Trigger(func() { calls.Add(1) })
		assert.True(t, d.Pending())
		d.Cancel()
		assert.False(t, d.Pending())
	})

	time.Sleep(60 * time.Millisecond)
	loop.Sync()
	assert.Equal(t, int32(0), calls.Load())
}
