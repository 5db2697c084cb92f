package observable

import "time"

// Debouncer delays work until triggers stop arriving for a full window.
// Only the most recent trigger's function runs. All methods must be called
// from tasks running on the debouncer's loop.
type Debouncer struct {
	loop   *Loop
	window time.Duration
	timer  *time.Timer
	gen    uint64
}

// NewDebouncer creates a debouncer bound to loop. A window of zero or less
// runs triggered functions immediately.
func NewDebouncer(loop *Loop, window time.Duration) *Debouncer {
	return &Debouncer{loop: loop, window: window}
}

// Window returns the configured debounce window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Trigger (re)starts the window; fn runs on the loop when it expires unless a
// later trigger or Cancel supersedes it.
func (d *Debouncer) Trigger(fn func()) {
	d.gen++
	d.stopTimer()

	if d.window <= 0 {
		fn()
		return
	}

	gen := d.gen
	d.timer = d.loop.AfterFunc(d.window, func() {
		// A timer that already posted cannot be stopped; the generation check
		// drops it.
		if gen != d.gen {
			return
		}
		d.timer = nil
		fn()
	})
}

// Pending reports whether a triggered function is waiting to run.
func (d *Debouncer) Pending() bool {
	return d.timer != nil
}

// Cancel drops any pending function.
func (d *Debouncer) Cancel() {
	d.gen++
	d.stopTimer()
}

func (d *Debouncer) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
