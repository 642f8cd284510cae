package slug

import (
	"context"
	"sync"
	"time"
)

// Debouncer re-derives a slug after a quiet period while a store name is
// being edited, instead of probing on every keystroke. A manual edit of the
// slug field latches the debouncer off for the rest of the editing session:
// automatic re-derivation never resumes once Override is called.
type Debouncer struct {
	alloc *Allocator
	delay time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	overridden bool
}

// NewDebouncer creates a Debouncer allocating through alloc after delay of
// input silence.
func NewDebouncer(alloc *Allocator, delay time.Duration) *Debouncer {
	return &Debouncer{alloc: alloc, delay: delay}
}

// NameChanged schedules an allocation for the latest name, resetting the
// quiet-period timer. fn receives the allocated slug (or the allocation
// error) once the timer fires. Calls after Override are ignored.
func (d *Debouncer) NameChanged(ctx context.Context, name, excludeID string, fn func(string, error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.overridden {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.overridden {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		fn(d.alloc.Allocate(ctx, name, excludeID))
	})
}

// Override marks the slug as manually edited, permanently stopping automatic
// re-derivation for this session and cancelling any pending allocation.
func (d *Debouncer) Override() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overridden = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels any pending allocation without latching the override flag,
// for teardown when the editing session ends.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
