package resources

import (
	"context"
	"sync"
)

// Form holds a draft being edited. Submit clears it only when the server
// accepted it, so a failed submission can be corrected and retried.
type Form[D any] struct {
	mu    sync.Mutex
	draft D
	dirty bool
}

func (f *Form[D]) Set(d D) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = d
	f.dirty = true
}

func (f *Form[D]) Draft() D {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Dirty reports whether a draft has been set since the last successful
// submit or reset.
func (f *Form[D]) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

func (f *Form[D]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero D
	f.draft = zero
	f.dirty = false
}

// Submit passes the current draft to send and resets the form if send
// succeeds.
func (f *Form[D]) Submit(ctx context.Context, send func(context.Context, D) error) error {
	if err := send(ctx, f.Draft()); err != nil {
		return err
	}
	f.Reset()
	return nil
}
