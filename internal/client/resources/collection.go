package resources

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/mealkeeper/internal/logging"
)

type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Error
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of a collection's state handed to readers and
// subscribers.
type Snapshot[T any] struct {
	State      State
	Items      []T
	Err        error
	Generation uint64
}

// Collection is a generic, mutex-guarded list cache.
type Collection[T any] struct {
	name string
	log  logging.Logger

	mu      sync.Mutex
	state   State
	items   []T
	err     error
	gen     uint64
	subs    map[int]func(Snapshot[T])
	nextSub int
}

func NewCollection[T any](name string, log logging.Logger) *Collection[T] {
	if log == nil {
		log = logging.NewNop()
	}
	return &Collection[T]{
		name: name,
		log:  log.With("collection", name),
		subs: map[int]func(Snapshot[T]){},
	}
}

// Load runs fetch and replaces the cached items with its result.
// When another Load started or Invalidate was called while fetch was in
// flight, the result is discarded and ErrStale is returned.
func (c *Collection[T]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) ([]T, error) {
	return c.load(ctx, nil, fetch)
}

// load is Load with a hook that runs under the collection lock in the same
// critical section that starts the new generation. onBegin must not call
// back into the collection.
func (c *Collection[T]) load(ctx context.Context, onBegin func(gen uint64), fetch func(context.Context) ([]T, error)) ([]T, error) {
	gen := c.begin(ctx, onBegin)
	items, err := fetch(ctx)
	return c.finish(ctx, gen, items, err)
}

func (c *Collection[T]) begin(ctx context.Context, onBegin func(uint64)) uint64 {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if onBegin != nil {
		onBegin(gen)
	}
	c.state = Loading
	snap, subs := c.snapshotLocked(), c.subscribersLocked()
	c.mu.Unlock()

	c.log.Debug(ctx, "loading", "generation", gen)
	notify(subs, snap)
	return gen
}

func (c *Collection[T]) finish(ctx context.Context, gen uint64, items []T, fetchErr error) ([]T, error) {
	c.mu.Lock()
	if gen != c.gen {
		latest := c.gen
		c.mu.Unlock()
		c.log.Debug(ctx, "stale response discarded", "generation", gen, "latest", latest)
		return nil, ErrStale
	}

	if fetchErr != nil {
		c.state = Error
		c.err = fetchErr
	} else {
		c.state = Loaded
		c.err = nil
		c.items = slices.Clone(items)
		if c.items == nil {
			c.items = []T{}
		}
	}
	snap, subs := c.snapshotLocked(), c.subscribersLocked()
	c.mu.Unlock()

	if fetchErr != nil {
		c.log.Warn(ctx, "load failed", "generation", gen, "error", fetchErr)
		notify(subs, snap)
		return nil, fetchErr
	}
	c.log.Debug(ctx, "loaded", "generation", gen, "count", len(snap.Items))
	notify(subs, snap)
	return slices.Clone(snap.Items), nil
}

// Invalidate empties the cache and drops any response still in flight.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.state = Unloaded
	c.items = nil
	c.err = nil
	snap, subs := c.snapshotLocked(), c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, snap)
}

func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Collection[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last failed load, or nil.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Collection[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (c *Collection[T]) Subscribe(fn func(Snapshot[T])) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Collection[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		State:      c.state,
		Items:      slices.Clone(c.items),
		Err:        c.err,
		Generation: c.gen,
	}
}

func (c *Collection[T]) subscribersLocked() []func(Snapshot[T]) {
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]func(Snapshot[T]), 0, len(ids))
	for _, id := range ids {
		out = append(out, c.subs[id])
	}
	return out
}

func notify[T any](subs []func(Snapshot[T]), snap Snapshot[T]) {
	for _, fn := range subs {
		fn(snap)
	}
}
