package resources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchOK(items ...int) func(context.Context) ([]int, error) {
	return func(context.Context) ([]int, error) { return items, nil }
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unloaded", Unloaded.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestCollection_LoadReplacesWholesale(t *testing.T) {
	c := NewCollection[int]("ints", nil)
	ctx := context.Background()
	assert.Equal(t, Unloaded, c.State())

	got, err := c.Load(ctx, fetchOK(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	_, err = c.Load(ctx, fetchOK(9))
	require.NoError(t, err)
	assert.Equal(t, []int{9}, c.Items())
	assert.Equal(t, Loaded, c.State())
}

func TestCollection_EmptyResultIsLoadedNotNil(t *testing.T) {
	c := NewCollection[int]("ints", nil)

	got, err := c.Load(context.Background(), fetchOK())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, Loaded, c.State())
}

func TestCollection_ErrorIsNotTerminal(t *testing.T) {
	c := NewCollection[int]("ints", nil)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := c.Load(ctx, fetchOK(1))
	require.NoError(t, err)

	_, err = c.Load(ctx, func(context.Context) ([]int, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Error, c.State())
	assert.ErrorIs(t, c.Err(), boom)
	assert.Equal(t, []int{1}, c.Items(), "failed load keeps the previous items")

	_, err = c.Load(ctx, fetchOK(2))
	require.NoError(t, err)
	assert.Equal(t, Loaded, c.State())
	assert.NoError(t, c.Err())
}

func TestCollection_StaleResponseDropped(t *testing.T) {
	c := NewCollection[int]("ints", nil)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		_, err := c.Load(ctx, func(context.Context) ([]int, error) {
			close(started)
			<-release
			return []int{1}, nil
		})
		errCh <- err
	}()
	<-started

	_, err := c.Load(ctx, fetchOK(2))
	require.NoError(t, err)

	close(release)
	require.ErrorIs(t, <-errCh, ErrStale)
	assert.Equal(t, []int{2}, c.Items())
	assert.Equal(t, Loaded, c.State())
}

func TestCollection_InvalidateDropsInFlight(t *testing.T) {
	c := NewCollection[int]("ints", nil)
	ctx := context.Background()

	_, err := c.Load(ctx, fetchOK(7))
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx, func(context.Context) ([]int, error) {
			close(started)
			<-release
			return nil, errors.New("late failure")
		})
		errCh <- err
	}()
	<-started

	c.Invalidate()
	close(release)

	require.ErrorIs(t, <-errCh, ErrStale)
	assert.Equal(t, Unloaded, c.State())
	assert.Empty(t, c.Items())
	assert.NoError(t, c.Err())
}

func TestCollection_SubscribeAndUnsubscribe(t *testing.T) {
	c := NewCollection[int]("ints", nil)
	ctx := context.Background()

	var states []State
	var last Snapshot[int]
	unsubscribe := c.Subscribe(func(s Snapshot[int]) {
		states = append(states, s.State)
		last = s
	})

	_, err := c.Load(ctx, fetchOK(4, 5))
	require.NoError(t, err)
	assert.Equal(t, []State{Loading, Loaded}, states)
	assert.Equal(t, []int{4, 5}, last.Items)
	assert.Equal(t, uint64(1), last.Generation)

	c.Invalidate()
	assert.Equal(t, []State{Loading, Loaded, Unloaded}, states)

	unsubscribe()
	_, err = c.Load(ctx, fetchOK(6))
	require.NoError(t, err)
	assert.Len(t, states, 3)
}

func TestCollection_ItemsAreCopies(t *testing.T) {
	c := NewCollection[int]("ints", nil)
	got, err := c.Load(context.Background(), fetchOK(1, 2))
	require.NoError(t, err)

	got[0] = 100
	items := c.Items()
	items[1] = 200
	assert.Equal(t, []int{1, 2}, c.Items())
	assert.Equal(t, []int{1, 2}, c.Snapshot().Items)
}
