package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type barrier struct {
	Superstep int
}

func TestBroker_HandinThenGet(t *testing.T) {
	b := New[*barrier]()
	require.NoError(t, b.Handin("job-1/head-0", &barrier{Superstep: 3}))
	assert.ErrorIs(t, b.Handin("job-1/head-0", &barrier{}), ErrAlreadyHandedIn)

	v, err := b.Get(context.Background(), "job-1/head-0")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Superstep)
	assert.Equal(t, 0, b.Len())
}

func TestBroker_GetBlocksUntilHandin(t *testing.T) {
	b := New[*barrier]()
	result := make(chan *barrier, 1)
	go func() {
		v, err := b.Get(context.Background(), "tail")
		assert.NoError(t, err)
		result <- v
	}()
	require.Eventually(t, func() bool { return b.Len() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, b.Handin("tail", &barrier{Superstep: 1}))

	select {
	case v := <-result:
		assert.Equal(t, 1, v.Superstep)
	case <-time.After(time.Second):
		t.Fatal("get did not return")
	}
}

func TestBroker_GetCancelledAndRemove(t *testing.T) {
	b := New[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, b.Handin("k", "v"))
	b.Remove("k")
	b.Remove("missing")
	assert.Equal(t, 0, b.Len())
	require.NoError(t, b.Handin("k", "again"), "removed keys can be handed in again")
}

func TestBroker_CancelledGetReleasesKey(t *testing.T) {
	b := New[string]()
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := b.Get(ctx, "job-1/head-0")
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, 0, b.Len())

	waiting, cancelWaiting := context.WithCancel(context.Background())
	defer cancelWaiting()
	result := make(chan string, 1)
	go func() {
		v, err := b.Get(waiting, "shared")
		assert.NoError(t, err)
		result <- v
	}()
	require.Eventually(t, func() bool { return b.Len() == 1 }, time.Second, time.Millisecond)
	short, cancelShort := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancelShort()
	_, err := b.Get(short, "shared")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, b.Len(), "remaining waiter keeps the key")

	require.NoError(t, b.Handin("shared", "v"))
	select {
	case v := <-result:
		assert.Equal(t, "v", v)
	case <-time.After(time.Second):
		t.Fatal("get did not return")
	}
	assert.Equal(t, 0, b.Len())
}

func TestBroker_RemoveReleasesBlockedGet(t *testing.T) {
	b := New[string]()
	result := make(chan error, 1)
	go func() {
		_, err := b.Get(context.Background(), "tail")
		result <- err
	}()
	require.Eventually(t, func() bool { return b.Len() == 1 }, time.Second, time.Millisecond)
	b.Remove("tail")

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrRemoved)
	case <-time.After(time.Second):
		t.Fatal("get was not released by remove")
	}
	assert.Equal(t, 0, b.Len())
	require.NoError(t, b.Handin("tail", "again"))
}
