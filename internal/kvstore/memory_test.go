package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBasicOperations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "a", []byte("one")))
	require.NoError(t, m.Set(ctx, "b", []byte("two")))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	all, err := m.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, m.Remove(ctx, "a", "nope"))
	_, err = m.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Clear(ctx))
	all, err = m.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemorySetIsFullReplace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", []byte(`{"data":{"a":"1"}}`)))
	require.NoError(t, m.Set(ctx, "k", []byte(`{"data":{}}`)))

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"data":{}}`), got)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", []byte("abc")))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'X'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryHonorsContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory()

	_, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, m.Set(ctx, "k", nil), context.Canceled)
}
