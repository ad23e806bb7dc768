package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreCRUD(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("dish:1", record{Name: "Omelette", Count: 3}))

	var got record
	require.NoError(t, s.Get("dish:1", &got))
	assert.Equal(t, record{Name: "Omelette", Count: 3}, got)

	err := s.Get("dish:2", &got)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete("dish:1"))
	assert.ErrorIs(t, s.Get("dish:1", &got), ErrNotFound)
	assert.ErrorIs(t, s.Delete("dish:1"), ErrNotFound)
}

func TestStoreListByPrefix(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("dish:1", record{Name: "a"}))
	require.NoError(t, s.Set("dish:2", record{Name: "b"}))
	require.NoError(t, s.Set("ingredient:1", record{Name: "c"}))

	keys, err := s.List("dish:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dish:1", "dish:2"}, keys)

	keys, err = s.List("missing:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNextIDIsMonotonicPerSequence(t *testing.T) {
	s := newTestStore(t)

	first, err := s.NextID("dish")
	require.NoError(t, err)
	second, err := s.NextID("dish")
	require.NoError(t, err)
	other, err := s.NextID("ingredient")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(1), other)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := NewInMemory()
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.NextID("dish")
	assert.Error(t, err)
}
