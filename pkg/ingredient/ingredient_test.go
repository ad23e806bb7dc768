package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/whatthefridge/pkg/matching"
	"github.com/korjavin/whatthefridge/pkg/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewInMemory()
	require.NoError(t, err)
	svc, err := New(store)
	require.NoError(t, err)
	t.Cleanup(func() {
		svc.Close()
		_ = store.Close()
	})
	return svc
}

func TestAddAndLookup(t *testing.T) {
	svc := newTestService(t)

	egg, err := svc.Add("Egg")
	require.NoError(t, err)
	assert.NotZero(t, egg.ID)

	byName, err := svc.GetByName("Egg")
	require.NoError(t, err)
	assert.Equal(t, egg, byName)

	// second lookup may be served from cache
	byName, err = svc.GetByName("Egg")
	require.NoError(t, err)
	assert.Equal(t, egg, byName)

	byID, err := svc.GetByID(egg.ID)
	require.NoError(t, err)
	assert.Equal(t, egg, byID)

	assert.True(t, svc.Exists(egg.ID))
	assert.False(t, svc.Exists(egg.ID+100))
}

func TestAddIsIdempotentByName(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Add("Milk")
	require.NoError(t, err)
	second, err := svc.Add(" Milk ")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = svc.Add("  ")
	assert.Error(t, err)
}

func TestLookupMissing(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByName("Unicorn")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetByID(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllSortedByName(t *testing.T) {
	svc := newTestService(t)

	for _, name := range []string{"Salt", "Egg", "Pepper", "Milk"} {
		_, err := svc.Add(name)
		require.NoError(t, err)
	}

	all, err := svc.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Egg", "Milk", "Pepper", "Salt"}, matching.Names(all))
}

func TestServiceResolvesSelections(t *testing.T) {
	svc := newTestService(t)
	for _, name := range []string{"Egg", "Pepper"} {
		_, err := svc.Add(name)
		require.NoError(t, err)
	}

	got, err := matching.ResolveSelection(svc, []string{"Pepper", "Egg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Egg", "Pepper"}, matching.Names(got))

	_, err = matching.ResolveSelection(svc, []string{"Caviar"})
	assert.ErrorIs(t, err, ErrNotFound)
}
