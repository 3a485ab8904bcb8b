package chirpstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	key := KeyFor(50, 1539.9e-9, 1560.2e-9)
	assert.Equal(t, Key{NSeg: 50, StartNM: 1540, EndNM: 1560}, key)
}

// storeContract exercises the behavior every backend must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	key := KeyFor(4, 1540e-9, 1560e-9)
	profile := Profile{
		Period: []float64{318e-9, 320e-9, 322e-9, 324e-9},
		W1:     []float64{0.56e-6, 0.561e-6, 0.562e-6, 0.563e-6},
		W2:     []float64{0.44e-6, 0.441e-6, 0.442e-6, 0.443e-6},
	}

	ok, err := s.Has(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, key, profile))

	ok, err = s.Has(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	got, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, profile, got)

	// Overwriting the same key is last-writer-wins.
	profile.Period[0] = 316e-9
	require.NoError(t, s.Save(ctx, key, profile))
	got, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 316e-9, got.Period[0])

	// A different key stays independent.
	other := KeyFor(4, 1500e-9, 1520e-9)
	ok, err = s.Has(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreContract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreUsableWithoutInit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	key := KeyFor(2, 1540e-9, 1560e-9)
	require.NoError(t, s.Save(ctx, key, Profile{Period: []float64{1, 2}}))

	ok, err := s.Has(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	// Init resets the store.
	require.NoError(t, s.Init(ctx))
	ok, err = s.Has(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreCopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Init(ctx))

	key := KeyFor(2, 1540e-9, 1560e-9)
	in := Profile{Period: []float64{1, 2}, W1: []float64{3, 4}, W2: []float64{5, 6}}
	require.NoError(t, s.Save(ctx, key, in))

	in.Period[0] = 99
	got, _, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Period[0], "store must not alias the caller's slices")

	got.Period[0] = 77
	again, _, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Period[0], "readers must not alias each other")
}

func TestSQLiteStoreContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chirp.db")
	s := NewSQLiteStore(path)
	defer s.Close()

	storeContract(t, s)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chirp.db")

	key := KeyFor(3, 1540e-9, 1560e-9)
	profile := Profile{
		Period: []float64{318e-9, 320e-9, 322e-9},
		W1:     []float64{0.56e-6, 0.56e-6, 0.56e-6},
		W2:     []float64{0.44e-6, 0.44e-6, 0.44e-6},
	}

	first := NewSQLiteStore(path)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.Save(ctx, key, profile))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(path)
	require.NoError(t, second.Init(ctx))
	defer second.Close()

	got, found, err := second.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, profile, got)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "chirp.db"))
	_, err := s.Has(context.Background(), Key{})
	assert.Error(t, err)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	db, err := Open(ctx, filepath.Join(t.TempDir(), "chirp.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, db)
	require.NoError(t, db.(*SQLiteStore).Close())
}
