// Package chirpstore caches solved chirp profiles so that repeated runs with
// the same chirp intent skip the expensive per-segment optimization. Entries
// are deterministic given their key, so concurrent writers may race with
// last-writer-wins semantics.
package chirpstore

import (
	"context"
	"math"
)

// Key identifies one solved chirp profile: the segment count plus the target
// reflection wavelength range endpoints in integer nanometers.
type Key struct {
	NSeg    int
	StartNM int
	EndNM   int
}

// KeyFor builds a Key from SI-unit target wavelengths.
func KeyFor(nSeg int, startWvl, endWvl float64) Key {
	return Key{
		NSeg:    nSeg,
		StartNM: int(math.Round(startWvl * 1e9)),
		EndNM:   int(math.Round(endWvl * 1e9)),
	}
}

// Profile is the cached payload: the three solved sequences, each NSeg long.
type Profile struct {
	Period []float64 `json:"period"`
	W1     []float64 `json:"w1"`
	W2     []float64 `json:"w2"`
}

// Store is a keyed profile cache supporting existence check, read and write.
type Store interface {
	Init(ctx context.Context) error
	Has(ctx context.Context, key Key) (bool, error)
	Get(ctx context.Context, key Key) (Profile, bool, error)
	Save(ctx context.Context, key Key, profile Profile) error
}

// Open selects a backend: an empty path yields the in-memory store, anything
// else a SQLite database at that path. The returned store is initialized.
func Open(ctx context.Context, path string) (Store, error) {
	var s Store
	if path == "" {
		s = NewMemoryStore()
	} else {
		s = NewSQLiteStore(path)
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
