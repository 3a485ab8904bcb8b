package chirpstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists solved chirp profiles in a SQLite database so they
// survive across runs. Writes for the same key overwrite each other, which
// is safe because the payload is deterministic given the key.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("chirpstore: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chirp_profiles (
			n_seg INTEGER NOT NULL,
			start_nm INTEGER NOT NULL,
			end_nm INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (n_seg, start_nm, end_nm)
		)
	`)
	if err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("chirpstore: store not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) Has(ctx context.Context, key Key) (bool, error) {
	db, err := s.getDB()
	if err != nil {
		return false, err
	}

	var one int
	err = db.QueryRowContext(ctx,
		`SELECT 1 FROM chirp_profiles WHERE n_seg = ? AND start_nm = ? AND end_nm = ?`,
		key.NSeg, key.StartNM, key.EndNM).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (Profile, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Profile{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx,
		`SELECT payload FROM chirp_profiles WHERE n_seg = ? AND start_nm = ? AND end_nm = ?`,
		key.NSeg, key.StartNM, key.EndNM).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, err
	}

	var profile Profile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return Profile{}, false, fmt.Errorf("chirpstore: decode %+v: %w", key, err)
	}
	return profile, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key Key, profile Profile) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO chirp_profiles (n_seg, start_nm, end_nm, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(n_seg, start_nm, end_nm) DO UPDATE SET
			payload = excluded.payload
	`, key.NSeg, key.StartNM, key.EndNM, payload)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
