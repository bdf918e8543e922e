//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"prunekit/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
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

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveParameter(ctx context.Context, state model.ParameterState) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeParameterState(state)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO parameters (name, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, state.Name, state.SchemaVersion, state.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetParameter(ctx context.Context, name string) (model.ParameterState, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.ParameterState{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM parameters WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ParameterState{}, false, nil
		}
		return model.ParameterState{}, false, err
	}

	state, err := DecodeParameterState(payload)
	if err != nil {
		return model.ParameterState{}, false, fmt.Errorf("decode parameter %s: %w", name, err)
	}
	return state, true, nil
}

func (s *SQLiteStore) ListParameters(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT name FROM parameters ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) DeleteParameter(ctx context.Context, name string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `DELETE FROM parameters WHERE name = ?`, name)
	return err
}

func (s *SQLiteStore) SaveSparsityReport(ctx context.Context, id string, report model.SparsityReport) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeSparsityReport(report)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sparsity_reports (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, id, report.SchemaVersion, report.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetSparsityReport(ctx context.Context, id string) (model.SparsityReport, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.SparsityReport{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM sparsity_reports WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SparsityReport{}, false, nil
		}
		return model.SparsityReport{}, false, err
	}

	report, err := DecodeSparsityReport(payload)
	if err != nil {
		return model.SparsityReport{}, false, fmt.Errorf("decode report %s: %w", id, err)
	}
	return report, true, nil
}

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

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS parameters (
			name TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sparsity_reports (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
