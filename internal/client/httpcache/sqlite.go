package httpcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/dbx"
)

// SQLiteStorage keeps generations in the device database (tables created by
// the client migrations).
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func createGeneration(ctx context.Context, q dbx.DBTX, name string) error {
	_, err := q.ExecContext(ctx, `INSERT INTO cache_generations (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return common.StorageError("create generation "+name, err)
	}
	return nil
}

func (s *SQLiteStorage) CreateGeneration(ctx context.Context, name string) error {
	return createGeneration(ctx, s.db, name)
}

func (s *SQLiteStorage) MarkReady(ctx context.Context, name string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := createGeneration(ctx, tx, name); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE cache_generations SET ready = 1 WHERE name = ?`, name); err != nil {
			return common.StorageError("mark generation ready", err)
		}
		return nil
	})
}

func (s *SQLiteStorage) IsReady(ctx context.Context, name string) (bool, error) {
	var ready bool
	err := s.db.QueryRowContext(ctx, `SELECT ready FROM cache_generations WHERE name = ?`, name).Scan(&ready)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, common.StorageError("read generation", err)
	}
	return ready, nil
}

func (s *SQLiteStorage) Generations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM cache_generations ORDER BY name`)
	if err != nil {
		return nil, common.StorageError("list generations", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, common.StorageError("scan generation", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("iterate generations", err)
	}
	return names, nil
}

func (s *SQLiteStorage) DeleteGeneration(ctx context.Context, name string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE generation = ?`, name); err != nil {
			return common.StorageError("delete generation entries", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_generations WHERE name = ?`, name); err != nil {
			return common.StorageError("delete generation "+name, err)
		}
		return nil
	})
}

func (s *SQLiteStorage) Get(ctx context.Context, generation, key string) (*Entry, error) {
	var (
		e      Entry
		header []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT status, header, body, stored_at FROM cache_entries
		WHERE generation = ? AND request_key = ?
	`, generation, key).Scan(&e.Status, &header, &e.Body, &e.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", generation, key, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.StorageError("read cache entry", err)
	}
	if err := json.Unmarshal(header, &e.Header); err != nil {
		return nil, fmt.Errorf("decode cached header: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStorage) Put(ctx context.Context, generation, key string, e *Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if e.Header == nil {
		header, _ = json.Marshal(http.Header{})
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := createGeneration(ctx, tx, generation); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cache_entries (generation, request_key, status, header, body, stored_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(generation, request_key) DO UPDATE SET
				status = excluded.status, header = excluded.header,
				body = excluded.body, stored_at = excluded.stored_at
		`, generation, key, e.Status, header, e.Body, e.StoredAt)
		if err != nil {
			return common.StorageError("write cache entry", err)
		}
		return nil
	})
}
