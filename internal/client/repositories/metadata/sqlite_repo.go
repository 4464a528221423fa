package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository works on either a *sql.DB or a transaction handle.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) lookup(ctx context.Context, key string) (string, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, common.StorageError(fmt.Sprintf("read %s", key), err)
	}
	return string(value), true, nil
}

func (r *SQLiteRepository) SchemaVersion(ctx context.Context) (int, error) {
	raw, ok, err := r.lookup(ctx, keySchemaVersion)
	if err != nil || !ok {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("stored schema version %q: %w", raw, err)
	}
	return v, nil
}

func (r *SQLiteRepository) SetSchemaVersion(ctx context.Context, v int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, keySchemaVersion, []byte(strconv.Itoa(v)))
	if err != nil {
		return common.StorageError("write schema version", err)
	}
	return nil
}

func (r *SQLiteRepository) DeviceID(ctx context.Context, newID func() string) (string, error) {
	id, ok, err := r.lookup(ctx, keyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	// Two processes racing on a fresh database both land here; the loser's
	// insert is ignored and it reads back the winner's id.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value WHERE length(metadata.value) = 0
	`, keyDeviceID, []byte(newID()))
	if err != nil {
		return "", common.StorageError("write device id", err)
	}

	id, _, err = r.lookup(ctx, keyDeviceID)
	return id, err
}
