// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// a helper to run functions inside a transaction, and the SQLite opener
// used by the device store.
package dbx

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/wecare/internal/common"

	_ "modernc.org/sqlite"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxBeginner is satisfied by *sql.DB. Tests can substitute a sqlmock handle.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Failures to begin or commit are reported as common.ErrStorageFailure; errors
// returned by fn are passed through untouched.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db TxBeginner, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return common.StorageError("begin tx", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = common.StorageError("commit tx", cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}

// OpenSQLite opens a SQLite database through the pure-Go driver. Pragmas are
// passed in the DSN so every pooled connection gets them. In-memory databases
// are pinned to one connection, otherwise each new connection would see an
// empty database.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	memory := isMemoryDSN(dsn)

	pragmas := []string{"foreign_keys(1)", "busy_timeout(5000)"}
	if !memory {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}

	full := withPragmas(dsn, pragmas)
	if !memory {
		// writers take the lock at BEGIN, so concurrent transactions queue on
		// busy_timeout instead of failing on lock upgrade
		full += "&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", full)
	if err != nil {
		return nil, common.StorageError("open database", err)
	}

	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.StorageError("open database", err)
	}

	return db, nil
}

func withPragmas(dsn string, pragmas []string) string {
	if dsn == ":memory:" {
		dsn = "file::memory:"
	} else if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(dsn)
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
