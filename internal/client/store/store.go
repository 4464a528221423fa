// Package store is the persistent local store of the device: named
// collections of JSON documents with secondary indexes, kept in SQLite.
//
// Every operation runs in its own transaction, and index entries are written
// in the same transaction as the document they describe, so an index lookup
// right after a write reflects that write. Auto-keyed collections draw ids
// from a per-collection allocator that only moves forward; ids are never
// reused, even after a collection is cleared.
//
// Failures of the underlying database surface as common.ErrStorageFailure.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wecare/internal/client/migrations"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/dbx"
	"github.com/dmitrijs2005/wecare/internal/logging"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownIndex      = errors.New("unknown index")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrMissingKey        = errors.New("document has no key")
)

// Document is a stored JSON body and its key.
type Document struct {
	ID   string
	Body json.RawMessage
}

// Decode unmarshals the body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Body, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

type Store struct {
	db          *sql.DB
	collections map[string]CollectionDef
	log         logging.Logger
}

// Open opens (creating if needed) the SQLite database at dsn and prepares it
// for schema. The returned store owns the connection.
func Open(ctx context.Context, dsn string, schema Schema, log logging.Logger) (*Store, error) {
	db, err := dbx.OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, db, schema, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New prepares an already opened database: physical migrations first, then
// the logical collection and index setup. Calling it against an initialized
// database with the same schema version changes nothing.
func New(ctx context.Context, db *sql.DB, schema Schema, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Nop{}
	}

	if err := migrations.Up(ctx, db); err != nil {
		return nil, common.StorageError("migrate", err)
	}

	var applied bool
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		applied, err = setup(ctx, tx, schema)
		return err
	})
	if err != nil {
		return nil, err
	}
	if applied {
		log.Info(ctx, "local store schema applied", "version", schema.Version)
	}

	cols := make(map[string]CollectionDef, len(schema.Collections))
	for _, c := range schema.Collections {
		cols[c.Name] = c
	}

	return &Store{db: db, collections: cols, log: log}, nil
}

// DB exposes the connection for components that keep their own tables in the
// device database.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) collection(name string) (CollectionDef, error) {
	c, ok := s.collections[name]
	if !ok {
		return CollectionDef{}, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, nil
}

// Insert adds doc to collection and returns its key as an integer. For AutoID
// collections a missing or zero key is assigned from the allocator and written
// into the stored body. Inserting an existing key fails with ErrDuplicateKey.
func (s *Store) Insert(ctx context.Context, collection string, doc any) (int64, error) {
	c, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	fields, err := toFields(doc)
	if err != nil {
		return 0, err
	}

	var id int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		key, num, err := s.assignKey(ctx, tx, c, fields)
		if err != nil {
			return err
		}

		var exists int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ? AND id = ?`, c.Name, key).Scan(&exists)
		if err != nil {
			return common.StorageError("check key", err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateKey, c.Name, key)
		}

		if err := writeDocument(ctx, tx, c, key, num, fields); err != nil {
			return err
		}
		if num != nil {
			id = *num
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// assignKey resolves the document key, drawing from the allocator when needed.
func (s *Store) assignKey(ctx context.Context, tx dbx.DBTX, c CollectionDef, fields map[string]any) (string, *int64, error) {
	raw := fields[c.keyField()]

	if !c.AutoID {
		key, ok := indexKey(raw)
		if !ok || key == "" {
			return "", nil, fmt.Errorf("%w: %s", ErrMissingKey, c.Name)
		}
		return key, nil, nil
	}

	if supplied, ok := raw.(float64); ok && supplied > 0 {
		n := int64(supplied)
		_, err := tx.ExecContext(ctx, `UPDATE collections SET last_id = MAX(last_id, ?) WHERE name = ?`, n, c.Name)
		if err != nil {
			return "", nil, common.StorageError("advance allocator", err)
		}
		return fmt.Sprint(n), &n, nil
	}

	var n int64
	err := tx.QueryRowContext(ctx, `UPDATE collections SET last_id = last_id + 1 WHERE name = ? RETURNING last_id`, c.Name).Scan(&n)
	if err != nil {
		return "", nil, common.StorageError("allocate id", err)
	}
	fields[c.keyField()] = n
	return fmt.Sprint(n), &n, nil
}

// Put inserts or replaces doc, keyed by its key field.
func (s *Store) Put(ctx context.Context, collection string, doc any) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	fields, err := toFields(doc)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.put(ctx, tx, c, fields)
	})
}

func (s *Store) put(ctx context.Context, tx dbx.DBTX, c CollectionDef, fields map[string]any) error {
	if c.AutoID {
		if _, ok := fields[c.keyField()].(float64); !ok {
			return fmt.Errorf("%w: %s", ErrMissingKey, c.Name)
		}
		key, num, err := s.assignKey(ctx, tx, c, fields)
		if err != nil {
			return err
		}
		return writeDocument(ctx, tx, c, key, num, fields)
	}

	key, ok := indexKey(fields[c.keyField()])
	if !ok || key == "" {
		return fmt.Errorf("%w: %s", ErrMissingKey, c.Name)
	}
	return writeDocument(ctx, tx, c, key, nil, fields)
}

// Get returns the document stored under id, or common.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	if _, err := s.collection(collection); err != nil {
		return Document{}, err
	}
	return getDocument(ctx, s.db, collection, id)
}

func getDocument(ctx context.Context, q dbx.DBTX, collection, id string) (Document, error) {
	d := Document{ID: id}
	err := q.QueryRowContext(ctx, `SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&d.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, common.ErrNotFound)
	}
	if err != nil {
		return Document{}, common.StorageError("get document", err)
	}
	return d, nil
}

// GetAll returns every document of collection, ordered by key.
func (s *Store) GetAll(ctx context.Context, collection string) ([]Document, error) {
	if _, err := s.collection(collection); err != nil {
		return nil, err
	}
	return queryDocuments(ctx, s.db, `
		SELECT id, body FROM documents WHERE collection = ?
		ORDER BY num_id, id
	`, collection)
}

// GetByIndex returns the documents whose indexed field equals value, ordered
// by key.
func (s *Store) GetByIndex(ctx context.Context, collection, index string, value any) ([]Document, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	if _, ok := c.index(index); !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, collection, index)
	}
	key, err := lookupKey(value)
	if err != nil {
		return nil, err
	}

	return queryDocuments(ctx, s.db, `
		SELECT d.id, d.body
		FROM document_index_entries e
		JOIN documents d ON d.collection = e.collection AND d.id = e.doc_id
		WHERE e.collection = ? AND e.index_name = ? AND e.value = ?
		ORDER BY d.num_id, d.id
	`, collection, index, key)
}

// Replace clears collection and fills it with docs in one transaction. Readers
// see either the old contents or the new ones, never a mix.
func (s *Store) Replace(ctx context.Context, collection string, docs []any) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	all := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		fields, err := toFields(d)
		if err != nil {
			return err
		}
		all = append(all, fields)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := clearCollection(ctx, tx, c.Name); err != nil {
			return err
		}
		for _, fields := range all {
			if err := s.put(ctx, tx, c, fields); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update applies fn to the stored document inside one transaction and writes
// back whatever fn returns. The key cannot be changed.
func (s *Store) Update(ctx context.Context, collection, id string, fn func(Document) (any, error)) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		d, err := getDocument(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		next, err := fn(d)
		if err != nil {
			return err
		}
		fields, err := toFields(next)
		if err != nil {
			return err
		}
		if key, _ := indexKey(fields[c.keyField()]); key != id {
			return fmt.Errorf("update %s/%s: key changed to %q", collection, id, key)
		}

		var num *int64
		if c.AutoID {
			n := int64(fields[c.keyField()].(float64))
			num = &n
		}
		return writeDocument(ctx, tx, c, id, num, fields)
	})
}

// Delete removes one document. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.collection(collection); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_index_entries WHERE collection = ? AND doc_id = ?`, collection, id); err != nil {
			return common.StorageError("delete index entries", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
			return common.StorageError(fmt.Sprintf("delete %s/%s", collection, id), err)
		}
		return nil
	})
}

// Clear removes every document of collection. The id allocator is untouched.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if _, err := s.collection(collection); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return clearCollection(ctx, tx, collection)
	})
}

func clearCollection(ctx context.Context, tx dbx.DBTX, collection string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_index_entries WHERE collection = ?`, collection); err != nil {
		return common.StorageError("clear index entries", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, collection); err != nil {
		return common.StorageError("clear collection "+collection, err)
	}
	return nil
}

func writeDocument(ctx context.Context, tx dbx.DBTX, c CollectionDef, key string, num *int64, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.Name, key, err)
	}

	var numID any
	if num != nil {
		numID = *num
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, num_id, body, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, num_id = excluded.num_id, updated_at = excluded.updated_at
	`, c.Name, key, numID, body)
	if err != nil {
		return common.StorageError(fmt.Sprintf("write %s/%s", c.Name, key), err)
	}

	return writeIndexEntries(ctx, tx, c, key, fields)
}

func queryDocuments(ctx context.Context, q dbx.DBTX, query string, args ...any) ([]Document, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.StorageError("query documents", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Body); err != nil {
			return nil, common.StorageError("scan document", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("iterate documents", err)
	}
	return docs, nil
}

// toFields turns any JSON-encodable value into its top-level field map.
func toFields(doc any) (map[string]any, error) {
	var b []byte
	switch v := doc.(type) {
	case json.RawMessage:
		b = v
	case []byte:
		b = v
	default:
		var err error
		b, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
	}

	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("document must be a JSON object")
	}
	return fields, nil
}
