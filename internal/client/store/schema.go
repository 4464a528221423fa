package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/wecare/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/dbx"
)

// Collection names used by the device.
const (
	Consultations = "consultations"
	Doctors       = "doctors"
	Hospitals     = "hospitals"
	NGOs          = "ngos"
	UserCache     = "user_cache"
)

// Index names.
const (
	IndexSynced         = "synced"
	IndexCreatedAt      = "created_at"
	IndexSpecialization = "specialization"
)

// IndexDef indexes documents by the value of a top-level JSON field.
type IndexDef struct {
	Name  string
	Field string
}

// CollectionDef describes one collection. AutoID collections get their keys
// from a per-collection allocator; the others read the key from KeyField.
type CollectionDef struct {
	Name     string
	AutoID   bool
	KeyField string
	Indexes  []IndexDef
}

func (c CollectionDef) keyField() string {
	if c.KeyField == "" {
		return "id"
	}
	return c.KeyField
}

func (c CollectionDef) index(name string) (IndexDef, bool) {
	for _, ix := range c.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return IndexDef{}, false
}

// Schema is the logical layout of the store. Bumping Version re-runs the
// structural setup on next open.
type Schema struct {
	Version     int
	Collections []CollectionDef
}

// DefaultSchema is the layout used by the device application.
func DefaultSchema() Schema {
	return Schema{
		Version: 1,
		Collections: []CollectionDef{
			{
				Name:   Consultations,
				AutoID: true,
				Indexes: []IndexDef{
					{Name: IndexSynced, Field: "synced"},
					{Name: IndexCreatedAt, Field: "created_at"},
				},
			},
			{
				Name:    Doctors,
				Indexes: []IndexDef{{Name: IndexSpecialization, Field: "specialization"}},
			},
			{Name: Hospitals},
			{Name: NGOs},
			{Name: UserCache, KeyField: "key"},
		},
	}
}

// setup registers collections and indexes and rebuilds index entries. It runs
// only when the stored schema version is older than s.Version.
func setup(ctx context.Context, tx dbx.DBTX, s Schema) (bool, error) {
	meta := metadata.NewSQLiteRepository(tx)

	current, err := meta.SchemaVersion(ctx)
	if err != nil {
		return false, err
	}
	if current >= s.Version {
		return false, nil
	}

	for _, c := range s.Collections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collections (name, auto_id, key_field) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET auto_id = excluded.auto_id, key_field = excluded.key_field
		`, c.Name, c.AutoID, c.keyField())
		if err != nil {
			return false, common.StorageError("register collection "+c.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM collection_indexes WHERE collection = ?`, c.Name); err != nil {
			return false, common.StorageError("reset indexes of "+c.Name, err)
		}
		for _, ix := range c.Indexes {
			_, err := tx.ExecContext(ctx, `INSERT INTO collection_indexes (collection, name, field) VALUES (?, ?, ?)`,
				c.Name, ix.Name, ix.Field)
			if err != nil {
				return false, common.StorageError("register index "+ix.Name, err)
			}
		}

		if err := rebuildIndexes(ctx, tx, c); err != nil {
			return false, err
		}
	}

	if err := meta.SetSchemaVersion(ctx, s.Version); err != nil {
		return false, err
	}
	return true, nil
}

func rebuildIndexes(ctx context.Context, tx dbx.DBTX, c CollectionDef) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_index_entries WHERE collection = ?`, c.Name); err != nil {
		return common.StorageError("clear index entries of "+c.Name, err)
	}
	if len(c.Indexes) == 0 {
		return nil
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, body FROM documents WHERE collection = ?`, c.Name)
	if err != nil {
		return common.StorageError("scan documents of "+c.Name, err)
	}
	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Body); err != nil {
			rows.Close()
			return common.StorageError("scan document", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return common.StorageError("iterate documents", err)
	}
	rows.Close()

	for _, d := range docs {
		var fields map[string]any
		if err := json.Unmarshal(d.Body, &fields); err != nil {
			return fmt.Errorf("decode %s/%s: %w", c.Name, d.ID, err)
		}
		if err := writeIndexEntries(ctx, tx, c, d.ID, fields); err != nil {
			return err
		}
	}
	return nil
}
