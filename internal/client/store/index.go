package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/dbx"
)

// indexKey renders a decoded JSON value as the text stored in the index table.
// Absent and null values are not indexed.
func indexKey(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// lookupKey converts a Go value to the same form indexKey produces for the
// stored document, by passing it through JSON first.
func lookupKey(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode index value: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return "", fmt.Errorf("decode index value: %w", err)
	}
	key, ok := indexKey(decoded)
	if !ok {
		return "", fmt.Errorf("value %v cannot be used as an index key", v)
	}
	return key, nil
}

func writeIndexEntries(ctx context.Context, tx dbx.DBTX, c CollectionDef, id string, fields map[string]any) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_index_entries WHERE collection = ? AND doc_id = ?`, c.Name, id); err != nil {
		return common.StorageError("clear index entries", err)
	}
	for _, ix := range c.Indexes {
		key, ok := indexKey(fields[ix.Field])
		if !ok {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO document_index_entries (collection, index_name, value, doc_id) VALUES (?, ?, ?, ?)
		`, c.Name, ix.Name, key, id)
		if err != nil {
			return common.StorageError("write index entry "+ix.Name, err)
		}
	}
	return nil
}
