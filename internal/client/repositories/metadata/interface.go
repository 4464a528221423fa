// Package metadata keeps device-level settings next to the document store:
// the logical schema version the store was set up with and the identifier
// this install sends to the backend.
package metadata

import "context"

const (
	keySchemaVersion = "schema_version"
	keyDeviceID      = "device_id"
)

type Repository interface {
	// SchemaVersion returns 0 for a store that was never set up.
	SchemaVersion(ctx context.Context) (int, error)
	SetSchemaVersion(ctx context.Context, v int) error
	// DeviceID returns the stored identifier, saving newID() first when the
	// device has none yet. The first stored value wins.
	DeviceID(ctx context.Context, newID func() string) (string, error)
}
