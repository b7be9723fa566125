package credential

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// sqliteFileName is the database file used by the sqlite backend inside the storage dir.
const sqliteFileName = "credentials.db"

// Open constructs the store selected by backend. dir is the storage directory
// for the file and sqlite backends.
func Open(ctx context.Context, backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return OpenSQLiteStore(ctx, "file:"+filepath.Join(fs.Dir(), sqliteFileName))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q", backend)
	}
}
