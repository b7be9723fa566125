package credential

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"moltyverse/pkg/logging"
)

const createMetadataTable = `CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteStore keeps the credential in a key/value table. Set and Clear run
// in a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at dsn and prepares the schema.
func OpenSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}
	// A single connection keeps in-memory databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createMetadataTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get reads the three parts; a partial set reads as absent.
func (s *SQLiteStore) Get(ctx context.Context) (*Credential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM metadata WHERE key IN (?, ?, ?)`,
		KeyAccessToken, KeyRefreshToken, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	defer rows.Close()

	values := make(map[string][]byte, len(Keys))
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan credential row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credential rows: %w", err)
	}

	return decode(values), nil
}

// Set replaces all three parts in one transaction.
func (s *SQLiteStore) Set(ctx context.Context, c *Credential) error {
	if err := Validate(c); err != nil {
		return err
	}
	values, err := encode(c)
	if err != nil {
		return err
	}

	err = withTx(ctx, s.db, func(ctx context.Context, tx dbtx) error {
		for _, key := range Keys {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO metadata (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, values[key]); err != nil {
				return fmt.Errorf("failed to set %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Debug("Credential", "Stored credential for user %s", c.User.ID)
	return nil
}

// Clear removes all three parts in one transaction.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return withTx(ctx, s.db, func(ctx context.Context, tx dbtx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM metadata WHERE key IN (?, ?, ?)`,
			KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
			return fmt.Errorf("failed to clear credential: %w", err)
		}
		return nil
	})
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbtx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
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
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
