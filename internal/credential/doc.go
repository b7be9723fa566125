// Package credential persists the client's authentication material: the
// access token, the refresh token and a cached snapshot of the user.
//
// The three parts live under fixed keys and are written all-or-nothing.
// A store holding only some of them reads back as "no credential".
//
// Backends:
//
//	FileStore    one 0600 file per key under ~/.config/moltyverse/credentials
//	SQLiteStore  a metadata(key, value) table, writes in one transaction
//	MemoryStore  process memory, for tests and throwaway sessions
//
// No expiry is tracked locally; only the backend decides whether a token is
// still valid.
package credential
