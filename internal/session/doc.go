// Package session holds the client's authenticated-session state.
//
// A Service answers two questions for the rest of the program: who is
// signed in, and whether that is still being checked. Each Initialize cycle
// carries a generation number; a cycle that has been superseded never writes
// its result.
package session
