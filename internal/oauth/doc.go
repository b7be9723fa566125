// Package oauth consumes one-time tokens handed back by the identity provider.
//
// A provider sign-in ends with a redirect carrying an "ott" query parameter.
// Handler exchanges that token exactly once per idempotency key, strips the
// parameter from the visible location and reports the outcome as a State.
// A failed exchange schedules a redirect to the login page.
//
// Markers for already-performed exchanges live in a MarkerSet owned by the
// caller: MemoryMarkers for a single process, RedisMarkers to share them
// between processes.
//
// CallbackServer is the CLI's stand-in for the browser tab: a loopback server
// that receives the provider redirect and passes it on for processing.
package oauth
