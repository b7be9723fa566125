// Package consumer holds the page-level operations built on the session and
// the backend: the molty list, feed voting, message threads and deployment
// provisioning. Consumers never read the credential store themselves.
//
// Read-only background fetches degrade to empty results and log a warning.
// Writes always return their error to the caller.
package consumer
