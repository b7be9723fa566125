// Package gateway is the HTTP client every outbound backend call goes through.
//
// It attaches the stored bearer token, normalises error responses into
// *RequestError and recovers from an expired access token by refreshing it
// once and retrying the original request once:
//
//	read token -> request -> (401) refresh -> retry
//
// A refresh that cannot happen (no refresh token, refresh rejected, network
// failure) clears the credential store and hard-navigates to the login page.
// A second 401 after the retry does the same and is returned to the caller;
// it never triggers another refresh.
//
// Concurrent 401s share a single refresh call.
package gateway
