package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"

	"moltyverse/internal/gateway"
)

// ConnectionErrorType says why the API could not be reached.
type ConnectionErrorType int

const (
	ConnectionErrorUnknown ConnectionErrorType = iota
	ConnectionErrorTLS
	ConnectionErrorNetwork
	ConnectionErrorTimeout
	ConnectionErrorDNS
)

func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError is a gateway request that never got an HTTP response.
type ConnectionError struct {
	Endpoint string
	Type     ConnectionErrorType
	Reason   error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("%s: cannot reach %s: %v", e.Type, e.Endpoint, e.Reason)
	switch e.Type {
	case ConnectionErrorTLS:
		return msg + "\n\nCheck that apiBaseURL uses a valid certificate."
	case ConnectionErrorDNS, ConnectionErrorNetwork:
		return msg + "\n\nCheck apiBaseURL in your configuration (moltyverse config show)."
	case ConnectionErrorTimeout:
		return msg + "\n\nThe API did not answer in time; http.timeout sets the limit."
	default:
		return msg
	}
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError types the transport error wrapped by a network
// RequestError. It returns nil for nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}
	return &ConnectionError{Endpoint: endpoint, Type: connectionErrorType(err), Reason: err}
}

// connectionErrorType inspects the chain net/http builds: *url.Error around
// TLS, DNS and dial errors, or a context error.
func connectionErrorType(err error) ConnectionErrorType {
	var (
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
		dnsErr       *net.DNSError
		netErr       net.Error
		opErr        *net.OpError
	)
	switch {
	case errors.As(err, &verifyErr), errors.As(err, &authorityErr),
		errors.As(err, &hostnameErr), errors.As(err, &invalidErr):
		return ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		return ConnectionErrorDNS
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return ConnectionErrorTimeout
	case errors.As(err, &opErr):
		return ConnectionErrorNetwork
	default:
		return ConnectionErrorUnknown
	}
}

// AuthRequiredError indicates no one is signed in.
type AuthRequiredError struct {
	Endpoint string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Not signed in to %s

To sign in, run:
  moltyverse auth login

Or sign in with your identity provider:
  moltyverse auth login --browser`, e.Endpoint)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthExpiredError indicates the session ended and could not be refreshed.
type AuthExpiredError struct {
	Endpoint string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf(`Session expired for %s

The stored credential was removed. To sign in again, run:
  moltyverse auth login`, e.Endpoint)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// AuthFailedError indicates a sign-in attempt was rejected.
type AuthFailedError struct {
	Endpoint string
	Reason   error
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Sign-in to %s failed: %v

To retry, run:
  moltyverse auth login`, e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// TranslateError turns gateway errors into the CLI error types above so the
// root command can pick an exit code. Other errors are returned unchanged.
func TranslateError(err error, endpoint string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gateway.ErrAuthExpired) {
		return &AuthExpiredError{Endpoint: endpoint}
	}

	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) && reqErr.IsNetwork() && reqErr.Err != nil {
		return ClassifyConnectionError(reqErr.Err, endpoint)
	}
	return err
}
