package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultErrorMessage is used when an error response carries no readable message.
const DefaultErrorMessage = "Request failed"

// ErrAuthExpired marks failures that ended the session: a 401 that could not
// be recovered by a token refresh.
var ErrAuthExpired = errors.New("authentication expired")

// RequestError is returned for any request that did not end in a 2xx response.
// Status is 0 for network failures.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether the request failed before a response was received.
func (e *RequestError) IsNetwork() bool {
	return e.Status == 0
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// errorMessage pulls a message out of an error body. Non-JSON bodies and
// bodies without a message yield DefaultErrorMessage.
func errorMessage(body []byte) string {
	var payload struct {
		Message      string `json:"message"`
		Error        string `json:"error"`
		ErrorMessage string `json:"errorMessage"`
	}
	// Type mismatches on one field still populate the others.
	_ = json.Unmarshal(body, &payload)

	switch {
	case payload.Message != "":
		return payload.Message
	case payload.Error != "":
		return payload.Error
	case payload.ErrorMessage != "":
		return payload.ErrorMessage
	default:
		return DefaultErrorMessage
	}
}
