package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends err if it is a ValidationError.
func (ve *ValidationErrors) Add(err error) {
	if err == nil {
		return
	}
	if v, ok := err.(ValidationError); ok {
		*ve = append(*ve, v)
		return
	}
	*ve = append(*ve, ValidationError{Message: err.Error()})
}

// ValidateAbsoluteURL checks that value is an absolute http(s) URL.
func ValidateAbsoluteURL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Value: value, Message: "is required"}
	}
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{Field: field, Value: value, Message: "must be an absolute http(s) URL"}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateRoute checks that a route is an absolute app path.
func ValidateRoute(field, value string) error {
	if !strings.HasPrefix(value, "/") {
		return ValidationError{Field: field, Value: value, Message: "must start with /"}
	}
	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	var errs ValidationErrors

	errs.Add(ValidateAbsoluteURL("apiBaseURL", c.APIBaseURL))
	errs.Add(ValidateAbsoluteURL("appBaseURL", c.AppBaseURL))
	errs.Add(ValidateOneOf("storage.backend", c.Storage.Backend, []string{StorageFile, StorageSQLite, StorageMemory}))
	errs.Add(ValidateRoute("routes.login", c.Routes.Login))
	errs.Add(ValidateRoute("routes.dashboard", c.Routes.Dashboard))

	if c.OAuth.CallbackPort < 0 || c.OAuth.CallbackPort > 65535 {
		errs.Add(ValidationError{Field: "oauth.callbackPort", Value: c.OAuth.CallbackPort, Message: "must be between 0 and 65535"})
	}
	if c.HTTP.Timeout <= 0 {
		errs.Add(ValidationError{Field: "http.timeout", Value: c.HTTP.Timeout, Message: "must be positive"})
	}
	if c.Update.Repository != "" && strings.Count(c.Update.Repository, "/") != 1 {
		errs.Add(ValidationError{Field: "update.repository", Value: c.Update.Repository, Message: "must be owner/name"})
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
