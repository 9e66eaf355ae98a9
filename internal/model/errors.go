package model

import "fmt"

// ValidationError reports a missing mandatory field before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// TransportError reports a failed Apix exchange. Body carries the raw
// response text for diagnostics.
type TransportError struct {
	Operation  string
	StatusCode int
	Body       string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("apix %s failed", e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError creates a new transport error
func NewTransportError(operation string, statusCode int, body string, cause error) *TransportError {
	return &TransportError{
		Operation:  operation,
		StatusCode: statusCode,
		Body:       body,
		Cause:      cause,
	}
}

// ParseError represents malformed inbound data
type ParseError struct {
	Document string
	Field    string
	Message  string
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Document, e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Document, e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new parse error
func NewParseError(document, field, message string, cause error) *ParseError {
	return &ParseError{
		Document: document,
		Field:    field,
		Message:  message,
		Cause:    cause,
	}
}

// AuthorizationError is returned when an inbound document resolves to a
// company the caller may not import into
type AuthorizationError struct {
	Resolved  string
	Permitted string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("you can only import invoices to your company: %s (document belongs to %s)", e.Permitted, e.Resolved)
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(resolved, permitted string) *AuthorizationError {
	return &AuthorizationError{
		Resolved:  resolved,
		Permitted: permitted,
	}
}
