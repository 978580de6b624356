package errs

import "strings"

// ErrorCodeHeader carries the machine-readable code of an error response.
const ErrorCodeHeader = "X-Error-Code"

// FieldError represents a field-level validation error, e.g.
// {Field: "name", Error: "is required"}.
type FieldError struct {
	// Field is the field name/key the error relates to (e.g. "salary").
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// HTTPError is the main custom error type for API responses.
//
// The body is always {"message": ...}. Status drives the response status
// line, Code is exposed through the X-Error-Code header, and Errors and
// Internal are kept for server-side logs.
type HTTPError struct {
	Code    string `json:"-"`
	Message string `json:"message"`
	Status  int    `json:"-"`

	// Errors holds the field-level validation failures behind a 400.
	Errors []FieldError `json:"-"`

	// Internal is the failure that caused this error, if any.
	Internal error `json:"-"`
}

// Error makes *HTTPError satisfy the built-in error interface.
// It returns the client message; the cause is reachable through Unwrap.
func (e *HTTPError) Error() string {
	return e.Message
}

// Unwrap exposes the internal cause to errors.Is / errors.As.
func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// Is reports whether target is also an *HTTPError.
//
// It does not compare Code/Status; errors.Is(err, &HTTPError{}) answers
// "is this an HTTP-shaped error at all".
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)

	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	clone := *e
	clone.Message = message
	return &clone
}

// WithInternal returns a copy of this HTTPError carrying err as its cause.
func (e *HTTPError) WithInternal(err error) *HTTPError {
	clone := *e
	clone.Internal = err
	return &clone
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
