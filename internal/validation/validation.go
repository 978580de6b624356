// Package validation binds request data and validates it.
//
// Request payloads declare their rules either with `validator` struct tags or
// by returning CustomValidationErrors from Validate. Failures are turned into
// a 400 *errs.HTTPError carrying per-field messages.
package validation

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Validate returns validator.ValidationErrors for tag failures, or
// CustomValidationErrors for rules tags cannot express.
type Validatable interface {
	Validate() error
}

// FailureMessenger lets a payload choose the message of its 400 response,
// for bind and validation failures alike.
type FailureMessenger interface {
	ValidationMessage() string
}

// Used when the payload is not a FailureMessenger.
const (
	DefaultFailureMessage = "Validation failed"
	BindFailureMessage    = "Invalid request body"
)
