package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/deppfellow/employees-api/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidationError is a field rule that validator tags cannot express,
// such as "name and salary must both be truthy".
type CustomValidationError struct {
	Field   string
	Message string
}

type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return DefaultFailureMessage
}

// BindAndValidate binds request data into payload and validates it.
//
// payload must be a pointer so c.Bind can populate it. Bind failures and
// validation failures both come back as a 400 *errs.HTTPError whose message
// is the payload's own; decoder details stay in the internal cause.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(failureMessage(payload, BindFailureMessage), nil, nil).WithInternal(err)
	}

	err := payload.Validate()
	if err == nil {
		return nil
	}

	fieldErrors, ok := extractValidationError(err)
	if !ok {
		return errs.ValidationError(err)
	}
	return errs.NewBadRequestError(failureMessage(payload, DefaultFailureMessage), nil, fieldErrors)
}

func failureMessage(payload Validatable, fallback string) string {
	if m, ok := payload.(FailureMessenger); ok {
		return m.ValidationMessage()
	}
	return fallback
}

// extractValidationError converts validator and custom errors into field
// errors. ok is false for any other kind of error.
func extractValidationError(err error) (fieldErrors []errs.FieldError, ok bool) {
	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		for _, ce := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: ce.Field, Error: ce.Message})
		}
		return fieldErrors, true
	}

	var tagged validator.ValidationErrors
	if !errors.As(err, &tagged) {
		return nil, false
	}

	for _, fe := range tagged {
		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: strings.ToLower(fe.Field()),
			Error: tagMessage(fe),
		})
	}
	return fieldErrors, true
}

func tagMessage(fe validator.FieldError) string {
	var unit string
	if fe.Type().Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + unit
	case "max":
		return "must not exceed " + fe.Param() + unit
	case "oneof":
		return "must be one of: " + fe.Param()
	case "numeric":
		return "must be a number"
	}

	if fe.Param() != "" {
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return "failed " + fe.Tag()
}
