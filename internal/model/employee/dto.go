package employee

import (
	"github.com/deppfellow/employees-api/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	MsgCreateFieldsRequired = "Nombre y salario son requeridos"
	MsgUpdateFieldRequired  = "Se requiere al menos un campo para actualizar"
)

var validate = validator.New()

// SalaryInput is the salary field of a request body. A non-empty JSON string
// always counts as provided, so "0" is accepted; the number 0, "" and null
// count as missing.
type SalaryInput struct {
	Amount decimal.Decimal
	set    bool
	quoted bool
}

// NumericSalary is the input a client sends as a JSON number.
func NumericSalary(amount decimal.Decimal) SalaryInput {
	return SalaryInput{Amount: amount, set: true}
}

func (s *SalaryInput) UnmarshalJSON(data []byte) error {
	*s = SalaryInput{}
	if string(data) == "null" || string(data) == `""` {
		return nil
	}
	if err := s.Amount.UnmarshalJSON(data); err != nil {
		return err
	}
	s.set = true
	s.quoted = data[0] == '"'
	return nil
}

func (s SalaryInput) Provided() bool {
	return s.set && (s.quoted || !s.Amount.IsZero())
}

// ------------------------------------------------------------

type ListEmployeesRequest struct{}

func (r *ListEmployeesRequest) Validate() error {
	return nil
}

// ------------------------------------------------------------

// GetEmployeeRequest carries the id path parameter. The id is kept as the
// raw string and handed to the store unchanged.
type GetEmployeeRequest struct {
	ID string `param:"id" json:"-" validate:"required"`
}

func (r *GetEmployeeRequest) Validate() error {
	return validate.Struct(r)
}

// ------------------------------------------------------------

type CreateEmployeeRequest struct {
	Name   string      `json:"name"`
	Salary SalaryInput `json:"salary"`
}

// Validate requires a non-empty name and a provided salary.
func (r *CreateEmployeeRequest) Validate() error {
	var fieldErrors validation.CustomValidationErrors

	if r.Name == "" {
		fieldErrors = append(fieldErrors, validation.CustomValidationError{Field: "name", Message: "is required"})
	}
	if !r.Salary.Provided() {
		fieldErrors = append(fieldErrors, validation.CustomValidationError{Field: "salary", Message: "is required"})
	}

	if len(fieldErrors) > 0 {
		return fieldErrors
	}
	return nil
}

func (r *CreateEmployeeRequest) ValidationMessage() string {
	return MsgCreateFieldsRequired
}

// ------------------------------------------------------------

// UpdateEmployeeRequest is shared by PUT and PATCH.
type UpdateEmployeeRequest struct {
	ID     string      `param:"id" json:"-" validate:"required"`
	Name   *string     `json:"name"`
	Salary SalaryInput `json:"salary"`
}

// Validate requires a non-empty name or a provided salary.
func (r *UpdateEmployeeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}

	if r.Changes().Empty() {
		return validation.CustomValidationErrors{
			{Field: "name", Message: "at least one of name or salary is required"},
			{Field: "salary", Message: "at least one of name or salary is required"},
		}
	}
	return nil
}

func (r *UpdateEmployeeRequest) ValidationMessage() string {
	return MsgUpdateFieldRequired
}

// Changes drops empty values so they leave the stored column untouched.
func (r *UpdateEmployeeRequest) Changes() Changes {
	var c Changes
	if r.Name != nil && *r.Name != "" {
		c.Name = r.Name
	}
	if r.Salary.Provided() {
		amount := r.Salary.Amount
		c.Salary = &amount
	}
	return c
}

// ------------------------------------------------------------

type DeleteEmployeeRequest struct {
	ID string `param:"id" json:"-" validate:"required"`
}

func (r *DeleteEmployeeRequest) Validate() error {
	return validate.Struct(r)
}
