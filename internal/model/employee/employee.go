// Package employee defines the employee entity and the request payloads of
// the employee endpoints.
package employee

import "github.com/shopspring/decimal"

// Employee is a row of the employee table.
//
// Salary marshals as a quoted decimal string.
type Employee struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Salary decimal.Decimal `json:"salary"`
}

// Changes is a merge update: nil fields keep their stored value.
type Changes struct {
	Name   *string
	Salary *decimal.Decimal
}

// Empty reports whether no field would be changed.
func (c Changes) Empty() bool {
	return c.Name == nil && c.Salary == nil
}
