package repository

import (
	"context"
	"time"

	"github.com/deppfellow/employees-api/internal/metrics"
	"github.com/deppfellow/employees-api/internal/model/employee"
	"github.com/deppfellow/employees-api/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrEmployeeNotFound is returned when no row matches the given id.
var ErrEmployeeNotFound = errors.New("employee not found")

const (
	listEmployeesQuery  = `SELECT id, name, salary FROM employee`
	getEmployeeQuery    = `SELECT id, name, salary FROM employee WHERE id = $1`
	createEmployeeQuery = `INSERT INTO employee (name, salary) VALUES ($1, $2) RETURNING id`
	updateEmployeeQuery = `UPDATE employee SET name = COALESCE($1, name), salary = COALESCE($2, salary) WHERE id = $3`
	deleteEmployeeQuery = `DELETE FROM employee WHERE id = $1`
)

type EmployeeRepository struct {
	db DBTX
	queryObserver
}

// NewEmployeeRepository builds the repository. m may be nil; a zero
// slowThreshold disables slow-query warnings.
func NewEmployeeRepository(db DBTX, m *metrics.Metrics, slowThreshold time.Duration) *EmployeeRepository {
	return &EmployeeRepository{
		db:            db,
		queryObserver: queryObserver{metrics: m, slowThreshold: slowThreshold},
	}
}

// List returns every employee in store order. An empty table yields an
// empty slice and no error.
func (r *EmployeeRepository) List(ctx context.Context) ([]employee.Employee, error) {
	defer r.observe(ctx, "list_employees", time.Now())

	rows, err := r.db.Query(ctx, listEmployeesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list employees")
	}

	employees, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (employee.Employee, error) {
		return scanEmployee(row)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan employees")
	}

	return employees, nil
}

// GetByID fetches one employee. id is bound as given; a value the store
// cannot read as an id matches nothing.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*employee.Employee, error) {
	defer r.observe(ctx, "get_employee_by_id", time.Now())

	emp, err := scanEmployee(r.db.QueryRow(ctx, getEmployeeQuery, id))
	if err != nil {
		if isNoMatch(err) {
			return nil, ErrEmployeeNotFound
		}
		return nil, errors.Wrapf(err, "failed to get employee %q", id)
	}

	return &emp, nil
}

// Create inserts a row and returns it with the generated id.
func (r *EmployeeRepository) Create(ctx context.Context, name string, salary decimal.Decimal) (*employee.Employee, error) {
	defer r.observe(ctx, "create_employee", time.Now())

	emp := employee.Employee{Name: name, Salary: salary}
	if err := r.db.QueryRow(ctx, createEmployeeQuery, name, salary).Scan(&emp.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create employee")
	}

	return &emp, nil
}

// Update merges changes into the row; nil fields keep their stored value.
func (r *EmployeeRepository) Update(ctx context.Context, id string, changes employee.Changes) error {
	defer r.observe(ctx, "update_employee", time.Now())

	tag, err := r.db.Exec(ctx, updateEmployeeQuery, changes.Name, changes.Salary, id)
	if err != nil {
		if isNoMatch(err) {
			return ErrEmployeeNotFound
		}
		return errors.Wrapf(err, "failed to update employee %q", id)
	}

	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}

	return nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	defer r.observe(ctx, "delete_employee", time.Now())

	tag, err := r.db.Exec(ctx, deleteEmployeeQuery, id)
	if err != nil {
		if isNoMatch(err) {
			return ErrEmployeeNotFound
		}
		return errors.Wrapf(err, "failed to delete employee %q", id)
	}

	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}

	return nil
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(&emp.ID, &emp.Name, &emp.Salary)
	return emp, err
}

// isNoMatch reports whether err means the id selected no row.
func isNoMatch(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || sqlerr.ErrCode(err) == sqlerr.InvalidTextRepresentation
}
