package service

import (
	"context"
	"errors"

	"github.com/deppfellow/employees-api/internal/errs"
	"github.com/deppfellow/employees-api/internal/model"
	"github.com/deppfellow/employees-api/internal/model/employee"
	"github.com/deppfellow/employees-api/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	MsgNoEmployees         = "No hay empleados registrados"
	MsgNoEmployeesToDelete = "No hay empleados para eliminar"
	MsgEmployeeNotFound    = "Empleado no encontrado"
	MsgNotFoundAfterUpdate = "Empleado no encontrado tras actualizar"
	MsgEmployeeDeleted     = "Empleado eliminado correctamente"
	MsgListFailed          = "Error al obtener empleados"
	MsgGetFailed           = "Error al obtener empleado"
	MsgCreateFailed        = "Error al crear empleado"
	MsgUpdateFailed        = "Error al actualizar empleado"
	MsgListForDeleteFailed = "Error al obtener empleados para eliminar"
	MsgDeleteFailed        = "Error al borrar empleado"
)

// EmployeeStore is the persistence contract of EmployeeService.
// *repository.EmployeeRepository implements it.
type EmployeeStore interface {
	List(ctx context.Context) ([]employee.Employee, error)
	GetByID(ctx context.Context, id string) (*employee.Employee, error)
	Create(ctx context.Context, name string, salary decimal.Decimal) (*employee.Employee, error)
	Update(ctx context.Context, id string, changes employee.Changes) error
	Delete(ctx context.Context, id string) error
}

type EmployeeService struct {
	repo EmployeeStore
}

func NewEmployeeService(repo EmployeeStore) *EmployeeService {
	return &EmployeeService{repo: repo}
}

func (s *EmployeeService) ListEmployees(ctx context.Context) ([]employee.Employee, error) {
	return s.list(ctx, MsgNoEmployees, MsgListFailed)
}

// ListEmployeesForDeletion is the pre-delete listing; it differs from
// ListEmployees only in its messages.
func (s *EmployeeService) ListEmployeesForDeletion(ctx context.Context) ([]employee.Employee, error) {
	return s.list(ctx, MsgNoEmployeesToDelete, MsgListForDeleteFailed)
}

func (s *EmployeeService) list(ctx context.Context, emptyMsg, failedMsg string) ([]employee.Employee, error) {
	employees, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(failedMsg, err)
	}

	if len(employees) == 0 {
		return nil, errs.NewNotFoundError(emptyMsg, nil)
	}

	return employees, nil
}

func (s *EmployeeService) GetEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return nil, errs.NewNotFoundError(MsgEmployeeNotFound, nil)
		}
		return nil, internalError(MsgGetFailed, err)
	}

	return emp, nil
}

func (s *EmployeeService) CreateEmployee(ctx context.Context, req *employee.CreateEmployeeRequest) (*employee.Employee, error) {
	emp, err := s.repo.Create(ctx, req.Name, req.Salary.Amount)
	if err != nil {
		return nil, internalError(MsgCreateFailed, err)
	}

	return emp, nil
}

// UpdateEmployee merges the request into the stored row, then reads the row
// back. The two statements are not atomic: a delete in between surfaces as
// MsgNotFoundAfterUpdate.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, req *employee.UpdateEmployeeRequest) (*employee.Employee, error) {
	changes := req.Changes()
	if changes.Empty() {
		return nil, errs.NewBadRequestError(employee.MsgUpdateFieldRequired, nil, nil)
	}

	if err := s.repo.Update(ctx, req.ID, changes); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return nil, errs.NewNotFoundError(MsgEmployeeNotFound, nil)
		}
		return nil, internalError(MsgUpdateFailed, err)
	}

	emp, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return nil, errs.NewNotFoundError(MsgNotFoundAfterUpdate, nil)
		}
		return nil, internalError(MsgUpdateFailed, err)
	}

	return emp, nil
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id string) (*model.MessageResponse, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return nil, errs.NewNotFoundError(MsgEmployeeNotFound, nil)
		}
		return nil, internalError(MsgDeleteFailed, err)
	}

	return &model.MessageResponse{Message: MsgEmployeeDeleted}, nil
}

func internalError(message string, cause error) *errs.HTTPError {
	return errs.NewInternalServerError().WithMessage(message).WithInternal(cause)
}
