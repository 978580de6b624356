package handler

import (
	"github.com/deppfellow/employees-api/internal/model"
	"github.com/deppfellow/employees-api/internal/model/employee"
	"github.com/deppfellow/employees-api/internal/server"
	"github.com/deppfellow/employees-api/internal/service"
	"github.com/labstack/echo/v4"
)

// EmployeeHandler serves the /api/employees endpoints.
type EmployeeHandler struct {
	Handler
	employeeService *service.EmployeeService
}

func NewEmployeeHandler(s *server.Server, employeeService *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{
		Handler:         NewHandler(s),
		employeeService: employeeService,
	}
}

func (h *EmployeeHandler) ListEmployees(c echo.Context, _ *employee.ListEmployeesRequest) ([]employee.Employee, error) {
	return h.employeeService.ListEmployees(c.Request().Context())
}

func (h *EmployeeHandler) ListEmployeesForDeletion(c echo.Context, _ *employee.ListEmployeesRequest) ([]employee.Employee, error) {
	return h.employeeService.ListEmployeesForDeletion(c.Request().Context())
}

func (h *EmployeeHandler) GetEmployee(c echo.Context, req *employee.GetEmployeeRequest) (*employee.Employee, error) {
	return h.employeeService.GetEmployee(c.Request().Context(), req.ID)
}

func (h *EmployeeHandler) CreateEmployee(c echo.Context, req *employee.CreateEmployeeRequest) (*employee.Employee, error) {
	return h.employeeService.CreateEmployee(c.Request().Context(), req)
}

// UpdateEmployee backs both PUT and PATCH.
func (h *EmployeeHandler) UpdateEmployee(c echo.Context, req *employee.UpdateEmployeeRequest) (*employee.Employee, error) {
	return h.employeeService.UpdateEmployee(c.Request().Context(), req)
}

func (h *EmployeeHandler) DeleteEmployee(c echo.Context, req *employee.DeleteEmployeeRequest) (*model.MessageResponse, error) {
	return h.employeeService.DeleteEmployee(c.Request().Context(), req.ID)
}
