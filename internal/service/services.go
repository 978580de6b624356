package service

import (
	"github.com/deppfellow/employees-api/internal/repository"
)

type Services struct {
	Employee *EmployeeService
}

func NewServices(repos *repository.Repositories) *Services {
	return &Services{
		Employee: NewEmployeeService(repos.Employee),
	}
}
