package repository

import (
	"github.com/deppfellow/employees-api/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Employee *EmployeeRepository
}

// NewRepositories builds every repository on top of the server's pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Employee: NewEmployeeRepository(s.DB.Pool, s.Metrics, s.Config.Observability.Logging.SlowQueryThreshold),
	}
}
