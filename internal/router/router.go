// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"net/http"

	"github.com/deppfellow/employees-api/internal/handler"
	"github.com/deppfellow/employees-api/internal/middleware"
	"github.com/deppfellow/employees-api/internal/model/employee"
	"github.com/deppfellow/employees-api/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with the global middleware stack,
// the system routes and the /api routes.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Metrics.Collect(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
	)

	registerSystemRoutes(router, h)

	api := router.Group("/api", middlewares.RateLimit.Limit())
	registerEmployeeRoutes(api, h)

	return router
}

func registerEmployeeRoutes(api *echo.Group, h *handler.Handlers) {
	e := h.Employee

	api.GET("/employees", handler.Handle(e.Handler, e.ListEmployees, http.StatusOK, &employee.ListEmployeesRequest{}))
	api.GET("/employees/:id", handler.Handle(e.Handler, e.GetEmployee, http.StatusOK, &employee.GetEmployeeRequest{}))
	api.POST("/employees", handler.Handle(e.Handler, e.CreateEmployee, http.StatusCreated, &employee.CreateEmployeeRequest{}))

	update := handler.Handle(e.Handler, e.UpdateEmployee, http.StatusOK, &employee.UpdateEmployeeRequest{})
	api.PUT("/employees/:id", update)
	api.PATCH("/employees/:id", update)

	api.DELETE("/employees/:id", handler.Handle(e.Handler, e.DeleteEmployee, http.StatusOK, &employee.DeleteEmployeeRequest{}))
	api.GET("/employees-delete", handler.Handle(e.Handler, e.ListEmployeesForDeletion, http.StatusOK, &employee.ListEmployeesRequest{}))
}
