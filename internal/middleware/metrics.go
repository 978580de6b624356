package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/deppfellow/employees-api/internal/server"
	"github.com/labstack/echo/v4"
)

// unmatchedRoute labels requests that matched no route, keeping raw URLs
// out of metric labels.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records request counts and durations per route.
type MetricsMiddleware struct {
	server *server.Server
}

func NewMetricsMiddleware(s *server.Server) *MetricsMiddleware {
	return &MetricsMiddleware{server: s}
}

func (m *MetricsMiddleware) Collect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = resolveError(err).Status
			}

			route := c.Path()
			if route == "" || errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
				route = unmatchedRoute
			}

			method := c.Request().Method
			m.server.Metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.server.Metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
