package middleware

import (
	"github.com/deppfellow/employees-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// TracingMiddleware is a no-op pair when New Relic is not configured.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{server: s, nrApp: nrApp}
}

func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return passThrough
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing decorates the transaction started by NewRelicMiddleware.
// Only 5xx outcomes are reported as errors; a missing employee is a normal
// answer for this API.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			annotateRequest(txn, c, tm.server.Config.Observability.ServiceName)

			err := next(c)

			status := c.Response().Status
			if err != nil {
				he := resolveError(err)
				status = he.Status
				if he.Code != "" {
					txn.AddAttribute("error.code", he.Code)
				}
				if status >= 500 {
					txn.NoticeError(nrpkgerrors.Wrap(err))
				}
			}
			txn.AddAttribute("http.status_code", status)

			return err
		}
	}
}

func annotateRequest(txn *newrelic.Transaction, c echo.Context, service string) {
	txn.AddAttribute("service.name", service)
	txn.AddAttribute("http.route", c.Path())
	txn.AddAttribute("http.real_ip", c.RealIP())
	txn.AddAttribute("http.user_agent", c.Request().UserAgent())

	if id := GetRequestID(c); id != "" {
		txn.AddAttribute("request.id", id)
	}
	if id := c.Param("id"); id != "" {
		txn.AddAttribute("employee.id", id)
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
