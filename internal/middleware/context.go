package middleware

import (
	"github.com/deppfellow/employees-api/internal/logger"
	"github.com/deppfellow/employees-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

const LoggerKey = "logger"

// ContextEnhancer derives the per-request logger from the server logger.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext makes the request logger reachable two ways: GetLogger for
// handlers holding the echo.Context, and zerolog.Ctx for code below the
// service layer that only sees a context.Context.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			l := requestLogger(*ce.server.Logger, c)
			if txn := newrelic.FromContext(req.Context()); txn != nil {
				l = logger.WithTraceContext(l, txn)
			}

			c.Set(LoggerKey, &l)
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			return next(c)
		}
	}
}

// c.Path() is the route template ("/api/employees/:id"), which keeps the
// path field low-cardinality.
func requestLogger(base zerolog.Logger, c echo.Context) zerolog.Logger {
	return base.With().
		Str("request_id", GetRequestID(c)).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("ip", c.RealIP()).
		Logger()
}

// GetLogger falls back to a disabled logger when EnhanceContext did not run.
func GetLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}
