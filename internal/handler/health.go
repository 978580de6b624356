package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/employees-api/internal/middleware"
	"github.com/deppfellow/employees-api/internal/server"
	"github.com/labstack/echo/v4"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthCheck func(ctx context.Context) error

// HealthHandler serves /status. Unknown names in the configured check list
// are ignored.
type HealthHandler struct {
	Handler
	checks map[string]healthCheck
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
		checks: map[string]healthCheck{
			"database": s.DB.Pool.Ping,
		},
	}
}

// CheckHealth answers 200 when every enabled check passes and 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	cfg := h.server.Config.Observability.HealthChecks
	log := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	resp := HealthResponse{
		Status:      statusHealthy,
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]CheckResult),
	}

	if cfg.Enabled {
		for _, name := range cfg.Checks {
			check, ok := h.checks[name]
			if !ok {
				continue
			}

			result := runCheck(c.Request().Context(), check, cfg.Timeout)
			resp.Checks[name] = result

			if result.Status == statusUnhealthy {
				resp.Status = statusUnhealthy
				log.Error().Str("check", name).Str("error", result.Error).Msg("health check failed")
				h.recordHealthEvent(name, result)
			}
		}
	}

	status := http.StatusOK
	if resp.Status != statusHealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}

func runCheck(ctx context.Context, check healthCheck, timeout time.Duration) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)

	result := CheckResult{Status: statusHealthy, ResponseTime: time.Since(start).String()}
	if err != nil {
		result.Status = statusUnhealthy
		result.Error = err.Error()
	}
	return result
}

func (h *HealthHandler) recordHealthEvent(name string, result CheckResult) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", map[string]any{
			"check_type":    name,
			"response_time": result.ResponseTime,
			"error_message": result.Error,
		})
	}
}
