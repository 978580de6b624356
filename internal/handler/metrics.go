package handler

import (
	"net/http"

	"github.com/deppfellow/employees-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the server registry in the Prometheus text format.
type MetricsHandler struct {
	Handler
	exposition http.Handler
}

func NewMetricsHandler(s *server.Server) *MetricsHandler {
	return &MetricsHandler{
		Handler:    NewHandler(s),
		exposition: promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry}),
	}
}

func (h *MetricsHandler) ServeMetrics(c echo.Context) error {
	h.exposition.ServeHTTP(c.Response(), c.Request())
	return nil
}
