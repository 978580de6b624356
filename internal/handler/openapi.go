package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/deppfellow/employees-api/internal/server"
	"github.com/labstack/echo/v4"
)

// StaticDir is resolved against the working directory.
const StaticDir = "static"

type OpenAPIHandler struct {
	Handler
	staticDir string
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{Handler: NewHandler(s), staticDir: StaticDir}
}

// ServeOpenAPIUI renders the docs page, which fetches /static/openapi.json.
// The page is read per request and never cached.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")

	page, err := os.ReadFile(filepath.Join(h.staticDir, "openapi.html"))
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}
	return c.HTMLBlob(http.StatusOK, page)
}
