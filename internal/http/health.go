package http

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	libraryRoot string
	version     string
}

func NewHealthController(libraryRoot, version string) *HealthController {
	return &HealthController{
		libraryRoot: libraryRoot,
		version:     version,
	}
}

// Status reports whether the library directory is reachable.
// GET /health
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.libraryRoot == "" {
		checks["library"] = "not configured"
	} else if info, err := os.Stat(h.libraryRoot); err != nil {
		checks["library"] = "error: " + err.Error()
		status = "unhealthy"
	} else if !info.IsDir() {
		checks["library"] = "error: not a directory"
		status = "unhealthy"
	} else {
		checks["library"] = "ok"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
