package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graph-api/internal/data/db"
	"github.com/yungbote/graph-api/internal/graph/templates"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

type HealthHandler struct {
	log      *logger.Logger
	provider GraphProvider
	pg       *db.PostgresService
}

func NewHealthHandler(log *logger.Logger, provider GraphProvider, pg *db.PostgresService) *HealthHandler {
	return &HealthHandler{log: log.With("handler", "HealthHandler"), provider: provider, pg: pg}
}

// Liveness answers as long as the process is up. No dependencies touched.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Check probes both backing stores and reports per-dependency state. Any
// failing dependency turns the overall status unhealthy with a 503.
func (h *HealthHandler) Check(c *gin.Context) {
	deps := gin.H{}
	healthy := true

	if err := h.probeGraph(c); err != nil {
		h.log.Warn("neo4j health probe failed", "error", err)
		deps["neo4j"] = gin.H{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		deps["neo4j"] = gin.H{"status": "healthy"}
	}

	if h.pg != nil {
		if err := h.pg.Ping(); err != nil {
			h.log.Warn("postgres health probe failed", "error", err)
			deps["postgres"] = gin.H{"status": "unhealthy", "error": err.Error()}
			healthy = false
		} else {
			deps["postgres"] = gin.H{"status": "healthy"}
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}

func (h *HealthHandler) probeGraph(c *gin.Context) error {
	exec, release, err := h.provider.Executor(connOverrides(c))
	if err != nil {
		return err
	}
	defer release(c.Request.Context())
	query, err := templates.Render("health_probe", nil)
	if err != nil {
		return err
	}
	_, err = exec.ReadCypher(c.Request.Context(), query, nil)
	return err
}
