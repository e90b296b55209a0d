package obs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandlers serves the liveness and readiness probes. Ready, when set,
// checks the storage backend; a nil Ready means the process is ready as
// soon as it listens.
type HealthHandlers struct {
	Ready func() error
}

// Livez reports OK whenever the process is up.
func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Readyz runs the configured dependency check and reports 503 until it
// passes.
func (h HealthHandlers) Readyz(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
	}
	c.Status(http.StatusOK)
}
