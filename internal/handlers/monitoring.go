package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"single_sensor/internal/service"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Latest reading
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  models.LatestReading
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string  "no reading yet"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	r, err := h.services.Monitoring.GetLatest(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoReading) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorw("get_state_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load state"})
		return
	}
	c.JSON(http.StatusOK, r)
}
