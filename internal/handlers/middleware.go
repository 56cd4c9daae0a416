package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"single_sensor/internal/metrics"
)

const operatorIDKey = "operatorId"

func (h *Handler) operatorIDMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	operatorID, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(operatorIDKey, operatorID)
	c.Next()
}

// metricsMiddleware records request count and latency per route template.
func metricsMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())

	metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint, status).Observe(time.Since(start).Seconds())
}
