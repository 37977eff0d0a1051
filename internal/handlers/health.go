package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Health reports liveness plus dependency status.
func (h *Handler) Health(c *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unreachable"
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"database":  dbStatus,
		"cache":     h.Cache.Enabled(),
		"timestamp": time.Now().UTC(),
	})
}
