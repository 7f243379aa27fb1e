package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eteeap-portfolio-api/config"
)

// Health reports whether the database answers a ping.
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if sqlDB, err := config.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":  status,
		"message": "ETEEAP Portfolio API is running",
		"time":    time.Now().Format(time.RFC3339),
	})
}
