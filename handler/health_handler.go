package handler

import (
	"context"
	"net/http"
	"time"

	"main/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports process liveness plus the state of the database
// connection.
func HealthHandler(c *gin.Context) {
	status := "ok"
	dbStatus := "up"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if utils.MongoClient == nil {
		status = "degraded"
		dbStatus = "not_initialized"
	} else if err := utils.MongoClient.Ping(ctx, nil); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"cpu":       utils.GetCPUUsage(),
		"timestamp": time.Now(),
	})
}
