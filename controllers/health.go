package controllers

import (
	"context"
	"time"

	"tutorhub_go/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct{}

// GetHealthStatus reports API, database and Redis health.
func (hc *HealthController) GetHealthStatus(c *fiber.Ctx) error {
	status := fiber.StatusOK
	report := fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}

	dbStatus := "ok"
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
		report["status"] = "degraded"
		status = fiber.StatusServiceUnavailable
	}
	report["database"] = dbStatus

	redisStatus := "disabled"
	if rc := database.GetRedisClient(); rc != nil {
		redisStatus = "ok"
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
			// Redis is optional; the API stays healthy without it
			if report["status"] == "ok" {
				report["status"] = "degraded"
			}
		}
	}
	report["redis"] = redisStatus

	return c.Status(status).JSON(report)
}
