package controllers

import (
	"strconv"

	"tutorhub_go/database"
	"tutorhub_go/models"
	"tutorhub_go/services"

	"github.com/gofiber/fiber/v2"
)

// LogController exposes activity logs and archive metadata (admin only).
type LogController struct{}

// GetActivityLogs lists recent activity log rows with optional filters
func (lc *LogController) GetActivityLogs(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := database.DB.Preload("User").Order("id DESC").Limit(limit)
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var logs []models.ActivityLog
	if err := query.Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch activity logs"})
	}

	return c.JSON(fiber.Map{"logs": logs, "total": len(logs)})
}

// GetLogArchives lists archived log files stored on S3
func (lc *LogController) GetLogArchives(c *fiber.Ctx) error {
	archives, err := services.NewLogArchiveService().GetArchivedLogs()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch log archives"})
	}

	return c.JSON(fiber.Map{"archives": archives, "total": len(archives)})
}
