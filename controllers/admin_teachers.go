package controllers

import (
	"strconv"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/notifications"
	"tutorhub_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminTeacherController handles admin review of teacher registrations.
type AdminTeacherController struct{}

// GetPendingTeachers lists teachers awaiting approval
func (atc *AdminTeacherController) GetPendingTeachers(c *fiber.Ctx) error {
	var teachers []models.User
	if err := database.DB.
		Where("role = ? AND status = ?", models.RoleTeacher, models.StatusPending).
		Order("created_at ASC").
		Find(&teachers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch pending teachers"})
	}

	out := make([]utils.UserShort, 0, len(teachers))
	for _, t := range teachers {
		out = append(out, utils.ToUserShort(t))
	}

	return c.JSON(fiber.Map{"teachers": out, "total": len(out)})
}

// ApproveTeacher activates a pending teacher and assigns the default plan
// subscription in the same transaction.
func (atc *AdminTeacherController) ApproveTeacher(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var teacher models.User
	if err := database.DB.
		Where("id = ? AND role = ?", uint(id), models.RoleTeacher).
		First(&teacher).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found"})
	}
	if teacher.Status != models.StatusPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Teacher is not pending approval"})
	}

	var defaultPlan models.Plan
	if err := database.DB.Where("is_default = ? AND active = ?", true, true).First(&defaultPlan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No default plan configured"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&teacher).Update("status", models.StatusActive).Error; err != nil {
			return err
		}
		userID := teacher.ID
		_, err := assignPlan(tx, &userID, nil, &defaultPlan)
		return err
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to approve teacher"})
	}

	notifier := notifications.NewService()
	notifier.EnqueueOrCreate([]uint{teacher.ID}, notifications.Queued(
		"Account approved",
		"Your account has been approved. You are on the "+defaultPlan.Name+" plan.",
		"success",
	))

	middleware.LogActivity(c, "APPROVE", "users", teacher.ID, fiber.Map{
		"username": teacher.Username,
		"plan":     defaultPlan.Name,
	})

	return c.JSON(fiber.Map{
		"message": "Teacher approved",
		"teacher": utils.ToUserShort(teacher),
		"plan":    defaultPlan.Name,
	})
}

// RejectTeacher suspends a pending registration
func (atc *AdminTeacherController) RejectTeacher(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var teacher models.User
	if err := database.DB.
		Where("id = ? AND role = ? AND status = ?", uint(id), models.RoleTeacher, models.StatusPending).
		First(&teacher).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pending teacher not found"})
	}

	if err := database.DB.Model(&teacher).Update("status", models.StatusSuspended).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reject teacher"})
	}

	middleware.LogActivity(c, "REJECT", "users", teacher.ID, fiber.Map{"username": teacher.Username})

	return c.JSON(fiber.Map{"message": "Registration rejected"})
}
