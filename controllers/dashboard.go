package controllers

import (
	"time"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/subscription"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct{}

// GetDashboard is the one endpoint pending accounts may reach. It reports
// the approval state, the resolved subscription, and usage against limits.
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if !user.IsApproved() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "pending_approval",
			"message": "Your account is awaiting administrator approval.",
		})
	}

	resolver := subscription.NewResolver()
	ent, err := resolver.Resolve(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve subscription"})
	}

	if !ent.IsActive {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"status":  "subscription_required",
			"message": "No active subscription. Request a plan upgrade to continue.",
		})
	}

	owner, err := resolver.EffectiveOwner(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve owner"})
	}
	usage, err := resolver.CurrentUsage(owner)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count usage"})
	}

	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var groupCount int64
	database.DB.Model(&models.Group{}).Where("user_id IN ?", scope).Count(&groupCount)

	today := time.Now()
	dayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	var presentToday int64
	database.DB.Model(&models.Attendance{}).
		Joins("JOIN `groups` ON `groups`.id = attendances.group_id").
		Where("`groups`.user_id IN ? AND attendances.date = ? AND attendances.is_present = ?", scope, dayStart, true).
		Count(&presentToday)

	var unpaidCount int64
	database.DB.Model(&models.Payment{}).
		Joins("JOIN `groups` ON `groups`.id = payments.group_id").
		Where("`groups`.user_id IN ? AND payments.is_paid = ?", scope, false).
		Count(&unpaidCount)

	return c.JSON(fiber.Map{
		"status":       "ok",
		"subscription": ent,
		"usage": fiber.Map{
			"students":       usage.Students,
			"max_students":   ent.MaxStudents,
			"assistants":     usage.Assistants,
			"max_assistants": ent.MaxAssistants,
		},
		"stats": fiber.Map{
			"groups":           groupCount,
			"present_today":    presentToday,
			"unpaid_payments":  unpaidCount,
			"days_remaining":   ent.DaysRemaining,
			"plan":             ent.PlanName,
		},
	})
}
