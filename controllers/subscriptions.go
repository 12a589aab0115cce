package controllers

import (
	"strconv"
	"time"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/subscription"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SubscriptionController struct{}

// AssignSubscriptionRequest is the admin body for assigning a plan
type AssignSubscriptionRequest struct {
	UserID   *uint `json:"user_id"`
	CenterID *uint `json:"center_id"`
	PlanID   uint  `json:"plan_id" validate:"required"`
}

// assignPlan deactivates every prior subscription of the owner and creates a
// fresh active row inside tx. end_date derives from the plan's duration;
// zero duration means the subscription never expires.
func assignPlan(tx *gorm.DB, userID, centerID *uint, plan *models.Plan) (*models.Subscription, error) {
	deactivate := tx.Model(&models.Subscription{}).Where("is_active = ?", true)
	if userID != nil {
		deactivate = deactivate.Where("user_id = ?", *userID)
	} else {
		deactivate = deactivate.Where("center_id = ?", *centerID)
	}
	if err := deactivate.Update("is_active", false).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	sub := models.Subscription{
		UserID:    userID,
		CenterID:  centerID,
		PlanID:    plan.ID,
		StartDate: now,
		IsActive:  true,
	}
	if plan.DurationDays > 0 {
		end := now.AddDate(0, 0, plan.DurationDays)
		sub.EndDate = &end
	}
	if err := tx.Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetMySubscription returns the acting user's resolved subscription state
func (sbc *SubscriptionController) GetMySubscription(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	resolver := subscription.NewResolver()
	ent, err := resolver.Resolve(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve subscription"})
	}

	owner, err := resolver.EffectiveOwner(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve owner"})
	}
	sub, err := resolver.CurrentSubscription(owner)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load subscription"})
	}

	return c.JSON(fiber.Map{
		"entitlements": ent,
		"subscription": sub,
		"owner_kind":   owner.Kind,
	})
}

// GetSubscriptions lists subscriptions (admin only)
func (sbc *SubscriptionController) GetSubscriptions(c *fiber.Ctx) error {
	query := database.DB.Preload("Plan").Preload("User").Preload("Center").Order("id DESC")
	if active := c.Query("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var subs []models.Subscription
	if err := query.Find(&subs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch subscriptions"})
	}

	return c.JSON(fiber.Map{"subscriptions": subs, "total": len(subs)})
}

// AssignSubscription gives a user or center a plan (admin only). Prior
// active rows are deactivated in the same transaction.
func (sbc *SubscriptionController) AssignSubscription(c *fiber.Ctx) error {
	var req AssignSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if (req.UserID == nil) == (req.CenterID == nil) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Exactly one of user_id or center_id is required"})
	}

	var plan models.Plan
	if err := database.DB.Where("id = ? AND active = ?", req.PlanID, true).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	if req.UserID != nil {
		var owner models.User
		if err := database.DB.First(&owner, *req.UserID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		if owner.IsAssistant() {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Assistants cannot own subscriptions",
				"field": "user_id",
			})
		}
	} else {
		var center models.Center
		if err := database.DB.First(&center, *req.CenterID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Center not found"})
		}
	}

	var sub *models.Subscription
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = assignPlan(tx, req.UserID, req.CenterID, &plan)
		return err
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to assign subscription"})
	}

	database.DB.Preload("Plan").First(sub, sub.ID)

	middleware.LogActivity(c, "ASSIGN", "subscriptions", sub.ID, fiber.Map{
		"plan_id":   plan.ID,
		"user_id":   req.UserID,
		"center_id": req.CenterID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Subscription assigned", "subscription": sub})
}

// DeactivateSubscription flips one subscription inactive (admin only)
func (sbc *SubscriptionController) DeactivateSubscription(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid subscription ID"})
	}

	var sub models.Subscription
	if err := database.DB.First(&sub, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subscription not found"})
	}
	if !sub.IsActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Subscription already inactive"})
	}

	if err := database.DB.Model(&sub).Update("is_active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate subscription"})
	}

	middleware.LogActivity(c, "DEACTIVATE", "subscriptions", sub.ID, nil)

	return c.JSON(fiber.Map{"message": "Subscription deactivated"})
}
