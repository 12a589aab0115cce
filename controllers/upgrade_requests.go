package controllers

import (
	"strconv"
	"time"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/notifications"
	"tutorhub_go/services/subscription"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UpgradeRequestController implements the manual plan upgrade flow. There is
// no payment gateway: teachers ask, admins decide.
type UpgradeRequestController struct{}

// UpgradeRequestBody is the user-facing create body
type UpgradeRequestBody struct {
	PlanID uint   `json:"plan_id" validate:"required"`
	Note   string `json:"note"`
}

// CreateUpgradeRequest files a pending request for the acting user's
// effective owner.
func (urc *UpgradeRequestController) CreateUpgradeRequest(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req UpgradeRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var plan models.Plan
	if err := database.DB.Where("id = ? AND active = ?", req.PlanID, true).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	resolver := subscription.NewResolver()
	owner, err := resolver.EffectiveOwner(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve owner"})
	}

	request := models.PlanUpgradeRequest{
		PlanID: plan.ID,
		Note:   req.Note,
		Status: "pending",
	}
	if owner.Kind == subscription.OwnerCenter {
		centerID := owner.CenterID
		request.CenterID = &centerID
	} else {
		userID := owner.UserID
		request.UserID = &userID
	}

	// one open request per owner at a time
	var open models.PlanUpgradeRequest
	openQuery := database.DB.Where("status = ?", "pending")
	if request.CenterID != nil {
		openQuery = openQuery.Where("center_id = ?", *request.CenterID)
	} else {
		openQuery = openQuery.Where("user_id = ?", *request.UserID)
	}
	if err := openQuery.First(&open).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "An upgrade request is already pending"})
	}

	if err := database.DB.Create(&request).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create upgrade request"})
	}

	middleware.LogActivity(c, "CREATE", "upgrade_requests", request.ID, fiber.Map{"plan_id": plan.ID})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Upgrade request submitted", "request": request})
}

// GetMyUpgradeRequests lists the acting owner's requests
func (urc *UpgradeRequestController) GetMyUpgradeRequests(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	resolver := subscription.NewResolver()
	owner, err := resolver.EffectiveOwner(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve owner"})
	}

	query := database.DB.Preload("Plan").Order("id DESC")
	if owner.Kind == subscription.OwnerCenter {
		query = query.Where("center_id = ?", owner.CenterID)
	} else {
		query = query.Where("user_id = ?", owner.UserID)
	}

	var requests []models.PlanUpgradeRequest
	if err := query.Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch upgrade requests"})
	}

	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}

// GetUpgradeRequests lists requests for review (admin only)
func (urc *UpgradeRequestController) GetUpgradeRequests(c *fiber.Ctx) error {
	query := database.DB.Preload("Plan").Preload("User").Preload("Center").Order("id ASC")
	status := c.Query("status", "pending")
	if status != "all" {
		query = query.Where("status = ?", status)
	}

	var requests []models.PlanUpgradeRequest
	if err := query.Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch upgrade requests"})
	}

	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}

// ApproveUpgradeRequest assigns the requested plan and closes the request
// (admin only)
func (urc *UpgradeRequestController) ApproveUpgradeRequest(c *fiber.Ctx) error {
	admin, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var request models.PlanUpgradeRequest
	if err := database.DB.Preload("Plan").First(&request, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Upgrade request not found"})
	}
	if request.Status != "pending" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Request already decided"})
	}

	var plan models.Plan
	if err := database.DB.Where("id = ? AND active = ?", request.PlanID, true).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Requested plan is no longer available",
			"field": "plan_id",
		})
	}

	now := time.Now()
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := assignPlan(tx, request.UserID, request.CenterID, &plan); err != nil {
			return err
		}
		return tx.Model(&request).Updates(map[string]interface{}{
			"status":     "approved",
			"decided_by": admin.ID,
			"decided_at": now,
		}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to approve upgrade request"})
	}

	if request.UserID != nil {
		notifier := notifications.NewService()
		notifier.EnqueueOrCreate([]uint{*request.UserID}, notifications.Queued(
			"Plan upgraded",
			"Your upgrade to the "+plan.Name+" plan was approved.",
			"success",
		))
	}

	middleware.LogActivity(c, "APPROVE", "upgrade_requests", request.ID, fiber.Map{"plan": plan.Name})

	return c.JSON(fiber.Map{"message": "Upgrade request approved", "request": request})
}

// RejectUpgradeRequest closes the request without assigning a plan
// (admin only)
func (urc *UpgradeRequestController) RejectUpgradeRequest(c *fiber.Ctx) error {
	admin, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var request models.PlanUpgradeRequest
	if err := database.DB.First(&request, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Upgrade request not found"})
	}
	if request.Status != "pending" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Request already decided"})
	}

	now := time.Now()
	if err := database.DB.Model(&request).Updates(map[string]interface{}{
		"status":     "rejected",
		"decided_by": admin.ID,
		"decided_at": now,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reject upgrade request"})
	}

	if request.UserID != nil {
		notifier := notifications.NewService()
		notifier.EnqueueOrCreate([]uint{*request.UserID}, notifications.Queued(
			"Upgrade request rejected",
			"Your plan upgrade request was rejected. Contact support for details.",
			"warning",
		))
	}

	middleware.LogActivity(c, "REJECT", "upgrade_requests", request.ID, nil)

	return c.JSON(fiber.Map{"message": "Upgrade request rejected"})
}
