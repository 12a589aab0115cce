package controllers

import (
	"strconv"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"

	"github.com/gofiber/fiber/v2"
)

type PlanController struct{}

// PlanRequest is the admin create/update body for plans
type PlanRequest struct {
	Name          string   `json:"name" validate:"required"`
	MaxStudents   *int     `json:"max_students"`
	MaxAssistants *int     `json:"max_assistants"`
	Price         *float64 `json:"price"`
	DurationDays  *int     `json:"duration_days"`
	IsDefault     *bool    `json:"is_default"`
	IsTrial       *bool    `json:"is_trial"`
	Active        *bool    `json:"active"`
	Description   string   `json:"description"`
}

// GetPlans lists active plans. Admins see every plan with subscriber counts.
func (plc *PlanController) GetPlans(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Order("price ASC")
	if claims.Role != models.RoleAdmin {
		query = query.Where("active = ?", true)
	}

	var plans []models.Plan
	if err := query.Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch plans"})
	}

	if claims.Role != models.RoleAdmin {
		return c.JSON(fiber.Map{"plans": plans})
	}

	out := make([]fiber.Map, 0, len(plans))
	for _, p := range plans {
		var subscribers int64
		database.DB.Model(&models.Subscription{}).
			Where("plan_id = ? AND is_active = ?", p.ID, true).
			Count(&subscribers)
		out = append(out, fiber.Map{"plan": p, "subscribers": subscribers})
	}

	return c.JSON(fiber.Map{"plans": out})
}

// CreatePlan creates a plan (admin only)
func (plc *PlanController) CreatePlan(c *fiber.Ctx) error {
	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.MaxStudents == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and max_students are required"})
	}

	var existing models.Plan
	if err := database.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Plan name already exists"})
	}

	plan := models.Plan{
		Name:        req.Name,
		MaxStudents: *req.MaxStudents,
		Active:      true,
		Description: req.Description,
	}
	if req.MaxAssistants != nil {
		plan.MaxAssistants = *req.MaxAssistants
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.DurationDays != nil {
		plan.DurationDays = *req.DurationDays
	}
	if req.IsDefault != nil {
		plan.IsDefault = *req.IsDefault
	}
	if req.IsTrial != nil {
		plan.IsTrial = *req.IsTrial
	}

	if err := database.DB.Create(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create plan"})
	}

	middleware.LogActivity(c, "CREATE", "plans", plan.ID, fiber.Map{"name": plan.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Plan created", "plan": plan})
}

// UpdatePlan updates plan fields (admin only). Limit changes affect existing
// subscribers immediately since entitlements resolve through the plan.
func (plc *PlanController) UpdatePlan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	var plan models.Plan
	if err := database.DB.First(&plan, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" && req.Name != plan.Name {
		var other models.Plan
		if err := database.DB.Where("name = ? AND id <> ?", req.Name, plan.ID).First(&other).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Plan name already exists"})
		}
		updates["name"] = req.Name
	}
	if req.MaxStudents != nil {
		updates["max_students"] = *req.MaxStudents
	}
	if req.MaxAssistants != nil {
		updates["max_assistants"] = *req.MaxAssistants
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.DurationDays != nil {
		updates["duration_days"] = *req.DurationDays
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}
	if req.IsTrial != nil {
		updates["is_trial"] = *req.IsTrial
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	if err := database.DB.Model(&plan).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update plan"})
	}

	middleware.LogActivity(c, "UPDATE", "plans", plan.ID, updates)

	return c.JSON(fiber.Map{"message": "Plan updated", "plan": plan})
}

// DeletePlan removes a plan (admin only). Rejected while any active
// subscription still points at it.
func (plc *PlanController) DeletePlan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	var plan models.Plan
	if err := database.DB.First(&plan, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	var subscribers int64
	database.DB.Model(&models.Subscription{}).
		Where("plan_id = ? AND is_active = ?", plan.ID, true).
		Count(&subscribers)
	if subscribers > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":       "Plan still has active subscribers",
			"field":       "plan_id",
			"subscribers": subscribers,
		})
	}

	if err := database.DB.Delete(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete plan"})
	}

	middleware.LogActivity(c, "DELETE", "plans", plan.ID, fiber.Map{"name": plan.Name})

	return c.JSON(fiber.Map{"message": "Plan deleted"})
}
