package controllers

import (
	"strconv"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/mailer"
	"tutorhub_go/services/subscription"
	"tutorhub_go/utils"

	"github.com/gofiber/fiber/v2"
)

type AssistantController struct{}

// AssistantRequest is the create body for assistants
type AssistantRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
}

// GetAssistants lists the assistants of the acting teacher (or, for center
// members, every assistant in the center scope).
func (ac *AssistantController) GetAssistants(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var assistants []models.User
	if err := database.DB.
		Where("teacher_id IN ? AND role = ?", scope, models.RoleAssistant).
		Order("username ASC").
		Find(&assistants).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch assistants"})
	}

	out := make([]utils.UserShort, 0, len(assistants))
	for _, a := range assistants {
		out = append(out, utils.ToUserShort(a))
	}

	return c.JSON(fiber.Map{"assistants": out, "total": len(out)})
}

// CreateAssistant creates an assistant account under the acting teacher,
// gated by the subscription limit. The assistant receives an invitation
// email carrying a temporary password.
func (ac *AssistantController) CreateAssistant(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if user.IsAssistant() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Assistants cannot create assistants"})
	}

	var req AssistantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Username = utils.SanitizeString(req.Username)
	req.Email = utils.SanitizeString(req.Email)
	if len(req.Username) < 3 || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username (min 3) and email are required"})
	}

	resolver := subscription.NewResolver()
	allowed, err := resolver.CanAddAssistants(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check subscription"})
	}
	if !allowed {
		ent, _ := resolver.Resolve(user)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":          "Assistant limit reached for the current plan",
			"field":          "assistants",
			"max_assistants": ent.MaxAssistants,
		})
	}

	var existing models.User
	if err := database.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username or email already taken"})
	}

	tempPassword, err := utils.GenerateTempPassword()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate password"})
	}
	hashed, err := utils.HashPassword(tempPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process password"})
	}

	teacherID := user.ID
	assistant := models.User{
		Username:           req.Username,
		Password:           hashed,
		Email:              req.Email,
		Phone:              req.Phone,
		Role:               models.RoleAssistant,
		Status:             models.StatusActive,
		TeacherID:          &teacherID,
		CenterID:           user.CenterID,
		MustChangePassword: true,
	}
	if err := database.DB.Create(&assistant).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create assistant"})
	}

	mailer.SendAssistantInvitation(mailer.New(), assistant.Username, assistant.Email, user.Username, assistant.Username, tempPassword)

	middleware.LogActivity(c, "CREATE", "assistants", assistant.ID, fiber.Map{"username": assistant.Username})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Assistant created and invitation sent",
		"assistant": utils.ToUserShort(assistant),
	})
}

// DeleteAssistant removes an assistant belonging to the acting teacher
func (ac *AssistantController) DeleteAssistant(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	if user.IsAssistant() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Assistants cannot remove assistants"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assistant ID"})
	}

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var assistant models.User
	if err := database.DB.
		Where("id = ? AND teacher_id IN ? AND role = ?", uint(id), scope, models.RoleAssistant).
		First(&assistant).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assistant not found"})
	}

	if err := database.DB.Delete(&assistant).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete assistant"})
	}

	middleware.LogActivity(c, "DELETE", "assistants", assistant.ID, fiber.Map{"username": assistant.Username})

	return c.JSON(fiber.Map{"message": "Assistant removed"})
}
