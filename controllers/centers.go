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

// CenterController manages organizational tenants. Only the center owner may
// change membership.
type CenterController struct{}

// CenterRequest is the create/update body
type CenterRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// MemberRequest identifies a teacher to add to the center
type MemberRequest struct {
	Username string `json:"username" validate:"required"`
}

// ownedCenter loads the center the acting user owns.
func ownedCenter(user *models.User) (*models.Center, error) {
	var center models.Center
	if err := database.DB.Where("owner_id = ?", user.ID).First(&center).Error; err != nil {
		return nil, err
	}
	return &center, nil
}

// CreateCenter turns the acting teacher into a center owner
func (cc *CenterController) CreateCenter(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	if user.IsAssistant() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Assistants cannot create centers"})
	}
	if user.CenterID != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already a member of a center"})
	}

	var req CenterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = utils.SanitizeString(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Center name is required"})
	}

	center := models.Center{
		Name:    req.Name,
		OwnerID: user.ID,
		Address: req.Address,
		Phone:   req.Phone,
		Active:  true,
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&center).Error; err != nil {
			return err
		}
		// the owner is also a member; their personal subscription becomes
		// the center's governing one only once reassigned by an admin
		return tx.Model(user).Update("center_id", center.ID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create center"})
	}

	middleware.LogActivity(c, "CREATE", "centers", center.ID, fiber.Map{"name": center.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Center created", "center": center})
}

// GetMyCenter returns the center the acting user belongs to
func (cc *CenterController) GetMyCenter(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	if user.CenterID == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not a member of any center"})
	}

	var center models.Center
	if err := database.DB.Preload("Owner").First(&center, *user.CenterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Center not found"})
	}

	return c.JSON(fiber.Map{"center": center, "is_owner": center.OwnerID == user.ID})
}

// GetMembers lists the center's members
func (cc *CenterController) GetMembers(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	if user.CenterID == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not a member of any center"})
	}

	var members []models.User
	if err := database.DB.
		Where("center_id = ?", *user.CenterID).
		Order("role ASC, username ASC").
		Find(&members).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch members"})
	}

	out := make([]utils.UserShort, 0, len(members))
	for _, m := range members {
		out = append(out, utils.ToUserShort(m))
	}

	return c.JSON(fiber.Map{"members": out, "total": len(out)})
}

// AddMember attaches an existing teacher account to the owner's center
func (cc *CenterController) AddMember(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	center, err := ownedCenter(user)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the center owner can manage members"})
	}

	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var teacher models.User
	if err := database.DB.
		Where("username = ? AND role = ? AND status = ?", req.Username, models.RoleTeacher, models.StatusActive).
		First(&teacher).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Active teacher not found"})
	}
	if teacher.CenterID != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Teacher already belongs to a center"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&teacher).Update("center_id", center.ID).Error; err != nil {
			return err
		}
		// assistants of the joining teacher follow them into the center
		return tx.Model(&models.User{}).
			Where("teacher_id = ? AND role = ?", teacher.ID, models.RoleAssistant).
			Update("center_id", center.ID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add member"})
	}

	notifier := notifications.NewService()
	notifier.EnqueueOrCreate([]uint{teacher.ID}, notifications.Queued(
		"Added to center",
		"You are now a member of "+center.Name+". Your limits follow the center's plan.",
		"info",
	))

	middleware.LogActivity(c, "ADD_MEMBER", "centers", center.ID, fiber.Map{"username": teacher.Username})

	return c.JSON(fiber.Map{"message": "Member added", "member": utils.ToUserShort(teacher)})
}

// RemoveMember detaches a teacher (and their assistants) from the center
func (cc *CenterController) RemoveMember(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	center, err := ownedCenter(user)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the center owner can manage members"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member ID"})
	}
	if uint(id) == user.ID {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "The owner cannot leave their own center",
			"field": "member_id",
		})
	}

	var member models.User
	if err := database.DB.
		Where("id = ? AND center_id = ?", uint(id), center.ID).
		First(&member).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&member).Update("center_id", nil).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("teacher_id = ? AND role = ?", member.ID, models.RoleAssistant).
			Update("center_id", nil).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove member"})
	}

	middleware.LogActivity(c, "REMOVE_MEMBER", "centers", center.ID, fiber.Map{"username": member.Username})

	return c.JSON(fiber.Map{"message": "Member removed"})
}
