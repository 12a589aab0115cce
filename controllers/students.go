package controllers

import (
	"strconv"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/subscription"
	"tutorhub_go/utils"

	"github.com/gofiber/fiber/v2"
)

type StudentController struct{}

// StudentRequest is the create/update body for students
type StudentRequest struct {
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	Level         string `json:"level"`
	Notes         string `json:"notes"`
	GroupID       *uint  `json:"group_id"`
	Active        *bool  `json:"active"`
}

// scopedStudent loads a student only if it belongs to the acting user's
// effective owner scope.
func scopedStudent(user *models.User, id uint) (*models.Student, []uint, error) {
	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return nil, nil, err
	}
	var student models.Student
	if err := database.DB.Where("id = ? AND user_id IN ?", id, scope).First(&student).Error; err != nil {
		return nil, scope, err
	}
	return &student, scope, nil
}

// GetStudents lists students for the effective owner, optionally filtered by
// group or active flag.
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	query := database.DB.Preload("Group").Where("user_id IN ?", scope)
	if groupID := c.Query("group_id"); groupID != "" {
		query = query.Where("group_id = ?", groupID)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var students []models.Student
	if err := query.Order("name ASC").Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch students"})
	}

	return c.JSON(fiber.Map{"students": students, "total": len(students)})
}

// GetStudent returns one student within scope
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	student, _, err := scopedStudent(user, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	database.DB.Preload("Group").First(student, student.ID)

	return c.JSON(fiber.Map{"student": student})
}

// CreateStudent creates a student, gated by the subscription limit.
// Assistants create students owned by their teacher.
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = utils.SanitizeString(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Student name is required"})
	}

	resolver := subscription.NewResolver()
	allowed, err := resolver.CanAddStudents(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check subscription"})
	}
	if !allowed {
		ent, _ := resolver.Resolve(user)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":        "Student limit reached for the current plan",
			"field":        "students",
			"max_students": ent.MaxStudents,
		})
	}

	// assistants file students under the owning teacher
	ownerID := user.ID
	if user.IsAssistant() && user.TeacherID != nil {
		ownerID = *user.TeacherID
	}

	if req.GroupID != nil {
		scope, err := resolver.OwnerScopeUserIDs(user)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
		}
		var group models.Group
		if err := database.DB.Where("id = ? AND user_id IN ?", *req.GroupID, scope).First(&group).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
		}
	}

	student := models.Student{
		UserID:        ownerID,
		GroupID:       req.GroupID,
		Name:          req.Name,
		Phone:         req.Phone,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Level:         req.Level,
		Notes:         req.Notes,
		Active:        true,
	}
	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create student"})
	}

	middleware.LogActivity(c, "CREATE", "students", student.ID, fiber.Map{"name": student.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Student created", "student": student})
}

// UpdateStudent updates a student within scope
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	student, scope, err := scopedStudent(user, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.GroupID != nil {
		var group models.Group
		if err := database.DB.Where("id = ? AND user_id IN ?", *req.GroupID, scope).First(&group).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
		}
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = utils.SanitizeString(req.Name)
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.GuardianName != "" {
		updates["guardian_name"] = req.GuardianName
	}
	if req.GuardianPhone != "" {
		updates["guardian_phone"] = req.GuardianPhone
	}
	if req.Level != "" {
		updates["level"] = req.Level
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if req.GroupID != nil {
		updates["group_id"] = *req.GroupID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if err := database.DB.Model(student).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update student"})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, updates)

	return c.JSON(fiber.Map{"message": "Student updated", "student": student})
}

// DeleteStudent soft deletes a student within scope
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	student, _, err := scopedStudent(user, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	if err := database.DB.Delete(student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete student"})
	}

	middleware.LogActivity(c, "DELETE", "students", student.ID, fiber.Map{"name": student.Name})

	return c.JSON(fiber.Map{"message": "Student deleted"})
}
