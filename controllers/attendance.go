package controllers

import (
	"time"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/payments"
	"tutorhub_go/services/subscription"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AttendanceController struct{}

// AttendanceRequest marks one student on one date
type AttendanceRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	GroupID   uint   `json:"group_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	IsPresent bool   `json:"is_present"`
	Note      string `json:"note"`
}

// GetAttendance lists attendance rows for a group, optionally for one date.
func (atc *AttendanceController) GetAttendance(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID := c.Query("group_id")
	if groupID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "group_id query parameter is required"})
	}

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var group models.Group
	if err := database.DB.Where("id = ? AND user_id IN ?", groupID, scope).First(&group).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	query := database.DB.Preload("Student").Where("group_id = ?", group.ID)
	if date := c.Query("date"); date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
		}
		query = query.Where("date = ?", payments.DateOnly(parsed))
	}

	var rows []models.Attendance
	if err := query.Order("date DESC").Find(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attendance"})
	}

	return c.JSON(fiber.Map{"attendance": rows, "total": len(rows)})
}

// MarkAttendance upserts the (student, group, date) row. Marking a student
// present in a per-session group also upserts the matching payment.
func (atc *AttendanceController) MarkAttendance(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req AttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}
	date = payments.DateOnly(date)

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var group models.Group
	if err := database.DB.Where("id = ? AND user_id IN ?", req.GroupID, scope).First(&group).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	var student models.Student
	if err := database.DB.Where("id = ? AND user_id IN ?", req.StudentID, scope).First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var row models.Attendance
	err = database.DB.
		Where("student_id = ? AND group_id = ? AND date = ?", student.ID, group.ID, date).
		First(&row).Error
	switch {
	case err == nil:
		if err := database.DB.Model(&row).Updates(map[string]interface{}{
			"is_present": req.IsPresent,
			"note":       req.Note,
		}).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update attendance"})
		}
		row.IsPresent = req.IsPresent
		row.Note = req.Note
	case err == gorm.ErrRecordNotFound:
		row = models.Attendance{
			StudentID: student.ID,
			GroupID:   group.ID,
			Date:      date,
			IsPresent: req.IsPresent,
			Note:      req.Note,
		}
		if err := database.DB.Create(&row).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record attendance"})
		}
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load attendance"})
	}

	// per-session billing follows attendance
	if err := payments.NewService().SyncAttendancePayment(&row, &group); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Attendance saved but payment sync failed"})
	}

	middleware.LogActivity(c, "MARK", "attendance", row.ID, fiber.Map{
		"student_id": student.ID,
		"group_id":   group.ID,
		"date":       req.Date,
		"is_present": req.IsPresent,
	})

	return c.JSON(fiber.Map{"message": "Attendance recorded", "attendance": row})
}
