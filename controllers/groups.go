package controllers

import (
	"fmt"
	"strconv"
	"time"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/subscription"
	"tutorhub_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GroupController struct{}

// ScheduleInput is one weekly slot in a group create/update body
type ScheduleInput struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// GroupRequest is the create/update body for groups
type GroupRequest struct {
	Name         string          `json:"name" validate:"required"`
	Subject      string          `json:"subject"`
	Level        string          `json:"level"`
	PaymentType  string          `json:"payment_type"`
	StudentPrice float64         `json:"student_price"`
	MonthlyPrice float64         `json:"monthly_price"`
	Notes        string          `json:"notes"`
	Active       *bool           `json:"active"`
	Schedules    []ScheduleInput `json:"schedules"`
}

// SpecialSessionRequest is the body for one-off sessions
type SpecialSessionRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Notes     string `json:"notes"`
}

// parseHourMinute parses an "HH:MM" string into minutes since midnight.
func parseHourMinute(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// slotsOverlap reports whether two half-open time ranges on the same weekday
// collide. Back-to-back slots (aEnd == bStart) do not overlap.
func slotsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// scheduleConflict describes a rejected slot in a 422 response
type scheduleConflict struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// groupFilingID is the user a group is filed under: assistants file groups
// under their owning teacher, everyone else under themselves. Schedule
// conflicts are checked only against this user's own groups; other teachers
// in the same center never conflict.
func groupFilingID(user *models.User) uint {
	if user.IsAssistant() && user.TeacherID != nil {
		return *user.TeacherID
	}
	return user.ID
}

// validateSchedules checks the proposed slots for well-formedness, mutual
// overlap, and overlap against every other schedule of groups filed under
// ownerID. excludeGroupID skips the group being updated.
func validateSchedules(ownerID uint, excludeGroupID uint, proposed []ScheduleInput) []scheduleConflict {
	var conflicts []scheduleConflict

	type slot struct {
		day        int
		start, end int
	}
	parsed := make([]slot, len(proposed))

	for i, p := range proposed {
		if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
			conflicts = append(conflicts, scheduleConflict{i, "day_of_week must be 0 (Sunday) through 6 (Saturday)"})
			continue
		}
		start, err := parseHourMinute(p.StartTime)
		if err != nil {
			conflicts = append(conflicts, scheduleConflict{i, "start_time must be HH:MM"})
			continue
		}
		end, err := parseHourMinute(p.EndTime)
		if err != nil {
			conflicts = append(conflicts, scheduleConflict{i, "end_time must be HH:MM"})
			continue
		}
		if start >= end {
			conflicts = append(conflicts, scheduleConflict{i, "start_time must be before end_time"})
			continue
		}
		parsed[i] = slot{p.DayOfWeek, start, end}

		// overlap within the submitted set
		for j := 0; j < i; j++ {
			prev := parsed[j]
			if prev.end == 0 {
				continue
			}
			if prev.day == parsed[i].day && slotsOverlap(prev.start, prev.end, parsed[i].start, parsed[i].end) {
				conflicts = append(conflicts, scheduleConflict{i, fmt.Sprintf("overlaps submitted schedule %d", j)})
			}
		}
	}
	if len(conflicts) > 0 {
		return conflicts
	}

	var existing []models.GroupSchedule
	query := database.DB.
		Joins("JOIN `groups` ON `groups`.id = group_schedules.group_id").
		Where("`groups`.user_id = ?", ownerID).
		Preload("Group")
	if excludeGroupID != 0 {
		query = query.Where("group_schedules.group_id <> ?", excludeGroupID)
	}
	if err := query.Find(&existing).Error; err != nil {
		return []scheduleConflict{{0, "failed to load existing schedules"}}
	}

	for i, p := range parsed {
		for _, ex := range existing {
			if ex.DayOfWeek != p.day {
				continue
			}
			exStart, err1 := parseHourMinute(ex.StartTime)
			exEnd, err2 := parseHourMinute(ex.EndTime)
			if err1 != nil || err2 != nil {
				continue
			}
			if slotsOverlap(exStart, exEnd, p.start, p.end) {
				conflicts = append(conflicts, scheduleConflict{
					Index:   i,
					Message: fmt.Sprintf("conflicts with group %q (%s-%s)", ex.Group.Name, ex.StartTime, ex.EndTime),
				})
			}
		}
	}

	return conflicts
}

// scopedGroup loads a group only when it belongs to the acting user's scope.
func scopedGroup(user *models.User, id uint) (*models.Group, []uint, error) {
	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return nil, nil, err
	}
	var group models.Group
	if err := database.DB.Where("id = ? AND user_id IN ?", id, scope).First(&group).Error; err != nil {
		return nil, scope, err
	}
	return &group, scope, nil
}

// GetGroups lists groups for the effective owner
func (gc *GroupController) GetGroups(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var groups []models.Group
	if err := database.DB.
		Preload("Schedules").
		Preload("Students").
		Where("user_id IN ?", scope).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch groups"})
	}

	return c.JSON(fiber.Map{"groups": groups, "total": len(groups)})
}

// GetGroup returns one group with schedules, special sessions and students
func (gc *GroupController) GetGroup(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	group, _, err := scopedGroup(user, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	database.DB.
		Preload("Schedules").
		Preload("SpecialSessions").
		Preload("Students").
		First(group, group.ID)

	return c.JSON(fiber.Map{"group": group})
}

// CreateGroup creates a group with its weekly schedule, rejecting slots that
// collide with any other group of the same owner.
func (gc *GroupController) CreateGroup(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req GroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = utils.SanitizeString(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Group name is required"})
	}
	if req.PaymentType == "" {
		req.PaymentType = models.PaymentMonthly
	}
	if !utils.IsValidPaymentType(req.PaymentType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_type must be monthly or per_session"})
	}

	ownerID := groupFilingID(user)
	if conflicts := validateSchedules(ownerID, 0, req.Schedules); len(conflicts) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":     "Schedule validation failed",
			"field":     "schedules",
			"conflicts": conflicts,
		})
	}

	group := models.Group{
		UserID:       ownerID,
		Name:         req.Name,
		Subject:      req.Subject,
		Level:        req.Level,
		PaymentType:  req.PaymentType,
		StudentPrice: req.StudentPrice,
		MonthlyPrice: req.MonthlyPrice,
		Notes:        req.Notes,
		Active:       true,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		for _, s := range req.Schedules {
			schedule := models.GroupSchedule{
				GroupID:   group.ID,
				DayOfWeek: s.DayOfWeek,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
			}
			if err := tx.Create(&schedule).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create group"})
	}

	database.DB.Preload("Schedules").First(&group, group.ID)

	middleware.LogActivity(c, "CREATE", "groups", group.ID, fiber.Map{"name": group.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Group created", "group": group})
}

// UpdateGroup updates group fields and, when schedules are supplied,
// replaces the weekly timetable after conflict validation.
func (gc *GroupController) UpdateGroup(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	group, _, err := scopedGroup(user, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	var req GroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.PaymentType != "" && !utils.IsValidPaymentType(req.PaymentType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_type must be monthly or per_session"})
	}

	if req.Schedules != nil {
		// conflicts are checked against the group's own filing user
		if conflicts := validateSchedules(group.UserID, group.ID, req.Schedules); len(conflicts) > 0 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":     "Schedule validation failed",
				"field":     "schedules",
				"conflicts": conflicts,
			})
		}
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = utils.SanitizeString(req.Name)
	}
	if req.Subject != "" {
		updates["subject"] = req.Subject
	}
	if req.Level != "" {
		updates["level"] = req.Level
	}
	if req.PaymentType != "" {
		updates["payment_type"] = req.PaymentType
	}
	if req.StudentPrice > 0 {
		updates["student_price"] = req.StudentPrice
	}
	if req.MonthlyPrice > 0 {
		updates["monthly_price"] = req.MonthlyPrice
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(group).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Schedules != nil {
			if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupSchedule{}).Error; err != nil {
				return err
			}
			for _, s := range req.Schedules {
				schedule := models.GroupSchedule{
					GroupID:   group.ID,
					DayOfWeek: s.DayOfWeek,
					StartTime: s.StartTime,
					EndTime:   s.EndTime,
				}
				if err := tx.Create(&schedule).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update group"})
	}

	database.DB.Preload("Schedules").First(group, group.ID)

	middleware.LogActivity(c, "UPDATE", "groups", group.ID, updates)

	return c.JSON(fiber.Map{"message": "Group updated", "group": group})
}

// DeleteGroup soft deletes a group and detaches its students
func (gc *GroupController) DeleteGroup(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	group, _, err := scopedGroup(user, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Student{}).Where("group_id = ?", group.ID).Update("group_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupSchedule{}).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete group"})
	}

	middleware.LogActivity(c, "DELETE", "groups", group.ID, fiber.Map{"name": group.Name})

	return c.JSON(fiber.Map{"message": "Group deleted"})
}

// AddSpecialSession attaches a one-off session to a group
func (gc *GroupController) AddSpecialSession(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	group, _, err := scopedGroup(user, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	var req SpecialSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}
	start, err := parseHourMinute(req.StartTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be HH:MM"})
	}
	end, err := parseHourMinute(req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_time must be HH:MM"})
	}
	if start >= end {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be before end_time"})
	}

	session := models.GroupSpecialSession{
		GroupID:   group.ID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	}
	if err := database.DB.Create(&session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create special session"})
	}

	middleware.LogActivity(c, "CREATE", "special_sessions", session.ID, fiber.Map{"group_id": group.ID, "date": req.Date})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Special session added", "session": session})
}

// DeleteSpecialSession removes a one-off session
func (gc *GroupController) DeleteSpecialSession(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}
	sessionID, err := strconv.ParseUint(c.Params("sessionId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	group, _, err := scopedGroup(user, uint(groupID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	var session models.GroupSpecialSession
	if err := database.DB.Where("id = ? AND group_id = ?", uint(sessionID), group.ID).First(&session).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Special session not found"})
	}

	if err := database.DB.Delete(&session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete special session"})
	}

	middleware.LogActivity(c, "DELETE", "special_sessions", session.ID, fiber.Map{"group_id": group.ID})

	return c.JSON(fiber.Map{"message": "Special session removed"})
}
