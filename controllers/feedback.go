package controllers

import (
	"strconv"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/notifications"
	"tutorhub_go/utils"

	"github.com/gofiber/fiber/v2"
)

type FeedbackController struct{}

var feedbackTypes = map[string]bool{"bug": true, "feature": true, "question": true, "other": true}
var feedbackStatuses = map[string]bool{"new": true, "in_progress": true, "resolved": true}

// FeedbackRequest is the user create/update body
type FeedbackRequest struct {
	Type    string `json:"type"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// FeedbackReplyRequest is the admin reply/status body
type FeedbackReplyRequest struct {
	AdminReply string `json:"admin_reply"`
	Status     string `json:"status"`
}

// CreateFeedback files a new ticket
func (fc *FeedbackController) CreateFeedback(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Subject = utils.SanitizeString(req.Subject)
	if req.Subject == "" || req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "subject and body are required"})
	}
	if req.Type == "" {
		req.Type = "other"
	}
	if !feedbackTypes[req.Type] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be bug, feature, question or other"})
	}

	feedback := models.Feedback{
		UserID:  user.ID,
		Type:    req.Type,
		Subject: req.Subject,
		Body:    req.Body,
		Status:  "new",
	}
	if err := database.DB.Create(&feedback).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create feedback"})
	}

	middleware.LogActivity(c, "CREATE", "feedback", feedback.ID, fiber.Map{"type": feedback.Type})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Feedback submitted", "feedback": feedback})
}

// GetMyFeedback lists the acting user's tickets
func (fc *FeedbackController) GetMyFeedback(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var rows []models.Feedback
	if err := database.DB.Where("user_id = ?", user.ID).Order("id DESC").Find(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch feedback"})
	}

	return c.JSON(fiber.Map{"feedback": rows, "total": len(rows)})
}

// UpdateFeedback lets the author edit an unresolved ticket
func (fc *FeedbackController) UpdateFeedback(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid feedback ID"})
	}

	var feedback models.Feedback
	if err := database.DB.Where("id = ? AND user_id = ?", uint(id), user.ID).First(&feedback).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Feedback not found"})
	}
	if feedback.Status == "resolved" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Resolved feedback cannot be edited"})
	}

	var req FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Subject != "" {
		updates["subject"] = utils.SanitizeString(req.Subject)
	}
	if req.Body != "" {
		updates["body"] = req.Body
	}
	if req.Type != "" {
		if !feedbackTypes[req.Type] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be bug, feature, question or other"})
		}
		updates["type"] = req.Type
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	if err := database.DB.Model(&feedback).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update feedback"})
	}

	middleware.LogActivity(c, "UPDATE", "feedback", feedback.ID, updates)

	return c.JSON(fiber.Map{"message": "Feedback updated", "feedback": feedback})
}

// DeleteFeedback removes the author's own ticket
func (fc *FeedbackController) DeleteFeedback(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid feedback ID"})
	}

	var feedback models.Feedback
	if err := database.DB.Where("id = ? AND user_id = ?", uint(id), user.ID).First(&feedback).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Feedback not found"})
	}

	if err := database.DB.Delete(&feedback).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete feedback"})
	}

	middleware.LogActivity(c, "DELETE", "feedback", feedback.ID, nil)

	return c.JSON(fiber.Map{"message": "Feedback deleted"})
}

// GetAllFeedback lists tickets for review (admin only)
func (fc *FeedbackController) GetAllFeedback(c *fiber.Ctx) error {
	query := database.DB.Preload("User").Order("id DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if ftype := c.Query("type"); ftype != "" {
		query = query.Where("type = ?", ftype)
	}

	var rows []models.Feedback
	if err := query.Find(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch feedback"})
	}

	return c.JSON(fiber.Map{"feedback": rows, "total": len(rows)})
}

// ReplyFeedback sets the admin reply and/or status on a ticket (admin only).
// The author is notified about the reply.
func (fc *FeedbackController) ReplyFeedback(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid feedback ID"})
	}

	var feedback models.Feedback
	if err := database.DB.First(&feedback, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Feedback not found"})
	}

	var req FeedbackReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.AdminReply != "" {
		updates["admin_reply"] = req.AdminReply
		if req.Status == "" && feedback.Status == "new" {
			updates["status"] = "in_progress"
		}
	}
	if req.Status != "" {
		if !feedbackStatuses[req.Status] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be new, in_progress or resolved"})
		}
		updates["status"] = req.Status
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	if err := database.DB.Model(&feedback).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update feedback"})
	}

	if req.AdminReply != "" {
		notifier := notifications.NewService()
		notifier.EnqueueOrCreate([]uint{feedback.UserID}, notifications.QueuedWithData(
			"Support reply",
			"Your feedback \""+feedback.Subject+"\" received a reply.",
			"info",
			fiber.Map{"feedback_id": feedback.ID},
		))
	}

	middleware.LogActivity(c, "REPLY", "feedback", feedback.ID, updates)

	return c.JSON(fiber.Map{"message": "Feedback updated", "feedback": feedback})
}
