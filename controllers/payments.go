package controllers

import (
	"fmt"
	"strconv"
	"time"

	"tutorhub_go/database"
	"tutorhub_go/middleware"
	"tutorhub_go/models"
	"tutorhub_go/services/payments"
	"tutorhub_go/services/subscription"
	"tutorhub_go/storage"
	"tutorhub_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type PaymentController struct{}

// PaymentUpdateItem is one row of the bulk update body
type PaymentUpdateItem struct {
	StudentID uint     `json:"student_id" validate:"required"`
	GroupID   uint     `json:"group_id" validate:"required"`
	Month     int      `json:"month"`
	Year      int      `json:"year"`
	Date      string   `json:"date"`
	IsPaid    *bool    `json:"is_paid"`
	Amount    *float64 `json:"amount"`
	PaidDate  string   `json:"paid_date"`
	Notes     *string  `json:"notes"`
}

// GeneratePaymentsRequest asks for one month of monthly-group payments
type GeneratePaymentsRequest struct {
	GroupID uint `json:"group_id" validate:"required"`
	Month   int  `json:"month" validate:"required"`
	Year    int  `json:"year" validate:"required"`
}

func monthRange(month, year int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("month must be 1-12")
	}
	start := payments.MonthStart(year, month)
	return start, start.AddDate(0, 1, 0), nil
}

// resolveMonthYear defaults to the current month when the query omits it
func resolveMonthYear(c *fiber.Ctx) (int, int) {
	now := time.Now()
	month, year := int(now.Month()), now.Year()
	if m, err := strconv.Atoi(c.Query("month")); err == nil {
		month = m
	}
	if y, err := strconv.Atoi(c.Query("year")); err == nil {
		year = y
	}
	return month, year
}

// GetPayments returns the payment grid for one group and month
func (pc *PaymentController) GetPayments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID := c.Query("group_id")
	if groupID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "group_id query parameter is required"})
	}
	month, year := resolveMonthYear(c)
	start, end, err := monthRange(month, year)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
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

	var rows []models.Payment
	if err := database.DB.
		Preload("Student").
		Where("group_id = ? AND related_date >= ? AND related_date < ?", group.ID, start, end).
		Order("related_date ASC, student_id ASC").
		Find(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payments"})
	}

	return c.JSON(fiber.Map{
		"group":    utils.ToGroupShort(group),
		"payments": utils.ToPaymentDTOs(rows),
		"month":    month,
		"year":     year,
	})
}

// UpdatePayments applies a bulk array of payment changes in one transaction.
// Each item addresses a row by (student, group, month/year or date).
func (pc *PaymentController) UpdatePayments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var items []PaymentUpdateItem
	if err := c.BodyParser(&items); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body, expected an array"})
	}
	if len(items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var updated int
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for i, item := range items {
			var relatedDate time.Time
			if item.Date != "" {
				d, err := time.Parse("2006-01-02", item.Date)
				if err != nil {
					return fmt.Errorf("item %d: date must be YYYY-MM-DD", i)
				}
				relatedDate = payments.DateOnly(d)
			} else {
				if item.Month < 1 || item.Month > 12 {
					return fmt.Errorf("item %d: month must be 1-12", i)
				}
				relatedDate = payments.MonthStart(item.Year, item.Month)
			}

			var group models.Group
			if err := tx.Where("id = ? AND user_id IN ?", item.GroupID, scope).First(&group).Error; err != nil {
				return fmt.Errorf("item %d: group not found", i)
			}

			var row models.Payment
			if err := tx.Where("student_id = ? AND group_id = ? AND related_date = ?",
				item.StudentID, item.GroupID, relatedDate).First(&row).Error; err != nil {
				return fmt.Errorf("item %d: payment not found", i)
			}

			changes := map[string]interface{}{}
			if item.IsPaid != nil {
				changes["is_paid"] = *item.IsPaid
				if *item.IsPaid {
					paidAt := time.Now()
					if item.PaidDate != "" {
						if d, err := time.Parse("2006-01-02", item.PaidDate); err == nil {
							paidAt = d
						}
					}
					changes["paid_at"] = paidAt
				} else {
					changes["paid_at"] = nil
				}
			}
			if item.Amount != nil {
				changes["amount"] = *item.Amount
			}
			if item.Notes != nil {
				changes["notes"] = *item.Notes
			}
			if len(changes) == 0 {
				continue
			}

			if err := tx.Model(&row).Updates(changes).Error; err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	middleware.LogActivity(c, "UPDATE", "payments", 0, fiber.Map{"updated": updated})

	return c.JSON(fiber.Map{"message": "Payments updated", "updated": updated})
}

// GeneratePayments creates one unpaid payment per active member of a monthly
// group for the requested month, skipping rows that already exist.
func (pc *PaymentController) GeneratePayments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req GeneratePaymentsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var group models.Group
	if err := database.DB.Where("id = ? AND user_id IN ?", req.GroupID, scope).First(&group).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	created, err := payments.NewService().GenerateMonthly(&group, req.Month, req.Year)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	middleware.LogActivity(c, "GENERATE", "payments", group.ID, fiber.Map{
		"month":   req.Month,
		"year":    req.Year,
		"created": created,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Payments generated", "created": created})
}

// ExportPayments writes one month of a group's payments as an XLSX download
func (pc *PaymentController) ExportPayments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID := c.Query("group_id")
	if groupID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "group_id query parameter is required"})
	}
	month, year := resolveMonthYear(c)
	start, end, err := monthRange(month, year)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
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

	var rows []models.Payment
	if err := database.DB.
		Preload("Student").
		Where("group_id = ? AND related_date >= ? AND related_date < ?", group.ID, start, end).
		Order("related_date ASC, student_id ASC").
		Find(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payments"})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Student", "Date", "Type", "Amount", "Paid", "Paid At", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, p := range rows {
		values := []interface{}{
			p.Student.Name,
			p.RelatedDate.Format("2006-01-02"),
			p.PaymentType,
			p.Amount,
			p.IsPaid,
			"",
			p.Notes,
		}
		if p.PaidAt != nil {
			values[5] = p.PaidAt.Format("2006-01-02")
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build export"})
	}

	filename := fmt.Sprintf("payments_%s_%04d-%02d.xlsx", utils.SanitizeString(group.Name), year, month)
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	middleware.LogActivity(c, "EXPORT", "payments", group.ID, fiber.Map{"month": month, "year": year})

	return c.Send(buf.Bytes())
}

// UploadReceipt attaches a receipt file to one payment row
func (pc *PaymentController) UploadReceipt(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	resolver := subscription.NewResolver()
	scope, err := resolver.OwnerScopeUserIDs(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve scope"})
	}

	var payment models.Payment
	if err := database.DB.
		Joins("JOIN `groups` ON `groups`.id = payments.group_id").
		Where("payments.id = ? AND `groups`.user_id IN ?", uint(id), scope).
		First(&payment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}

	file, err := c.FormFile("receipt")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing receipt file"})
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage unavailable"})
	}

	url, err := storageService.UploadReceipt(file, user.ID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := database.DB.Model(&payment).Update("receipt_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save receipt"})
	}

	middleware.LogActivity(c, "UPLOAD_RECEIPT", "payments", payment.ID, fiber.Map{"url": url})

	return c.JSON(fiber.Map{"message": "Receipt uploaded", "receipt_url": url})
}
