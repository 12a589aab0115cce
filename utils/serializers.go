package utils

import (
	"time"

	"tutorhub_go/models"
)

// Compact representations used across APIs

type UserShort struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type StudentShort struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

type GroupShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Subject     string `json:"subject,omitempty"`
	PaymentType string `json:"payment_type"`
}

type PaymentDTO struct {
	ID          uint       `json:"id"`
	StudentID   uint       `json:"student_id"`
	StudentName string     `json:"student_name"`
	GroupID     uint       `json:"group_id"`
	RelatedDate string     `json:"related_date"`
	PaymentType string     `json:"payment_type"`
	Amount      float64    `json:"amount"`
	IsPaid      bool       `json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	ReceiptURL  string     `json:"receipt_url,omitempty"`
}

type NotificationDTO struct {
	ID        uint        `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UserID    uint        `json:"user_id"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Type      string      `json:"type"`
	Read      bool        `json:"read"`
	ReadAt    *time.Time  `json:"read_at,omitempty"`
	Data      models.JSON `json:"data,omitempty"`
	User      UserShort   `json:"user"`
}

// ToUserShort maps a models.User to the compact DTO.
func ToUserShort(u models.User) UserShort {
	return UserShort{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
	}
}

// ToPaymentDTO maps a models.Payment to the grid representation.
// Assumptions: caller has preloaded Student when possible.
func ToPaymentDTO(p models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID,
		StudentID:   p.StudentID,
		StudentName: p.Student.Name,
		GroupID:     p.GroupID,
		RelatedDate: p.RelatedDate.Format("2006-01-02"),
		PaymentType: p.PaymentType,
		Amount:      p.Amount,
		IsPaid:      p.IsPaid,
		PaidAt:      p.PaidAt,
		Notes:       p.Notes,
		ReceiptURL:  p.ReceiptURL,
	}
}

// ToPaymentDTOs maps a slice of payments.
func ToPaymentDTOs(payments []models.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, ToPaymentDTO(p))
	}
	return dtos
}

// ToGroupShort maps a models.Group to the compact DTO.
func ToGroupShort(g models.Group) GroupShort {
	return GroupShort{
		ID:          g.ID,
		Name:        g.Name,
		Subject:     g.Subject,
		PaymentType: g.PaymentType,
	}
}

// ToNotificationDTO maps a models.Notification to the compact DTO.
// Assumptions: caller has preloaded User when possible.
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		Data:      n.Data,
		User:      ToUserShort(n.User),
	}
}
