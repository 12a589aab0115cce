package payments

import (
	"fmt"
	"time"
	"tutorhub_go/database"
	"tutorhub_go/models"

	"gorm.io/gorm"
)

// Service generates Payment rows from attendance (per-session groups) and on
// demand for billing months (monthly groups).
type Service struct {
	db *gorm.DB
}

func NewService() *Service {
	return &Service{db: database.GetDB()}
}

func NewServiceWithDB(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart is the canonical related_date for a monthly payment.
func MonthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// SyncAttendancePayment upserts the per-session payment matching an
// attendance row. Absences create nothing; monthly groups are billed by
// GenerateMonthly instead. A row that has already been paid keeps its amount
// and paid state.
func (s *Service) SyncAttendancePayment(att *models.Attendance, group *models.Group) error {
	if !att.IsPresent || group.PaymentType != models.PaymentPerSession {
		return nil
	}

	relatedDate := DateOnly(att.Date)

	var payment models.Payment
	err := s.db.Where("group_id = ? AND student_id = ? AND related_date = ?",
		group.ID, att.StudentID, relatedDate).First(&payment).Error
	if err == gorm.ErrRecordNotFound {
		payment = models.Payment{
			StudentID:   att.StudentID,
			GroupID:     group.ID,
			RelatedDate: relatedDate,
			PaymentType: models.PaymentPerSession,
			Amount:      group.StudentPrice,
			IsPaid:      false,
		}
		return s.db.Create(&payment).Error
	}
	if err != nil {
		return err
	}

	if payment.IsPaid {
		return nil
	}
	return s.db.Model(&payment).Update("amount", group.StudentPrice).Error
}

// GenerateMonthly creates the missing monthly Payment rows for every active
// student of the group for (month, year). Existing rows are left untouched.
// The whole run is one transaction.
func (s *Service) GenerateMonthly(group *models.Group, month, year int) (int, error) {
	if group.PaymentType != models.PaymentMonthly {
		return 0, fmt.Errorf("group %d is not billed monthly", group.ID)
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month %d", month)
	}

	relatedDate := MonthStart(year, month)
	created := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var students []models.Student
		if err := tx.Where("group_id = ? AND active = ?", group.ID, true).Find(&students).Error; err != nil {
			return err
		}

		for _, student := range students {
			var existing models.Payment
			err := tx.Where("group_id = ? AND student_id = ? AND related_date = ?",
				group.ID, student.ID, relatedDate).First(&existing).Error
			if err == nil {
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}

			payment := models.Payment{
				StudentID:   student.ID,
				GroupID:     group.ID,
				RelatedDate: relatedDate,
				PaymentType: models.PaymentMonthly,
				Amount:      group.MonthlyPrice,
				IsPaid:      false,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})

	return created, err
}
