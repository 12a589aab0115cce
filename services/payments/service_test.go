package payments

import (
	"testing"
	"time"
	"tutorhub_go/models"
)

func TestDateOnly(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{
			name:  "midday timestamp",
			input: time.Date(2026, 5, 14, 13, 45, 12, 0, time.UTC),
			want:  time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "already midnight",
			input: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := DateOnly(tc.input); !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(2026, 2)
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got.Day() != 1 {
		t.Fatalf("related_date for a monthly payment must be the first of the month, got day %d", got.Day())
	}
}

// The sync must short-circuit for absences and monthly groups before any
// database work. The nil DB makes an accidental query panic the test.
func TestSyncAttendancePaymentGuard(t *testing.T) {
	svc := NewServiceWithDB(nil)
	date := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		isPresent   bool
		paymentType string
	}{
		{"absent in per session group", false, models.PaymentPerSession},
		{"present in monthly group", true, models.PaymentMonthly},
		{"absent in monthly group", false, models.PaymentMonthly},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			att := &models.Attendance{StudentID: 1, GroupID: 1, Date: date, IsPresent: tc.isPresent}
			group := &models.Group{PaymentType: tc.paymentType, StudentPrice: 50}
			if err := svc.SyncAttendancePayment(att, group); err != nil {
				t.Fatalf("expected no payment and no error, got %v", err)
			}
		})
	}
}
