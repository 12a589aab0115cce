package controllers

import (
	"testing"
	"tutorhub_go/models"
)

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expMinutes int
	}{
		{
			name:       "morning time",
			input:      "08:30",
			expMinutes: 8*60 + 30,
		},
		{
			name:       "midnight",
			input:      "00:00",
			expMinutes: 0,
		},
		{
			name:       "late evening",
			input:      "23:45",
			expMinutes: 23*60 + 45,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseHourMinute(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expMinutes {
				t.Fatalf("expected %d minutes, got %d", tc.expMinutes, got)
			}
		})
	}
}

func TestParseHourMinuteInvalid(t *testing.T) {
	if _, err := parseHourMinute("invalid"); err == nil {
		t.Fatalf("expected error for invalid input")
	}
}

// Conflicts are scoped per filing user: a teacher files under themselves,
// an assistant under their teacher. Two distinct teachers may hold identical
// schedules, center membership included.
func TestGroupFilingID(t *testing.T) {
	teacherID := uint(3)
	centerID := uint(9)

	tests := []struct {
		name string
		user *models.User
		want uint
	}{
		{
			name: "teacher files under self",
			user: &models.User{BaseModel: models.BaseModel{ID: 3}, Role: models.RoleTeacher},
			want: 3,
		},
		{
			name: "center teacher still files under self",
			user: &models.User{BaseModel: models.BaseModel{ID: 5}, Role: models.RoleTeacher, CenterID: &centerID},
			want: 5,
		},
		{
			name: "assistant files under owning teacher",
			user: &models.User{BaseModel: models.BaseModel{ID: 8}, Role: models.RoleAssistant, TeacherID: &teacherID},
			want: 3,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := groupFilingID(tc.user); got != tc.want {
				t.Fatalf("expected filing id %d, got %d", tc.want, got)
			}
		})
	}
}

func TestSlotsOverlap(t *testing.T) {
	mustParse := func(s string) int {
		m, err := parseHourMinute(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return m
	}

	tests := []struct {
		name                   string
		aStart, aEnd           string
		bStart, bEnd           string
		expConflict            bool
	}{
		{
			name:   "partial overlap conflicts",
			aStart: "10:00", aEnd: "12:00",
			bStart: "11:00", bEnd: "13:00",
			expConflict: true,
		},
		{
			name:   "back to back does not conflict",
			aStart: "10:00", aEnd: "12:00",
			bStart: "12:00", bEnd: "14:00",
			expConflict: false,
		},
		{
			name:   "contained slot conflicts",
			aStart: "09:00", aEnd: "17:00",
			bStart: "10:00", bEnd: "11:00",
			expConflict: true,
		},
		{
			name:   "identical slots conflict",
			aStart: "10:00", aEnd: "12:00",
			bStart: "10:00", bEnd: "12:00",
			expConflict: true,
		},
		{
			name:   "disjoint slots do not conflict",
			aStart: "08:00", aEnd: "09:00",
			bStart: "15:00", bEnd: "16:00",
			expConflict: false,
		},
		{
			name:   "one minute overlap conflicts",
			aStart: "10:00", aEnd: "12:01",
			bStart: "12:00", bEnd: "14:00",
			expConflict: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := slotsOverlap(mustParse(tc.aStart), mustParse(tc.aEnd), mustParse(tc.bStart), mustParse(tc.bEnd))
			if got != tc.expConflict {
				t.Fatalf("expected conflict=%v, got %v", tc.expConflict, got)
			}
			// overlap must be symmetric
			rev := slotsOverlap(mustParse(tc.bStart), mustParse(tc.bEnd), mustParse(tc.aStart), mustParse(tc.aEnd))
			if rev != got {
				t.Fatalf("overlap not symmetric: %v vs %v", got, rev)
			}
		})
	}
}
