package subscription

import (
	"testing"
	"time"
	"tutorhub_go/models"
)

func subWith(active bool, end *time.Time) *models.Subscription {
	return &models.Subscription{IsActive: active, EndDate: end}
}

func TestIsCurrentlyActive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-48 * time.Hour)

	tests := []struct {
		name string
		sub  *models.Subscription
		want bool
	}{
		{"nil subscription", nil, false},
		{"inactive flag", subWith(false, &future), false},
		{"active open ended", subWith(true, nil), true},
		{"active future end", subWith(true, &future), true},
		{"stored active but lapsed end date", subWith(true, &past), false},
		{"inactive and lapsed", subWith(false, &past), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCurrentlyActive(tc.sub, now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRemainingDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in10 := now.Add(10 * 24 * time.Hour)
	in36h := now.Add(36 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  *models.Subscription
		want int
	}{
		{"nil subscription", nil, 0},
		{"open ended", subWith(true, nil), -1},
		{"ten days left", subWith(true, &in10), 10},
		{"partial day rounds down", subWith(true, &in36h), 1},
		{"already lapsed", subWith(true, &past), 0},
		{"inactive flag wins", subWith(false, &in10), 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := RemainingDays(tc.sub, now); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

// Delegation branches that resolve without touching storage. The nil DB makes
// an accidental query panic the test.
func TestEffectiveOwnerDelegation(t *testing.T) {
	r := NewResolverWithDB(nil)
	centerID := uint(9)

	t.Run("teacher owns their own subscription", func(t *testing.T) {
		teacher := &models.User{BaseModel: models.BaseModel{ID: 3}, Role: models.RoleTeacher}
		owner, err := r.EffectiveOwner(teacher)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if owner.Kind != OwnerUser || owner.UserID != 3 {
			t.Fatalf("expected user owner 3, got %+v", owner)
		}
	})

	t.Run("center member resolves to the center", func(t *testing.T) {
		member := &models.User{BaseModel: models.BaseModel{ID: 3}, Role: models.RoleTeacher, CenterID: &centerID}
		owner, err := r.EffectiveOwner(member)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if owner.Kind != OwnerCenter || owner.CenterID != centerID {
			t.Fatalf("expected center owner %d, got %+v", centerID, owner)
		}
	})

	t.Run("assistant without owning teacher is an error", func(t *testing.T) {
		orphan := &models.User{BaseModel: models.BaseModel{ID: 4}, Role: models.RoleAssistant}
		if _, err := r.EffectiveOwner(orphan); err == nil {
			t.Fatal("expected an error for an assistant with no teacher")
		}
	})
}

// Assistants are refused before any limit lookup, whatever their teacher's
// plan allows.
func TestCanAddAssistantsRefusesAssistants(t *testing.T) {
	r := NewResolverWithDB(nil)
	teacherID := uint(3)
	assistant := &models.User{BaseModel: models.BaseModel{ID: 4}, Role: models.RoleAssistant, TeacherID: &teacherID}

	ok, err := r.CanAddAssistants(assistant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("an assistant must never be allowed to add assistants")
	}
}

func TestWithinLimit(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		max     int
		active  bool
		want    bool
	}{
		{"room left", 4, 5, true, true},
		{"at limit", 5, 5, true, false},
		{"over limit", 6, 5, true, false},
		{"one below limit", 4, 5, true, true},
		{"inactive blocks even with room", 0, 5, false, false},
		{"zero limit", 0, 0, true, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := WithinLimit(tc.current, tc.max, tc.active); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
