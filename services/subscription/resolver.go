package subscription

import (
	"fmt"
	"time"
	"tutorhub_go/database"
	"tutorhub_go/models"

	"gorm.io/gorm"
)

// OwnerKind tells which entity actually holds the subscription that governs
// an acting user.
type OwnerKind string

const (
	OwnerUser   OwnerKind = "user"
	OwnerCenter OwnerKind = "center"
)

// Owner is the resolved subscription owner for an acting user: the user
// itself, the assistant's teacher, or the center the account belongs to.
type Owner struct {
	Kind     OwnerKind
	UserID   uint
	CenterID uint
}

// Entitlements is what creation endpoints gate on. Zero limits and an
// inactive flag when no subscription exists at all. DaysRemaining is -1 for
// open-ended subscriptions.
type Entitlements struct {
	MaxStudents   int    `json:"max_students"`
	MaxAssistants int    `json:"max_assistants"`
	IsActive      bool   `json:"is_active"`
	DaysRemaining int    `json:"days_remaining"`
	PlanName      string `json:"plan_name,omitempty"`
}

// Usage carries the current counts the limits are compared against.
type Usage struct {
	Students   int64 `json:"students"`
	Assistants int64 `json:"assistants"`
}

// Resolver computes effective entitlements. All methods are pure reads: the
// resolver never flips a lapsed subscription's stored is_active flag.
type Resolver struct {
	db *gorm.DB
}

func NewResolver() *Resolver {
	return &Resolver{db: database.GetDB()}
}

func NewResolverWithDB(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// EffectiveOwner walks the inheritance chain: assistant -> owning teacher,
// center member -> center, everyone else -> themselves. The assistant hop
// happens first so that an assistant of a center teacher lands on the center.
func (r *Resolver) EffectiveOwner(user *models.User) (Owner, error) {
	acting := user
	if user.IsAssistant() {
		if user.TeacherID == nil {
			return Owner{}, fmt.Errorf("assistant %d has no owning teacher", user.ID)
		}
		var teacher models.User
		if err := r.db.First(&teacher, *user.TeacherID).Error; err != nil {
			return Owner{}, fmt.Errorf("load teacher %d: %w", *user.TeacherID, err)
		}
		acting = &teacher
	}

	if acting.CenterID != nil {
		return Owner{Kind: OwnerCenter, CenterID: *acting.CenterID}, nil
	}
	return Owner{Kind: OwnerUser, UserID: acting.ID}, nil
}

// CurrentSubscription returns the newest subscription row flagged active for
// the owner, or nil when none exists. The row may still be lapsed by
// end_date; IsCurrentlyActive decides that.
func (r *Resolver) CurrentSubscription(owner Owner) (*models.Subscription, error) {
	var sub models.Subscription
	query := r.db.Preload("Plan").Where("is_active = ?", true).Order("id DESC")
	switch owner.Kind {
	case OwnerCenter:
		query = query.Where("center_id = ?", owner.CenterID)
	default:
		query = query.Where("user_id = ?", owner.UserID)
	}
	if err := query.First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// IsCurrentlyActive checks both signals: the stored flag and the end date.
// The two can disagree in storage (a lapsed row may keep is_active = true),
// so a subscription only counts while both hold.
func IsCurrentlyActive(sub *models.Subscription, now time.Time) bool {
	if sub == nil || !sub.IsActive {
		return false
	}
	if sub.EndDate == nil {
		return true
	}
	return sub.EndDate.After(now)
}

// RemainingDays returns whole days until end_date, -1 for open-ended
// subscriptions and 0 for lapsed or missing ones.
func RemainingDays(sub *models.Subscription, now time.Time) int {
	if sub == nil || !sub.IsActive {
		return 0
	}
	if sub.EndDate == nil {
		return -1
	}
	remaining := sub.EndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// Resolve computes the effective entitlements for an acting user.
func (r *Resolver) Resolve(user *models.User) (Entitlements, error) {
	owner, err := r.EffectiveOwner(user)
	if err != nil {
		return Entitlements{}, err
	}
	sub, err := r.CurrentSubscription(owner)
	if err != nil {
		return Entitlements{}, err
	}
	if sub == nil {
		return Entitlements{}, nil
	}

	now := time.Now()
	return Entitlements{
		MaxStudents:   sub.Plan.MaxStudents,
		MaxAssistants: sub.Plan.MaxAssistants,
		IsActive:      IsCurrentlyActive(sub, now),
		DaysRemaining: RemainingDays(sub, now),
		PlanName:      sub.Plan.Name,
	}, nil
}

// CurrentUsage counts the students and assistants already consumed by the
// owner. Center usage spans every member of the center.
func (r *Resolver) CurrentUsage(owner Owner) (Usage, error) {
	var usage Usage
	switch owner.Kind {
	case OwnerCenter:
		if err := r.db.Model(&models.Student{}).
			Joins("JOIN users ON users.id = students.user_id").
			Where("users.center_id = ?", owner.CenterID).
			Count(&usage.Students).Error; err != nil {
			return usage, err
		}
		if err := r.db.Model(&models.User{}).
			Where("center_id = ? AND role = ?", owner.CenterID, models.RoleAssistant).
			Count(&usage.Assistants).Error; err != nil {
			return usage, err
		}
	default:
		if err := r.db.Model(&models.Student{}).
			Where("user_id = ?", owner.UserID).
			Count(&usage.Students).Error; err != nil {
			return usage, err
		}
		if err := r.db.Model(&models.User{}).
			Where("teacher_id = ? AND role = ?", owner.UserID, models.RoleAssistant).
			Count(&usage.Assistants).Error; err != nil {
			return usage, err
		}
	}
	return usage, nil
}

// WithinLimit is the single gate predicate: room left under an active
// subscription.
func WithinLimit(current int64, max int, active bool) bool {
	return active && current < int64(max)
}

// CanAddStudents reports whether the acting user may create one more student.
func (r *Resolver) CanAddStudents(user *models.User) (bool, error) {
	owner, err := r.EffectiveOwner(user)
	if err != nil {
		return false, err
	}
	ent, err := r.Resolve(user)
	if err != nil {
		return false, err
	}
	usage, err := r.CurrentUsage(owner)
	if err != nil {
		return false, err
	}
	return WithinLimit(usage.Students, ent.MaxStudents, ent.IsActive), nil
}

// CanAddAssistants reports whether the acting user may create one more
// assistant. Assistants can never add assistants, whatever the limits say.
func (r *Resolver) CanAddAssistants(user *models.User) (bool, error) {
	if user.IsAssistant() {
		return false, nil
	}
	owner, err := r.EffectiveOwner(user)
	if err != nil {
		return false, err
	}
	ent, err := r.Resolve(user)
	if err != nil {
		return false, err
	}
	usage, err := r.CurrentUsage(owner)
	if err != nil {
		return false, err
	}
	return WithinLimit(usage.Assistants, ent.MaxAssistants, ent.IsActive), nil
}

// HasActiveSubscription reports whether the acting user's resolved
// subscription is currently active.
func (r *Resolver) HasActiveSubscription(user *models.User) (bool, error) {
	ent, err := r.Resolve(user)
	if err != nil {
		return false, err
	}
	return ent.IsActive, nil
}

// OwnerScopeUserIDs returns the user IDs whose records the acting user may
// see: the effective owner plus, for centers, every member. Used by
// controllers to scope ownership checks in one place instead of ad hoc
// per-handler queries.
func (r *Resolver) OwnerScopeUserIDs(user *models.User) ([]uint, error) {
	owner, err := r.EffectiveOwner(user)
	if err != nil {
		return nil, err
	}
	if owner.Kind == OwnerCenter {
		var ids []uint
		if err := r.db.Model(&models.User{}).
			Where("center_id = ?", owner.CenterID).
			Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		return ids, nil
	}
	return []uint{owner.UserID}, nil
}
