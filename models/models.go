package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// User roles
const (
	RoleAdmin     = "admin"
	RoleTeacher   = "teacher"
	RoleAssistant = "assistant"
)

// User statuses
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Payment types
const (
	PaymentMonthly    = "monthly"
	PaymentPerSession = "per_session"
)

// User model. Teachers register themselves and stay "pending" until an admin
// approves them. Assistants are created by their teacher and keep a
// back-reference through TeacherID; they never own a Subscription row.
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex"`
	Phone    string `json:"phone" gorm:"size:20"`
	Role     string `json:"role" gorm:"size:50;not null;default:'teacher';type:enum('admin','teacher','assistant')"`
	Status   string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','active','suspended')"`
	Avatar   string `json:"avatar" gorm:"size:500"`

	// TeacherID is set only for assistants
	TeacherID *uint `json:"teacher_id" gorm:"index"`
	// CenterID is set for users that belong to an organizational center
	CenterID *uint `json:"center_id" gorm:"index"`

	MustChangePassword bool `json:"-" gorm:"default:false"`

	// Relationships
	Teacher    *User     `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Center     *Center   `json:"center,omitempty" gorm:"foreignKey:CenterID"`
	Assistants []User    `json:"assistants,omitempty" gorm:"foreignKey:TeacherID"`
	Students   []Student `json:"students,omitempty" gorm:"foreignKey:UserID"`
	Groups     []Group   `json:"groups,omitempty" gorm:"foreignKey:UserID"`
}

// Center model. Organizational tenant: one owner, many teachers/assistants.
// Owner assignment is set at onboarding and never reassigned.
type Center struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null"`
	OwnerID uint   `json:"owner_id" gorm:"not null;index"`
	Address string `json:"address" gorm:"size:500"`
	Phone   string `json:"phone" gorm:"size:20"`
	Active  bool   `json:"active" gorm:"default:true"`

	// Relationships
	Owner   User   `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Members []User `json:"members,omitempty" gorm:"foreignKey:CenterID"`
}

// Plan model. A subscription tier describing usage ceilings and pricing.
// DurationDays == 0 means subscriptions on this plan never expire.
type Plan struct {
	BaseModel
	Name          string  `json:"name" gorm:"size:100;not null;uniqueIndex"`
	MaxStudents   int     `json:"max_students" gorm:"not null"`
	MaxAssistants int     `json:"max_assistants" gorm:"not null"`
	Price         float64 `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	DurationDays  int     `json:"duration_days" gorm:"not null;default:30"`
	IsDefault     bool    `json:"is_default" gorm:"default:false"`
	IsTrial       bool    `json:"is_trial" gorm:"default:false"`
	Active        bool    `json:"active" gorm:"default:true"`
	Description   string  `json:"description" gorm:"type:text"`
}

// Subscription model. Exactly one of UserID / CenterID is set. The stored
// is_active flag and end_date can disagree (a lapsed row may still carry
// is_active = true); readers must check both. See services/subscription.
type Subscription struct {
	BaseModel
	UserID    *uint      `json:"user_id" gorm:"index"`
	CenterID  *uint      `json:"center_id" gorm:"index"`
	PlanID    uint       `json:"plan_id" gorm:"not null;index"`
	StartDate time.Time  `json:"start_date" gorm:"not null"`
	EndDate   *time.Time `json:"end_date"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`

	// Relationships
	Plan   Plan    `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Center *Center `json:"center,omitempty" gorm:"foreignKey:CenterID"`
}

// Group model. A teacher-owned class with a weekly timetable and optional
// one-off sessions. PaymentType drives how Payment rows are generated.
type Group struct {
	BaseModel
	UserID       uint    `json:"user_id" gorm:"not null;index"`
	Name         string  `json:"name" gorm:"size:255;not null"`
	Subject      string  `json:"subject" gorm:"size:100"`
	Level        string  `json:"level" gorm:"size:100"`
	PaymentType  string  `json:"payment_type" gorm:"size:50;not null;default:'monthly';type:enum('monthly','per_session')"`
	StudentPrice float64 `json:"student_price" gorm:"type:decimal(10,2);default:0"`
	MonthlyPrice float64 `json:"monthly_price" gorm:"type:decimal(10,2);default:0"`
	Notes        string  `json:"notes" gorm:"type:text"`
	Active       bool    `json:"active" gorm:"default:true"`

	// Relationships
	Owner           User                  `json:"owner,omitempty" gorm:"foreignKey:UserID"`
	Schedules       []GroupSchedule       `json:"schedules,omitempty" gorm:"foreignKey:GroupID"`
	SpecialSessions []GroupSpecialSession `json:"special_sessions,omitempty" gorm:"foreignKey:GroupID"`
	Students        []Student             `json:"students,omitempty" gorm:"foreignKey:GroupID"`
}

// GroupSchedule model. One weekly slot: day of week (0=Sunday..6=Saturday)
// plus "HH:MM" start/end times. Overlap within one owner is rejected at
// validation time, not by a DB constraint.
type GroupSchedule struct {
	BaseModel
	GroupID   uint   `json:"group_id" gorm:"not null;index"`
	DayOfWeek int    `json:"day_of_week" gorm:"not null"`
	StartTime string `json:"start_time" gorm:"size:5;not null"`
	EndTime   string `json:"end_time" gorm:"size:5;not null"`

	// Relationships
	Group Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// GroupSpecialSession model. A one-off session on a concrete date.
type GroupSpecialSession struct {
	BaseModel
	GroupID   uint      `json:"group_id" gorm:"not null;index"`
	Date      time.Time `json:"date" gorm:"not null"`
	StartTime string    `json:"start_time" gorm:"size:5;not null"`
	EndTime   string    `json:"end_time" gorm:"size:5;not null"`
	Notes     string    `json:"notes" gorm:"type:text"`

	// Relationships
	Group Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// Student model. Belongs to the owning user and optionally one group.
type Student struct {
	BaseModel
	UserID        uint   `json:"user_id" gorm:"not null;index"`
	GroupID       *uint  `json:"group_id" gorm:"index"`
	Name          string `json:"name" gorm:"size:255;not null"`
	Phone         string `json:"phone" gorm:"size:20"`
	GuardianName  string `json:"guardian_name" gorm:"size:255"`
	GuardianPhone string `json:"guardian_phone" gorm:"size:20"`
	Level         string `json:"level" gorm:"size:100"`
	Notes         string `json:"notes" gorm:"type:text"`
	Active        bool   `json:"active" gorm:"default:true"`

	// Relationships
	Owner User   `json:"owner,omitempty" gorm:"foreignKey:UserID"`
	Group *Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// Attendance model. One row per (student, group, date).
type Attendance struct {
	BaseModel
	StudentID uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_key"`
	GroupID   uint      `json:"group_id" gorm:"not null;uniqueIndex:idx_attendance_key"`
	Date      time.Time `json:"date" gorm:"not null;uniqueIndex:idx_attendance_key"`
	IsPresent bool      `json:"is_present" gorm:"default:false"`
	Note      string    `json:"note" gorm:"size:500"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Group   Group   `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// Payment model. One row per (student, group, related_date). For monthly
// groups RelatedDate is the first day of the billed month; for per_session
// groups it is the attendance date. The old (month, year) schema is gone;
// RelatedDate is the one source of truth.
type Payment struct {
	BaseModel
	StudentID   uint       `json:"student_id" gorm:"not null;uniqueIndex:idx_payment_key"`
	GroupID     uint       `json:"group_id" gorm:"not null;uniqueIndex:idx_payment_key"`
	RelatedDate time.Time  `json:"related_date" gorm:"not null;uniqueIndex:idx_payment_key"`
	PaymentType string     `json:"payment_type" gorm:"size:50;not null;type:enum('monthly','per_session')"`
	Amount      float64    `json:"amount" gorm:"type:decimal(10,2);not null;default:0"`
	IsPaid      bool       `json:"is_paid" gorm:"default:false"`
	PaidAt      *time.Time `json:"paid_at"`
	Notes       string     `json:"notes" gorm:"size:500"`
	ReceiptURL  string     `json:"receipt_url" gorm:"size:500"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Group   Group   `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// Feedback model. A support ticket moving new -> in_progress -> resolved.
type Feedback struct {
	BaseModel
	UserID     uint   `json:"user_id" gorm:"not null;index"`
	Type       string `json:"type" gorm:"size:50;not null;default:'other';type:enum('bug','feature','question','other')"`
	Subject    string `json:"subject" gorm:"size:255;not null"`
	Body       string `json:"body" gorm:"type:text;not null"`
	Status     string `json:"status" gorm:"size:50;not null;default:'new';type:enum('new','in_progress','resolved')"`
	AdminReply string `json:"admin_reply" gorm:"type:text"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// PlanUpgradeRequest model. Manual upgrade flow: a teacher or center asks for
// a bigger plan and an admin approves or rejects it. No payment gateway.
type PlanUpgradeRequest struct {
	BaseModel
	UserID    *uint      `json:"user_id" gorm:"index"`
	CenterID  *uint      `json:"center_id" gorm:"index"`
	PlanID    uint       `json:"plan_id" gorm:"not null"`
	Note      string     `json:"note" gorm:"size:500"`
	Status    string     `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','approved','rejected')"`
	DecidedBy *uint      `json:"decided_by"`
	DecidedAt *time.Time `json:"decided_at"`

	// Relationships
	Plan   Plan    `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Center *Center `json:"center,omitempty" gorm:"foreignKey:CenterID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"`
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`
	Data    JSON       `json:"data,omitempty" gorm:"type:json"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"`
	Error       string    `json:"error" gorm:"type:text"`
}

// IsAssistant reports whether the user is an assistant sub-account.
func (u *User) IsAssistant() bool {
	return u.Role == RoleAssistant
}

// IsApproved reports whether the user has been activated by an admin.
func (u *User) IsApproved() bool {
	return u.Status == StatusActive
}
