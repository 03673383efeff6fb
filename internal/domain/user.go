package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// User is owned by the auth/CRUD layer. Points, EnrolledCourses,
// CompletedCourses, Breakdown and PointsVersion are written only by the
// points engine.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email           string     `gorm:"uniqueIndex;not null"`
	Username        string     `gorm:"size:50"`
	Role            UserRole   `gorm:"size:20;default:'student'"`
	Status          UserStatus `gorm:"size:20;index;default:'active'"`
	EmailVerified   bool       `gorm:"index;default:false"`
	ProfileComplete bool       `gorm:"default:false"`
	ReferredBy      *uuid.UUID `gorm:"type:uuid;index"`

	LearningStreak int `gorm:"default:0"`
	LastActivityAt *time.Time

	// === POINTS ENGINE FIELDS ===
	Points           int             `gorm:"default:0"`
	EnrolledCourses  int             `gorm:"default:0"`
	CompletedCourses int             `gorm:"default:0"`
	Breakdown        PointsBreakdown `gorm:"embedded;embeddedPrefix:pts_"`
	PointsVersion    int64           `gorm:"default:0"`
	PointsUpdatedAt  *time.Time

	Achievements []Achievement `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Eligible reports whether the user takes part in system-wide audits and
// batch corrections.
func (u *User) Eligible() bool {
	return u.EmailVerified && u.Status == UserStatusActive
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Achievement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Code      string    `gorm:"size:64"`
	Title     string
	AwardedAt time.Time
}
