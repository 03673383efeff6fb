package domain

import (
	"time"

	"github.com/google/uuid"
)

type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistNotified  WaitlistStatus = "notified"
	WaitlistEnrolled  WaitlistStatus = "enrolled"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// WaitlistEntry is unique per (user, course).
type WaitlistEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_waitlist_user_course"`
	CourseID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_waitlist_user_course;index"`
	Status     WaitlistStatus `gorm:"size:20;index;default:'waiting'"`
	Position   int
	NotifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (WaitlistEntry) TableName() string {
	return "waitlists"
}
