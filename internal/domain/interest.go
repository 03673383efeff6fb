package domain

import (
	"time"

	"github.com/google/uuid"
)

type InterestStatus string

const (
	InterestPending   InterestStatus = "pending"
	InterestReviewed  InterestStatus = "reviewed"
	InterestApproved  InterestStatus = "approved"
	InterestRejected  InterestStatus = "rejected"
	InterestContacted InterestStatus = "contacted"
	InterestEnrolled  InterestStatus = "enrolled"
)

// CourseInterest is one interest submission per (course, email). Only
// approved entries earn activity points.
type CourseInterest struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CourseID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_interest_course_email"`
	Email     string         `gorm:"not null;uniqueIndex:idx_interest_course_email;index"`
	Status    InterestStatus `gorm:"size:20;index;default:'pending'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
