package domain

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentSuspended EnrollmentStatus = "suspended"
)

// CountsTowardEnrolled is true for the statuses that occupy a seat and earn
// enrollment points.
func (s EnrollmentStatus) CountsTowardEnrolled() bool {
	return s == EnrollmentActive || s == EnrollmentCompleted
}

// SeatStatuses lists the enrollment statuses counted against a course's
// capacity and a student's enrolled total.
var SeatStatuses = []EnrollmentStatus{EnrollmentActive, EnrollmentCompleted}

// Enrollment is unique per (student, course).
type Enrollment struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	StudentID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course;index"`
	Status      EnrollmentStatus `gorm:"size:20;index;default:'active'"`
	EnrolledAt  time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EnrollmentCounts is the per-student tally the evaluator needs.
type EnrollmentCounts struct {
	Active    int
	Completed int
}

func (c EnrollmentCounts) Enrolled() int {
	return c.Active + c.Completed
}

// Tally counts enrollments by status, ignoring cancelled and suspended ones.
func Tally(enrollments []Enrollment) EnrollmentCounts {
	var c EnrollmentCounts
	for _, e := range enrollments {
		switch e.Status {
		case EnrollmentActive:
			c.Active++
		case EnrollmentCompleted:
			c.Completed++
		}
	}
	return c
}
