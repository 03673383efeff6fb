package domain

import (
	"time"

	"github.com/google/uuid"
)

type CourseStatus string

const (
	CourseDraft    CourseStatus = "draft"
	CourseActive   CourseStatus = "active"
	CourseFull     CourseStatus = "full"
	CourseArchived CourseStatus = "archived"
)

type CohortStatus string

const (
	CohortPlanning   CohortStatus = "planning"
	CohortRecruiting CohortStatus = "recruiting"
	CohortReady      CohortStatus = "ready"
	CohortInProgress CohortStatus = "in-progress"
	CohortCompleted  CohortStatus = "completed"
)

// Course carries the cohort lifecycle. CohortReadyThreshold and MaxStudents
// are set by admins only.
type Course struct {
	ID                   uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title                string       `gorm:"index" json:"title"`
	Category             string       `gorm:"index" json:"category"`
	Status               CourseStatus `gorm:"size:20;default:'active'" json:"status"`
	CohortStatus         CohortStatus `gorm:"size:20;index;default:'planning'" json:"cohortStatus"`
	CohortReadyThreshold int          `gorm:"default:10" json:"cohortReadyThreshold"`
	MaxStudents          int          `gorm:"default:30" json:"maxStudents"`
	WaitlistEnabled      bool         `gorm:"default:true" json:"waitlistEnabled"`
	CohortStartDate      *time.Time   `json:"cohortStartDate"`
	CohortEndDate        *time.Time   `json:"cohortEndDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Course) transitionError() error {
	return &CohortStateError{CourseID: c.ID, Current: c.CohortStatus}
}

// StartRecruiting moves a planned course into recruiting.
func (c *Course) StartRecruiting() error {
	if c.CohortStatus != CohortPlanning {
		return c.transitionError()
	}
	c.CohortStatus = CohortRecruiting
	return nil
}

// StartCohort begins a ready cohort. The caller notifies waiting students.
func (c *Course) StartCohort(now time.Time) error {
	if c.CohortStatus != CohortReady {
		return c.transitionError()
	}
	c.CohortStatus = CohortInProgress
	c.CohortStartDate = &now
	c.CohortEndDate = nil
	c.Status = CourseActive
	return nil
}

func (c *Course) CompleteCohort(now time.Time) error {
	if c.CohortStatus != CohortInProgress {
		return c.transitionError()
	}
	c.CohortStatus = CohortCompleted
	c.CohortEndDate = &now
	return nil
}

// OpenNewCohort reopens recruiting from any state except a running cohort.
func (c *Course) OpenNewCohort() error {
	if c.CohortStatus == CohortInProgress {
		return c.transitionError()
	}
	c.CohortStatus = CohortRecruiting
	c.CohortStartDate = nil
	c.CohortEndDate = nil
	c.Status = CourseActive
	return nil
}

// Reconcile runs the save-time rules: a recruiting cohort becomes ready once
// enough students wait, and an open course flips between active and full
// with its seat count.
func (c *Course) Reconcile(waiting, seated int) {
	threshold := c.CohortReadyThreshold
	if threshold < 1 {
		threshold = 1
	}
	if c.CohortStatus == CohortRecruiting && waiting >= threshold {
		c.CohortStatus = CohortReady
	}

	if c.Status != CourseActive && c.Status != CourseFull {
		return
	}
	if c.MaxStudents > 0 && seated >= c.MaxStudents {
		c.Status = CourseFull
	} else {
		c.Status = CourseActive
	}
}
