package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CohortStateError reports a cohort transition attempted from the wrong
// state. It matches ErrInvalidCohortState with errors.Is.
type CohortStateError struct {
	CourseID uuid.UUID
	Current  CohortStatus
}

func (e *CohortStateError) Error() string {
	return fmt.Sprintf("course %s: transition not allowed from cohort status %q", e.CourseID, e.Current)
}

func (e *CohortStateError) Is(target error) bool {
	return target == ErrInvalidCohortState
}
