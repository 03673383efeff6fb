package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrWaitlistNotFound   = errors.New("waitlist entry not found")
	ErrInvalidCohortState = errors.New("invalid cohort state")
	ErrVersionConflict    = errors.New("points were updated concurrently")
	ErrInvalidAward       = errors.New("invalid award")
	ErrQueueFull          = errors.New("correction queue is full")
)
