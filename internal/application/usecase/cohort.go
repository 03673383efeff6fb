package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

type CohortUseCase struct {
	courses   CourseStore
	waitlists WaitlistStore
	seats     EnrollmentStore
	log       logger.Logger
	now       func() time.Time
}

func NewCohortUseCase(stores Stores, log logger.Logger, now func() time.Time) *CohortUseCase {
	if now == nil {
		now = time.Now
	}
	return &CohortUseCase{
		courses:   stores.Courses,
		waitlists: stores.Waitlists,
		seats:     stores.Enrollments,
		log:       log,
		now:       now,
	}
}

// StartCohortResult is returned by StartCohort.
type StartCohortResult struct {
	Course   *domain.Course `json:"course"`
	Notified int            `json:"notified"`
}

func (uc *CohortUseCase) StartRecruiting(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	return uc.transition(ctx, courseID, func(c *domain.Course) error {
		return c.StartRecruiting()
	})
}

// StartCohort begins a ready cohort and marks its waiting students as
// notified. Notification failures are logged and do not undo the start.
func (uc *CohortUseCase) StartCohort(ctx context.Context, courseID uuid.UUID) (*StartCohortResult, error) {
	now := uc.now().UTC()
	course, err := uc.transition(ctx, courseID, func(c *domain.Course) error {
		return c.StartCohort(now)
	})
	if err != nil {
		return nil, err
	}
	return &StartCohortResult{Course: course, Notified: uc.notifyWaiting(ctx, course.ID, now)}, nil
}

func (uc *CohortUseCase) CompleteCohort(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	now := uc.now().UTC()
	return uc.transition(ctx, courseID, func(c *domain.Course) error {
		return c.CompleteCohort(now)
	})
}

func (uc *CohortUseCase) OpenNewCohort(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	return uc.transition(ctx, courseID, func(c *domain.Course) error {
		return c.OpenNewCohort()
	})
}

// Sync re-runs the save-time rules without a transition.
func (uc *CohortUseCase) Sync(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	return uc.transition(ctx, courseID, func(*domain.Course) error { return nil })
}

// === SAVE HOOKS ===

// Save persists a course after applying readiness and capacity rules.
func (uc *CohortUseCase) Save(ctx context.Context, course *domain.Course) error {
	waiting, err := uc.waitlists.CountWaiting(ctx, course.ID)
	if err != nil {
		return pkgerrors.Wrap(err, "count waiting students")
	}
	seated, err := uc.seats.CountSeated(ctx, course.ID)
	if err != nil {
		return pkgerrors.Wrap(err, "count seated students")
	}
	course.Reconcile(int(waiting), int(seated))

	if err := uc.courses.Save(ctx, course); err != nil {
		return pkgerrors.Wrap(err, "save course")
	}
	return nil
}

func (uc *CohortUseCase) transition(ctx context.Context, courseID uuid.UUID, fn func(*domain.Course) error) (*domain.Course, error) {
	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := fn(course); err != nil {
		return nil, err
	}
	if err := uc.Save(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (uc *CohortUseCase) notifyWaiting(ctx context.Context, courseID uuid.UUID, now time.Time) int {
	entries, err := uc.waitlists.ListWaiting(ctx, courseID)
	if err != nil {
		uc.log.Error("waitlist lookup failed", err, map[string]interface{}{"course_id": courseID.String()})
		return 0
	}

	notified := 0
	for _, e := range entries {
		if err := uc.waitlists.MarkNotified(ctx, e.ID, now); err != nil {
			uc.log.Warn("waitlist notification failed", err, map[string]interface{}{
				"course_id": courseID.String(),
				"user_id":   e.UserID.String(),
			})
			continue
		}
		notified++
	}
	if notified > 0 {
		uc.log.Info("cohort started, waitlist notified", map[string]interface{}{
			"course_id": courseID.String(),
			"notified":  notified,
		})
	}
	return notified
}
