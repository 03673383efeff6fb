package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/domain"
)

// UserStore reads user facts and is the only write path for the engine's
// denormalized fields.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// ListEligible pages verified, active users ordered by id, strictly after
	// the given id.
	ListEligible(ctx context.Context, after uuid.UUID, limit int) ([]domain.User, error)
	CountIneligible(ctx context.Context) (int64, error)
	CountAchievements(ctx context.Context, userID uuid.UUID) (int, error)
	CountReferrals(ctx context.Context, referrerID uuid.UUID) (int, error)
	CountAllReferrals(ctx context.Context) (int64, error)
	ListDanglingReferrals(ctx context.Context) ([]domain.User, error)
	// ApplyPoints writes the update only if the stored version still equals
	// version, otherwise it returns domain.ErrVersionConflict.
	ApplyPoints(ctx context.Context, id uuid.UUID, version int64, upd domain.PointsUpdate) error
	AddPoints(ctx context.Context, id uuid.UUID, delta int) error
	UpdateStreak(ctx context.Context, id uuid.UUID, streak int, at time.Time) error
}

type EnrollmentStore interface {
	CountByStudent(ctx context.Context, studentID uuid.UUID) (domain.EnrollmentCounts, error)
	CountAll(ctx context.Context) (int64, error)
	CountSeated(ctx context.Context, courseID uuid.UUID) (int64, error)
	ListOrphaned(ctx context.Context) ([]domain.Enrollment, error)
	DeleteOrphaned(ctx context.Context) (int64, error)
}

type InterestStore interface {
	CountApprovedByEmail(ctx context.Context, email string) (int, error)
}

type AwardStore interface {
	Create(ctx context.Context, award *domain.PointAward) error
	SumByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type CourseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	Save(ctx context.Context, course *domain.Course) error
}

type WaitlistStore interface {
	CountWaiting(ctx context.Context, courseID uuid.UUID) (int64, error)
	ListWaiting(ctx context.Context, courseID uuid.UUID) ([]domain.WaitlistEntry, error)
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Stores bundles one storage backend.
type Stores struct {
	Users       UserStore
	Enrollments EnrollmentStore
	Interests   InterestStore
	Awards      AwardStore
	Courses     CourseStore
	Waitlists   WaitlistStore
}

// SummaryCache holds stored summaries. Get returns (nil, nil) on a miss.
type SummaryCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.PointsSummary, error)
	Set(ctx context.Context, summary domain.PointsSummary) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// CursorStore persists the progress of resumable jobs.
type CursorStore interface {
	Load(ctx context.Context, job string) (uuid.UUID, bool, error)
	Save(ctx context.Context, job string, last uuid.UUID) error
	Clear(ctx context.Context, job string) error
}

// Scheduler queues a background correction for a user.
type Scheduler interface {
	Enqueue(userID uuid.UUID) error
}
