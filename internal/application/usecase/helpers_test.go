package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
	"github.com/jhubafrica/points-service/internal/infrastructure/repository/memory"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type env struct {
	db          *memory.DB
	stores      usecase.Stores
	points      *usecase.PointsUseCase
	consistency *usecase.ConsistencyUseCase
	cohorts     *usecase.CohortUseCase
	scheduler   *recordingScheduler
	cursors     *memCursors
}

func newEnv() *env {
	db := memory.NewDB()
	stores := db.Stores()
	scheduler := &recordingScheduler{}
	cursors := &memCursors{m: map[string]uuid.UUID{}}

	points := usecase.NewPointsUseCase(stores, nil, logger.Discard(), usecase.PointsOptions{MaxAwardPoints: 500, Now: clock})
	points.SetScheduler(scheduler)

	return &env{
		db:          db,
		stores:      stores,
		points:      points,
		consistency: usecase.NewConsistencyUseCase(points, stores, cursors, logger.Discard(), usecase.ConsistencyOptions{BatchSize: 2}),
		cohorts:     usecase.NewCohortUseCase(stores, logger.Discard(), clock),
		scheduler:   scheduler,
		cursors:     cursors,
	}
}

// seedScenario stores a verified user with two active and one completed
// enrollment, one approved interest, a five day streak and one achievement.
func (e *env) seedScenario() domain.User {
	u := e.db.PutUser(domain.User{
		Email:           "amina@jhub.africa",
		EmailVerified:   true,
		ProfileComplete: true,
		LearningStreak:  5,
	})
	e.db.PutEnrollment(domain.Enrollment{StudentID: u.ID, CourseID: uuid.New(), Status: domain.EnrollmentActive})
	e.db.PutEnrollment(domain.Enrollment{StudentID: u.ID, CourseID: uuid.New(), Status: domain.EnrollmentActive})
	e.db.PutEnrollment(domain.Enrollment{StudentID: u.ID, CourseID: uuid.New(), Status: domain.EnrollmentCompleted})
	e.db.PutEnrollment(domain.Enrollment{StudentID: u.ID, CourseID: uuid.New(), Status: domain.EnrollmentCancelled})
	e.db.PutInterest(domain.CourseInterest{CourseID: uuid.New(), Email: u.Email, Status: domain.InterestApproved})
	e.db.PutInterest(domain.CourseInterest{CourseID: uuid.New(), Email: u.Email, Status: domain.InterestPending})
	e.db.PutAchievement(domain.Achievement{UserID: u.ID, Code: "first-course"})
	return u
}

type recordingScheduler struct {
	mu    sync.Mutex
	users []uuid.UUID
	err   error
}

func (s *recordingScheduler) Enqueue(userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.users = append(s.users, userID)
	return nil
}

func (s *recordingScheduler) Enqueued() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.users...)
}

type memCursors struct {
	mu sync.Mutex
	m  map[string]uuid.UUID
}

func (c *memCursors) Load(ctx context.Context, job string) (uuid.UUID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.m[job]
	return id, ok, nil
}

func (c *memCursors) Save(ctx context.Context, job string, last uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[job] = last
	return nil
}

func (c *memCursors) Clear(ctx context.Context, job string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, job)
	return nil
}

// conflictingUsers fails the first n ApplyPoints calls with a version
// conflict.
type conflictingUsers struct {
	usecase.UserStore
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (u *conflictingUsers) ApplyPoints(ctx context.Context, id uuid.UUID, version int64, upd domain.PointsUpdate) error {
	u.mu.Lock()
	u.calls++
	fail := u.conflicts > 0
	if fail {
		u.conflicts--
	}
	u.mu.Unlock()
	if fail {
		return domain.ErrVersionConflict
	}
	return u.UserStore.ApplyPoints(ctx, id, version, upd)
}

// memSummaries is a map-backed summary cache.
type memSummaries struct {
	mu sync.Mutex
	m  map[uuid.UUID]domain.PointsSummary
}

func (c *memSummaries) Get(ctx context.Context, userID uuid.UUID) (*domain.PointsSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *memSummaries) Set(ctx context.Context, summary domain.PointsSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[summary.UserID] = summary
	return nil
}

func (c *memSummaries) Invalidate(ctx context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, userID)
	return nil
}
