package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

func TestCalculate_ScenarioIsStored(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()

	ev, err := e.points.Calculate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1150, ev.TotalPoints)

	stored, err := e.stores.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1150, stored.Points)
	assert.Equal(t, 3, stored.EnrolledCourses)
	assert.Equal(t, 1, stored.CompletedCourses)
	assert.Equal(t, ev.Breakdown, stored.Breakdown)
	assert.Equal(t, int64(1), stored.PointsVersion)
	require.NotNil(t, stored.PointsUpdatedAt)
	assert.True(t, fixedNow.Equal(*stored.PointsUpdatedAt))
}

func TestEvaluate_DoesNotWrite(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()

	_, ev, err := e.points.Evaluate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1150, ev.TotalPoints)

	stored, err := e.stores.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Points)
	assert.Zero(t, stored.PointsVersion)
}

func TestCalculate_UnknownUser(t *testing.T) {
	_, err := newEnv().points.Calculate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCalculate_ReferralsIgnoreRefereeTotals(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	a := e.db.PutUser(domain.User{Email: "a@jhub.africa"})
	e.db.PutUser(domain.User{Email: "b@jhub.africa", ReferredBy: &a.ID, Points: 9000})
	e.db.PutUser(domain.User{Email: "c@jhub.africa", ReferredBy: &a.ID})

	ev, err := e.points.Calculate(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, ev.Breakdown.Referrals)
	assert.Equal(t, 100, ev.TotalPoints)
}

func TestCalculate_RetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()

	users := &conflictingUsers{UserStore: e.stores.Users, conflicts: 2}
	stores := e.stores
	stores.Users = users
	points := usecase.NewPointsUseCase(stores, nil, logger.Discard(), usecase.PointsOptions{Now: clock})

	ev, err := points.Calculate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1150, ev.TotalPoints)
	assert.Equal(t, 3, users.calls)
}

func TestCalculate_GivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()

	stores := e.stores
	stores.Users = &conflictingUsers{UserStore: e.stores.Users, conflicts: 10}
	points := usecase.NewPointsUseCase(stores, nil, logger.Discard(), usecase.PointsOptions{Now: clock})

	_, err := points.Calculate(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestSummary_ReadsThroughCacheAndInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()
	cache := &memSummaries{m: map[uuid.UUID]domain.PointsSummary{}}
	points := usecase.NewPointsUseCase(e.stores, cache, logger.Discard(), usecase.PointsOptions{Now: clock})

	s, err := points.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, s.Points)
	cached, _ := cache.Get(ctx, u.ID)
	require.NotNil(t, cached)

	_, err = points.Calculate(ctx, u.ID)
	require.NoError(t, err)
	cached, _ = cache.Get(ctx, u.ID)
	assert.Nil(t, cached)

	s, err = points.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1150, s.Points)
	assert.Equal(t, 5, s.LearningStreak)
	assert.Equal(t, 3, s.EnrolledCourses)
}

func TestAward_PersistsAcrossCorrections(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()
	_, err := e.points.Calculate(ctx, u.ID)
	require.NoError(t, err)

	res, err := e.points.Award(ctx, u.ID, "hackathon", 120, "won the March hackathon")
	require.NoError(t, err)
	assert.Equal(t, 1270, res.Points)
	assert.True(t, res.Scheduled)
	assert.Equal(t, []uuid.UUID{u.ID}, e.scheduler.Enqueued())

	stored, err := e.stores.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1270, stored.Points)

	corr, err := e.consistency.CorrectUserData(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1270, corr.Points)
	assert.False(t, corr.Changes.Points)
}

func TestAward_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()

	tests := []struct {
		name   string
		action string
		points int
	}{
		{name: "missing action", action: " ", points: 10},
		{name: "zero points", action: "quiz", points: 0},
		{name: "over ceiling", action: "quiz", points: 501},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.points.Award(ctx, u.ID, tt.action, tt.points, "")
			assert.ErrorIs(t, err, domain.ErrInvalidAward)
		})
	}
	assert.Empty(t, e.scheduler.Enqueued())
}

func TestAward_SucceedsWhenQueueIsFull(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()
	e.scheduler.err = domain.ErrQueueFull

	res, err := e.points.Award(ctx, u.ID, "quiz", 10, "")
	require.NoError(t, err)
	assert.False(t, res.Scheduled)
}

// brokenCredit records nothing when asked to add points.
type brokenCredit struct {
	usecase.UserStore
}

func (brokenCredit) AddPoints(context.Context, uuid.UUID, int) error {
	return errors.New("write timeout")
}

func TestAward_CreditFailureSchedulesCorrection(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.seedScenario()

	stores := e.stores
	stores.Users = brokenCredit{UserStore: e.stores.Users}
	points := usecase.NewPointsUseCase(stores, nil, logger.Discard(), usecase.PointsOptions{MaxAwardPoints: 500, Now: clock})
	points.SetScheduler(e.scheduler)

	_, err := points.Award(ctx, u.ID, "quiz", 10, "")
	require.Error(t, err)
	assert.Equal(t, []uuid.UUID{u.ID}, e.scheduler.Enqueued())

	res, err := e.consistency.CorrectUserData(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1160, res.Points)
}

func TestRecordActivity(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	yesterday := fixedNow.Add(-24 * time.Hour)
	lastWeek := fixedNow.Add(-7 * 24 * time.Hour)
	earlierToday := fixedNow.Add(-2 * time.Hour)

	tests := []struct {
		name       string
		streak     int
		last       *time.Time
		wantStreak int
		wantAction domain.StreakAction
		scheduled  bool
	}{
		{name: "first activity", streak: 0, last: nil, wantStreak: 1, wantAction: domain.StreakStarted, scheduled: true},
		{name: "next day", streak: 4, last: &yesterday, wantStreak: 5, wantAction: domain.StreakIncremented, scheduled: true},
		{name: "gap", streak: 9, last: &lastWeek, wantStreak: 1, wantAction: domain.StreakReset, scheduled: true},
		{name: "same day", streak: 3, last: &earlierToday, wantStreak: 3, wantAction: domain.StreakUnchanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := e.db.PutUser(domain.User{Email: uuid.NewString() + "@jhub.africa", LearningStreak: tt.streak, LastActivityAt: tt.last})

			res, err := e.points.RecordActivity(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStreak, res.Streak)
			assert.Equal(t, tt.wantAction, res.Action)
			assert.Equal(t, tt.scheduled, res.Scheduled)

			stored, err := e.stores.Users.GetByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStreak, stored.LearningStreak)
		})
	}
}

func TestRecordActivity_UnknownUser(t *testing.T) {
	_, err := newEnv().points.RecordActivity(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}
