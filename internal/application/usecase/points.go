package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

const maxApplyAttempts = 3

type PointsOptions struct {
	MaxAwardPoints int
	Now            func() time.Time
}

type PointsUseCase struct {
	stores    Stores
	cache     SummaryCache
	scheduler Scheduler
	log       logger.Logger
	maxAward  int
	now       func() time.Time
}

func NewPointsUseCase(stores Stores, cache SummaryCache, log logger.Logger, opts PointsOptions) *PointsUseCase {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &PointsUseCase{
		stores:   stores,
		cache:    cache,
		log:      log,
		maxAward: opts.MaxAwardPoints,
		now:      now,
	}
}

// SetScheduler wires the background correction queue. The queue itself
// depends on the corrector, so it is attached after construction.
func (uc *PointsUseCase) SetScheduler(s Scheduler) {
	uc.scheduler = s
}

// LoadFacts reads the fact snapshot for an already loaded user.
func (uc *PointsUseCase) LoadFacts(ctx context.Context, user *domain.User) (domain.Facts, error) {
	enrollments, err := uc.stores.Enrollments.CountByStudent(ctx, user.ID)
	if err != nil {
		return domain.Facts{}, pkgerrors.Wrap(err, "count enrollments")
	}
	interests, err := uc.stores.Interests.CountApprovedByEmail(ctx, user.Email)
	if err != nil {
		return domain.Facts{}, pkgerrors.Wrap(err, "count approved interests")
	}
	achievements, err := uc.stores.Users.CountAchievements(ctx, user.ID)
	if err != nil {
		return domain.Facts{}, pkgerrors.Wrap(err, "count achievements")
	}
	referrals, err := uc.stores.Users.CountReferrals(ctx, user.ID)
	if err != nil {
		return domain.Facts{}, pkgerrors.Wrap(err, "count referrals")
	}
	awarded, err := uc.stores.Awards.SumByUser(ctx, user.ID)
	if err != nil {
		return domain.Facts{}, pkgerrors.Wrap(err, "sum awards")
	}

	return domain.Facts{
		UserID:            user.ID,
		Enrollments:       enrollments,
		ApprovedInterests: interests,
		LearningStreak:    user.LearningStreak,
		Achievements:      achievements,
		Referrals:         referrals,
		EmailVerified:     user.EmailVerified,
		ProfileComplete:   user.ProfileComplete,
		AwardedPoints:     awarded,
	}, nil
}

// Evaluate loads the user and its facts and runs the rules. Nothing is
// written.
func (uc *PointsUseCase) Evaluate(ctx context.Context, userID uuid.UUID) (*domain.User, domain.Evaluation, error) {
	user, err := uc.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.Evaluation{}, err
	}
	ev, err := uc.evaluateUser(ctx, user)
	if err != nil {
		return nil, domain.Evaluation{}, err
	}
	return user, ev, nil
}

func (uc *PointsUseCase) evaluateUser(ctx context.Context, user *domain.User) (domain.Evaluation, error) {
	facts, err := uc.LoadFacts(ctx, user)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return domain.Evaluate(facts), nil
}

// Apply persists an evaluation against the version the user was read at.
func (uc *PointsUseCase) Apply(ctx context.Context, user *domain.User, ev domain.Evaluation) error {
	upd := ev.Update(uc.now().UTC())
	if err := uc.stores.Users.ApplyPoints(ctx, user.ID, user.PointsVersion, upd); err != nil {
		return err
	}

	user.Points = upd.Points
	user.EnrolledCourses = upd.EnrolledCourses
	user.CompletedCourses = upd.CompletedCourses
	user.Breakdown = upd.Breakdown
	user.PointsVersion++
	user.PointsUpdatedAt = &upd.UpdatedAt

	uc.invalidate(ctx, user.ID)
	return nil
}

// recompute evaluates and applies, re-reading facts when another writer got
// in between. It returns the user as stored before the write.
func (uc *PointsUseCase) recompute(ctx context.Context, userID uuid.UUID) (domain.User, domain.Evaluation, error) {
	var lastErr error
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		user, ev, err := uc.Evaluate(ctx, userID)
		if err != nil {
			return domain.User{}, domain.Evaluation{}, err
		}
		before := *user

		err = uc.Apply(ctx, user, ev)
		if err == nil {
			return before, ev, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return domain.User{}, domain.Evaluation{}, err
		}
		lastErr = err
	}
	return domain.User{}, domain.Evaluation{}, lastErr
}

// Calculate recomputes the caller's points and stores the result.
func (uc *PointsUseCase) Calculate(ctx context.Context, userID uuid.UUID) (domain.Evaluation, error) {
	_, ev, err := uc.recompute(ctx, userID)
	return ev, err
}

// Summary returns the stored summary, read through the cache.
func (uc *PointsUseCase) Summary(ctx context.Context, userID uuid.UUID) (domain.PointsSummary, error) {
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, userID)
		if err != nil {
			uc.log.Warn("summary cache read failed", err, map[string]interface{}{"user_id": userID.String()})
		} else if cached != nil {
			return *cached, nil
		}
	}

	user, err := uc.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return domain.PointsSummary{}, err
	}
	summary := domain.SummaryOf(user)

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, summary); err != nil {
			uc.log.Warn("summary cache write failed", err, map[string]interface{}{"user_id": userID.String()})
		}
	}
	return summary, nil
}

type AwardResult struct {
	Award     *domain.PointAward `json:"award"`
	Points    int                `json:"points"`
	Scheduled bool               `json:"scheduled"`
}

// Award records an ad-hoc grant, credits it immediately and queues a
// correction so the stored breakdown catches up.
func (uc *PointsUseCase) Award(ctx context.Context, userID uuid.UUID, action string, points int, description string) (*AwardResult, error) {
	user, err := uc.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	award, err := domain.NewPointAward(user.ID, action, points, uc.maxAward, description, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := uc.stores.Awards.Create(ctx, award); err != nil {
		return nil, pkgerrors.Wrap(err, "create award")
	}
	if err := uc.stores.Users.AddPoints(ctx, user.ID, award.Points); err != nil {
		// The ledger row exists, so a correction will credit it.
		uc.schedule(user.ID, "award")
		return nil, pkgerrors.Wrap(err, "credit award")
	}
	uc.invalidate(ctx, user.ID)

	return &AwardResult{
		Award:     award,
		Points:    user.Points + award.Points,
		Scheduled: uc.schedule(user.ID, "award"),
	}, nil
}

type StreakResult struct {
	Streak    int                 `json:"streak"`
	Action    domain.StreakAction `json:"action"`
	Scheduled bool                `json:"scheduled"`
}

// RecordActivity advances the learning streak for today's activity.
func (uc *PointsUseCase) RecordActivity(ctx context.Context, userID uuid.UUID) (*StreakResult, error) {
	user, err := uc.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	streak, action := domain.AdvanceStreak(user.LearningStreak, user.LastActivityAt, now)
	res := &StreakResult{Streak: streak, Action: action}
	if action == domain.StreakUnchanged {
		return res, nil
	}

	if err := uc.stores.Users.UpdateStreak(ctx, user.ID, streak, now); err != nil {
		return nil, pkgerrors.Wrap(err, "update streak")
	}
	uc.invalidate(ctx, user.ID)
	res.Scheduled = uc.schedule(user.ID, "streak")
	return res, nil
}

func (uc *PointsUseCase) schedule(userID uuid.UUID, reason string) bool {
	if uc.scheduler == nil {
		return false
	}
	if err := uc.scheduler.Enqueue(userID); err != nil {
		uc.log.Warn("background correction not scheduled", err, map[string]interface{}{
			"user_id": userID.String(),
			"reason":  reason,
		})
		return false
	}
	return true
}

func (uc *PointsUseCase) invalidate(ctx context.Context, userID uuid.UUID) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, userID); err != nil {
		uc.log.Warn("summary cache invalidation failed", err, map[string]interface{}{"user_id": userID.String()})
	}
}
