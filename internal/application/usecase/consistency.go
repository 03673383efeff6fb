package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

// CorrectAllJob names the cursor of the resumable correct-all run.
const CorrectAllJob = "correct-all"

const defaultBatchSize = 100

type ConsistencyOptions struct {
	BatchSize int
}

type ConsistencyUseCase struct {
	points    *PointsUseCase
	stores    Stores
	cursors   CursorStore
	log       logger.Logger
	batchSize int
}

func NewConsistencyUseCase(points *PointsUseCase, stores Stores, cursors CursorStore, log logger.Logger, opts ConsistencyOptions) *ConsistencyUseCase {
	size := opts.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	return &ConsistencyUseCase{
		points:    points,
		stores:    stores,
		cursors:   cursors,
		log:       log,
		batchSize: size,
	}
}

// eachEligible walks verified, active users in id order, one page at a time.
func (uc *ConsistencyUseCase) eachEligible(ctx context.Context, after uuid.UUID, fn func(user *domain.User) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := uc.stores.Users.ListEligible(ctx, after, uc.batchSize)
		if err != nil {
			return pkgerrors.Wrap(err, "list eligible users")
		}
		for i := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(&page[i]); err != nil {
				return err
			}
			after = page[i].ID
		}
		if len(page) < uc.batchSize {
			return nil
		}
	}
}

// ValidateSystemConsistency audits stored points against a fresh evaluation
// and checks structural integrity. It never writes.
func (uc *ConsistencyUseCase) ValidateSystemConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	report := domain.NewConsistencyReport()

	var storedEnrolled, expectedEnrolled int64
	err := uc.eachEligible(ctx, uuid.Nil, func(user *domain.User) error {
		ev, err := uc.points.evaluateUser(ctx, user)
		if err != nil {
			return pkgerrors.Wrapf(err, "evaluate user %s", user.ID)
		}
		report.TotalUsers++
		storedEnrolled += int64(user.EnrolledCourses)
		expectedEnrolled += int64(ev.EnrolledCourses)

		if user.Points != ev.TotalPoints {
			id := user.ID
			report.Add(domain.Inconsistency{
				Type:     domain.InconsistencyPointsMismatch,
				UserID:   &id,
				Expected: int64(ev.TotalPoints),
				Actual:   int64(user.Points),
				Message:  fmt.Sprintf("user %s has %d points, expected %d", user.ID, user.Points, ev.TotalPoints),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orphans, err := uc.stores.Enrollments.ListOrphaned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list orphaned enrollments")
	}
	for _, e := range orphans {
		enrollmentID, studentID := e.ID, e.StudentID
		report.Add(domain.Inconsistency{
			Type:         domain.InconsistencyOrphanedEnrollment,
			UserID:       &studentID,
			EnrollmentID: &enrollmentID,
			Message:      fmt.Sprintf("enrollment %s references missing student %s", e.ID, e.StudentID),
		})
	}

	if storedEnrolled != expectedEnrolled {
		report.Add(domain.Inconsistency{
			Type:     domain.InconsistencyEnrollmentCount,
			Expected: expectedEnrolled,
			Actual:   storedEnrolled,
			Message:  fmt.Sprintf("users report %d enrollments, enrollment records give %d", storedEnrolled, expectedEnrolled),
		})
	}

	dangling, err := uc.stores.Users.ListDanglingReferrals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list dangling referrals")
	}
	for _, u := range dangling {
		id := u.ID
		report.Add(domain.Inconsistency{
			Type:    domain.InconsistencyDanglingReferral,
			UserID:  &id,
			Message: fmt.Sprintf("user %s was referred by a missing user %s", u.ID, u.ReferredBy),
		})
	}

	if report.TotalEnrollments, err = uc.stores.Enrollments.CountAll(ctx); err != nil {
		return nil, pkgerrors.Wrap(err, "count enrollments")
	}
	if report.TotalReferrals, err = uc.stores.Users.CountAllReferrals(ctx); err != nil {
		return nil, pkgerrors.Wrap(err, "count referrals")
	}
	return report, nil
}

// CorrectUserData recomputes and stores one user's derived data. The write
// always happens; Changes says what differed from what was stored.
func (uc *ConsistencyUseCase) CorrectUserData(ctx context.Context, userID uuid.UUID) (*domain.UserCorrection, error) {
	before, ev, err := uc.points.recompute(ctx, userID)
	if err != nil {
		return nil, err
	}
	changes := domain.DiffStored(&before, ev)
	return &domain.UserCorrection{
		UserID:         userID,
		Success:        true,
		PreviousPoints: before.Points,
		Points:         ev.TotalPoints,
		Changes:        changes,
		Corrections:    changes.Count(),
	}, nil
}

type CorrectAllOptions struct {
	// Resume continues after the last checkpointed user instead of starting
	// over.
	Resume bool
}

// CorrectAllUsersData corrects every eligible user in id order. A failing
// user is recorded and skipped. Progress is checkpointed after each user.
func (uc *ConsistencyUseCase) CorrectAllUsersData(ctx context.Context, opts CorrectAllOptions) (*domain.BatchCorrection, error) {
	result := &domain.BatchCorrection{Results: []domain.UserCorrection{}}

	skipped, err := uc.stores.Users.CountIneligible(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "count skipped users")
	}
	result.SkippedUsers = skipped

	start := uuid.Nil
	if opts.Resume {
		if last, ok := uc.loadCursor(ctx); ok {
			start = last
			result.ResumedAfter = &last
		}
	} else {
		uc.clearCursor(ctx)
	}

	err = uc.eachEligible(ctx, start, func(user *domain.User) error {
		result.TotalUsers++
		correction, err := uc.CorrectUserData(ctx, user.ID)
		if err != nil {
			uc.log.Error("user correction failed", err, map[string]interface{}{"user_id": user.ID.String()})
			correction = &domain.UserCorrection{UserID: user.ID, Success: false, Error: err.Error()}
		}
		result.Record(*correction)
		uc.saveCursor(ctx, user.ID)
		return nil
	})
	if err != nil {
		return result, err
	}

	uc.clearCursor(ctx)
	uc.log.Info("correct-all finished", map[string]interface{}{
		"users":       result.TotalUsers,
		"corrected":   result.UsersCorrected,
		"corrections": result.TotalCorrections,
		"failed":      result.FailedUsers,
		"skipped":     result.SkippedUsers,
	})
	return result, nil
}

// CleanupOrphanedEnrollments hard-deletes enrollments whose student is gone.
func (uc *ConsistencyUseCase) CleanupOrphanedEnrollments(ctx context.Context) (int64, error) {
	n, err := uc.stores.Enrollments.DeleteOrphaned(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "delete orphaned enrollments")
	}
	if n > 0 {
		uc.log.Warn("orphaned enrollments removed", map[string]interface{}{"count": n})
	}
	return n, nil
}

// AutoCorrectSystem cleans up orphans, audits, repairs when needed and audits
// again.
func (uc *ConsistencyUseCase) AutoCorrectSystem(ctx context.Context) (*domain.AutoCorrection, error) {
	removed, err := uc.CleanupOrphanedEnrollments(ctx)
	if err != nil {
		return nil, err
	}
	before, err := uc.ValidateSystemConsistency(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.AutoCorrection{OrphansRemoved: removed, Before: before, After: before}
	if before.IsConsistent {
		return result, nil
	}

	if result.Correction, err = uc.CorrectAllUsersData(ctx, CorrectAllOptions{}); err != nil {
		return nil, err
	}
	if result.After, err = uc.ValidateSystemConsistency(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *ConsistencyUseCase) loadCursor(ctx context.Context) (uuid.UUID, bool) {
	if uc.cursors == nil {
		return uuid.Nil, false
	}
	last, ok, err := uc.cursors.Load(ctx, CorrectAllJob)
	if err != nil {
		uc.log.Warn("cursor read failed, starting from the first user", err)
		return uuid.Nil, false
	}
	return last, ok
}

func (uc *ConsistencyUseCase) saveCursor(ctx context.Context, last uuid.UUID) {
	if uc.cursors == nil {
		return
	}
	if err := uc.cursors.Save(ctx, CorrectAllJob, last); err != nil {
		uc.log.Warn("cursor checkpoint failed", err, map[string]interface{}{"user_id": last.String()})
	}
}

func (uc *ConsistencyUseCase) clearCursor(ctx context.Context) {
	if uc.cursors == nil {
		return
	}
	if err := uc.cursors.Clear(ctx, CorrectAllJob); err != nil {
		uc.log.Warn("cursor reset failed", err)
	}
}
