package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jhubafrica/points-service/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) eligible(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email_verified = ? AND status = ?", true, domain.UserStatusActive)
}

func (r *UserRepository) ListEligible(ctx context.Context, after uuid.UUID, limit int) ([]domain.User, error) {
	var users []domain.User
	err := r.eligible(ctx).
		Where("id > ?", after).
		Order("id asc").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *UserRepository) CountIneligible(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email_verified = ? OR status <> ?", false, domain.UserStatusActive).
		Count(&count).Error
	return count, err
}

func (r *UserRepository) CountAchievements(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Achievement{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return int(count), err
}

func (r *UserRepository) CountReferrals(ctx context.Context, referrerID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("referred_by = ?", referrerID).
		Count(&count).Error
	return int(count), err
}

func (r *UserRepository) CountAllReferrals(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("referred_by IS NOT NULL").
		Count(&count).Error
	return count, err
}

func (r *UserRepository) ListDanglingReferrals(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	existing := r.db.Model(&domain.User{}).Select("id")
	err := r.db.WithContext(ctx).
		Where("referred_by IS NOT NULL AND referred_by NOT IN (?)", existing).
		Order("id asc").
		Find(&users).Error
	return users, err
}

// === WRITES (each one bumps points_version) ===

// ApplyPoints is a compare-and-set on points_version.
func (r *UserRepository) ApplyPoints(ctx context.Context, id uuid.UUID, version int64, upd domain.PointsUpdate) error {
	b := upd.Breakdown
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND points_version = ?", id, version).
		Updates(map[string]interface{}{
			"points":                 upd.Points,
			"enrolled_courses":       upd.EnrolledCourses,
			"completed_courses":      upd.CompletedCourses,
			"pts_enrollment":         b.Enrollment,
			"pts_completion":         b.Completion,
			"pts_activity":           b.Activity,
			"pts_streak":             b.Streak,
			"pts_achievements":       b.Achievements,
			"pts_referrals":          b.Referrals,
			"pts_email_verification": b.EmailVerification,
			"pts_profile_completion": b.ProfileCompletion,
			"pts_bonus":              b.Bonus,
			"points_updated_at":      upd.UpdatedAt,
			"points_version":         gorm.Expr("points_version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *UserRepository) AddPoints(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"points":         gorm.Expr("points + ?", delta),
			"points_version": gorm.Expr("points_version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateStreak(ctx context.Context, id uuid.UUID, streak int, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"learning_streak":  streak,
			"last_activity_at": at,
			"points_version":   gorm.Expr("points_version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrUserNotFound
	}
	return domain.ErrVersionConflict
}
