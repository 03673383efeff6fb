package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jhubafrica/points-service/internal/domain"
)

type InterestRepository struct {
	db *gorm.DB
}

func NewInterestRepository(db *gorm.DB) *InterestRepository {
	return &InterestRepository{db: db}
}

func (r *InterestRepository) CountApprovedByEmail(ctx context.Context, email string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.CourseInterest{}).
		Where("LOWER(email) = LOWER(?) AND status = ?", email, domain.InterestApproved).
		Count(&count).Error
	return int(count), err
}

type AwardRepository struct {
	db *gorm.DB
}

func NewAwardRepository(db *gorm.DB) *AwardRepository {
	return &AwardRepository{db: db}
}

func (r *AwardRepository) Create(ctx context.Context, award *domain.PointAward) error {
	if award.ID == uuid.Nil {
		award.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(award).Error
}

func (r *AwardRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).Model(&domain.PointAward{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Save(ctx context.Context, course *domain.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(course).Error
}

type WaitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

func (r *WaitlistRepository) waiting(ctx context.Context, courseID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.WaitlistEntry{}).
		Where("course_id = ? AND status = ?", courseID, domain.WaitlistWaiting)
}

func (r *WaitlistRepository) CountWaiting(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.waiting(ctx, courseID).Count(&count).Error
	return count, err
}

func (r *WaitlistRepository) ListWaiting(ctx context.Context, courseID uuid.UUID) ([]domain.WaitlistEntry, error) {
	var entries []domain.WaitlistEntry
	err := r.waiting(ctx, courseID).Order("position asc").Find(&entries).Error
	return entries, err
}

func (r *WaitlistRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.WaitlistEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      domain.WaitlistNotified,
			"notified_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrWaitlistNotFound
	}
	return nil
}
