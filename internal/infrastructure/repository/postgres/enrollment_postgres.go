package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jhubafrica/points-service/internal/domain"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) CountByStudent(ctx context.Context, studentID uuid.UUID) (domain.EnrollmentCounts, error) {
	var rows []struct {
		Status domain.EnrollmentStatus
		N      int
	}
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Select("status, COUNT(*) AS n").
		Where("student_id = ? AND status IN ?", studentID, domain.SeatStatuses).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return domain.EnrollmentCounts{}, err
	}

	var counts domain.EnrollmentCounts
	for _, row := range rows {
		switch row.Status {
		case domain.EnrollmentActive:
			counts.Active = row.N
		case domain.EnrollmentCompleted:
			counts.Completed = row.N
		}
	}
	return counts, nil
}

func (r *EnrollmentRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) CountSeated(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("course_id = ? AND status IN ?", courseID, domain.SeatStatuses).
		Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) orphaned(ctx context.Context) *gorm.DB {
	students := r.db.Model(&domain.User{}).Select("id")
	return r.db.WithContext(ctx).Where("student_id NOT IN (?)", students)
}

func (r *EnrollmentRepository) ListOrphaned(ctx context.Context) ([]domain.Enrollment, error) {
	var enrollments []domain.Enrollment
	err := r.orphaned(ctx).Order("id asc").Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	res := r.orphaned(ctx).Delete(&domain.Enrollment{})
	return res.RowsAffected, res.Error
}
