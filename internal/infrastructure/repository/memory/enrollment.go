package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/domain"
)

type EnrollmentRepository struct {
	db *DB
}

func NewEnrollmentRepository(db *DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) CountByStudent(ctx context.Context, studentID uuid.UUID) (domain.EnrollmentCounts, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var list []domain.Enrollment
	for _, e := range r.db.enrollments {
		if e.StudentID == studentID {
			list = append(list, *e)
		}
	}
	return domain.Tally(list), nil
}

func (r *EnrollmentRepository) CountAll(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.enrollments)), nil
}

func (r *EnrollmentRepository) CountSeated(ctx context.Context, courseID uuid.UUID) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, e := range r.db.enrollments {
		if e.CourseID == courseID && e.Status.CountsTowardEnrolled() {
			n++
		}
	}
	return n, nil
}

func (r *EnrollmentRepository) ListOrphaned(ctx context.Context) ([]domain.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.orphans(), nil
}

func (r *EnrollmentRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orphans := r.orphans()
	for _, e := range orphans {
		delete(r.db.enrollments, e.ID)
	}
	return int64(len(orphans)), nil
}

// orphans expects the caller to hold the lock.
func (r *EnrollmentRepository) orphans() []domain.Enrollment {
	list := make([]domain.Enrollment, 0)
	for _, e := range r.db.enrollments {
		if _, ok := r.db.users[e.StudentID]; !ok {
			list = append(list, *e)
		}
	}
	return list
}
