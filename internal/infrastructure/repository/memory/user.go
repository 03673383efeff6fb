package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/domain"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) ListEligible(ctx context.Context, after uuid.UUID, limit int) ([]domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]domain.User, 0)
	for _, u := range r.db.users {
		if u.Eligible() && lessID(after, u.ID) {
			users = append(users, *u)
		}
	}
	sortUsers(users)
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *UserRepository) CountIneligible(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, u := range r.db.users {
		if !u.Eligible() {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) CountAchievements(ctx context.Context, userID uuid.UUID) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n := 0
	for _, a := range r.db.achievements {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) CountReferrals(ctx context.Context, referrerID uuid.UUID) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n := 0
	for _, u := range r.db.users {
		if u.ReferredBy != nil && *u.ReferredBy == referrerID {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) CountAllReferrals(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, u := range r.db.users {
		if u.ReferredBy != nil {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) ListDanglingReferrals(ctx context.Context) ([]domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]domain.User, 0)
	for _, u := range r.db.users {
		if u.ReferredBy == nil {
			continue
		}
		if _, ok := r.db.users[*u.ReferredBy]; !ok {
			users = append(users, *u)
		}
	}
	sortUsers(users)
	return users, nil
}

func (r *UserRepository) ApplyPoints(ctx context.Context, id uuid.UUID, version int64, upd domain.PointsUpdate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.PointsVersion != version {
		return domain.ErrVersionConflict
	}
	at := upd.UpdatedAt
	u.Points = upd.Points
	u.EnrolledCourses = upd.EnrolledCourses
	u.CompletedCourses = upd.CompletedCourses
	u.Breakdown = upd.Breakdown
	u.PointsUpdatedAt = &at
	u.PointsVersion++
	return nil
}

func (r *UserRepository) AddPoints(ctx context.Context, id uuid.UUID, delta int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Points += delta
	u.PointsVersion++
	return nil
}

func (r *UserRepository) UpdateStreak(ctx context.Context, id uuid.UUID, streak int, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LearningStreak = streak
	u.LastActivityAt = &at
	u.PointsVersion++
	return nil
}
