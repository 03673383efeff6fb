package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/domain"
)

type InterestRepository struct {
	db *DB
}

func NewInterestRepository(db *DB) *InterestRepository {
	return &InterestRepository{db: db}
}

func (r *InterestRepository) CountApprovedByEmail(ctx context.Context, email string) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n := 0
	for _, i := range r.db.interests {
		if i.Status == domain.InterestApproved && strings.EqualFold(i.Email, email) {
			n++
		}
	}
	return n, nil
}

type AwardRepository struct {
	db *DB
}

func NewAwardRepository(db *DB) *AwardRepository {
	return &AwardRepository{db: db}
}

func (r *AwardRepository) Create(ctx context.Context, award *domain.PointAward) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	ensureID(&award.ID)
	cp := *award
	r.db.awards[cp.ID] = &cp
	return nil
}

func (r *AwardRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	sum := 0
	for _, a := range r.db.awards {
		if a.UserID == userID {
			sum += a.Points
		}
	}
	return sum, nil
}

type CourseRepository struct {
	db *DB
}

func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CourseRepository) Save(ctx context.Context, course *domain.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	ensureID(&course.ID)
	course.UpdatedAt = time.Now().UTC()
	cp := *course
	r.db.courses[cp.ID] = &cp
	return nil
}

type WaitlistRepository struct {
	db *DB
}

func NewWaitlistRepository(db *DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

func (r *WaitlistRepository) CountWaiting(ctx context.Context, courseID uuid.UUID) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, w := range r.db.waitlists {
		if w.CourseID == courseID && w.Status == domain.WaitlistWaiting {
			n++
		}
	}
	return n, nil
}

func (r *WaitlistRepository) ListWaiting(ctx context.Context, courseID uuid.UUID) ([]domain.WaitlistEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	list := make([]domain.WaitlistEntry, 0)
	for _, w := range r.db.waitlists {
		if w.CourseID == courseID && w.Status == domain.WaitlistWaiting {
			list = append(list, *w)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Position != list[j].Position {
			return list[i].Position < list[j].Position
		}
		return lessID(list[i].ID, list[j].ID)
	})
	return list, nil
}

func (r *WaitlistRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	w, ok := r.db.waitlists[id]
	if !ok {
		return domain.ErrWaitlistNotFound
	}
	w.Status = domain.WaitlistNotified
	w.NotifiedAt = &at
	return nil
}
