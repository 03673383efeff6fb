package memory

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/domain"
)

// DB is an in-process fact store for development and tests. All tables share
// one lock.
type DB struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*domain.User
	achievements map[uuid.UUID]*domain.Achievement
	enrollments  map[uuid.UUID]*domain.Enrollment
	interests    map[uuid.UUID]*domain.CourseInterest
	awards       map[uuid.UUID]*domain.PointAward
	courses      map[uuid.UUID]*domain.Course
	waitlists    map[uuid.UUID]*domain.WaitlistEntry
}

func NewDB() *DB {
	return &DB{
		users:        map[uuid.UUID]*domain.User{},
		achievements: map[uuid.UUID]*domain.Achievement{},
		enrollments:  map[uuid.UUID]*domain.Enrollment{},
		interests:    map[uuid.UUID]*domain.CourseInterest{},
		awards:       map[uuid.UUID]*domain.PointAward{},
		courses:      map[uuid.UUID]*domain.Course{},
		waitlists:    map[uuid.UUID]*domain.WaitlistEntry{},
	}
}

// Stores returns every repository backed by db.
func (db *DB) Stores() usecase.Stores {
	return usecase.Stores{
		Users:       NewUserRepository(db),
		Enrollments: NewEnrollmentRepository(db),
		Interests:   NewInterestRepository(db),
		Awards:      NewAwardRepository(db),
		Courses:     NewCourseRepository(db),
		Waitlists:   NewWaitlistRepository(db),
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// The seed methods insert facts owned by other services.

func (db *DB) PutUser(u domain.User) domain.User {
	db.mu.Lock()
	defer db.mu.Unlock()

	ensureID(&u.ID)
	if u.Status == "" {
		u.Status = domain.UserStatusActive
	}
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	u.Achievements = nil
	db.users[u.ID] = &u
	return u
}

// DeleteUser removes the user but keeps their enrollments, the way a hard
// delete in the CRUD layer leaves orphans behind.
func (db *DB) DeleteUser(id uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.users, id)
}

func (db *DB) PutAchievement(a domain.Achievement) domain.Achievement {
	db.mu.Lock()
	defer db.mu.Unlock()
	ensureID(&a.ID)
	db.achievements[a.ID] = &a
	return a
}

func (db *DB) PutEnrollment(e domain.Enrollment) domain.Enrollment {
	db.mu.Lock()
	defer db.mu.Unlock()
	ensureID(&e.ID)
	if e.Status == "" {
		e.Status = domain.EnrollmentActive
	}
	db.enrollments[e.ID] = &e
	return e
}

func (db *DB) PutInterest(i domain.CourseInterest) domain.CourseInterest {
	db.mu.Lock()
	defer db.mu.Unlock()
	ensureID(&i.ID)
	if i.Status == "" {
		i.Status = domain.InterestPending
	}
	db.interests[i.ID] = &i
	return i
}

func (db *DB) PutCourse(c domain.Course) domain.Course {
	db.mu.Lock()
	defer db.mu.Unlock()
	ensureID(&c.ID)
	if c.Status == "" {
		c.Status = domain.CourseActive
	}
	if c.CohortStatus == "" {
		c.CohortStatus = domain.CohortPlanning
	}
	db.courses[c.ID] = &c
	return c
}

func (db *DB) PutWaitlistEntry(w domain.WaitlistEntry) domain.WaitlistEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	ensureID(&w.ID)
	if w.Status == "" {
		w.Status = domain.WaitlistWaiting
	}
	db.waitlists[w.ID] = &w
	return w
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool { return lessID(users[i].ID, users[j].ID) })
}
