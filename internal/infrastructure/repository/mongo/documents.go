package mongo

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jhubafrica/points-service/internal/domain"
)

// Documents keep ids as canonical uuid strings so range scans on _id follow
// the same order as the relational store.

type breakdownDoc struct {
	Enrollment        int `bson:"enrollment"`
	Completion        int `bson:"completion"`
	Activity          int `bson:"activity"`
	Streak            int `bson:"streak"`
	Achievements      int `bson:"achievements"`
	Referrals         int `bson:"referrals"`
	EmailVerification int `bson:"emailVerification"`
	ProfileCompletion int `bson:"profileCompletion"`
	Bonus             int `bson:"bonus"`
}

type achievementDoc struct {
	ID        string    `bson:"_id"`
	Code      string    `bson:"code"`
	Title     string    `bson:"title"`
	AwardedAt time.Time `bson:"awardedAt"`
}

type userDoc struct {
	ID               string           `bson:"_id"`
	Email            string           `bson:"email"`
	Username         string           `bson:"username,omitempty"`
	Role             string           `bson:"role"`
	Status           string           `bson:"status"`
	EmailVerified    bool             `bson:"emailVerified"`
	ProfileComplete  bool             `bson:"profileComplete"`
	ReferredBy       *string          `bson:"referredBy"`
	LearningStreak   int              `bson:"learningStreak"`
	LastActivityAt   *time.Time       `bson:"lastActivityAt,omitempty"`
	Points           int              `bson:"points"`
	EnrolledCourses  int              `bson:"enrolledCourses"`
	CompletedCourses int              `bson:"completedCourses"`
	Breakdown        breakdownDoc     `bson:"pointsBreakdown"`
	PointsVersion    int64            `bson:"pointsVersion"`
	PointsUpdatedAt  *time.Time       `bson:"pointsUpdatedAt,omitempty"`
	Achievements     []achievementDoc `bson:"achievements,omitempty"`
	CreatedAt        time.Time        `bson:"createdAt"`
	UpdatedAt        time.Time        `bson:"updatedAt"`
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	return id, errors.Wrapf(err, "bad document id %q", s)
}

func (d *userDoc) ToDomain() (*domain.User, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:               id,
		Email:            d.Email,
		Username:         d.Username,
		Role:             domain.UserRole(d.Role),
		Status:           domain.UserStatus(d.Status),
		EmailVerified:    d.EmailVerified,
		ProfileComplete:  d.ProfileComplete,
		LearningStreak:   d.LearningStreak,
		LastActivityAt:   d.LastActivityAt,
		Points:           d.Points,
		EnrolledCourses:  d.EnrolledCourses,
		CompletedCourses: d.CompletedCourses,
		Breakdown:        domain.PointsBreakdown(d.Breakdown),
		PointsVersion:    d.PointsVersion,
		PointsUpdatedAt:  d.PointsUpdatedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.ReferredBy != nil {
		ref, err := parseID(*d.ReferredBy)
		if err != nil {
			return nil, err
		}
		u.ReferredBy = &ref
	}
	return u, nil
}

func newUserDoc(u *domain.User) userDoc {
	d := userDoc{
		ID:               u.ID.String(),
		Email:            u.Email,
		Username:         u.Username,
		Role:             string(u.Role),
		Status:           string(u.Status),
		EmailVerified:    u.EmailVerified,
		ProfileComplete:  u.ProfileComplete,
		LearningStreak:   u.LearningStreak,
		LastActivityAt:   u.LastActivityAt,
		Points:           u.Points,
		EnrolledCourses:  u.EnrolledCourses,
		CompletedCourses: u.CompletedCourses,
		Breakdown:        breakdownDoc(u.Breakdown),
		PointsVersion:    u.PointsVersion,
		PointsUpdatedAt:  u.PointsUpdatedAt,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if u.ReferredBy != nil {
		ref := u.ReferredBy.String()
		d.ReferredBy = &ref
	}
	for _, a := range u.Achievements {
		d.Achievements = append(d.Achievements, achievementDoc{ID: a.ID.String(), Code: a.Code, Title: a.Title, AwardedAt: a.AwardedAt})
	}
	return d
}

type enrollmentDoc struct {
	ID          string     `bson:"_id"`
	StudentID   string     `bson:"studentId"`
	CourseID    string     `bson:"courseId"`
	Status      string     `bson:"status"`
	EnrolledAt  time.Time  `bson:"enrolledAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
}

func (d *enrollmentDoc) ToDomain() (domain.Enrollment, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	student, err := parseID(d.StudentID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	course, err := parseID(d.CourseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	return domain.Enrollment{
		ID:          id,
		StudentID:   student,
		CourseID:    course,
		Status:      domain.EnrollmentStatus(d.Status),
		EnrolledAt:  d.EnrolledAt,
		CompletedAt: d.CompletedAt,
	}, nil
}

type awardDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"userId"`
	Action      string    `bson:"action"`
	Points      int       `bson:"points"`
	Description string    `bson:"description,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}

type courseDoc struct {
	ID                   string     `bson:"_id"`
	Title                string     `bson:"title"`
	Category             string     `bson:"category"`
	Status               string     `bson:"status"`
	CohortStatus         string     `bson:"cohortStatus"`
	CohortReadyThreshold int        `bson:"cohortReadyThreshold"`
	MaxStudents          int        `bson:"maxStudents"`
	WaitlistEnabled      bool       `bson:"waitlistEnabled"`
	CohortStartDate      *time.Time `bson:"cohortStartDate"`
	CohortEndDate        *time.Time `bson:"cohortEndDate"`
	CreatedAt            time.Time  `bson:"createdAt"`
	UpdatedAt            time.Time  `bson:"updatedAt"`
}

func (d *courseDoc) ToDomain() (*domain.Course, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Course{
		ID:                   id,
		Title:                d.Title,
		Category:             d.Category,
		Status:               domain.CourseStatus(d.Status),
		CohortStatus:         domain.CohortStatus(d.CohortStatus),
		CohortReadyThreshold: d.CohortReadyThreshold,
		MaxStudents:          d.MaxStudents,
		WaitlistEnabled:      d.WaitlistEnabled,
		CohortStartDate:      d.CohortStartDate,
		CohortEndDate:        d.CohortEndDate,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}, nil
}

func newCourseDoc(c *domain.Course) courseDoc {
	return courseDoc{
		ID:                   c.ID.String(),
		Title:                c.Title,
		Category:             c.Category,
		Status:               string(c.Status),
		CohortStatus:         string(c.CohortStatus),
		CohortReadyThreshold: c.CohortReadyThreshold,
		MaxStudents:          c.MaxStudents,
		WaitlistEnabled:      c.WaitlistEnabled,
		CohortStartDate:      c.CohortStartDate,
		CohortEndDate:        c.CohortEndDate,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

type waitlistDoc struct {
	ID         string     `bson:"_id"`
	UserID     string     `bson:"userId"`
	CourseID   string     `bson:"courseId"`
	Status     string     `bson:"status"`
	Position   int        `bson:"position"`
	NotifiedAt *time.Time `bson:"notifiedAt,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt"`
}

func (d *waitlistDoc) ToDomain() (domain.WaitlistEntry, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	user, err := parseID(d.UserID)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	course, err := parseID(d.CourseID)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	return domain.WaitlistEntry{
		ID:         id,
		UserID:     user,
		CourseID:   course,
		Status:     domain.WaitlistStatus(d.Status),
		Position:   d.Position,
		NotifiedAt: d.NotifiedAt,
		CreatedAt:  d.CreatedAt,
	}, nil
}
