package domain

import (
	"time"

	"github.com/google/uuid"
)

// Point values of the gamification rules.
const (
	PointsPerEnrollment       = 100
	PointsPerCompletion       = 500
	PointsPerApprovedInterest = 50
	PointsPerStreakDay        = 10
	MaxStreakPoints           = 1000
	PointsPerAchievement      = 200
	PointsPerReferral         = 50
	EmailVerificationPoints   = 25
	ProfileCompletionPoints   = 25
)

// Facts is an immutable snapshot of everything the rules read for one user.
type Facts struct {
	UserID            uuid.UUID
	Enrollments       EnrollmentCounts
	ApprovedInterests int
	LearningStreak    int
	Achievements      int
	Referrals         int
	EmailVerified     bool
	ProfileComplete   bool
	AwardedPoints     int
}

// PointsBreakdown is the per-rule contribution to a user's total.
type PointsBreakdown struct {
	Enrollment        int `json:"enrollment"`
	Completion        int `json:"completion"`
	Activity          int `json:"activity"`
	Streak            int `json:"streak"`
	Achievements      int `json:"achievements"`
	Referrals         int `json:"referrals"`
	EmailVerification int `json:"emailVerification"`
	ProfileCompletion int `json:"profileCompletion"`
	Bonus             int `json:"bonus"`
}

func (b PointsBreakdown) Total() int {
	return b.Enrollment + b.Completion + b.Activity + b.Streak + b.Achievements +
		b.Referrals + b.EmailVerification + b.ProfileCompletion + b.Bonus
}

// Evaluation is the result of running the rules over a Facts snapshot.
type Evaluation struct {
	UserID           uuid.UUID       `json:"userId"`
	TotalPoints      int             `json:"totalPoints"`
	Breakdown        PointsBreakdown `json:"breakdown"`
	EnrolledCourses  int             `json:"enrolledCourses"`
	CompletedCourses int             `json:"completedCourses"`
}

// Evaluate derives the point total and denormalized counters from facts.
// It has no side effects.
func Evaluate(f Facts) Evaluation {
	b := PointsBreakdown{
		Enrollment:   f.Enrollments.Enrolled() * PointsPerEnrollment,
		Completion:   f.Enrollments.Completed * PointsPerCompletion,
		Activity:     nonNegative(f.ApprovedInterests) * PointsPerApprovedInterest,
		Streak:       streakPoints(f.LearningStreak),
		Achievements: nonNegative(f.Achievements) * PointsPerAchievement,
		Referrals:    nonNegative(f.Referrals) * PointsPerReferral,
		Bonus:        nonNegative(f.AwardedPoints),
	}
	if f.EmailVerified {
		b.EmailVerification = EmailVerificationPoints
	}
	if f.ProfileComplete {
		b.ProfileCompletion = ProfileCompletionPoints
	}
	return Evaluation{
		UserID:           f.UserID,
		TotalPoints:      b.Total(),
		Breakdown:        b,
		EnrolledCourses:  f.Enrollments.Enrolled(),
		CompletedCourses: f.Enrollments.Completed,
	}
}

func streakPoints(days int) int {
	p := nonNegative(days) * PointsPerStreakDay
	if p > MaxStreakPoints {
		return MaxStreakPoints
	}
	return p
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// PointsUpdate is what the writer persists for one user.
type PointsUpdate struct {
	Points           int
	EnrolledCourses  int
	CompletedCourses int
	Breakdown        PointsBreakdown
	UpdatedAt        time.Time
}

func (e Evaluation) Update(now time.Time) PointsUpdate {
	return PointsUpdate{
		Points:           e.TotalPoints,
		EnrolledCourses:  e.EnrolledCourses,
		CompletedCourses: e.CompletedCourses,
		Breakdown:        e.Breakdown,
		UpdatedAt:        now,
	}
}

// PointsSummary is the stored (not recomputed) view of a user's points.
type PointsSummary struct {
	UserID           uuid.UUID       `json:"userId"`
	Points           int             `json:"points"`
	EnrolledCourses  int             `json:"enrolledCourses"`
	CompletedCourses int             `json:"completedCourses"`
	LearningStreak   int             `json:"learningStreak"`
	Breakdown        PointsBreakdown `json:"breakdown"`
	UpdatedAt        *time.Time      `json:"updatedAt,omitempty"`
}

func SummaryOf(u *User) PointsSummary {
	return PointsSummary{
		UserID:           u.ID,
		Points:           u.Points,
		EnrolledCourses:  u.EnrolledCourses,
		CompletedCourses: u.CompletedCourses,
		LearningStreak:   u.LearningStreak,
		Breakdown:        u.Breakdown,
		UpdatedAt:        u.PointsUpdatedAt,
	}
}
