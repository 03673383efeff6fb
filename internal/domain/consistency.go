package domain

import "github.com/google/uuid"

type InconsistencyType string

const (
	InconsistencyPointsMismatch     InconsistencyType = "points_mismatch"
	InconsistencyOrphanedEnrollment InconsistencyType = "orphaned_enrollment"
	InconsistencyEnrollmentCount    InconsistencyType = "enrollment_count_mismatch"
	InconsistencyDanglingReferral   InconsistencyType = "dangling_referral"
)

type Inconsistency struct {
	Type         InconsistencyType `json:"type"`
	UserID       *uuid.UUID        `json:"userId,omitempty"`
	EnrollmentID *uuid.UUID        `json:"enrollmentId,omitempty"`
	Expected     int64             `json:"expected"`
	Actual       int64             `json:"actual"`
	Message      string            `json:"message"`
}

// ConsistencyReport is produced by the auditor. It never implies a write.
type ConsistencyReport struct {
	IsConsistent     bool            `json:"isConsistent"`
	TotalUsers       int             `json:"totalUsers"`
	TotalEnrollments int64           `json:"totalEnrollments"`
	TotalReferrals   int64           `json:"totalReferrals"`
	Inconsistencies  []Inconsistency `json:"inconsistencies"`
}

func NewConsistencyReport() *ConsistencyReport {
	return &ConsistencyReport{IsConsistent: true, Inconsistencies: []Inconsistency{}}
}

func (r *ConsistencyReport) Add(i Inconsistency) {
	r.Inconsistencies = append(r.Inconsistencies, i)
	r.IsConsistent = false
}

// Count returns how many inconsistencies of type t were found.
func (r *ConsistencyReport) Count(t InconsistencyType) int {
	n := 0
	for _, i := range r.Inconsistencies {
		if i.Type == t {
			n++
		}
	}
	return n
}

// CorrectionChanges flags which groups of stored data a correction changed.
type CorrectionChanges struct {
	Points       bool `json:"points"`
	CourseCounts bool `json:"courseCounts"`
	ReferralData bool `json:"referralData"`
	ProfileData  bool `json:"profileData"`
}

func (c CorrectionChanges) Count() int {
	n := 0
	for _, changed := range []bool{c.Points, c.CourseCounts, c.ReferralData, c.ProfileData} {
		if changed {
			n++
		}
	}
	return n
}

// DiffStored compares what was stored before a correction with a fresh
// evaluation.
func DiffStored(before *User, after Evaluation) CorrectionChanges {
	return CorrectionChanges{
		Points: before.Points != after.TotalPoints,
		CourseCounts: before.EnrolledCourses != after.EnrolledCourses ||
			before.CompletedCourses != after.CompletedCourses,
		ReferralData: before.Breakdown.Referrals != after.Breakdown.Referrals,
		ProfileData: before.Breakdown.EmailVerification != after.Breakdown.EmailVerification ||
			before.Breakdown.ProfileCompletion != after.Breakdown.ProfileCompletion,
	}
}

// UserCorrection is the result slot for one user in a correction run.
type UserCorrection struct {
	UserID         uuid.UUID         `json:"userId"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	PreviousPoints int               `json:"previousPoints"`
	Points         int               `json:"points"`
	Changes        CorrectionChanges `json:"changes"`
	Corrections    int               `json:"corrections"`
}

// BatchCorrection aggregates a correct-all run.
type BatchCorrection struct {
	TotalUsers       int              `json:"totalUsers"`
	ProcessedUsers   int              `json:"processedUsers"`
	UsersCorrected   int              `json:"usersCorrected"`
	TotalCorrections int              `json:"totalCorrections"`
	FailedUsers      int              `json:"failedUsers"`
	SkippedUsers     int64            `json:"skippedUsers"`
	ResumedAfter     *uuid.UUID       `json:"resumedAfter,omitempty"`
	Results          []UserCorrection `json:"results"`
}

func (b *BatchCorrection) Record(c UserCorrection) {
	b.ProcessedUsers++
	b.Results = append(b.Results, c)
	if !c.Success {
		b.FailedUsers++
		return
	}
	if c.Corrections > 0 {
		b.UsersCorrected++
		b.TotalCorrections += c.Corrections
	}
}

// AutoCorrection reports an auto-correct run: cleanup, audit, repair, audit.
type AutoCorrection struct {
	OrphansRemoved int64              `json:"orphansRemoved"`
	Before         *ConsistencyReport `json:"before"`
	Correction     *BatchCorrection   `json:"correction,omitempty"`
	After          *ConsistencyReport `json:"after"`
}
