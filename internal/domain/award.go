package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PointAward is an ad-hoc grant. Awards are part of the fact set: the
// evaluator sums them into the bonus term, so corrections keep them.
type PointAward struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	Action      string    `gorm:"size:64;not null" json:"action"`
	Points      int       `gorm:"not null" json:"points"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewPointAward validates the grant against the configured ceiling. A
// non-positive ceiling rejects every grant.
func NewPointAward(userID uuid.UUID, action string, points, maxPoints int, description string, now time.Time) (*PointAward, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, ErrInvalidAward
	}
	if points <= 0 || points > maxPoints {
		return nil, ErrInvalidAward
	}
	return &PointAward{
		ID:          uuid.New(),
		UserID:      userID,
		Action:      action,
		Points:      points,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	}, nil
}
