package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhubafrica/points-service/internal/domain"
)

func TestWaitlistRepository_ListWaitingByPosition(t *testing.T) {
	db := NewDB()
	courseID := uuid.New()
	for _, pos := range []int{3, 1, 5, 2, 4} {
		db.PutWaitlistEntry(domain.WaitlistEntry{UserID: uuid.New(), CourseID: courseID, Position: pos})
	}
	db.PutWaitlistEntry(domain.WaitlistEntry{UserID: uuid.New(), CourseID: courseID, Position: 0, Status: domain.WaitlistCancelled})
	db.PutWaitlistEntry(domain.WaitlistEntry{UserID: uuid.New(), CourseID: uuid.New(), Position: 1})

	list, err := NewWaitlistRepository(db).ListWaiting(context.Background(), courseID)
	require.NoError(t, err)

	var positions []int
	for _, w := range list {
		positions = append(positions, w.Position)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, positions)
}
