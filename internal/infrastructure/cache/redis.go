package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/jhubafrica/points-service/internal/domain"
)

func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, pkgerrors.Wrapf(err, "ping redis at %s", addr)
	}
	return client, nil
}

// === SUMMARY CACHE (cache-aside, invalidated on every write) ===

// SummaryCache keeps stored point summaries as JSON under points:summary:<id>.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(userID uuid.UUID) string {
	return "points:summary:" + userID.String()
}

func (c *SummaryCache) Get(ctx context.Context, userID uuid.UUID) (*domain.PointsSummary, error) {
	val, err := c.client.Get(ctx, summaryKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s domain.PointsSummary
	if err := json.Unmarshal(val, &s); err != nil {
		// a corrupt entry is treated as a miss and overwritten on the next Set
		return nil, nil
	}
	return &s, nil
}

func (c *SummaryCache) Set(ctx context.Context, summary domain.PointsSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(summary.UserID), data, c.ttl).Err()
}

func (c *SummaryCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, summaryKey(userID)).Err()
}

// === JOB CURSORS ===

// CursorStore checkpoints resumable jobs under points:jobs:<job>:cursor.
// Cursors do not expire.
type CursorStore struct {
	client *redis.Client
}

func NewCursorStore(client *redis.Client) *CursorStore {
	return &CursorStore{client: client}
}

func cursorKey(job string) string {
	return "points:jobs:" + job + ":cursor"
}

func (s *CursorStore) Load(ctx context.Context, job string) (uuid.UUID, bool, error) {
	val, err := s.client.Get(ctx, cursorKey(job)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, pkgerrors.Wrapf(err, "cursor %s", job)
	}
	return id, true, nil
}

func (s *CursorStore) Save(ctx context.Context, job string, last uuid.UUID) error {
	return s.client.Set(ctx, cursorKey(job), last.String(), 0).Err()
}

func (s *CursorStore) Clear(ctx context.Context, job string) error {
	return s.client.Del(ctx, cursorKey(job)).Err()
}
