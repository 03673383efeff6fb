package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

var ErrClosed = errors.New("correction queue is closed")

// Corrector recomputes and stores one user's points.
type Corrector interface {
	CorrectUserData(ctx context.Context, userID uuid.UUID) (*domain.UserCorrection, error)
}

type Options struct {
	Workers    int
	Size       int
	MaxRetries int
	Backoff    time.Duration
}

// Stats are cumulative counters since the queue was created.
type Stats struct {
	Pending   int    `json:"pending"`
	Enqueued  uint64 `json:"enqueued"`
	Coalesced uint64 `json:"coalesced"`
	Dropped   uint64 `json:"dropped"`
	Succeeded uint64 `json:"succeeded"`
	Failed    uint64 `json:"failed"`
	Retried   uint64 `json:"retried"`
}

// Queue runs background corrections with bounded concurrency. A user already
// waiting in the queue is not added twice.
type Queue struct {
	corrector Corrector
	log       logger.Logger
	opts      Options

	mu      sync.Mutex
	items   []uuid.UUID
	pending map[uuid.UUID]struct{}
	closed  bool
	signal  chan struct{}

	group *errgroup.Group

	enqueued  atomic.Uint64
	coalesced atomic.Uint64
	dropped   atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	retried   atomic.Uint64
}

func New(corrector Corrector, log logger.Logger, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Queue{
		corrector: corrector,
		log:       log,
		opts:      opts,
		items:     make([]uuid.UUID, 0, opts.Size),
		pending:   make(map[uuid.UUID]struct{}, opts.Size),
		signal:    make(chan struct{}, 1),
	}
}

// Enqueue schedules a correction. It never blocks: a full queue returns
// domain.ErrQueueFull and the request is dropped.
func (q *Queue) Enqueue(userID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if _, ok := q.pending[userID]; ok {
		q.coalesced.Add(1)
		return nil
	}
	if len(q.items) >= q.opts.Size {
		q.dropped.Add(1)
		return domain.ErrQueueFull
	}

	q.items = append(q.items, userID)
	q.pending[userID] = struct{}{}
	q.enqueued.Add(1)
	q.notify()
	return nil
}

// notify expects q.mu to be held.
func (q *Queue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue) tryDequeue() (uuid.UUID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return uuid.Nil, false
	}
	id := q.items[0]
	q.items = q.items[1:]
	delete(q.pending, id)
	if len(q.items) > 0 && !q.closed {
		q.notify()
	}
	return id, true
}

func (q *Queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Start launches the workers. They stop when ctx is cancelled, or once the
// queue is closed and drained.
func (q *Queue) Start(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		g.Go(func() error {
			q.work(ctx)
			return nil
		})
	}
	q.mu.Lock()
	q.group = g
	q.mu.Unlock()
}

// Stop refuses new work, lets the workers finish what is queued and waits
// for them.
func (q *Queue) Stop() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.signal)
	}
	g := q.group
	q.mu.Unlock()

	if g == nil {
		return nil
	}
	return g.Wait()
}

func (q *Queue) work(ctx context.Context) {
	for {
		if id, ok := q.tryDequeue(); ok {
			q.process(ctx, id)
			continue
		}
		if q.isClosed() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-q.signal:
		}
	}
}

func (q *Queue) process(ctx context.Context, userID uuid.UUID) {
	var err error
	attempts := 0
	for attempts <= q.opts.MaxRetries {
		if attempts > 0 {
			q.retried.Add(1)
			select {
			case <-ctx.Done():
				q.fail(userID, attempts, ctx.Err())
				return
			case <-time.After(time.Duration(attempts) * q.opts.Backoff):
			}
		}

		attempts++
		if _, err = q.corrector.CorrectUserData(ctx, userID); err == nil {
			q.succeeded.Add(1)
			return
		}
		// a deleted user will not come back
		if errors.Is(err, domain.ErrUserNotFound) {
			break
		}
		q.log.Warn("background correction attempt failed", err, map[string]interface{}{
			"user_id": userID.String(),
			"attempt": attempts,
		})
	}
	q.fail(userID, attempts, err)
}

func (q *Queue) fail(userID uuid.UUID, attempts int, err error) {
	q.failed.Add(1)
	q.log.Error("background correction failed", err, map[string]interface{}{
		"user_id":  userID.String(),
		"attempts": attempts,
	})
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	pending := len(q.items)
	q.mu.Unlock()

	return Stats{
		Pending:   pending,
		Enqueued:  q.enqueued.Load(),
		Coalesced: q.coalesced.Load(),
		Dropped:   q.dropped.Load(),
		Succeeded: q.succeeded.Load(),
		Failed:    q.failed.Load(),
		Retried:   q.retried.Load(),
	}
}
