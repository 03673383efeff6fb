package app

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/jhubafrica/points-service/config"
	"github.com/jhubafrica/points-service/internal/application/queue"
	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/infrastructure/cache"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
	"github.com/jhubafrica/points-service/internal/infrastructure/repository/memory"
	mongorepo "github.com/jhubafrica/points-service/internal/infrastructure/repository/mongo"
	"github.com/jhubafrica/points-service/internal/infrastructure/repository/postgres"
	"github.com/jhubafrica/points-service/internal/infrastructure/security"
	grpc_server "github.com/jhubafrica/points-service/internal/transport/grpc"
	handlers "github.com/jhubafrica/points-service/internal/transport/http"
	"github.com/jhubafrica/points-service/internal/transport/http/middleware"
)

// App holds the wired use cases and the resources they depend on.
type App struct {
	Config      config.Config
	Log         logger.Logger
	Points      *usecase.PointsUseCase
	Consistency *usecase.ConsistencyUseCase
	Cohorts     *usecase.CohortUseCase
	Queue       *queue.Queue
	Tokens      *security.TokenManager

	// Memory is set when DB_DRIVER=memory so callers can seed facts.
	Memory *memory.DB

	redis   *redis.Client
	closers []func(context.Context) error
}

// New opens the configured fact store and redis (when REDIS_ADDR is set)
// and wires the use cases. The correction queue is created but not started.
func New(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Tokens: security.NewTokenManager(cfg.AccessSecret)}

	stores, err := a.openStores(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	var (
		summaries usecase.SummaryCache
		cursors   usecase.CursorStore
	)
	if cfg.RedisAddr != "" {
		a.redis, err = cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		client := a.redis
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		summaries = cache.NewSummaryCache(a.redis, cfg.SummaryCacheTTL)
		cursors = cache.NewCursorStore(a.redis)
	} else {
		log.Warn("REDIS_ADDR is empty; summary cache, resumable batches and rate limits are off")
	}

	a.Points = usecase.NewPointsUseCase(stores, summaries, log, usecase.PointsOptions{MaxAwardPoints: cfg.AwardMaxPoints})
	a.Consistency = usecase.NewConsistencyUseCase(a.Points, stores, cursors, log, usecase.ConsistencyOptions{BatchSize: cfg.BatchSize})
	a.Cohorts = usecase.NewCohortUseCase(stores, log, time.Now)
	a.Queue = queue.New(a.Consistency, log, queue.Options{
		Workers:    cfg.QueueWorkers,
		Size:       cfg.QueueSize,
		MaxRetries: cfg.QueueMaxRetries,
		Backoff:    cfg.QueueRetryBackoff,
	})
	a.Points.SetScheduler(a.Queue)
	return a, nil
}

func (a *App) openStores(ctx context.Context) (usecase.Stores, error) {
	cfg := a.Config
	switch cfg.DBDriver {
	case config.DriverMemory:
		a.Memory = memory.NewDB()
		return a.Memory.Stores(), nil

	case config.DriverMongo:
		client, err := mongorepo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return usecase.Stores{}, err
		}
		a.closers = append(a.closers, client.Disconnect)
		db := client.Database(cfg.MongoDB)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			return usecase.Stores{}, err
		}
		return mongorepo.Stores(db), nil

	case config.DriverPostgres:
		db, err := postgres.Open(postgres.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Name:     cfg.DBName,
		})
		if err != nil {
			return usecase.Stores{}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return usecase.Stores{}, errors.Wrap(err, "postgres handle")
		}
		a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })
		if err := postgres.Migrate(db); err != nil {
			return usecase.Stores{}, err
		}
		return postgres.Stores(db), nil
	}
	return usecase.Stores{}, errors.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}

// HTTPHandler builds the gin router.
func (a *App) HTTPHandler() http.Handler {
	var limiter *middleware.RateLimiter
	if a.redis != nil {
		limiter = middleware.NewRateLimiter(a.redis)
	}
	return handlers.NewRouter(handlers.RouterDeps{
		Points:         handlers.NewPointsHandler(a.Points, a.Log),
		System:         handlers.NewSystemHandler(a.Consistency, a.Queue, a.Log),
		Cohorts:        handlers.NewCohortHandler(a.Cohorts, a.Log),
		Tokens:         a.Tokens,
		Limiter:        limiter,
		AllowedOrigins: a.Config.Origins(),
	})
}

func (a *App) GRPCServer() (*grpc.Server, *health.Server) {
	return grpc_server.NewServer(grpc_server.NewAdminServer(a.Consistency), a.Tokens)
}

// Close releases store and redis connections in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Log.Warn("close resource", err)
		}
	}
	a.closers = nil
}
