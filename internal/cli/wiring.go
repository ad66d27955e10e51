package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/bank"
	"exam-quiz-service/internal/config"
	"exam-quiz-service/internal/infra/file"
	"exam-quiz-service/internal/infra/memory"
	"exam-quiz-service/internal/infra/postgres"
	redissession "exam-quiz-service/internal/infra/redis"
	"exam-quiz-service/internal/infra/sqlite"
	"exam-quiz-service/internal/logging"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stores bundles the persistence backends picked by config.
type stores struct {
	users       app.CredentialStore
	performance app.PerformanceLog
	closers     []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// loadEnv reads config and builds the process logger.
func loadEnv(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Storage.SQLitePath, err)
		}
		logger.Info("using sqlite storage", zap.String("path", cfg.Storage.SQLitePath))
		return &stores{users: db, performance: db, closers: []func(){func() { _ = db.Close() }}}, nil
	case config.DriverPostgres:
		group, err := postgres.Migrate(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		if group != "" {
			logger.Info("migrations applied", zap.String("group", group))
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := postgres.NewStore(pool)
		logger.Info("using postgres storage")
		return &stores{users: store, performance: store, closers: []func(){pool.Close}}, nil
	default:
		logger.Info("using csv storage", zap.String("dir", cfg.Storage.Dir))
		return &stores{
			users:       file.NewCredentialStore(cfg.Storage.Dir),
			performance: file.NewPerformanceLog(cfg.Storage.Dir),
		}, nil
	}
}

// sessionRepository returns a redis-backed store when an address is
// configured, otherwise an in-process one.
func sessionRepository(cfg config.Config, logger *zap.Logger) (app.SessionRepository, io.Closer) {
	if cfg.Redis.Addr == "" {
		return memory.NewSessionStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logger.Info("using redis sessions", zap.String("addr", cfg.Redis.Addr))
	return redissession.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)), client
}

func newService(cfg config.Config, st *stores, sessions app.SessionRepository, logger *zap.Logger) *app.QuizService {
	bankRepo := memory.NewBankRepository(bank.FileLoader{Path: cfg.Bank.Path}, config.TTLDuration(cfg.Bank.TTL, 10*time.Minute))
	return app.NewQuizService(st.users, st.performance, bankRepo, sessions, app.Options{
		PackageSizes: cfg.Quiz.PackageSizes,
		Logger:       logger,
	})
}
