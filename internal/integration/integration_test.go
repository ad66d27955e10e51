package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/auth"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/infra/memory"
	"exam-quiz-service/internal/infra/postgres"
	infraredis "exam-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

func TestQuizRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	group, err := postgres.Migrate(ctx, pgURL)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if group == "" {
		t.Fatalf("expected a migration group on a fresh database")
	}
	if group, err = postgres.Migrate(ctx, pgURL); err != nil || group != "" {
		t.Fatalf("second migrate should be a no-op, got group=%q err=%v", group, err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	bankRepo := memory.NewBankRepository(memory.NewStaticBankLoader(sampleBank()), time.Minute)
	service := app.NewQuizService(store, store, bankRepo, sessions, app.Options{
		Hasher: &auth.BcryptHasher{Cost: bcrypt.MinCost},
	})

	sc := service.NewSessionContext()
	sc, _, err = service.Register(ctx, sc, "alice", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := service.Register(ctx, sc, "alice", "pw"); !domain.IsWarning(err) {
		t.Fatalf("expected duplicate registration warning, got %v", err)
	}
	sc, _, err = service.Login(ctx, sc, "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	sc, quiz, err := service.Start(ctx, sc, 25)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(quiz.Questions))
	}
	for i, q := range sc.Quiz.Questions {
		if sc, err = service.Answer(ctx, sc, i, q.CorrectText); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}

	resumed, err := service.Resume(ctx, sc.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Stage != domain.StageQuiz || len(resumed.Quiz.Answers) != 2 {
		t.Fatalf("unexpected resumed context %+v", resumed)
	}

	_, results, err := service.Submit(ctx, resumed)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if results.Score.CorrectCount != 2 || results.Score.Percentage != 100 {
		t.Fatalf("unexpected score %+v", results.Score)
	}
	if len(results.Leaderboard) != 1 || results.Leaderboard[0].Username != "alice" {
		t.Fatalf("unexpected leaderboard %+v", results.Leaderboard)
	}

	history, err := store.ByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Total != 2 {
		t.Fatalf("unexpected history %+v", history)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func sampleBank() []domain.QuestionRecord {
	return []domain.QuestionRecord{
		{
			Prompt:  "What is 2 + 2?",
			Options: map[domain.Label]string{domain.LabelA: "3", domain.LabelB: "4", domain.LabelC: "5"},
			Correct: domain.LabelB,
		},
		{
			Prompt:  "Capital of France?",
			Options: map[domain.Label]string{domain.LabelA: "Paris", domain.LabelB: "Lyon"},
			Correct: domain.LabelA,
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
