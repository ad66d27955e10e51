package redis

import (
	"context"
	"testing"
	"time"

	"exam-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	ctx := context.Background()

	sc := domain.SessionContext{
		ID:          "s1",
		Username:    "alice",
		Stage:       domain.StageQuiz,
		PackageSize: 25,
		Quiz: &domain.QuizSession{
			ID:        "q1",
			Questions: []domain.QuizQuestion{{Prompt: "2+2?", AnswerChoices: []string{"4", "5"}, CorrectText: "4"}},
			Answers:   map[int]string{0: "5"},
			StartedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		UpdatedAt: time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, sc))
	assert.True(t, mr.Exists("quiz:session:s1"))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sc, got)

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("quiz:session:s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.SessionContext{ID: "s2", Stage: domain.StageLogin}))

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "s2")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
