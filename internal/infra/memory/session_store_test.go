package memory

import (
	"context"
	"testing"

	"exam-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	sc := domain.SessionContext{ID: "s1", Username: "alice", Stage: domain.StageIntro}
	require.NoError(t, store.Save(ctx, sc))
	assert.Equal(t, 1, store.Len())

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sc, got)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCredentialStoreRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore()

	require.NoError(t, store.CreateUser(ctx, domain.Credential{Username: "alice", PasswordHash: "h"}))
	assert.ErrorIs(t, store.CreateUser(ctx, domain.Credential{Username: "alice", PasswordHash: "x"}), domain.ErrUserExists)

	cred, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h", cred.PasswordHash)

	_, err = store.GetUser(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPerformanceLogOrder(t *testing.T) {
	ctx := context.Background()
	log := NewPerformanceLog()
	for _, r := range []domain.PerformanceRecord{
		{Username: "u1", Score: 1, Total: 2},
		{Username: "u2", Score: 2, Total: 2},
		{Username: "u1", Score: 2, Total: 2},
	} {
		require.NoError(t, log.Append(ctx, r))
	}

	mine, err := log.ByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, 1, mine[0].Score)
	assert.Equal(t, 2, mine[1].Score)

	all, err := log.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
