package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"exam-quiz-service/internal/auth"
	"exam-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewCredentialStore(dir)

	_, err := store.GetUser(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, store.CreateUser(ctx, domain.Credential{Username: "alice", PasswordHash: "h1"}))
	require.NoError(t, store.CreateUser(ctx, domain.Credential{Username: "bob", PasswordHash: "h2"}))
	assert.ErrorIs(t, store.CreateUser(ctx, domain.Credential{Username: "alice", PasswordHash: "h3"}), domain.ErrUserExists)

	reopened := NewCredentialStore(dir)
	cred, err := reopened.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "h2", cred.PasswordHash)

	data, err := os.ReadFile(filepath.Join(dir, UsersFile))
	require.NoError(t, err)
	assert.Equal(t, "username,password_hash\nalice,h1\nbob,h2\n", string(data))
}

func TestCredentialStoreReadsLegacyFile(t *testing.T) {
	dir := t.TempDir()
	content := "username,password_hash\nmario," + auth.LegacyHash("pw") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFile), []byte(content), 0o600))

	cred, err := NewCredentialStore(dir).GetUser(context.Background(), "mario")
	require.NoError(t, err)
	assert.True(t, auth.NewBcryptHasher().Verify(cred.PasswordHash, "pw"))
}

func TestPerformanceLogAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	log := NewPerformanceLog(t.TempDir())
	ts := time.Date(2025, 5, 1, 12, 30, 0, 0, time.UTC)

	records := []domain.PerformanceRecord{
		{Username: "u1", Timestamp: ts, Score: 20, Total: 25, Percentage: 80},
		{Username: "u2", Timestamp: ts.Add(time.Minute), Score: 45, Total: 50, Percentage: 90},
		{Username: "u1", Timestamp: ts.Add(2 * time.Minute), Score: 15, Total: 25, Percentage: 60},
	}
	for _, r := range records {
		require.NoError(t, log.Append(ctx, r))
	}

	mine, err := log.ByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	last := mine[len(mine)-1]
	assert.Equal(t, 15, last.Score)
	assert.Equal(t, 25, last.Total)
	assert.InDelta(t, 60.0, last.Percentage, 1e-9)
	assert.True(t, last.Timestamp.Equal(records[2].Timestamp))

	all, err := log.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "u2", all[1].Username)
}

func TestPerformanceLogMissingFileIsEmpty(t *testing.T) {
	all, err := NewPerformanceLog(t.TempDir()).All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPerformanceLogRecomputesMissingPercentage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	legacy := "username,timestamp,score,total\nu1,2024-12-01 18:22:03.123456,3,4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, PerformanceFile), []byte(legacy), 0o600))
	log := NewPerformanceLog(dir)

	all, err := log.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDelta(t, 75.0, all[0].Percentage, 1e-9)
	assert.Equal(t, 2024, all[0].Timestamp.Year())

	require.NoError(t, log.Append(ctx, domain.PerformanceRecord{
		Username: "u1", Timestamp: time.Now(), Score: 1, Total: 2, Percentage: 50,
	}))
	data, err := os.ReadFile(filepath.Join(dir, PerformanceFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "username,timestamp,score,total,percentage", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",75"))
	assert.True(t, strings.HasSuffix(lines[2], ",50"))
}

func TestPerformanceLogRejectsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PerformanceFile), []byte("username,score,total\nu1,x,4\n"), 0o600))
	_, err := NewPerformanceLog(dir).All(context.Background())
	assert.Error(t, err)
}
