package repository

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sudooom.im.mafia/internal/model"
)

func sampleEntries(sessionID string, firstID int, base time.Time) []model.LogEntry {
	messages := []string{"🎭 Roles have been assigned.", "🌙 Night falls.", "Alice submitted an action."}
	entries := make([]model.LogEntry, 0, len(messages))
	for i, msg := range messages {
		entries = append(entries, model.LogEntry{
			ID:        strconv.Itoa(firstID + i),
			SessionID: sessionID,
			Message:   msg,
			Kind:      model.LogInfo,
			PhaseSeq:  1,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		})
	}
	return entries
}

func runLogRepositorySuite(t *testing.T, repo LogRepository) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	entries := sampleEntries("s1", 100, base)
	require.NoError(t, repo.Append(ctx, entries))
	require.NoError(t, repo.Append(ctx, sampleEntries("s2", 200, base)))

	// 重复写入不产生重复记录
	require.NoError(t, repo.Append(ctx, entries[:1]))

	got, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range entries {
		assert.Equal(t, entries[i].ID, got[i].ID)
		assert.Equal(t, entries[i].Message, got[i].Message)
		assert.Equal(t, entries[i].Kind, got[i].Kind)
		assert.True(t, entries[i].CreatedAt.Equal(got[i].CreatedAt))
	}

	empty, err := repo.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.Append(ctx, nil))

	// 同一时刻写入的日志按ID数值排序，位数不同也不能按字符串比较
	var sameInstant []model.LogEntry
	for _, id := range []string{"9", "10", "11"} {
		sameInstant = append(sameInstant, model.LogEntry{
			ID:        id,
			SessionID: "s3",
			Message:   "entry " + id,
			Kind:      model.LogInfo,
			PhaseSeq:  2,
			CreatedAt: base,
		})
	}
	require.NoError(t, repo.Append(ctx, sameInstant))

	got, err = repo.List(ctx, "s3")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "9", got[0].ID)
	assert.Equal(t, "10", got[1].ID)
	assert.Equal(t, "11", got[2].ID)
}

func TestMemoryLogRepository(t *testing.T) {
	runLogRepositorySuite(t, NewMemoryLogRepository())
}

func TestSQLiteLogRepository(t *testing.T) {
	repo, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	runLogRepositorySuite(t, repo)

	err = repo.Append(context.Background(), []model.LogEntry{{ID: "not-a-number", SessionID: "s1", CreatedAt: time.Now()}})
	assert.Error(t, err)
}

func TestSQLiteLogRepositoryRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

// 需要 POSTGRES_TEST_DSN 指向可用的测试库
func TestPostgresLogRepository(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("跳过测试：未设置 POSTGRES_TEST_DSN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("跳过测试：无法连接 PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		t.Skipf("跳过测试：无法连接 PostgreSQL: %v", err)
	}

	repo := NewPostgresLogRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, "DELETE FROM game_logs WHERE session_id IN ('s1', 's2', 's3')")
	require.NoError(t, err)

	runLogRepositorySuite(t, repo)
}
