package cache

import (
	"context"
	"testing"
	"time"

	"speedrun/backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedisSetGet(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	_, gen, ok := r.Get(ctx, 1, "all")
	assert.False(t, ok)
	assert.Equal(t, int64(0), gen)

	rows := []models.RecordView{{ID: 3, Username: "runner", TimeMs: 61000, Categories: []string{"Any%"}, Rank: 1}}
	r.Set(ctx, 1, gen, "all", rows)

	got, _, ok := r.Get(ctx, 1, "all")
	require.True(t, ok)
	assert.Equal(t, rows[0].ID, got[0].ID)
	assert.Equal(t, []string{"Any%"}, got[0].Categories)
	assert.Equal(t, 1, got[0].Rank)

	mr.FastForward(2 * time.Minute)
	_, _, ok = r.Get(ctx, 1, "all")
	assert.False(t, ok)
}

func TestRedisInvalidateGame(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	r.Set(ctx, 1, 0, "a", []models.RecordView{{ID: 1}})
	r.Set(ctx, 1, 0, "b", []models.RecordView{{ID: 2}})
	r.Set(ctx, 2, 0, "a", []models.RecordView{{ID: 3}})

	r.InvalidateGame(ctx, 1)

	assert.False(t, mr.Exists("leaderboard:game:1:board:0:a"))
	assert.False(t, mr.Exists("leaderboard:game:1:board:0:b"))
	assert.True(t, mr.Exists("leaderboard:game:2:board:0:a"))

	_, gen, ok := r.Get(ctx, 1, "a")
	assert.False(t, ok)
	assert.Equal(t, int64(1), gen)
	_, _, ok = r.Get(ctx, 2, "a")
	assert.True(t, ok)
}

func TestRedisLateWriteAfterInvalidationIsNotServed(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t)

	// a reader misses and starts querying the database
	_, gen, ok := r.Get(ctx, 1, "all")
	require.False(t, ok)

	// a write lands and invalidates before the reader stores its rows
	r.InvalidateGame(ctx, 1)
	r.Set(ctx, 1, gen, "all", []models.RecordView{{ID: 1, TimeMs: 9000}})

	_, _, ok = r.Get(ctx, 1, "all")
	assert.False(t, ok)
}

func TestNopNeverHits(t *testing.T) {
	var c LeaderboardCache = Nop{}
	c.Set(context.Background(), 1, 0, "a", []models.RecordView{{ID: 1}})
	_, _, ok := c.Get(context.Background(), 1, "a")
	assert.False(t, ok)
}
