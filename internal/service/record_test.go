package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"speedrun/backend/internal/hub"
	"speedrun/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCreateAndGet(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)

	created, err := svc.Create(context.Background(), CreateRecordInput{
		UserID:    f.user.ID,
		GameID:    f.g1.ID,
		VersionID: f.v1.ID,
		TimeMs:    942_500,
		VideoURL:  "https://youtu.be/run",
		Notes:     "no blj",
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, f.user.ID, got.UserID)
	assert.Equal(t, "runner", got.Username)
	assert.Equal(t, "Super Mario 64", got.GameName)
	assert.Equal(t, "N64 JP", got.VersionName)
	assert.Equal(t, int64(942_500), got.TimeMs)
	assert.Equal(t, "https://youtu.be/run", got.VideoURL)
	assert.Equal(t, "no blj", got.Notes)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Empty(t, got.Categories)
}

func TestRecordCreateRejectsIncompatibleVersion(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)

	_, err := svc.Create(context.Background(), CreateRecordInput{
		UserID:    f.user.ID,
		GameID:    f.g1.ID,
		VersionID: f.v2.ID,
		TimeMs:    1000,
	})
	assert.ErrorIs(t, err, ErrIncompatibleReference)
	assert.Equal(t, int64(0), count(t, f.db, &models.Record{}))
}

func TestRecordCreateLinksCategories(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)

	created, err := svc.Create(context.Background(), CreateRecordInput{
		UserID:      f.user.ID,
		GameID:      f.g1.ID,
		VersionID:   f.v1.ID,
		TimeMs:      1000,
		CategoryIDs: []uint{f.any1.ID, f.hundred1.ID, f.any1.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Any%", "120 Star"}, created.Categories)
	assert.Equal(t, int64(2), count(t, f.db, &models.RecordCategory{}))
}

func TestRecordCreateRejectsCategoryOfAnotherGame(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)

	_, err := svc.Create(context.Background(), CreateRecordInput{
		UserID:      f.user.ID,
		GameID:      f.g1.ID,
		VersionID:   f.v1.ID,
		TimeMs:      1000,
		CategoryIDs: []uint{f.any1.ID, f.any2.ID},
	})
	assert.ErrorIs(t, err, ErrCrossGameMismatch)

	_, err = svc.Create(context.Background(), CreateRecordInput{
		UserID:      f.user.ID,
		GameID:      f.g1.ID,
		VersionID:   f.v1.ID,
		TimeMs:      1000,
		CategoryIDs: []uint{9999},
	})
	assert.ErrorIs(t, err, ErrInvalidReference)

	assert.Equal(t, int64(0), count(t, f.db, &models.Record{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.RecordCategory{}))
}

func TestRecordCreateRejectsMissingReferences(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	ctx := context.Background()

	cases := map[string]CreateRecordInput{
		"user":    {UserID: 999, GameID: f.g1.ID, VersionID: f.v1.ID, TimeMs: 1000},
		"game":    {UserID: f.user.ID, GameID: 999, VersionID: f.v1.ID, TimeMs: 1000},
		"version": {UserID: f.user.ID, GameID: f.g1.ID, VersionID: 999, TimeMs: 1000},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
	assert.Equal(t, int64(0), count(t, f.db, &models.Record{}))
}

func TestRecordCreateRejectsNonPositiveTime(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)

	_, err := svc.Create(context.Background(), CreateRecordInput{UserID: f.user.ID, GameID: f.g1.ID, VersionID: f.v1.ID})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordGetMissing(t *testing.T) {
	f := newFixture(t)
	_, err := NewRecordService(f.db, nil, nil).Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	f.record(t, 3000, models.StatusPending)
	approved := f.record(t, 2000, models.StatusApproved)

	all, err := svc.List(context.Background(), RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := svc.List(context.Background(), RecordFilter{Status: ptr(models.StatusApproved)})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, approved.ID, only[0].ID)
}

func TestRecordApproveAndReject(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	ctx := context.Background()
	r := f.record(t, 1000, models.StatusPending)

	_, err := svc.Approve(ctx, r.ID)
	require.NoError(t, err)
	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	_, err = svc.Reject(ctx, r.ID)
	require.NoError(t, err)
	got, err = svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
}

func TestRecordApproveMissing(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)

	_, err := svc.Approve(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "record approval failed")

	_, err = svc.Reject(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "record rejection failed")
}

func TestRecordUpdateEmptyPatch(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	r := f.record(t, 1000, models.StatusPending)

	affected, err := svc.Update(context.Background(), r.ID, RecordPatch{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, affected)

	var stored models.Record
	require.NoError(t, f.db.First(&stored, r.ID).Error)
	assert.Equal(t, r.UpdatedAt.Unix(), stored.UpdatedAt.Unix())
}

func TestRecordUpdateChangesOnlySuppliedFields(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	r := models.Record{UserID: f.user.ID, GameID: f.g1.ID, VersionID: f.v1.ID, TimeMs: 5000, VideoURL: "a", Notes: "keep", Status: models.StatusPending}
	require.NoError(t, f.db.Create(&r).Error)

	v2 := models.GameVersion{GameID: f.g1.ID, Name: "N64 US"}
	require.NoError(t, f.db.Create(&v2).Error)

	affected, err := svc.Update(context.Background(), r.ID, RecordPatch{VersionID: &v2.ID, TimeMs: ptr(int64(4000))})
	require.NoError(t, err)
	assert.True(t, affected)

	got, err := svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, got.VersionID)
	assert.Equal(t, int64(4000), got.TimeMs)
	assert.Equal(t, "a", got.VideoURL)
	assert.Equal(t, "keep", got.Notes)
}

func TestRecordUpdateVersionMustMatchGame(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	r := f.record(t, 1000, models.StatusPending)

	_, err := svc.Update(context.Background(), r.ID, RecordPatch{VersionID: &f.v2.ID})
	assert.ErrorIs(t, err, ErrIncompatibleReference)

	_, err = svc.Update(context.Background(), r.ID, RecordPatch{VersionID: ptr(uint(999))})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestRecordUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	r := f.record(t, 1000, models.StatusPending)

	_, err := NewRecordService(f.db, nil, nil).Update(context.Background(), r.ID, RecordPatch{Status: ptr(models.RecordStatus("Done"))})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordUpdateMissing(t *testing.T) {
	f := newFixture(t)
	affected, err := NewRecordService(f.db, nil, nil).Update(context.Background(), 999, RecordPatch{Notes: ptr("x")})
	require.NoError(t, err)
	assert.False(t, affected)
}

func TestRecordDeleteCascades(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	r := f.record(t, 1000, models.StatusPending)
	f.link(t, r.ID, f.any1.ID)
	require.NoError(t, f.db.Create(&models.Comment{RecordID: r.ID, UserID: f.user.ID, Text: "gg"}).Error)

	affected, err := svc.Delete(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, affected)
	assert.Equal(t, int64(0), count(t, f.db, &models.RecordCategory{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.Comment{}))

	affected, err = svc.Delete(context.Background(), r.ID)
	require.NoError(t, err)
	assert.False(t, affected)
}

func TestLeaderboardOrdersByTime(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	slow := f.record(t, 3000, models.StatusApproved)
	fast := f.record(t, 1000, models.StatusApproved)
	tieA := f.record(t, 2000, models.StatusApproved)
	tieB := f.record(t, 2000, models.StatusApproved)

	rows, err := svc.Leaderboard(context.Background(), f.g1.ID, LeaderboardFilter{})
	require.NoError(t, err)

	var ids []uint
	for i, row := range rows {
		ids = append(ids, row.ID)
		assert.Equal(t, i+1, row.Rank)
	}
	assert.Equal(t, []uint{fast.ID, tieA.ID, tieB.ID, slow.ID}, ids)
}

func TestLeaderboardFilters(t *testing.T) {
	f := newFixture(t)
	svc := NewRecordService(f.db, nil, nil)
	ctx := context.Background()

	inAny := f.record(t, 3000, models.StatusApproved)
	inBoth := f.record(t, 2000, models.StatusPending)
	f.record(t, 1000, models.StatusApproved)
	f.link(t, inAny.ID, f.any1.ID)
	f.link(t, inBoth.ID, f.any1.ID)
	f.link(t, inBoth.ID, f.hundred1.ID)

	rows, err := svc.Leaderboard(ctx, f.g1.ID, LeaderboardFilter{CategoryID: &f.any1.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, inBoth.ID, rows[0].ID)
	assert.Equal(t, []string{"120 Star", "Any%"}, rows[0].Categories)
	assert.Equal(t, inAny.ID, rows[1].ID)

	rows, err = svc.Leaderboard(ctx, f.g1.ID, LeaderboardFilter{CategoryID: &f.any1.ID, Status: ptr(models.StatusApproved)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inAny.ID, rows[0].ID)

	rows, err = svc.Leaderboard(ctx, f.g1.ID, LeaderboardFilter{VersionID: &f.v1.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = svc.Leaderboard(ctx, f.g1.ID, LeaderboardFilter{VersionID: &f.v2.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Leaderboard(ctx, f.g2.ID, LeaderboardFilter{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaderboardCacheInvalidatedOnMutation(t *testing.T) {
	f := newFixture(t)
	lc := newRecordingCache()
	svc := NewRecordService(f.db, lc, nil)
	links := NewRecordCategoryService(f.db, lc)
	ctx := context.Background()
	r := f.record(t, 1000, models.StatusPending)

	first, err := svc.Leaderboard(ctx, f.g1.ID, LeaderboardFilter{})
	require.NoError(t, err)
	cached, _, ok := lc.Get(ctx, f.g1.ID, LeaderboardFilter{}.variant())
	require.True(t, ok)
	assert.Equal(t, first, cached)

	_, err = svc.Approve(ctx, r.ID)
	require.NoError(t, err)
	_, _, ok = lc.Get(ctx, f.g1.ID, LeaderboardFilter{}.variant())
	assert.False(t, ok)

	rows, err := svc.Leaderboard(ctx, f.g1.ID, LeaderboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, rows[0].Status)

	before := lc.invalidations(f.g1.ID)
	_, err = links.Create(ctx, RecordCategoryInput{RecordID: r.ID, CategoryID: f.any1.ID})
	require.NoError(t, err)
	assert.Equal(t, before+1, lc.invalidations(f.g1.ID))
	assert.Equal(t, 0, lc.invalidations(f.g2.ID))
}

func TestRecordEventsBroadcast(t *testing.T) {
	f := newFixture(t)
	h := hub.New()
	client := h.Subscribe(f.g1.ID)
	svc := NewRecordService(f.db, nil, h)

	created, err := svc.Create(context.Background(), CreateRecordInput{UserID: f.user.ID, GameID: f.g1.ID, VersionID: f.v1.ID, TimeMs: 1000})
	require.NoError(t, err)

	select {
	case data := <-client:
		var ev hub.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, hub.RecordCreated, ev.Type)
		payload := ev.Payload.(map[string]any)
		assert.EqualValues(t, created.ID, payload["record_id"])
		assert.Equal(t, "Pending", payload["status"])
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}
