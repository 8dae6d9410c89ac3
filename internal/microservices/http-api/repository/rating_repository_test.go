package repository

import (
	"context"
	"testing"

	"ratings/internal/microservices/http-api/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every pooled connection would get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Rating{}, &models.VoteLog{}))
	return db
}

func vote(module, item string, value int, voter string) VoteParams {
	return VoteParams{
		Key:        models.ItemKey{Module: module, ItemID: item},
		Value:      value,
		VoterKey:   voter,
		LookupKeys: []string{voter},
	}
}

func TestRecordVote_CreatesAggregate(t *testing.T) {
	repo := NewRatingRepository(newTestDB(t))
	ctx := context.Background()

	rating, err := repo.RecordVote(ctx, vote("News", "42", 70, "10.0.0.1"))
	require.NoError(t, err)
	assert.NotZero(t, rating.ID)
	assert.Equal(t, 70, rating.Average)
	assert.Equal(t, 1, rating.Count)

	got, err := repo.GetByKey(ctx, models.ItemKey{Module: "News", ItemID: "42"})
	require.NoError(t, err)
	assert.Equal(t, rating.ID, got.ID)
	assert.Equal(t, "News", got.Module)
	assert.Equal(t, "42", got.ItemID)
	assert.Equal(t, 70, got.Average)
	assert.Equal(t, 1, got.Count)

	byID, err := repo.GetByID(ctx, rating.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Key(), byID.Key())
}

func TestRecordVote_TruncatedRunningMean(t *testing.T) {
	repo := NewRatingRepository(newTestDB(t))
	ctx := context.Background()

	expected := []struct{ average, count int }{{80, 1}, {60, 2}, {43, 3}}
	for i, v := range []int{80, 40, 10} {
		rating, err := repo.RecordVote(ctx, vote("News", "42", v, "voter-"+string(rune('a'+i))))
		require.NoError(t, err)
		assert.Equal(t, expected[i].average, rating.Average)
		assert.Equal(t, expected[i].count, rating.Count)
	}
}

func TestRecordVote_LogsVoterOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	_, err := repo.RecordVote(ctx, vote("News", "42", 50, "u-1"))
	require.NoError(t, err)
	rating, err := repo.RecordVote(ctx, vote("News", "42", 100, "u-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, rating.Count)
	assert.Equal(t, 75, rating.Average)

	var logs int64
	require.NoError(t, db.Model(&models.VoteLog{}).Count(&logs).Error)
	assert.Equal(t, int64(1), logs)
}

func TestRecordVote_RejectDuplicate(t *testing.T) {
	repo := NewRatingRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.RecordVote(ctx, vote("News", "42", 50, "u-1"))
	require.NoError(t, err)

	second := vote("News", "42", 100, "u-1")
	second.RejectDuplicate = true
	_, err = repo.RecordVote(ctx, second)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	got, err := repo.GetByKey(ctx, second.Key)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 50, got.Average)
}

func TestHasVoted_MatchesUserOrAddress(t *testing.T) {
	repo := NewRatingRepository(newTestDB(t))
	ctx := context.Background()
	key := models.ItemKey{Module: "News", ItemID: "42"}

	// voted anonymously first
	_, err := repo.RecordVote(ctx, vote("News", "42", 50, "10.0.0.1"))
	require.NoError(t, err)

	voted, err := repo.HasVoted(ctx, []string{"u-1", "10.0.0.1"}, key)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = repo.HasVoted(ctx, []string{"u-1", "10.0.0.2"}, key)
	require.NoError(t, err)
	assert.False(t, voted)

	voted, err = repo.HasVoted(ctx, nil, key)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestHasVoted_TupleKeysDoNotCollide(t *testing.T) {
	repo := NewRatingRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.RecordVote(ctx, vote("a1", "23", 50, "u-1"))
	require.NoError(t, err)

	voted, err := repo.HasVoted(ctx, []string{"u-1"}, models.ItemKey{Module: "a", ItemID: "123"})
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestGet_NotFound(t *testing.T) {
	repo := NewRatingRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByKey(ctx, models.ItemKey{Module: "News", ItemID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndCount(t *testing.T) {
	repo := NewRatingRepository(newTestDB(t))
	ctx := context.Background()

	for _, v := range []VoteParams{
		vote("News", "1", 30, "u-1"),
		vote("News", "2", 90, "u-1"),
		vote("News", "3", 60, "u-1"),
		vote("Pages", "1", 10, "u-1"),
	} {
		_, err := repo.RecordVote(ctx, v)
		require.NoError(t, err)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	news, err := repo.List(ctx, ListFilter{Module: "News", SortField: "rating"})
	require.NoError(t, err)
	require.Len(t, news, 3)
	assert.Equal(t, []int{90, 60, 30}, averages(news))

	asc, err := repo.List(ctx, ListFilter{Module: "News", SortField: "average", Ascending: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{30, 60}, averages(asc))

	empty, err := repo.List(ctx, ListFilter{Module: "Missing"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = repo.List(ctx, ListFilter{SortField: "rating; DROP TABLE ratings"})
	assert.Error(t, err)
}

func TestIsSortField(t *testing.T) {
	assert.True(t, IsSortField("numratings"))
	assert.True(t, IsSortField("ItemID"))
	assert.False(t, IsSortField("created_at"))
}

func averages(list []models.Rating) []int {
	out := make([]int, 0, len(list))
	for _, r := range list {
		out = append(out, r.Average)
	}
	return out
}
