package records

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLeaderboardOrdering(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.AddPlayerScore(ctx, "A", 5, 100*time.Millisecond))
	require.NoError(t, repo.AddPlayerScore(ctx, "B", 5, 80*time.Millisecond))
	require.NoError(t, repo.AddPlayerScore(ctx, "C", 6, 200*time.Millisecond))

	records, err := repo.PlayersScore(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "C", records[0].Name)
	assert.Equal(t, "B", records[1].Name)
	assert.Equal(t, "A", records[2].Name)
	assert.Equal(t, 80*time.Millisecond, records[1].PlayTime)
}

func TestLeaderboardNameBreaksFinalTie(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.AddPlayerScore(ctx, "zoe", 5, 100*time.Millisecond))
	require.NoError(t, repo.AddPlayerScore(ctx, "amy", 5, 100*time.Millisecond))

	records, err := repo.PlayersScore(ctx, 0, DefaultMaxItems)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "amy", records[0].Name)
	assert.Equal(t, "zoe", records[1].Name)
}

func TestLeaderboardPaging(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	names := []string{"A", "B", "C", "D", "E"}
	for i, name := range names {
		require.NoError(t, repo.AddPlayerScore(ctx, name, 10-i, time.Second))
	}

	page, err := repo.PlayersScore(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "C", page[0].Name)
	assert.Equal(t, "D", page[1].Name)

	empty, err := repo.PlayersScore(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPlayersScoreValidation(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	_, err := repo.PlayersScore(ctx, -1, 10)
	assert.ErrorIs(t, err, ErrInvalidStart)

	_, err = repo.PlayersScore(ctx, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidMaxItems)

	_, err = repo.PlayersScore(ctx, 0, MaxItemsLimit+1)
	assert.ErrorIs(t, err, ErrInvalidMaxItems)
}

func TestRowIDsAreUUIDs(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.AddPlayerScore(ctx, "A", 1, time.Second))
	records, err := repo.PlayersScore(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, err = uuid.Parse(records[0].ID)
	assert.NoError(t, err)
}

func TestSchemaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.AddPlayerScore(context.Background(), "A", 1, time.Second))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()
	records, err := second.PlayersScore(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
