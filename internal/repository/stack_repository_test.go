package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelmates/reelmates/internal/repository"
)

func TestStackReplace(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewStackRepository(dbase)

	require.NoError(t, repo.Replace(ctx, 1, []uint64{10, 20, 30}))

	ids, err := repo.MovieIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 20, 30}, ids)

	// rebuild fully supersedes, never appends
	require.NoError(t, repo.Replace(ctx, 1, []uint64{40, 50}))
	ids, err = repo.MovieIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{40, 50}, ids)

	size, err := repo.Size(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
}

func TestStackReplaceEmpty(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewStackRepository(dbase)

	require.NoError(t, repo.Replace(ctx, 1, []uint64{10, 20}))
	// a degraded build may legitimately produce an empty stack
	require.NoError(t, repo.Replace(ctx, 1, nil))

	ids, err := repo.MovieIDs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStackScopedToRoom(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewStackRepository(dbase)

	require.NoError(t, repo.Replace(ctx, 1, []uint64{10, 20}))
	require.NoError(t, repo.Replace(ctx, 2, []uint64{30}))

	ids, err := repo.MovieIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 20}, ids)

	require.NoError(t, repo.DeleteForRoom(ctx, 1))
	ids, err = repo.MovieIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{30}, ids)
}
