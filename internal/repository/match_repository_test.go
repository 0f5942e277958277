package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reelmates/reelmates/internal/db"
	"github.com/reelmates/reelmates/internal/repository"
)

func TestCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	created, err := repo.CreateIfAbsent(ctx, 1, 550)
	require.NoError(t, err)
	assert.True(t, created)

	// second attempt loses silently
	created, err = repo.CreateIfAbsent(ctx, 1, 550)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateIfAbsentConcurrent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)

	// serialize at the pool so racing goroutines exercise the
	// conflict clause instead of sqlite's busy handler
	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := repository.NewMatchRepository(dbase)

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan bool, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := repo.CreateIfAbsent(ctx, 1, 550)
			assert.NoError(t, err)
			results <- created
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for created := range results {
		if created {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one writer may create the match")

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSetWatched(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	_, err := repo.CreateIfAbsent(ctx, 1, 550)
	require.NoError(t, err)

	require.NoError(t, repo.SetWatched(ctx, 1, 550, true))
	match, err := repo.Get(ctx, 1, 550)
	require.NoError(t, err)
	assert.True(t, match.Watched)

	// unknown match is a distinct outcome, not a silent no-op
	err = repo.SetWatched(ctx, 1, 999, true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
