package stack_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/catalog"
	"github.com/reelmates/reelmates/internal/catalog/catalogtest"
	"github.com/reelmates/reelmates/internal/db"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/logger"
	"github.com/reelmates/reelmates/internal/repository"
	"github.com/reelmates/reelmates/internal/service/stack"
)

func setupBuilder(t *testing.T, fake *catalogtest.Fake) (*stack.Builder, *repository.StackRepository) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(dbase))

	var provider catalog.Provider
	if fake != nil {
		provider = fake
	}
	appCtx := app.New(dbase, nil, provider, nil, logger.Discard())
	return stack.NewBuilder(appCtx), repository.NewStackRepository(dbase)
}

func TestBuildWalksAllPagesInOrder(t *testing.T) {
	ctx := context.Background()
	fake := catalogtest.New().WithPages(5)
	builder, stacks := setupBuilder(t, fake)

	require.NoError(t, builder.Build(ctx, 1, catalog.Filters{}))

	ids, err := stacks.MovieIDs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ids, 100)
	assert.Equal(t, uint64(1), ids[0])
	assert.Equal(t, uint64(100), ids[99])
	assert.Equal(t, 5, fake.DiscoverCalls)
}

func TestBuildDeduplicatesAcrossPages(t *testing.T) {
	ctx := context.Background()
	fake := catalogtest.New()
	fake.Pages[1] = []uint64{10, 20, 30}
	fake.Pages[2] = []uint64{30, 40, 10, 50}
	builder, stacks := setupBuilder(t, fake)

	require.NoError(t, builder.Build(ctx, 1, catalog.Filters{}))

	ids, err := stacks.MovieIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 20, 30, 40, 50}, ids, "first occurrence wins")
}

func TestBuildKeepsPartialStackOnPageFailure(t *testing.T) {
	ctx := context.Background()
	fake := catalogtest.New().WithPages(5)
	fake.FailPages = map[int]bool{3: true}
	builder, stacks := setupBuilder(t, fake)

	require.NoError(t, builder.Build(ctx, 1, catalog.Filters{}))

	ids, err := stacks.MovieIDs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ids, 40, "pages before the failure are kept, nothing after")
	assert.Equal(t, 3, fake.DiscoverCalls, "the loop stops at the failing page")
}

func TestBuildReplacesPreviousStack(t *testing.T) {
	ctx := context.Background()
	fake := catalogtest.New()
	fake.Pages[1] = []uint64{1, 2, 3}
	builder, stacks := setupBuilder(t, fake)

	require.NoError(t, builder.Build(ctx, 1, catalog.Filters{}))

	fake.Pages[1] = []uint64{7, 8}
	require.NoError(t, builder.Build(ctx, 1, catalog.Filters{}))

	ids, err := stacks.MovieIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7, 8}, ids, "a rebuild supersedes, never appends")
}

func TestBuildEmptyStackIsValid(t *testing.T) {
	ctx := context.Background()
	fake := catalogtest.New()
	fake.FailPages = map[int]bool{1: true}
	builder, stacks := setupBuilder(t, fake)

	require.NoError(t, builder.Build(ctx, 1, catalog.Filters{}))

	size, err := stacks.Size(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestBuildWithoutProviderIsFatal(t *testing.T) {
	ctx := context.Background()
	builder, _ := setupBuilder(t, nil)

	err := builder.Build(ctx, 1, catalog.Filters{})
	assert.ErrorIs(t, err, svcErr.ErrUnconfigured)
}
