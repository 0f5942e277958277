package rooms_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/catalog/catalogtest"
	"github.com/reelmates/reelmates/internal/db"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/logger"
	"github.com/reelmates/reelmates/internal/repository"
	"github.com/reelmates/reelmates/internal/service/rooms"
	"github.com/reelmates/reelmates/internal/service/stack"
	"github.com/reelmates/reelmates/internal/utils/joincode"
)

type capturingPublisher struct {
	mu    sync.Mutex
	kinds []string
}

func (p *capturingPublisher) Publish(_ uint64, kind string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, kind)
}

func (p *capturingPublisher) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.kinds) == 0 {
		return ""
	}
	return p.kinds[len(p.kinds)-1]
}

func setupRooms(t *testing.T) (*rooms.Service, *gorm.DB, *catalogtest.Fake, *capturingPublisher) {
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

	fake := catalogtest.New().WithPages(1)
	pub := &capturingPublisher{}
	appCtx := app.New(dbase, nil, fake, pub, logger.Discard())
	builder := stack.NewBuilder(appCtx)

	return rooms.NewService(appCtx, builder), dbase, fake, pub
}

func TestCreateRoomBuildsStack(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _, _ := setupRooms(t)

	room, err := svc.Create(ctx, 1, "movie night", nil)
	require.NoError(t, err)
	assert.Equal(t, db.RoomStatusWaiting, room.Status)
	assert.True(t, joincode.Valid(room.Code))
	assert.Equal(t, "{}", room.Filters)

	size, err := repository.NewStackRepository(dbase).Size(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), size)

	ok, err := repository.NewRoomRepository(dbase).IsActiveMember(ctx, room.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok, "the creator is the first member")
}

func TestCreateRollsBackWhenStackBuildFails(t *testing.T) {
	ctx := context.Background()
	_, dbase, _, _ := setupRooms(t)

	// a service wired without a provider hits the fatal build path
	badCtx := app.New(dbase, nil, nil, &capturingPublisher{}, logger.Discard())
	badSvc := rooms.NewService(badCtx, stack.NewBuilder(badCtx))

	_, err := badSvc.Create(ctx, 1, "doomed", nil)
	require.ErrorIs(t, err, svcErr.ErrUnconfigured)

	var count int64
	require.NoError(t, dbase.Model(&db.Room{}).Count(&count).Error)
	assert.Zero(t, count, "no half-made room survives a failed build")
}

func TestJoinActivatesRoom(t *testing.T) {
	ctx := context.Background()
	svc, _, _, pub := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)

	joined, err := svc.Join(ctx, 2, room.Code)
	require.NoError(t, err)
	assert.Equal(t, db.RoomStatusActive, joined.Status)
	assert.Equal(t, "partner_joined", pub.last())

	// joining again is a harmless no-op
	again, err := svc.Join(ctx, 2, room.Code)
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)
}

func TestThirdMemberIsRefused(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)
	_, err = svc.Join(ctx, 2, room.Code)
	require.NoError(t, err)

	_, err = svc.Join(ctx, 3, room.Code)
	assert.ErrorIs(t, err, svcErr.ErrRoomFull)
}

func TestJoinRejectsMalformedAndUnknownCodes(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := setupRooms(t)

	_, err := svc.Join(ctx, 1, "ab")
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	_, err = svc.Join(ctx, 1, "ZZZZZZ")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestLeaveDropsRoomToWaiting(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _, pub := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)
	_, err = svc.Join(ctx, 2, room.Code)
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, 2, room.ID))
	assert.Equal(t, "partner_left", pub.last())

	got, err := repository.NewRoomRepository(dbase).GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, db.RoomStatusWaiting, got.Status)

	// the leaver's old slot is still theirs
	rejoined, err := svc.Join(ctx, 2, room.Code)
	require.NoError(t, err)
	assert.Equal(t, db.RoomStatusActive, rejoined.Status)
}

func TestLastLeaverDissolvesRoom(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _, pub := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)
	_, err = svc.Join(ctx, 2, room.Code)
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, 1, room.ID))
	require.NoError(t, svc.Leave(ctx, 2, room.ID))
	assert.Equal(t, "room_dissolved", pub.last())

	got, err := repository.NewRoomRepository(dbase).GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, db.RoomStatusDissolved, got.Status)
}

func TestSoloRoomIsDeletedOutright(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _, _ := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, 1, room.ID))

	var count int64
	require.NoError(t, dbase.Model(&db.Room{}).Count(&count).Error)
	assert.Zero(t, count, "nothing worth archiving for a room nobody joined")
}

func TestLeaveByNonMemberIsForbidden(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)

	err = svc.Leave(ctx, 99, room.ID)
	assert.ErrorIs(t, err, svcErr.ErrForbidden)
}

func TestUpdateFiltersRebuildsStack(t *testing.T) {
	ctx := context.Background()
	svc, dbase, fake, pub := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)

	stacks := repository.NewStackRepository(dbase)
	before, err := stacks.MovieIDs(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(1), before[0])

	// new catalog universe for the next discover pass
	fake.Pages[1] = []uint64{900, 901}

	filters := json.RawMessage(`{"genres":[35],"min_year":2010}`)
	require.NoError(t, svc.UpdateFilters(ctx, 1, room.ID, filters))
	assert.Equal(t, "filters_updated", pub.last())

	after, err := stacks.MovieIDs(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{900, 901}, after, "the old ordering is gone entirely")

	got, err := repository.NewRoomRepository(dbase).GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"genres":[35],"min_year":2010}`, got.Filters)

	err = svc.UpdateFilters(ctx, 1, room.ID, json.RawMessage(`{bad`))
	assert.ErrorIs(t, err, svcErr.ErrValidation)
}

func TestArchiveClearedByBothMembers(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _, _ := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)
	_, err = svc.Join(ctx, 2, room.Code)
	require.NoError(t, err)
	require.NoError(t, svc.Leave(ctx, 1, room.ID))
	require.NoError(t, svc.Leave(ctx, 2, room.ID))

	archived, _, err := svc.ListArchived(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	require.NoError(t, svc.ClearArchived(ctx, 1, room.ID))

	// gone from user 1's archive, still in user 2's
	archived, _, err = svc.ListArchived(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, archived)
	archived, _, err = svc.ListArchived(ctx, 2, nil)
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	require.NoError(t, svc.ClearArchived(ctx, 2, room.ID))

	var count int64
	require.NoError(t, dbase.Model(&db.Room{}).Count(&count).Error)
	assert.Zero(t, count, "the second acknowledgment hard-deletes the room")
}

func TestClearRequiresDissolvedRoom(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := setupRooms(t)

	room, err := svc.Create(ctx, 1, "", nil)
	require.NoError(t, err)

	err = svc.ClearArchived(ctx, 1, room.ID)
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	err = svc.ClearArchived(ctx, 99, room.ID)
	assert.ErrorIs(t, err, svcErr.ErrForbidden)
}
