// Package rooms owns the room lifecycle: creation with a join code,
// two-member capacity, waiting/active/dissolved transitions, filter
// updates (which rebuild the stack) and the dual-acknowledgment archive
// cleanup.
package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/catalog"
	"github.com/reelmates/reelmates/internal/db"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/notify"
	"github.com/reelmates/reelmates/internal/repository"
	"github.com/reelmates/reelmates/internal/service/stack"
	"github.com/reelmates/reelmates/internal/utils/joincode"
)

// codeAttempts bounds join-code regeneration on unique-index collisions.
const codeAttempts = 5

const archivePageSize = 10

// MemberInfo is a room member as seen by the other member.
type MemberInfo struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// RoomDetail is a room plus its membership summary.
type RoomDetail struct {
	Room    db.Room      `json:"room"`
	Members []MemberInfo `json:"members"`
}

type Service struct {
	appCtx  *app.AppContext
	rooms   *repository.RoomRepository
	users   *repository.UserRepository
	builder *stack.Builder
}

func NewService(appCtx *app.AppContext, builder *stack.Builder) *Service {
	return &Service{
		appCtx:  appCtx,
		rooms:   repository.NewRoomRepository(appCtx.DB),
		users:   repository.NewUserRepository(appCtx.DB),
		builder: builder,
	}
}

// Create opens a new room in waiting state with a fresh join code,
// makes the creator its first member and builds the initial stack.
// A missing catalog configuration aborts the whole operation.
func (s *Service) Create(ctx context.Context, ownerID uint64, name string, filtersJSON json.RawMessage) (*db.Room, error) {
	filters, normalized, err := parseFilters(filtersJSON)
	if err != nil {
		return nil, err
	}

	room := &db.Room{
		Name:         name,
		OwnerID:      ownerID,
		Status:       db.RoomStatusWaiting,
		Filters:      normalized,
		LastActiveAt: time.Now().UTC(),
	}

	for attempt := 0; ; attempt++ {
		code, err := joincode.New()
		if err != nil {
			return nil, err
		}
		room.Code = code

		err = s.rooms.Create(ctx, room)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < codeAttempts-1 {
			continue
		}
		return nil, svcErr.Map(err)
	}

	if err := s.rooms.AddMember(ctx, room.ID, ownerID); err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.builder.Build(ctx, room.ID, filters); err != nil {
		// creation is all-or-nothing: no half-made room without a stack
		if delErr := s.rooms.Delete(ctx, room.ID); delErr != nil {
			s.appCtx.Logger.Error("rollback of room failed", "room", room.ID, "err", delErr)
		}
		return nil, err
	}

	s.appCtx.Logger.Info("room created", "room", room.ID, "code", room.Code, "owner", ownerID)
	return room, nil
}

// Join adds a user to a room by join code. A room holds at most two
// members ever; a former member may rejoin their old slot.
func (s *Service) Join(ctx context.Context, userID uint64, code string) (*db.Room, error) {
	if !joincode.Valid(code) {
		return nil, svcErr.Validation("malformed join code")
	}

	room, err := s.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if room.Status == db.RoomStatusDissolved {
		return nil, svcErr.ErrNotFound
	}

	member, err := s.rooms.GetMember(ctx, room.ID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.Map(err)
	}
	if member != nil && member.Active {
		return room, nil // already in
	}

	if member == nil {
		// a fresh face only fits while the room has a free slot
		total, err := s.rooms.CountMembers(ctx, room.ID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		if total >= 2 {
			return nil, svcErr.ErrRoomFull
		}
	}

	if err := s.rooms.AddMember(ctx, room.ID, userID); err != nil {
		return nil, svcErr.Map(err)
	}

	active, err := s.rooms.CountActiveMembers(ctx, room.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if active >= 2 && room.Status != db.RoomStatusActive {
		if err := s.rooms.UpdateStatus(ctx, room.ID, db.RoomStatusActive); err != nil {
			return nil, svcErr.Map(err)
		}
		room.Status = db.RoomStatusActive
	}

	s.appCtx.Publisher.Publish(room.ID, notify.KindPartnerJoined, s.memberInfo(ctx, room.ID, userID))

	return room, nil
}

// Leave soft-deactivates the caller's membership. The room drops back to
// waiting while the partner stays, dissolves into the archive when the
// last member leaves, or is deleted outright if nobody else ever joined.
func (s *Service) Leave(ctx context.Context, userID, roomID uint64) error {
	member, err := s.rooms.GetMember(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.ErrForbidden
		}
		return svcErr.Map(err)
	}
	if !member.Active {
		return nil
	}

	if err := s.rooms.SetMemberActive(ctx, roomID, userID, false); err != nil {
		return svcErr.Map(err)
	}

	active, err := s.rooms.CountActiveMembers(ctx, roomID)
	if err != nil {
		return svcErr.Map(err)
	}

	if active > 0 {
		if err := s.rooms.UpdateStatus(ctx, roomID, db.RoomStatusWaiting); err != nil {
			return svcErr.Map(err)
		}
		s.appCtx.Publisher.Publish(roomID, notify.KindPartnerLeft, s.memberInfo(ctx, roomID, userID))
		return nil
	}

	total, err := s.rooms.CountMembers(ctx, roomID)
	if err != nil {
		return svcErr.Map(err)
	}
	if total <= 1 {
		// nobody else ever joined, nothing worth archiving
		return svcErr.Map(s.rooms.Delete(ctx, roomID))
	}

	if err := s.rooms.UpdateStatus(ctx, roomID, db.RoomStatusDissolved); err != nil {
		return svcErr.Map(err)
	}
	s.appCtx.Publisher.Publish(roomID, notify.KindRoomDissolved, map[string]any{"room_id": roomID})
	return nil
}

// UpdateFilters rewrites the filter document and rebuilds the stack from
// scratch; the old ordering is gone entirely afterwards.
func (s *Service) UpdateFilters(ctx context.Context, userID, roomID uint64, filtersJSON json.RawMessage) error {
	isMember, err := s.rooms.IsActiveMember(ctx, roomID, userID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !isMember {
		return svcErr.ErrForbidden
	}

	filters, normalized, err := parseFilters(filtersJSON)
	if err != nil {
		return err
	}

	if err := s.rooms.UpdateFilters(ctx, roomID, normalized); err != nil {
		return svcErr.Map(err)
	}
	if err := s.builder.Build(ctx, roomID, filters); err != nil {
		return err
	}

	s.appCtx.Publisher.Publish(roomID, notify.KindFiltersUpdated, map[string]any{"room_id": roomID})
	return nil
}

// Get returns a room with its member summary. Historical members may
// still view dissolved rooms; everyone else is refused.
func (s *Service) Get(ctx context.Context, userID, roomID uint64) (*RoomDetail, error) {
	if _, err := s.rooms.GetMember(ctx, roomID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.ErrForbidden
		}
		return nil, svcErr.Map(err)
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	members, err := s.rooms.Members(ctx, roomID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	detail := &RoomDetail{Room: *room}
	for _, m := range members {
		info := MemberInfo{UserID: m.UserID, Active: m.Active}
		if u, err := s.users.GetByID(ctx, m.UserID); err == nil {
			info.Username = u.Username
		}
		detail.Members = append(detail.Members, info)
	}
	return detail, nil
}

// ListForUser returns the caller's live rooms, most recently active first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]db.Room, error) {
	rooms, err := s.rooms.ListForUser(ctx, userID)
	return rooms, svcErr.Map(err)
}

// ListArchived returns the caller's dissolved-but-uncleared rooms,
// cursor-paginated.
func (s *Service) ListArchived(ctx context.Context, userID uint64, paginationToken *string) ([]db.Room, *string, error) {
	rooms, next, err := s.rooms.ListArchivedForUser(ctx, userID, paginationToken, archivePageSize)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	return rooms, next, nil
}

// ClearArchived removes a dissolved room from the caller's archive view.
// The room is hard-deleted only once every historical member has cleared
// it; until then the other member's archive still shows it.
func (s *Service) ClearArchived(ctx context.Context, userID, roomID uint64) error {
	if _, err := s.rooms.GetMember(ctx, roomID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.ErrForbidden
		}
		return svcErr.Map(err)
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return svcErr.Map(err)
	}
	if room.Status != db.RoomStatusDissolved {
		return svcErr.Validation("room is not archived")
	}

	if err := s.rooms.SetMemberCleared(ctx, roomID, userID); err != nil {
		return svcErr.Map(err)
	}

	allCleared, err := s.rooms.AllCleared(ctx, roomID)
	if err != nil {
		return svcErr.Map(err)
	}
	if allCleared {
		return svcErr.Map(s.rooms.Delete(ctx, roomID))
	}
	return nil
}

func (s *Service) memberInfo(ctx context.Context, roomID, userID uint64) MemberInfo {
	info := MemberInfo{UserID: userID, Active: true}
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		info.Username = u.Username
	}
	return info
}

// parseFilters validates the raw filter document and returns both the
// decoded known fields and the normalized JSON to persist. The raw
// document is what is stored, so keys this build does not know survive.
func parseFilters(raw json.RawMessage) (catalog.Filters, string, error) {
	if len(raw) == 0 {
		return catalog.Filters{}, "{}", nil
	}

	var filters catalog.Filters
	if err := json.Unmarshal(raw, &filters); err != nil {
		return catalog.Filters{}, "", svcErr.Validation("malformed filter document")
	}
	return filters, string(raw), nil
}
