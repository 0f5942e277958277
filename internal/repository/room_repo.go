package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelmates/reelmates/internal/db"
	"github.com/reelmates/reelmates/internal/utils/pagination"
)

// RoomRepository provides data access for rooms and their memberships.
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(database *gorm.DB) *RoomRepository {
	return &RoomRepository{db: database}
}

func (r *RoomRepository) Create(ctx context.Context, room *db.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *RoomRepository) GetByID(ctx context.Context, roomID uint64) (*db.Room, error) {
	var room db.Room
	if err := r.db.WithContext(ctx).First(&room, roomID).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) GetByCode(ctx context.Context, code string) (*db.Room, error) {
	var room db.Room
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) UpdateStatus(ctx context.Context, roomID uint64, status string) error {
	return r.db.WithContext(ctx).
		Model(&db.Room{}).
		Where("id = ?", roomID).
		Update("status", status).Error
}

func (r *RoomRepository) UpdateName(ctx context.Context, roomID uint64, name string) error {
	return r.db.WithContext(ctx).
		Model(&db.Room{}).
		Where("id = ?", roomID).
		Update("name", name).Error
}

// UpdateFilters rewrites the room's raw filter document.
func (r *RoomRepository) UpdateFilters(ctx context.Context, roomID uint64, filtersJSON string) error {
	return r.db.WithContext(ctx).
		Model(&db.Room{}).
		Where("id = ?", roomID).
		Update("filters", filtersJSON).Error
}

// TouchActivity bumps last_active_at. Called on every swipe.
func (r *RoomRepository) TouchActivity(ctx context.Context, roomID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Room{}).
		Where("id = ?", roomID).
		Update("last_active_at", time.Now().UTC()).Error
}

// Delete hard-deletes a room and everything it owns in one transaction:
// memberships, stack, room-scoped swipes and matches.
func (r *RoomRepository) Delete(ctx context.Context, roomID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&db.RoomMember{}, &db.StackEntry{}, &db.Swipe{}, &db.Match{}} {
			if err := tx.Where("room_id = ?", roomID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&db.Room{}, roomID).Error
	})
}

// AddMember creates the membership row or reactivates a previous one.
// The composite PK keeps one row per (room, user) across leave/rejoin.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID uint64) error {
	member := db.RoomMember{RoomID: roomID, UserID: userID, Active: true}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"active", "updated_at"}),
		}).
		Create(&member).Error
}

func (r *RoomRepository) GetMember(ctx context.Context, roomID, userID uint64) (*db.RoomMember, error) {
	var member db.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// IsActiveMember is the fail-closed membership check used by the feed
// and swipe services.
func (r *RoomRepository) IsActiveMember(ctx context.Context, roomID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.RoomMember{}).
		Where("room_id = ? AND user_id = ? AND active = ?", roomID, userID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *RoomRepository) SetMemberActive(ctx context.Context, roomID, userID uint64, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&db.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetMemberCleared marks one member's archive view of a dissolved room
// as cleaned up.
func (r *RoomRepository) SetMemberCleared(ctx context.Context, roomID, userID uint64) error {
	res := r.db.WithContext(ctx).
		Model(&db.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("cleared", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Members returns every membership row for the room, historical included.
func (r *RoomRepository) Members(ctx context.Context, roomID uint64) ([]db.RoomMember, error) {
	var members []db.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// CountMembers counts every user who has ever belonged to the room,
// active or not. This is the M in match eligibility.
func (r *RoomRepository) CountMembers(ctx context.Context, roomID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.RoomMember{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

func (r *RoomRepository) CountActiveMembers(ctx context.Context, roomID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.RoomMember{}).
		Where("room_id = ? AND active = ?", roomID, true).
		Count(&count).Error
	return count, err
}

// AllCleared reports whether every historical member has cleared the
// room from their archive view.
func (r *RoomRepository) AllCleared(ctx context.Context, roomID uint64) (bool, error) {
	var pending int64
	err := r.db.WithContext(ctx).
		Model(&db.RoomMember{}).
		Where("room_id = ? AND cleared = ?", roomID, false).
		Count(&pending).Error
	return pending == 0, err
}

// ListForUser returns the user's non-dissolved rooms with an active
// membership, most recently active first.
func (r *RoomRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Room, error) {
	var rooms []db.Room
	err := r.db.WithContext(ctx).
		Table("rooms r").
		Joins("JOIN room_members m ON m.room_id = r.id").
		Where("m.user_id = ? AND m.active = ? AND r.status <> ?", userID, true, db.RoomStatusDissolved).
		Order("r.last_active_at DESC, r.id DESC").
		Find(&rooms).Error
	return rooms, err
}

// ListArchivedForUser returns dissolved rooms the user has not yet
// cleared, cursor-paginated by updated_at DESC, id DESC.
func (r *RoomRepository) ListArchivedForUser(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Room, *string, error) {
	var rooms []db.Room

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("rooms r").
		Joins("JOIN room_members m ON m.room_id = r.id").
		Where("m.user_id = ? AND m.cleared = ? AND r.status = ?", userID, false, db.RoomStatusDissolved).
		Order("r.updated_at DESC, r.id DESC").
		Limit(limit + 1)

	if cursor.RoomID > 0 && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix)
		query = query.Where(
			"(r.updated_at < ? OR (r.updated_at = ? AND r.id < ?))",
			ts, ts, cursor.RoomID,
		)
	}

	if err := query.Find(&rooms).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(rooms) > limit {
		last := rooms[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			RoomID:      last.ID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		rooms = rooms[:limit]
	}

	return rooms, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
