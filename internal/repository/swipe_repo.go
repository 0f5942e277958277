package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelmates/reelmates/internal/db"
)

// SwipeRepository provides data access for the swipe ledger.
type SwipeRepository struct {
	db *gorm.DB
}

func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Upsert records a user's decision on a movie within a room.
//
// The composite PK (user_id, movie_id, room_id) guarantees a single row
// per decision; resubmitting overwrites direction and updated_at
// (last write wins), which re-enters match eligibility on a left→right flip.
func (r *SwipeRepository) Upsert(ctx context.Context, userID, movieID, roomID uint64, direction string) error {
	swipe := db.Swipe{
		UserID:    userID,
		MovieID:   movieID,
		RoomID:    roomID,
		Direction: direction,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}, {Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"direction", "updated_at"}),
		}).
		Create(&swipe).Error
}

// Get returns a single swipe row, or gorm.ErrRecordNotFound.
func (r *SwipeRepository) Get(ctx context.Context, userID, movieID, roomID uint64) (*db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ? AND room_id = ?", userID, movieID, roomID).
		First(&swipe).Error
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

// DecidedMovieIDs returns every movie the user has already swiped on in
// the room, regardless of direction. Feeds the paginator's exclusion set.
func (r *SwipeRepository) DecidedMovieIDs(ctx context.Context, userID, roomID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("user_id = ? AND room_id = ?", userID, roomID).
		Pluck("movie_id", &ids).Error
	return ids, err
}

// CountRightSwipers counts the distinct users with a current right swipe
// on (room, movie). Last-write-wins upserts mean a row's direction is the
// user's latest decision, so a plain count is accurate.
func (r *SwipeRepository) CountRightSwipers(ctx context.Context, roomID, movieID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("room_id = ? AND movie_id = ? AND direction = ?", roomID, movieID, db.SwipeRight).
		Count(&count).Error
	return count, err
}

// DeleteForRoom removes all swipe rows scoped to a room. Used by the
// room cascade delete.
func (r *SwipeRepository) DeleteForRoom(ctx context.Context, roomID uint64) error {
	return r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&db.Swipe{}).Error
}

// DeleteForUser removes all swipe rows owned by a user.
func (r *SwipeRepository) DeleteForUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&db.Swipe{}).Error
}
