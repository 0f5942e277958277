package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelmates/reelmates/internal/db"
)

// MatchRepository provides data access for match rows.
//
// Matches are only ever created through CreateIfAbsent; the composite PK
// on (room_id, movie_id) is the authoritative guard against concurrent
// duplicate inserts.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent atomically inserts the match row unless one already
// exists. Returns created=false (and no error) when another writer got
// there first: the losing side of the race treats that as "no match
// created by me", never as a failure.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, roomID, movieID uint64) (bool, error) {
	match := db.Match{RoomID: roomID, MovieID: movieID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "movie_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether a match row is already present. Used as the
// cheap pre-check before attempting the insert.
func (r *MatchRepository) Exists(ctx context.Context, roomID, movieID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("room_id = ? AND movie_id = ?", roomID, movieID).
		Count(&count).Error
	return count > 0, err
}

// Get returns a single match row, or gorm.ErrRecordNotFound.
func (r *MatchRepository) Get(ctx context.Context, roomID, movieID uint64) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND movie_id = ?", roomID, movieID).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListByRoom returns a room's matches, newest first.
func (r *MatchRepository) ListByRoom(ctx context.Context, roomID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC, movie_id DESC").
		Find(&matches).Error
	return matches, err
}

// SetWatched toggles the only mutable field on a match. Returns
// gorm.ErrRecordNotFound when the match does not exist.
func (r *MatchRepository) SetWatched(ctx context.Context, roomID, movieID uint64, watched bool) error {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("room_id = ? AND movie_id = ?", roomID, movieID).
		Update("watched", watched)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteForRoom removes all matches owned by a room.
func (r *MatchRepository) DeleteForRoom(ctx context.Context, roomID uint64) error {
	return r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&db.Match{}).Error
}
