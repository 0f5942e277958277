package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/reelmates/reelmates/internal/db"
)

// StackRepository provides data access for room candidate stacks.
type StackRepository struct {
	db *gorm.DB
}

func NewStackRepository(database *gorm.DB) *StackRepository {
	return &StackRepository{db: database}
}

// Replace swaps the room's stack for the given ordering in one
// transaction: a rebuild always fully supersedes the prior stack, never
// appends to it. Positions are assigned densely from 0 in slice order.
func (r *StackRepository) Replace(ctx context.Context, roomID uint64, movieIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&db.StackEntry{}).Error; err != nil {
			return err
		}
		if len(movieIDs) == 0 {
			return nil
		}

		entries := make([]db.StackEntry, len(movieIDs))
		for i, movieID := range movieIDs {
			entries[i] = db.StackEntry{RoomID: roomID, Position: i, MovieID: movieID}
		}
		return tx.CreateInBatches(entries, 200).Error
	})
}

// MovieIDs returns the room's full shared ordering, by ascending position.
func (r *StackRepository) MovieIDs(ctx context.Context, roomID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.StackEntry{}).
		Where("room_id = ?", roomID).
		Order("position ASC").
		Pluck("movie_id", &ids).Error
	return ids, err
}

// Size returns the number of entries in a room's stack.
func (r *StackRepository) Size(ctx context.Context, roomID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.StackEntry{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

// DeleteForRoom removes a room's stack. Used by the room cascade delete.
func (r *StackRepository) DeleteForRoom(ctx context.Context, roomID uint64) error {
	return r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&db.StackEntry{}).Error
}
