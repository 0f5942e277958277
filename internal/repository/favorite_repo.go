package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelmates/reelmates/internal/db"
)

// FavoriteRepository provides data access for users' saved movies.
type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(database *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: database}
}

// Add saves a movie for a user. Re-adding an existing favorite is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, userID, movieID uint64) error {
	fav := db.Favorite{UserID: userID, MovieID: movieID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoNothing: true,
		}).
		Create(&fav).Error
}

// Remove deletes a saved movie. Removing an absent favorite returns
// gorm.ErrRecordNotFound so the caller can distinguish the outcome.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, movieID uint64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&db.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns the user's saved movies, newest first.
func (r *FavoriteRepository) List(ctx context.Context, userID uint64) ([]db.Favorite, error) {
	var favs []db.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, movie_id DESC").
		Find(&favs).Error
	return favs, err
}
