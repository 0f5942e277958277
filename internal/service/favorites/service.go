// Package favorites is a user's saved-movie list, independent of rooms
// and matches.
package favorites

import (
	"context"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/availability"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/repository"
	"github.com/reelmates/reelmates/internal/service/movies"
)

type Service struct {
	appCtx    *app.AppContext
	favorites *repository.FavoriteRepository
	enricher  *movies.Enricher
}

func NewService(appCtx *app.AppContext, offers *availability.Service) *Service {
	return &Service{
		appCtx:    appCtx,
		favorites: repository.NewFavoriteRepository(appCtx.DB),
		enricher:  movies.NewEnricher(appCtx.Catalog, offers, appCtx.Logger),
	}
}

// Add saves a movie. Saving an already-saved movie is a no-op.
func (s *Service) Add(ctx context.Context, userID, movieID uint64) error {
	if movieID == 0 {
		return svcErr.Validation("movie_id is required")
	}
	return svcErr.Map(s.favorites.Add(ctx, userID, movieID))
}

// Remove deletes a saved movie; removing an unknown one is NotFound.
func (s *Service) Remove(ctx context.Context, userID, movieID uint64) error {
	return svcErr.Map(s.favorites.Remove(ctx, userID, movieID))
}

// List returns the user's saved movies, enriched best-effort.
func (s *Service) List(ctx context.Context, userID uint64) ([]movies.Movie, error) {
	favs, err := s.favorites.List(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ids := make([]uint64, len(favs))
	for i, f := range favs {
		ids[i] = f.MovieID
	}
	return s.enricher.Many(ctx, ids), nil
}
