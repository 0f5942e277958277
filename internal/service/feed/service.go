// Package feed serves successive pages of a room's stack to a member,
// excluding movies that member has already decided on.
package feed

import (
	"context"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/availability"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/repository"
	"github.com/reelmates/reelmates/internal/service/movies"
)

// PageSize is the maximum number of movies per feed page.
const PageSize = 20

// Page is one slice of a member's remaining feed.
//
// Exhausted is true only when zero unseen candidates remain anywhere in
// the stack, which is a different condition than a short final page.
type Page struct {
	Movies    []movies.Movie `json:"movies"`
	Page      int            `json:"page"`
	Exhausted bool           `json:"exhausted"`
}

type Service struct {
	appCtx   *app.AppContext
	rooms    *repository.RoomRepository
	stacks   *repository.StackRepository
	swipes   *repository.SwipeRepository
	enricher *movies.Enricher
}

func NewService(appCtx *app.AppContext, offers *availability.Service) *Service {
	return &Service{
		appCtx:   appCtx,
		rooms:    repository.NewRoomRepository(appCtx.DB),
		stacks:   repository.NewStackRepository(appCtx.DB),
		swipes:   repository.NewSwipeRepository(appCtx.DB),
		enricher: movies.NewEnricher(appCtx.Catalog, offers, appCtx.Logger),
	}
}

// GetPage returns up to PageSize enriched movies for the member.
//
// Behavior:
//   - Fails closed: a caller without an active membership gets
//     ErrForbidden, never an empty slice of someone else's stack.
//   - Exclusion is by the caller's own swipe history, so two different
//     pages never repeat a movie for that caller.
//   - Relative stack order is preserved across the exclusion.
func (s *Service) GetPage(ctx context.Context, userID, roomID uint64, page int) (*Page, error) {
	if page < 1 {
		return nil, svcErr.Validation("page must be >= 1")
	}

	isMember, err := s.rooms.IsActiveMember(ctx, roomID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !isMember {
		return nil, svcErr.ErrForbidden
	}

	decidedIDs, err := s.swipes.DecidedMovieIDs(ctx, userID, roomID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	decided := make(map[uint64]struct{}, len(decidedIDs))
	for _, id := range decidedIDs {
		decided[id] = struct{}{}
	}

	stackIDs, err := s.stacks.MovieIDs(ctx, roomID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	remaining := make([]uint64, 0, len(stackIDs))
	for _, id := range stackIDs {
		if _, done := decided[id]; !done {
			remaining = append(remaining, id)
		}
	}

	result := &Page{Page: page, Exhausted: len(remaining) == 0}

	start := (page - 1) * PageSize
	if start >= len(remaining) {
		result.Movies = []movies.Movie{}
		return result, nil
	}
	end := min(start+PageSize, len(remaining))

	result.Movies = s.enricher.Many(ctx, remaining[start:end])

	s.appCtx.Logger.Debug("feed page served",
		"user", userID, "room", roomID, "page", page,
		"count", len(result.Movies), "exhausted", result.Exhausted)

	return result, nil
}
