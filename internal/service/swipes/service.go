// Package swipes owns the swipe ledger and the match detector: every
// right swipe is checked against the room's aggregate swipe state, and
// the transition into a matched movie happens exactly once per
// (room, movie) no matter how the members' swipes race.
package swipes

import (
	"context"
	"time"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/availability"
	"github.com/reelmates/reelmates/internal/catalog"
	"github.com/reelmates/reelmates/internal/db"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/notify"
	"github.com/reelmates/reelmates/internal/repository"
	"github.com/reelmates/reelmates/internal/service/movies"
)

// MatchResult is the notification payload for a freshly created match.
// Metadata and offers are best-effort; a failed enrichment leaves them
// empty while the match row stands.
type MatchResult struct {
	RoomID     uint64          `json:"room_id"`
	MovieID    uint64          `json:"movie_id"`
	Title      string          `json:"title"`
	PosterPath string          `json:"poster_path"`
	Offers     []catalog.Offer `json:"offers"`
	MatchedAt  time.Time       `json:"matched_at"`
}

// MatchItem is one entry of a room's match list.
type MatchItem struct {
	movies.Movie
	Watched   bool      `json:"watched"`
	MatchedAt time.Time `json:"matched_at"`
}

type Service struct {
	appCtx   *app.AppContext
	rooms    *repository.RoomRepository
	swipes   *repository.SwipeRepository
	matches  *repository.MatchRepository
	enricher *movies.Enricher
}

func NewService(appCtx *app.AppContext, offers *availability.Service) *Service {
	return &Service{
		appCtx:   appCtx,
		rooms:    repository.NewRoomRepository(appCtx.DB),
		swipes:   repository.NewSwipeRepository(appCtx.DB),
		matches:  repository.NewMatchRepository(appCtx.DB),
		enricher: movies.NewEnricher(appCtx.Catalog, offers, appCtx.Logger),
	}
}

// Record persists a directional decision and, on a right swipe, runs
// match detection. Returns the match result when this call created the
// match; nil otherwise (including when a concurrent swipe won the race).
func (s *Service) Record(ctx context.Context, userID, movieID, roomID uint64, direction string) (*db.Swipe, *MatchResult, error) {
	if direction != db.SwipeLeft && direction != db.SwipeRight {
		return nil, nil, svcErr.Validation("direction must be %q or %q", db.SwipeLeft, db.SwipeRight)
	}
	if movieID == 0 {
		return nil, nil, svcErr.Validation("movie_id is required")
	}

	isMember, err := s.rooms.IsActiveMember(ctx, roomID, userID)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	if !isMember {
		return nil, nil, svcErr.ErrForbidden
	}

	if err := s.swipes.Upsert(ctx, userID, movieID, roomID, direction); err != nil {
		return nil, nil, svcErr.Map(err)
	}

	if err := s.rooms.TouchActivity(ctx, roomID); err != nil {
		s.appCtx.Logger.Warn("room activity touch failed", "room", roomID, "err", err)
	}

	swipe, err := s.swipes.Get(ctx, userID, movieID, roomID)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}

	var result *MatchResult
	if direction == db.SwipeRight {
		result, err = s.detectMatch(ctx, roomID, movieID)
		if err != nil {
			return nil, nil, err
		}
		if result != nil {
			s.appCtx.Publisher.Publish(roomID, notify.KindMatch, result)
		}
	}

	return swipe, result, nil
}

// detectMatch evaluates eligibility after a right swipe.
//
// M counts every user who has ever belonged to the room, active or not:
// a member who left and rejoined, or a late joiner whose partner
// right-swiped the movie before they arrived, still counts through the
// durable swipe rows. Eligibility requires M >= 2 and at least M
// distinct right-swipers, so a solo room never matches against itself.
//
// Two concurrent "I am the second right-swiper" evaluations can both see
// eligibility; the composite PK behind CreateIfAbsent ensures only one
// insert lands. The loser reports no match and no error.
func (s *Service) detectMatch(ctx context.Context, roomID, movieID uint64) (*MatchResult, error) {
	memberCount, err := s.rooms.CountMembers(ctx, roomID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if memberCount < 2 {
		return nil, nil
	}

	rightCount, err := s.swipes.CountRightSwipers(ctx, roomID, movieID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if rightCount < memberCount {
		return nil, nil
	}

	// cheap pre-check; the PK on (room_id, movie_id) is the backstop
	exists, err := s.matches.Exists(ctx, roomID, movieID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if exists {
		return nil, nil
	}

	created, err := s.matches.CreateIfAbsent(ctx, roomID, movieID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !created {
		return nil, nil
	}

	s.appCtx.Logger.Info("match created", "room", roomID, "movie", movieID)

	enriched := s.enricher.One(ctx, movieID)
	return &MatchResult{
		RoomID:     roomID,
		MovieID:    movieID,
		Title:      enriched.Title,
		PosterPath: enriched.PosterPath,
		Offers:     enriched.Offers,
		MatchedAt:  time.Now().UTC(),
	}, nil
}

// ListMatches returns the room's matches, enriched, newest first.
func (s *Service) ListMatches(ctx context.Context, userID, roomID uint64) ([]MatchItem, error) {
	isMember, err := s.rooms.IsActiveMember(ctx, roomID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !isMember {
		return nil, svcErr.ErrForbidden
	}

	rows, err := s.matches.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ids := make([]uint64, len(rows))
	for i, m := range rows {
		ids[i] = m.MovieID
	}
	enriched := s.enricher.Many(ctx, ids)

	items := make([]MatchItem, len(rows))
	for i, m := range rows {
		items[i] = MatchItem{
			Movie:     enriched[i],
			Watched:   m.Watched,
			MatchedAt: m.CreatedAt,
		}
	}
	return items, nil
}

// SetWatched toggles the watched flag, the only mutation a match allows.
func (s *Service) SetWatched(ctx context.Context, userID, roomID, movieID uint64, watched bool) error {
	isMember, err := s.rooms.IsActiveMember(ctx, roomID, userID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !isMember {
		return svcErr.ErrForbidden
	}

	return svcErr.Map(s.matches.SetWatched(ctx, roomID, movieID, watched))
}
