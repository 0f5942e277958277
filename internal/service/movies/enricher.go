// Package movies resolves display metadata and streaming offers for
// movie identifiers. Enrichment is always best-effort: a movie that
// cannot be resolved keeps placeholder fields rather than failing the
// request it is part of.
package movies

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/reelmates/reelmates/internal/availability"
	"github.com/reelmates/reelmates/internal/catalog"
)

// maxConcurrent bounds the per-request fan-out; one page is at most 20
// movies so nothing ever waits behind more than a pageful of lookups.
const maxConcurrent = 20

// Movie is an enriched feed/match/favorite item.
type Movie struct {
	MovieID          uint64         `json:"movie_id"`
	Title            string         `json:"title"`
	Overview         string         `json:"overview"`
	PosterPath       string         `json:"poster_path"`
	ReleaseDate      string         `json:"release_date"`
	Rating           float64        `json:"rating"`
	Runtime          int            `json:"runtime,omitempty"`
	Genres           []string       `json:"genres,omitempty"`
	OriginalLanguage string         `json:"original_language,omitempty"`
	Offers           []catalog.Offer `json:"offers"`
}

type Enricher struct {
	catalog catalog.Provider
	offers  *availability.Service
	log     *slog.Logger
}

func NewEnricher(provider catalog.Provider, offers *availability.Service, log *slog.Logger) *Enricher {
	return &Enricher{catalog: provider, offers: offers, log: log}
}

// One resolves a single movie. On catalog failure the result carries the
// id and empty offers only.
func (e *Enricher) One(ctx context.Context, movieID uint64) Movie {
	detail, err := e.catalog.MovieByID(ctx, movieID)
	if err != nil {
		e.log.Warn("movie lookup failed", "movie", movieID, "err", err)
		return Movie{MovieID: movieID, Offers: []catalog.Offer{}}
	}

	return Movie{
		MovieID:          movieID,
		Title:            detail.Title,
		Overview:         detail.Overview,
		PosterPath:       detail.PosterPath,
		ReleaseDate:      detail.ReleaseDate,
		Rating:           detail.Rating,
		Runtime:          detail.Runtime,
		Genres:           detail.Genres,
		OriginalLanguage: detail.OriginalLanguage,
		Offers:           e.offers.GetOffers(ctx, movieID, detail.Title, detail.ReleaseYear()),
	}
}

// Many resolves a batch concurrently, preserving input order. A slow or
// failing lookup degrades only its own slot.
func (e *Enricher) Many(ctx context.Context, movieIDs []uint64) []Movie {
	results := make([]Movie, len(movieIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, id := range movieIDs {
		g.Go(func() error {
			results[i] = e.One(gctx, id)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, they degrade

	return results
}
