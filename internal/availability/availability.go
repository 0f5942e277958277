// Package availability resolves streaming offers for movies through the
// catalog provider, behind a Redis cache with a fixed TTL. Lookups never
// fail: any upstream error degrades to an empty offer list, and the empty
// list itself is cached so a flapping upstream is not hammered.
package availability

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/reelmates/reelmates/internal/cache"
	"github.com/reelmates/reelmates/internal/catalog"
)

const offerTTL = time.Hour

// allowed monetization kinds; purchase/rental/theatrical are dropped.
var allowedMonetization = map[string]bool{
	"flatrate": true,
	"free":     true,
	"ads":      true,
}

// canonicalProviders maps name prefixes/substrings reported by the
// catalog to the small canonical set the apps display.
var canonicalProviders = []struct {
	match     string
	canonical string
}{
	{"netflix", "Netflix"},
	{"amazon prime", "Prime Video"},
	{"prime video", "Prime Video"},
	{"disney", "Disney+"},
	{"hulu", "Hulu"},
	{"hbo", "Max"},
	{"max", "Max"},
	{"apple tv", "Apple TV+"},
	{"paramount", "Paramount+"},
	{"peacock", "Peacock"},
}

type Service struct {
	cache    *cache.RedisCache
	provider catalog.Provider
	log      *slog.Logger
}

func NewService(c *cache.RedisCache, p catalog.Provider, log *slog.Logger) *Service {
	return &Service{cache: c, provider: p, log: log}
}

// GetOffers returns the normalized streaming offers for a movie.
// Cache hit returns the stored list as-is, even when empty. Cache miss
// triggers a provider lookup; a failed lookup degrades to an empty list
// which is cached for the full TTL like any other result.
func (s *Service) GetOffers(ctx context.Context, movieID uint64, title string, releaseYear int) []catalog.Offer {
	key := s.cache.KeyForOffers(movieID)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var offers []catalog.Offer
		if jsonErr := json.Unmarshal([]byte(raw), &offers); jsonErr == nil {
			return offers
		}
		// unreadable entry, fall through to a fresh lookup
		_ = s.cache.Del(ctx, key)
	}

	offers := s.lookup(ctx, movieID, title, releaseYear)

	if encoded, err := json.Marshal(offers); err == nil {
		if err := s.cache.Set(ctx, key, string(encoded), offerTTL); err != nil {
			s.log.Warn("offer cache write failed", "movie", movieID, "err", err)
		}
	}

	return offers
}

func (s *Service) lookup(ctx context.Context, movieID uint64, title string, releaseYear int) []catalog.Offer {
	raw, err := s.provider.WatchOffers(ctx, movieID)
	if err != nil {
		s.log.Warn("offer lookup failed", "movie", movieID, "title", title, "year", releaseYear, "err", err)
		return []catalog.Offer{}
	}

	offers := make([]catalog.Offer, 0, len(raw))
	for _, o := range raw {
		if !allowedMonetization[o.Monetization] {
			continue
		}
		o.Provider = NormalizeProvider(o.Provider)
		offers = append(offers, o)
	}
	return offers
}

// NormalizeProvider folds provider display-name variants ("Netflix
// Standard with Ads", "Amazon Prime Video") into canonical names.
// Unrecognized providers pass through untouched.
func NormalizeProvider(name string) string {
	lowered := strings.ToLower(name)
	for _, c := range canonicalProviders {
		if strings.HasPrefix(lowered, c.match) || strings.Contains(lowered, c.match) {
			return c.canonical
		}
	}
	return name
}
