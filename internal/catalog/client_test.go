package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelmates/reelmates/internal/catalog"
	"github.com/reelmates/reelmates/internal/config"
	svcErr "github.com/reelmates/reelmates/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *catalog.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.New()
	cfg.Catalog.BaseURL = srv.URL
	cfg.Catalog.APIKey = "test-key"
	cfg.Catalog.Region = "US"
	cfg.Catalog.Timeout = 2 * time.Second

	client, err := catalog.NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	cfg := config.New()
	cfg.Catalog.APIKey = ""

	_, err := catalog.NewClient(cfg)
	assert.ErrorIs(t, err, svcErr.ErrUnconfigured)
}

func TestDiscoverBuildsFilterQuery(t *testing.T) {
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/movie", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"id": 550}, {"id": 680}},
		})
	})

	filters := catalog.Filters{
		Genres:     []int{35, 18},
		Services:   []string{"Netflix", "Hulu", "Not A Service"},
		MinYear:    2010,
		MinRating:  7.5,
		MaxRuntime: 120,
		Language:   "en",
	}

	ids, err := client.Discover(context.Background(), filters, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{550, 680}, ids)

	assert.Equal(t, "test-key", gotQuery["api_key"])
	assert.Equal(t, "2", gotQuery["page"])
	assert.Equal(t, "popularity.desc", gotQuery["sort_by"])
	assert.Equal(t, "35,18", gotQuery["with_genres"])
	assert.Equal(t, "8|15", gotQuery["with_watch_providers"], "unknown services are silently skipped")
	assert.Equal(t, "US", gotQuery["watch_region"])
	assert.Equal(t, "2010-01-01", gotQuery["primary_release_date.gte"])
	assert.Equal(t, "7.5", gotQuery["vote_average.gte"])
	assert.Equal(t, "120", gotQuery["with_runtime.lte"])
	assert.Equal(t, "en", gotQuery["with_original_language"])
}

func TestDiscoverEmptyFiltersSendsNoFilterParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("with_genres"))
		assert.False(t, q.Has("with_watch_providers"))
		assert.False(t, q.Has("primary_release_date.gte"))
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	})

	ids, err := client.Discover(context.Background(), catalog.Filters{}, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMovieByID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           550,
			"title":        "Fight Club",
			"release_date": "1999-10-15",
			"vote_average": 8.4,
			"runtime":      139,
			"genres":       []map[string]any{{"name": "Drama"}},
		})
	})

	movie, err := client.MovieByID(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", movie.Title)
	assert.Equal(t, 1999, movie.ReleaseYear())
	assert.Equal(t, []string{"Drama"}, movie.Genres)
}

func TestWatchOffersRegionAndBuckets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550/watch/providers", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{
				"US": map[string]any{
					"flatrate": []map[string]any{{"provider_name": "Netflix"}},
					"buy":      []map[string]any{{"provider_name": "Apple TV"}},
				},
				"GB": map[string]any{
					"flatrate": []map[string]any{{"provider_name": "Sky Go"}},
				},
			},
		})
	})

	offers, err := client.WatchOffers(context.Background(), 550)
	require.NoError(t, err)
	require.Len(t, offers, 2, "only the configured region's buckets")
	assert.Equal(t, "Netflix", offers[0].Provider)
	assert.Equal(t, "flatrate", offers[0].Monetization)
	assert.Equal(t, "hd", offers[0].Presentation)
	assert.Equal(t, "buy", offers[1].Monetization)
}

func TestNonOKStatusIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Discover(context.Background(), catalog.Filters{}, 1)
	assert.Error(t, err)
}
