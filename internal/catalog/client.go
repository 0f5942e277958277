package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/reelmates/reelmates/internal/config"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/logger"
)

// watchProviderCodes maps the streaming-service names accepted in filter
// documents to the provider's numeric watch-provider codes.
var watchProviderCodes = map[string]int{
	"netflix":     8,
	"prime video": 9,
	"disney+":     337,
	"hulu":        15,
	"max":         1899,
	"apple tv+":   350,
	"paramount+":  531,
	"peacock":     386,
}

// Client talks to a TMDB-compatible HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	region  string
	httpc   *http.Client
}

// NewClient builds a catalog client from config. A missing API key is a
// configuration error, fatal to every operation that needs the catalog.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.Catalog.APIKey == "" {
		return nil, fmt.Errorf("%w: catalog API key missing", svcErr.ErrUnconfigured)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Catalog.BaseURL, "/"),
		apiKey:  cfg.Catalog.APIKey,
		region:  cfg.Catalog.Region,
		httpc:   &http.Client{Timeout: cfg.Catalog.Timeout},
	}, nil
}

// Discover returns one page of movie ids matching the filter document,
// in provider order.
func (c *Client) Discover(ctx context.Context, f Filters, page int) ([]uint64, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("sort_by", "popularity.desc")
	q.Set("include_adult", "false")

	if len(f.Genres) > 0 {
		ids := make([]string, len(f.Genres))
		for i, g := range f.Genres {
			ids[i] = strconv.Itoa(g)
		}
		q.Set("with_genres", strings.Join(ids, ","))
	}
	if len(f.Services) > 0 {
		var codes []string
		for _, name := range f.Services {
			if code, ok := watchProviderCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
				codes = append(codes, strconv.Itoa(code))
			}
		}
		if len(codes) > 0 {
			// "|" is the provider's OR-join operator
			q.Set("with_watch_providers", strings.Join(codes, "|"))
			q.Set("watch_region", c.region)
		}
	}
	if f.MinYear > 0 {
		q.Set("primary_release_date.gte", fmt.Sprintf("%04d-01-01", f.MinYear))
	}
	if f.MinRating > 0 {
		q.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', 1, 64))
	}
	if f.MaxRuntime > 0 {
		q.Set("with_runtime.lte", strconv.Itoa(f.MaxRuntime))
	}
	if f.Language != "" {
		q.Set("with_original_language", f.Language)
	}

	var body struct {
		Results []struct {
			ID uint64 `json:"id"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/discover/movie", q, &body); err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(body.Results))
	for _, r := range body.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Popular returns one page of currently popular movies.
func (c *Client) Popular(ctx context.Context, page int) ([]Movie, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var body struct {
		Results []movieDoc `json:"results"`
	}
	if err := c.get(ctx, "/movie/popular", q, &body); err != nil {
		return nil, err
	}

	movies := make([]Movie, 0, len(body.Results))
	for _, doc := range body.Results {
		movies = append(movies, doc.toMovie())
	}
	return movies, nil
}

// MovieByID resolves full metadata for a single movie.
func (c *Client) MovieByID(ctx context.Context, id uint64) (*Movie, error) {
	var doc movieDoc
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), url.Values{}, &doc); err != nil {
		return nil, err
	}
	m := doc.toMovie()
	return &m, nil
}

// WatchOffers returns the raw streaming offers for a movie in the
// configured region. The provider does not expose presentation quality,
// so offers default to HD.
func (c *Client) WatchOffers(ctx context.Context, id uint64) ([]Offer, error) {
	var body struct {
		Results map[string]struct {
			Flatrate []offerDoc `json:"flatrate"`
			Free     []offerDoc `json:"free"`
			Ads      []offerDoc `json:"ads"`
			Buy      []offerDoc `json:"buy"`
			Rent     []offerDoc `json:"rent"`
		} `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/watch/providers", id), url.Values{}, &body); err != nil {
		return nil, err
	}

	regional, ok := body.Results[c.region]
	if !ok {
		return nil, nil
	}

	var offers []Offer
	appendBucket := func(kind string, docs []offerDoc) {
		for _, d := range docs {
			offers = append(offers, Offer{
				Monetization: kind,
				Presentation: "hd",
				Provider:     d.ProviderName,
			})
		}
	}
	appendBucket("flatrate", regional.Flatrate)
	appendBucket("free", regional.Free)
	appendBucket("ads", regional.Ads)
	appendBucket("buy", regional.Buy)
	appendBucket("rent", regional.Rent)

	return offers, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("catalog non-2xx", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("catalog request %s: status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type movieDoc struct {
	ID               uint64  `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	Runtime          int     `json:"runtime"`
	OriginalLanguage string  `json:"original_language"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type offerDoc struct {
	ProviderName string `json:"provider_name"`
}

func (d movieDoc) toMovie() Movie {
	m := Movie{
		ID:               d.ID,
		Title:            d.Title,
		Overview:         d.Overview,
		PosterPath:       d.PosterPath,
		ReleaseDate:      d.ReleaseDate,
		Rating:           d.VoteAverage,
		Runtime:          d.Runtime,
		OriginalLanguage: d.OriginalLanguage,
	}
	for _, g := range d.Genres {
		m.Genres = append(m.Genres, g.Name)
	}
	return m
}
