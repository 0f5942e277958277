package catalog

import "context"

// Movie is the display metadata for one catalog title.
type Movie struct {
	ID               uint64   `json:"id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview"`
	PosterPath       string   `json:"poster_path"`
	ReleaseDate      string   `json:"release_date"`
	Rating           float64  `json:"vote_average"`
	Runtime          int      `json:"runtime"`
	Genres           []string `json:"genres"`
	OriginalLanguage string   `json:"original_language"`
}

// ReleaseYear extracts the year from the provider's YYYY-MM-DD release date.
func (m *Movie) ReleaseYear() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, r := range m.ReleaseDate[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// Offer is one normalized streaming availability entry.
type Offer struct {
	Monetization string `json:"monetization"` // flatrate, free or ads
	Presentation string `json:"presentation"` // sd or hd
	Provider     string `json:"provider"`     // canonical display name
}

// Filters is the room's filter document. All fields are optional; the
// stored JSON is the source of truth and may carry keys this struct does
// not know about yet.
type Filters struct {
	Genres     []int    `json:"genres,omitempty"`
	Services   []string `json:"services,omitempty"`
	MinYear    int      `json:"min_year,omitempty"`
	MinRating  float64  `json:"min_rating,omitempty"`
	MaxRuntime int      `json:"max_runtime,omitempty"`
	Language   string   `json:"language,omitempty"`
}

// Provider is the external movie catalog contract. Every call can fail
// with a network error; callers decide whether to degrade or retry.
type Provider interface {
	Discover(ctx context.Context, f Filters, page int) ([]uint64, error)
	Popular(ctx context.Context, page int) ([]Movie, error)
	MovieByID(ctx context.Context, id uint64) (*Movie, error)
	WatchOffers(ctx context.Context, id uint64) ([]Offer, error)
}
