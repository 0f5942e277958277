// Package catalogtest provides an in-memory catalog.Provider for tests.
package catalogtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/reelmates/reelmates/internal/catalog"
)

// ErrUpstream is what failing fake calls return.
var ErrUpstream = errors.New("upstream unavailable")

// Fake implements catalog.Provider from canned data. Pages holds the
// discover result per page number; FailPages marks pages that error.
// All counters are safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	Pages      map[int][]uint64
	FailPages  map[int]bool
	Movies     map[uint64]catalog.Movie
	Offers     map[uint64][]catalog.Offer
	FailOffers bool
	FailMovies bool

	DiscoverCalls int
	OfferCalls    int
}

func New() *Fake {
	return &Fake{
		Pages:  make(map[int][]uint64),
		Movies: make(map[uint64]catalog.Movie),
		Offers: make(map[uint64][]catalog.Offer),
	}
}

// WithPages fills five discover pages of sequential ids, 20 per page.
func (f *Fake) WithPages(pages int) *Fake {
	id := uint64(1)
	for p := 1; p <= pages; p++ {
		for i := 0; i < 20; i++ {
			f.Pages[p] = append(f.Pages[p], id)
			f.Movies[id] = catalog.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id)}
			id++
		}
	}
	return f
}

func (f *Fake) Discover(_ context.Context, _ catalog.Filters, page int) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DiscoverCalls++
	if f.FailPages[page] {
		return nil, ErrUpstream
	}
	return f.Pages[page], nil
}

func (f *Fake) Popular(_ context.Context, page int) ([]catalog.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []catalog.Movie
	for _, id := range f.Pages[page] {
		out = append(out, f.Movies[id])
	}
	return out, nil
}

func (f *Fake) MovieByID(_ context.Context, id uint64) (*catalog.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailMovies {
		return nil, ErrUpstream
	}
	m, ok := f.Movies[id]
	if !ok {
		m = catalog.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id)}
	}
	return &m, nil
}

func (f *Fake) WatchOffers(_ context.Context, id uint64) ([]catalog.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OfferCalls++
	if f.FailOffers {
		return nil, ErrUpstream
	}
	return f.Offers[id], nil
}
