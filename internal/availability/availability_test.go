package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelmates/reelmates/internal/availability"
	"github.com/reelmates/reelmates/internal/cache"
	"github.com/reelmates/reelmates/internal/catalog"
	"github.com/reelmates/reelmates/internal/catalog/catalogtest"
	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/logger"
)

func setup(t *testing.T) (*availability.Service, *catalogtest.Fake, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)

	fake := catalogtest.New()
	return availability.NewService(redisCache, fake, logger.Discard()), fake, mr
}

func TestOffersCachedAfterFirstLookup(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := setup(t)
	fake.Offers[550] = []catalog.Offer{
		{Provider: "Netflix", Monetization: "flatrate", Presentation: "hd"},
	}

	offers := svc.GetOffers(ctx, 550, "Fight Club", 1999)
	require.Len(t, offers, 1)
	assert.Equal(t, "Netflix", offers[0].Provider)

	offers = svc.GetOffers(ctx, 550, "Fight Club", 1999)
	require.Len(t, offers, 1)
	assert.Equal(t, 1, fake.OfferCalls, "second read must come from the cache")
}

func TestFailedLookupCachesEmptyList(t *testing.T) {
	ctx := context.Background()
	svc, fake, mr := setup(t)
	fake.FailOffers = true

	offers := svc.GetOffers(ctx, 550, "Fight Club", 1999)
	assert.Empty(t, offers)

	// upstream recovers, but the empty result stays until TTL expiry
	fake.FailOffers = false
	fake.Offers[550] = []catalog.Offer{{Provider: "Hulu", Monetization: "flatrate"}}

	offers = svc.GetOffers(ctx, 550, "Fight Club", 1999)
	assert.Empty(t, offers)
	assert.Equal(t, 1, fake.OfferCalls)

	mr.FastForward(time.Hour + time.Second)
	offers = svc.GetOffers(ctx, 550, "Fight Club", 1999)
	require.Len(t, offers, 1)
	assert.Equal(t, "Hulu", offers[0].Provider)
	assert.Equal(t, 2, fake.OfferCalls)
}

func TestMonetizationFiltering(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := setup(t)
	fake.Offers[550] = []catalog.Offer{
		{Provider: "Netflix", Monetization: "flatrate"},
		{Provider: "Peacock", Monetization: "ads"},
		{Provider: "Tubi", Monetization: "free"},
		{Provider: "Apple TV", Monetization: "buy"},
		{Provider: "Amazon Video", Monetization: "rent"},
	}

	offers := svc.GetOffers(ctx, 550, "Fight Club", 1999)
	require.Len(t, offers, 3, "purchase and rental offers are dropped")
	for _, o := range offers {
		assert.NotEqual(t, "buy", o.Monetization)
		assert.NotEqual(t, "rent", o.Monetization)
	}
}

func TestNormalizeProvider(t *testing.T) {
	cases := map[string]string{
		"Netflix Standard with Ads": "Netflix",
		"Amazon Prime Video":        "Prime Video",
		"Disney Plus":               "Disney+",
		"HBO Max":                   "Max",
		"Max Amazon Channel":        "Max",
		"Apple TV Plus":             "Apple TV+",
		"Paramount Plus Premium":    "Paramount+",
		"Peacock Premium":           "Peacock",
		"Criterion Channel":         "Criterion Channel",
	}
	for in, want := range cases {
		assert.Equal(t, want, availability.NormalizeProvider(in), in)
	}
}
