package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/reelmates/reelmates/internal/cache"
	"github.com/reelmates/reelmates/internal/catalog"
	"github.com/reelmates/reelmates/internal/notify"
)

// AppContext holds the shared dependencies services are built from.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Catalog    catalog.Provider
	Publisher  notify.Publisher
	Logger     *slog.Logger
}

// New creates a new AppContext.
func New(db *gorm.DB, rdb *cache.RedisCache, provider catalog.Provider, pub notify.Publisher, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Catalog:    provider,
		Publisher:  pub,
		Logger:     logger,
	}
}
