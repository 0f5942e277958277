package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelmates/reelmates/internal/api"
	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/availability"
	"github.com/reelmates/reelmates/internal/cache"
	"github.com/reelmates/reelmates/internal/catalog"
	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/db"
	"github.com/reelmates/reelmates/internal/logger"
	"github.com/reelmates/reelmates/internal/notify"
	"github.com/reelmates/reelmates/internal/repository"
	"github.com/reelmates/reelmates/internal/service/favorites"
	"github.com/reelmates/reelmates/internal/service/feed"
	"github.com/reelmates/reelmates/internal/service/rooms"
	"github.com/reelmates/reelmates/internal/service/stack"
	"github.com/reelmates/reelmates/internal/service/swipes"
	"github.com/reelmates/reelmates/internal/service/users"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Catalog provider is a hard requirement: without it no room can
	// ever build a stack.
	provider, err := catalog.NewClient(cfg)
	if err != nil {
		log.Error("failed to init catalog provider", "err", err)
		return
	}

	// Notification hub, guarded by the membership check
	roomRepo := repository.NewRoomRepository(database)
	hub := notify.NewHub(log, roomRepo.IsActiveMember)
	go hub.Run()

	appCtx := app.New(database, redisCache, provider, hub, log)

	offers := availability.NewService(redisCache, provider, log)
	builder := stack.NewBuilder(appCtx)

	server := api.NewServer(cfg, appCtx, hub, api.Services{
		Users:     users.NewService(appCtx),
		Rooms:     rooms.NewService(appCtx, builder),
		Feed:      feed.NewService(appCtx, offers),
		Swipes:    swipes.NewService(appCtx, offers),
		Favorites: favorites.NewService(appCtx, offers),
	})

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	go func() {
		log.Info("starting http server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	hub.Shutdown()
}
