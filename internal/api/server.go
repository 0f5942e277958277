package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/notify"
	"github.com/reelmates/reelmates/internal/service/favorites"
	"github.com/reelmates/reelmates/internal/service/feed"
	"github.com/reelmates/reelmates/internal/service/rooms"
	"github.com/reelmates/reelmates/internal/service/swipes"
	"github.com/reelmates/reelmates/internal/service/users"
)

// Server is the REST + websocket surface over the services.
type Server struct {
	log       *slog.Logger
	tokens    *TokenManager
	hub       *notify.Hub
	upgrader  websocket.Upgrader
	users     *users.Service
	rooms     *rooms.Service
	feed      *feed.Service
	swipes    *swipes.Service
	favorites *favorites.Service
}

type Services struct {
	Users     *users.Service
	Rooms     *rooms.Service
	Feed      *feed.Service
	Swipes    *swipes.Service
	Favorites *favorites.Service
}

func NewServer(cfg *config.Config, appCtx *app.AppContext, hub *notify.Hub, svcs Services) *Server {
	return &Server{
		log:       appCtx.Logger,
		tokens:    NewTokenManager(cfg),
		hub:       hub,
		upgrader:  websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		users:     svcs.Users,
		rooms:     svcs.Rooms,
		feed:      svcs.Feed,
		swipes:    svcs.Swipes,
		favorites: svcs.Favorites,
	}
}

// Handler wires all routes behind logging and panic-recovery middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.health)

	mux.HandleFunc("POST /api/register", s.register)
	mux.HandleFunc("POST /api/login", s.login)
	mux.HandleFunc("POST /api/guest", s.guest)

	mux.HandleFunc("GET /api/account", s.authMiddleware(s.account))
	mux.HandleFunc("PATCH /api/account", s.authMiddleware(s.updateAccount))
	mux.HandleFunc("POST /api/account/upgrade", s.authMiddleware(s.upgradeAccount))

	mux.HandleFunc("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.HandleFunc("GET /api/rooms", s.authMiddleware(s.listRooms))
	mux.HandleFunc("POST /api/rooms/join", s.authMiddleware(s.joinRoom))
	mux.HandleFunc("GET /api/rooms/archived", s.authMiddleware(s.listArchivedRooms))
	mux.HandleFunc("GET /api/rooms/{id}", s.authMiddleware(s.getRoom))
	mux.HandleFunc("POST /api/rooms/{id}/leave", s.authMiddleware(s.leaveRoom))
	mux.HandleFunc("PUT /api/rooms/{id}/filters", s.authMiddleware(s.updateFilters))
	mux.HandleFunc("DELETE /api/rooms/{id}/archive", s.authMiddleware(s.clearArchivedRoom))

	mux.HandleFunc("GET /api/rooms/{id}/feed", s.authMiddleware(s.feedPage))
	mux.HandleFunc("POST /api/rooms/{id}/swipes", s.authMiddleware(s.recordSwipe))
	mux.HandleFunc("GET /api/rooms/{id}/matches", s.authMiddleware(s.listMatches))
	mux.HandleFunc("PATCH /api/rooms/{id}/matches/{movieId}", s.authMiddleware(s.setMatchWatched))

	mux.HandleFunc("GET /api/favorites", s.authMiddleware(s.listFavorites))
	mux.HandleFunc("POST /api/favorites", s.authMiddleware(s.addFavorite))
	mux.HandleFunc("DELETE /api/favorites/{movieId}", s.authMiddleware(s.removeFavorite))

	mux.HandleFunc("GET /ws", s.authMiddleware(s.websocketHandler))

	return handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, mux))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// websocketHandler upgrades the connection and hands it to the hub.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "err", err)
		return
	}

	notify.NewClient(s.hub, conn, userID)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("json encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, apiErr *ApiError) {
	if apiErr.StatusCode >= http.StatusInternalServerError {
		s.log.Error("request failed", "err", apiErr.Error())
	}
	s.writeJSON(w, apiErr.StatusCode, apiErr)
}
