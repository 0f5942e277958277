package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/reelmates/reelmates/internal/db"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GuestRequest struct {
	Username string `json:"username"`
}

type UpgradeRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateAccountRequest struct {
	Username string `json:"username"`
}

type CreateRoomRequest struct {
	Name    string          `json:"name"`
	Filters json.RawMessage `json:"filters"`
}

type JoinRoomRequest struct {
	Code string `json:"code"`
}

type UpdateFiltersRequest struct {
	Filters json.RawMessage `json:"filters"`
}

type SwipeRequest struct {
	MovieID   uint64 `json:"movie_id"`
	Direction string `json:"direction"`
}

type SwipeResponse struct {
	Swipe *db.Swipe `json:"swipe"`
	Match any       `json:"match,omitempty"`
}

type WatchedRequest struct {
	Watched bool `json:"watched"`
}

type FavoriteRequest struct {
	MovieID uint64 `json:"movie_id"`
}

type AuthResponse struct {
	User  UserView `json:"user"`
	Token string   `json:"token"`
}

// UserView is the user shape exposed over the API; credentials stay out.
type UserView struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Guest    bool   `json:"guest"`
}

func userView(u *db.User) UserView {
	view := UserView{ID: u.ID, Username: u.Username, Guest: u.Guest}
	if u.Email != nil {
		view.Email = *u.Email
	}
	return view
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}

	s.issueToken(w, http.StatusCreated, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	user, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}

	s.issueToken(w, http.StatusOK, user)
}

func (s *Server) guest(w http.ResponseWriter, r *http.Request) {
	var req GuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	user, err := s.users.Guest(r.Context(), req.Username)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}

	s.issueToken(w, http.StatusCreated, user)
}

func (s *Server) issueToken(w http.ResponseWriter, status int, user *db.User) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}
	s.writeJSON(w, status, AuthResponse{User: userView(user), Token: token})
}

func (s *Server) account(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), userID, req.Username)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) upgradeAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req UpgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	user, err := s.users.Upgrade(r.Context(), userID, req.Email, req.Password)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	room, err := s.rooms.Create(r.Context(), userID, req.Name, req.Filters)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusCreated, room)
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	list, err := s.rooms.ListForUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	room, err := s.rooms.Join(r.Context(), userID, req.Code)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, room)
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	roomID, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	detail, err := s.rooms.Get(r.Context(), userID, roomID)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) leaveRoom(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	roomID, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	if err := s.rooms.Leave(r.Context(), userID, roomID); err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) updateFilters(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	roomID, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	var req UpdateFiltersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	if err := s.rooms.UpdateFilters(r.Context(), userID, roomID, req.Filters); err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) listArchivedRooms(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var token *string
	if t := r.URL.Query().Get("cursor"); t != "" {
		token = &t
	}

	list, next, err := s.rooms.ListArchived(r.Context(), userID, token)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}

	resp := map[string]any{"rooms": list}
	if next != nil {
		resp["next_cursor"] = *next
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) clearArchivedRoom(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	roomID, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	if err := s.rooms.ClearArchived(r.Context(), userID, roomID); err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) feedPage(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	roomID, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			s.writeError(w, NewBadRequestError("invalid page"))
			return
		}
		page = parsed
	}

	result, err := s.feed.GetPage(r.Context(), userID, roomID, page)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) recordSwipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	roomID, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	var req SwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	swipe, match, err := s.swipes.Record(r.Context(), userID, req.MovieID, roomID, req.Direction)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}

	resp := SwipeResponse{Swipe: swipe}
	if match != nil {
		resp.Match = match
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	roomID, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	matches, err := s.swipes.ListMatches(r.Context(), userID, roomID)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, matches)
}

func (s *Server) setMatchWatched(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	roomID, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}
	movieID, ok := pathID(r, "movieId")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid movie id"))
		return
	}

	var req WatchedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	if err := s.swipes.SetWatched(r.Context(), userID, roomID, movieID, req.Watched); err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	list, err := s.favorites.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	if err := s.favorites.Add(r.Context(), userID, req.MovieID); err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	movieID, ok := pathID(r, "movieId")
	if !ok {
		s.writeError(w, NewBadRequestError("invalid movie id"))
		return
	}

	if err := s.favorites.Remove(r.Context(), userID, movieID); err != nil {
		s.writeError(w, fromDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func pathID(r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
