package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/auth"
	"github.com/scythe504/trivia-backend/internal/game"
	"github.com/scythe504/trivia-backend/internal/questions"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	maxBodyBytes            = 1 << 16
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	if s.ws != nil {
		r.Handle("/ws", s.ws)
	}

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/rooms", s.CreateRoomHandler).Methods(http.MethodPost)
	api.HandleFunc("/rooms/public", s.PublicRoomsHandler).Methods(http.MethodGet)
	api.HandleFunc("/rooms/quick-match", s.QuickMatchHandler).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}/join", s.JoinRoomHandler).Methods(http.MethodPost)
	api.HandleFunc("/games/{code}", s.GameHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.CategoriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", s.LeaderboardHandler).Methods(http.MethodGet)

	return cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})(r)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UnixMilli()
		userID, err := s.verifier.Verify(r.Context(), auth.Credential(r))
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthorized) {
				s.logger.Warn("[Auth] identity check failed", "error", err)
			}
			s.writeError(w, start, auth.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

// ===== HANDLERS =====

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
	Category   string `json:"category"`
	QuizCount  int    `json:"quizCount"`
	MaxPlayers int    `json:"maxPlayers"`
	IsPublic   bool   `json:"isPublic"`
}

type playerNameRequest struct {
	PlayerName string `json:"playerName"`
}

func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	userID, _ := auth.UserID(r.Context())

	var req createRoomRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, start, err)
		return
	}

	room, err := s.coord.CreateRoom(r.Context(), game.CreateRoomParams{
		HostID:     userID,
		HostName:   req.PlayerName,
		Category:   req.Category,
		QuizCount:  req.QuizCount,
		MaxPlayers: req.MaxPlayers,
		IsPublic:   req.IsPublic,
	})
	if err != nil {
		s.writeError(w, start, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, start, room)
}

func (s *Server) PublicRoomsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	rooms, err := s.coord.ListPublicWaitingRooms(r.Context())
	if err != nil {
		s.writeError(w, start, err)
		return
	}
	s.writeJSON(w, http.StatusOK, start, rooms)
}

func (s *Server) QuickMatchHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	userID, _ := auth.UserID(r.Context())

	var req playerNameRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, start, err)
		return
	}

	room, err := s.coord.QuickMatch(r.Context(), userID, req.PlayerName)
	if err != nil {
		s.writeError(w, start, err)
		return
	}
	s.writeJSON(w, http.StatusOK, start, room)
}

func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	userID, _ := auth.UserID(r.Context())
	code := mux.Vars(r)["code"]

	var req playerNameRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, start, err)
		return
	}

	room, err := s.coord.JoinRoom(r.Context(), code, userID, req.PlayerName)
	if err != nil {
		s.writeError(w, start, err)
		return
	}
	s.writeJSON(w, http.StatusOK, start, room)
}

func (s *Server) GameHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	g, err := s.coord.Game(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		s.writeError(w, start, err)
		return
	}
	s.writeJSON(w, http.StatusOK, start, g)
}

func (s *Server) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, time.Now().UnixMilli(), s.categories.Names())
}

func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()

	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			s.writeError(w, start, fmt.Errorf("%w: limit must be between 1 and %d", game.ErrInvalidArgument, maxLeaderboardLimit))
			return
		}
		limit = n
	}

	entries, err := s.board.Top(r.Context(), int64(limit))
	if err != nil {
		s.writeError(w, start, err)
		return
	}
	s.writeJSON(w, http.StatusOK, start, entries)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	status := map[string]string{"status": "up"}
	for _, c := range s.checks {
		maps.Copy(status, c.Health(r.Context()))
	}
	s.writeJSON(w, http.StatusOK, start, status)
}

// ===== RESPONSES =====

// decodeBody leaves v untouched when the request has no body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", game.ErrInvalidArgument, err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, game.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrQuestionSource):
		return http.StatusServiceUnavailable
	case errors.Is(err, questions.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, game.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, start int64, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("[HTTP] request failed", "error", err)
		msg = "internal server error"
	}
	s.writeJSON(w, status, start, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, start int64, data any) {
	end := time.Now().UnixMilli()
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: start,
		RespEndTime:   end,
		NetRespTime:   end - start,
		Data:          data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("[HTTP] error encoding response", "error", err)
	}
}
