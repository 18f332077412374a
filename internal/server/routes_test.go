package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/auth"
	"github.com/scythe504/trivia-backend/internal/config"
	"github.com/scythe504/trivia-backend/internal/game"
	"github.com/scythe504/trivia-backend/internal/leaderboard"
	"github.com/scythe504/trivia-backend/internal/questions"
	"github.com/scythe504/trivia-backend/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticQuestions struct{}

func (staticQuestions) Questions(_ context.Context, category string, n int) ([]internal.Question, error) {
	qs := make([]internal.Question, n)
	for i := range qs {
		qs[i] = internal.Question{
			Category:      category,
			Text:          fmt.Sprintf("Q%d", i),
			Options:       []string{"yes", "no"},
			CorrectAnswer: "yes",
			TimeLimit:     10,
		}
	}
	return qs, nil
}

type fakeBoard struct {
	entries []leaderboard.Entry
	limit   int64
}

func (b *fakeBoard) Record(context.Context, []internal.ScoreEntry) error { return nil }

func (b *fakeBoard) Top(_ context.Context, limit int64) ([]leaderboard.Entry, error) {
	b.limit = limit
	return b.entries, nil
}

type staticHealth map[string]string

func (h staticHealth) Health(context.Context) map[string]string { return h }

type testServer struct {
	handler http.Handler
	coord   *game.Coordinator
	store   *store.Memory
	board   *fakeBoard
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	hub := game.NewHub(discard)
	coord := game.NewCoordinator(
		game.NewRegistry(mem, config.DefaultCategories(), discard),
		game.NewEngine(mem, staticQuestions{}, nil, discard),
		hub, nil, discard,
	)
	t.Cleanup(coord.Close)

	board := &fakeBoard{entries: []leaderboard.Entry{{PlayerID: "a", PlayerName: "A", Score: 900, Rank: 1}}}
	s := New(Options{
		Port:           0,
		Coordinator:    coord,
		Leaderboard:    board,
		Categories:     config.DefaultCategories(),
		Verifier:       auth.DevVerifier{},
		HealthChecks:   []HealthChecker{staticHealth{"database": "up"}},
		AllowedOrigins: []string{"*"},
		Logger:         discard,
	})
	return &testServer{handler: s.RegisterRoutes(), coord: coord, store: mem, board: board}
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, path, user, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if user != "" {
		req.Header.Set("Authorization", "Bearer dev:"+user)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, rec.Code, env.StatusCode)
	return rec.Code, env
}

func TestRoutes_RequireAuth(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodGet, "/rooms/public", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, map[string]string{"status": "up", "database": "up"}, health)
}

func TestRoutes_RoomLifecycle(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, http.MethodPost, "/rooms", "alice",
		`{"playerName":"Alice","category":"History","quizCount":3,"maxPlayers":2,"isPublic":true}`)
	require.Equal(t, http.StatusCreated, code)
	var room internal.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, "alice", room.Host)
	assert.Equal(t, internal.StatusWaiting, room.Status)

	code, env = ts.do(t, http.MethodGet, "/rooms/public", "bob", "")
	require.Equal(t, http.StatusOK, code)
	var rooms []internal.Room
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	require.Len(t, rooms, 1)

	code, _ = ts.do(t, http.MethodPost, "/rooms/"+room.Code+"/join", "bob", `{"playerName":"Bob"}`)
	assert.Equal(t, http.StatusOK, code)

	code, env = ts.do(t, http.MethodPost, "/rooms/"+room.Code+"/join", "carol", `{"playerName":"Carol"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, string(env.Data), "room is full")

	code, _ = ts.do(t, http.MethodGet, "/games/"+room.Code, "alice", "")
	assert.Equal(t, http.StatusNotFound, code)

	require.NoError(t, ts.coord.StartGame(context.Background(), room.Code, "alice"))
	code, env = ts.do(t, http.MethodGet, "/games/"+room.Code, "alice", "")
	require.Equal(t, http.StatusOK, code)
	var g internal.Game
	require.NoError(t, json.Unmarshal(env.Data, &g))
	require.Len(t, g.Questions, 3)
	assert.Empty(t, g.Questions[0].CorrectAnswer)
}

func TestRoutes_QuickMatch(t *testing.T) {
	ts := newTestServer(t)

	_, first := ts.do(t, http.MethodPost, "/rooms/quick-match", "alice", `{"playerName":"Alice"}`)
	code, second := ts.do(t, http.MethodPost, "/rooms/quick-match", "bob", "")
	require.Equal(t, http.StatusOK, code)

	var a, b internal.Room
	require.NoError(t, json.Unmarshal(first.Data, &a))
	require.NoError(t, json.Unmarshal(second.Data, &b))
	assert.Equal(t, a.Code, b.Code)
	require.Len(t, b.Players, 2)
	assert.Equal(t, "Anonymous", b.Players[1].Name)
}

func TestRoutes_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown_category", http.MethodPost, "/rooms", `{"category":"Astrology","quizCount":3,"maxPlayers":2}`, http.StatusBadRequest},
		{"too_many_questions", http.MethodPost, "/rooms", `{"category":"History","quizCount":51,"maxPlayers":2}`, http.StatusBadRequest},
		{"malformed_body", http.MethodPost, "/rooms", `{"category":`, http.StatusBadRequest},
		{"unknown_room", http.MethodPost, "/rooms/000000/join", `{}`, http.StatusNotFound},
		{"bad_limit", http.MethodGet, "/leaderboard?limit=0", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := ts.do(t, tt.method, tt.path, "alice", tt.body)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRoutes_CategoriesAndLeaderboard(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, http.MethodGet, "/categories", "alice", "")
	require.Equal(t, http.StatusOK, code)
	var names []string
	require.NoError(t, json.Unmarshal(env.Data, &names))
	assert.Contains(t, names, internal.QuickMatchCategory)
	assert.Contains(t, names, "History")

	code, env = ts.do(t, http.MethodGet, "/leaderboard?limit=5", "alice", "")
	require.Equal(t, http.StatusOK, code)
	var entries []leaderboard.Entry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Equal(t, int64(5), ts.board.limit)
	assert.Equal(t, "a", entries[0].PlayerID)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("room x: %w", game.ErrNotFound), http.StatusNotFound},
		{game.ErrRoomFull, http.StatusConflict},
		{game.ErrAlreadyStarted, http.StatusConflict},
		{game.ErrForbidden, http.StatusForbidden},
		{game.ErrInvalidArgument, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", game.ErrQuestionSource, questions.ErrUpstream), http.StatusServiceUnavailable},
		{questions.ErrUpstream, http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
