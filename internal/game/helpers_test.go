package game

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/config"
	"github.com/scythe504/trivia-backend/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeQuestions struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeQuestions) Questions(_ context.Context, category string, n int) ([]internal.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	qs := make([]internal.Question, n)
	for i := range qs {
		qs[i] = internal.Question{
			Category:      category,
			Text:          fmt.Sprintf("Question %d", i),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
			TimeLimit:     10,
		}
	}
	return qs, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded [][]internal.ScoreEntry
}

func (f *fakeRecorder) Record(_ context.Context, scores []internal.ScoreEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, scores)
	return nil
}

type fakeSub struct {
	id     string
	userID string
	full   bool

	mu   sync.Mutex
	msgs []internal.Message[json.RawMessage]
}

func newSub(id, userID string) *fakeSub {
	return &fakeSub{id: id, userID: userID}
}

func (s *fakeSub) ID() string     { return s.id }
func (s *fakeSub) UserID() string { return s.userID }

func (s *fakeSub) Send(payload []byte) bool {
	if s.full {
		return false
	}
	var msg internal.Message[json.RawMessage]
	if err := json.Unmarshal(payload, &msg); err != nil {
		panic(err)
	}
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
	return true
}

func (s *fakeSub) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = m.Type
	}
	return out
}

func (s *fakeSub) last(t *testing.T, eventType string, v any) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.msgs) - 1; i >= 0; i-- {
		if s.msgs[i].Type == eventType {
			require.NoError(t, json.Unmarshal(s.msgs[i].Data, v))
			return
		}
	}
	t.Fatalf("no %s event received", eventType)
}

func (s *fakeSub) reset() {
	s.mu.Lock()
	s.msgs = nil
	s.mu.Unlock()
}

type fixture struct {
	store     *store.Memory
	questions *fakeQuestions
	recorder  *fakeRecorder
	hub       *Hub
	coord     *Coordinator
}

func newFixture(t *testing.T, deadline DeadlineFunc) *fixture {
	t.Helper()
	f := &fixture{
		store:     store.NewMemory(),
		questions: &fakeQuestions{},
		recorder:  &fakeRecorder{},
		hub:       NewHub(discard),
	}
	registry := NewRegistry(f.store, config.DefaultCategories(), discard)
	engine := NewEngine(f.store, f.questions, f.recorder, discard)
	f.coord = NewCoordinator(registry, engine, f.hub, deadline, discard)
	t.Cleanup(f.coord.Close)
	return f
}

func (f *fixture) createRoom(t *testing.T, host string, quizCount, maxPlayers int) *internal.Room {
	t.Helper()
	room, err := f.coord.CreateRoom(context.Background(), CreateRoomParams{
		HostID:     host,
		HostName:   host + "-name",
		Category:   "History",
		QuizCount:  quizCount,
		MaxPlayers: maxPlayers,
		IsPublic:   true,
	})
	require.NoError(t, err)
	return room
}

// startedRoom creates a room hosted by players[0], seats the rest and starts it.
func (f *fixture) startedRoom(t *testing.T, quizCount int, players ...string) string {
	t.Helper()
	ctx := context.Background()
	room := f.createRoom(t, players[0], quizCount, len(players))
	for _, p := range players[1:] {
		_, err := f.coord.JoinRoom(ctx, room.Code, p, p+"-name")
		require.NoError(t, err)
	}
	require.NoError(t, f.coord.StartGame(ctx, room.Code, players[0]))
	return room.Code
}

func (f *fixture) game(t *testing.T, code string) *internal.Game {
	t.Helper()
	g, err := f.store.GetGame(context.Background(), code)
	require.NoError(t, err)
	return g
}

func (f *fixture) room(t *testing.T, code string) *internal.Room {
	t.Helper()
	r, err := f.store.GetRoom(context.Background(), code)
	require.NoError(t, err)
	return r
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}
