package store

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/scythe504/trivia-backend/internal"
)

// Memory is an in-process Store. It hands out copies so callers never share
// state with it.
type Memory struct {
	mu        sync.RWMutex
	rooms     map[string]*internal.Room
	roomOrder []string
	games     map[string]*internal.Game
	questions map[string]internal.Question
	qOrder    []string
}

func NewMemory() *Memory {
	return &Memory{
		rooms:     make(map[string]*internal.Room),
		games:     make(map[string]*internal.Game),
		questions: make(map[string]internal.Question),
	}
}

func (m *Memory) InsertRoom(_ context.Context, room *internal.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[room.Code]; exists {
		return ErrConflict
	}
	m.rooms[room.Code] = room.Clone()
	m.roomOrder = append(m.roomOrder, room.Code)
	return nil
}

func (m *Memory) GetRoom(_ context.Context, code string) (*internal.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	return room.Clone(), nil
}

func (m *Memory) UpsertRoom(_ context.Context, room *internal.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[room.Code]; !exists {
		m.roomOrder = append(m.roomOrder, room.Code)
	}
	m.rooms[room.Code] = room.Clone()
	return nil
}

func (m *Memory) FindRooms(_ context.Context, filter RoomFilter) ([]internal.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rooms := make([]internal.Room, 0)
	for _, code := range m.roomOrder {
		room := m.rooms[code]
		if filter.Match(room) {
			rooms = append(rooms, *room.Clone())
		}
	}
	return rooms, nil
}

func (m *Memory) GetGame(_ context.Context, roomCode string) (*internal.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	game, ok := m.games[roomCode]
	if !ok {
		return nil, ErrNotFound
	}
	return game.Clone(), nil
}

func (m *Memory) UpsertGame(_ context.Context, game *internal.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[game.RoomCode] = game.Clone()
	return nil
}

func (m *Memory) SampleQuestions(_ context.Context, category string, n int) ([]internal.Question, error) {
	m.mu.RLock()
	matching := make([]internal.Question, 0)
	for _, id := range m.qOrder {
		q := m.questions[id]
		if category == internal.QuickMatchCategory || q.Category == category {
			q.Options = append([]string(nil), q.Options...)
			matching = append(matching, q)
		}
	}
	m.mu.RUnlock()

	rand.Shuffle(len(matching), func(i, j int) {
		matching[i], matching[j] = matching[j], matching[i]
	})
	if len(matching) > n {
		matching = matching[:n]
	}
	return matching, nil
}

func (m *Memory) UpsertQuestions(_ context.Context, questions []internal.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range questions {
		if _, exists := m.questions[q.ID]; !exists {
			m.qOrder = append(m.qOrder, q.ID)
		}
		q.Options = append([]string(nil), q.Options...)
		m.questions[q.ID] = q
	}
	return nil
}
