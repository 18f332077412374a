// Package store defines the document store the coordinator reads and upserts
// Room, Game and Question documents through.
package store

import (
	"context"
	"errors"

	"github.com/scythe504/trivia-backend/internal"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document already exists")
)

// RoomFilter selects rooms. Zero-valued fields do not filter.
type RoomFilter struct {
	Status      internal.RoomStatus
	Category    string
	PublicOnly  bool
	PlayerCount int // exact player count when > 0
}

func (f RoomFilter) Match(r *internal.Room) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.PublicOnly && !r.IsPublic {
		return false
	}
	if f.PlayerCount > 0 && len(r.Players) != f.PlayerCount {
		return false
	}
	return true
}

type Store interface {
	// InsertRoom fails with ErrConflict when the code is already taken.
	InsertRoom(ctx context.Context, room *internal.Room) error
	GetRoom(ctx context.Context, code string) (*internal.Room, error)
	UpsertRoom(ctx context.Context, room *internal.Room) error
	FindRooms(ctx context.Context, filter RoomFilter) ([]internal.Room, error)

	GetGame(ctx context.Context, roomCode string) (*internal.Game, error)
	UpsertGame(ctx context.Context, game *internal.Game) error

	// SampleQuestions returns up to n random questions of category.
	SampleQuestions(ctx context.Context, category string, n int) ([]internal.Question, error)
	UpsertQuestions(ctx context.Context, questions []internal.Question) error
}
