package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/config"
	"github.com/scythe504/trivia-backend/internal/store"
	"github.com/scythe504/trivia-backend/internal/utils"
)

// =============================================================================
// ROOM MANAGEMENT
// =============================================================================

const maxCodeAttempts = 32

type Registry struct {
	store      store.Store
	categories config.Categories
	newCode    func() string
	now        func() time.Time
	logger     *slog.Logger
}

func NewRegistry(s store.Store, categories config.Categories, logger *slog.Logger) *Registry {
	return &Registry{
		store:      s,
		categories: categories,
		newCode:    utils.GenerateRoomCode,
		now:        time.Now,
		logger:     logger,
	}
}

type CreateRoomParams struct {
	HostID     string
	HostName   string
	Category   string
	QuizCount  int
	MaxPlayers int
	IsPublic   bool
}

func (p CreateRoomParams) validate(categories config.Categories) error {
	switch {
	case p.HostID == "":
		return fmt.Errorf("%w: host id is required", ErrInvalidArgument)
	case p.QuizCount < 1 || p.QuizCount > internal.MaxQuizCount:
		return fmt.Errorf("%w: quizCount must be between 1 and %d", ErrInvalidArgument, internal.MaxQuizCount)
	case p.MaxPlayers < 1 || p.MaxPlayers > internal.MaxPlayersLimit:
		return fmt.Errorf("%w: maxPlayers must be between 1 and %d", ErrInvalidArgument, internal.MaxPlayersLimit)
	case !categories.Has(p.Category):
		return fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, p.Category)
	}
	return nil
}

// CreateRoom stores a new waiting room with the host as its only player. Codes
// are drawn until one is free; a code is never handed out twice.
func (r *Registry) CreateRoom(ctx context.Context, p CreateRoomParams) (*internal.Room, error) {
	if err := p.validate(r.categories); err != nil {
		return nil, err
	}

	room := &internal.Room{
		Host:       p.HostID,
		Category:   p.Category,
		QuizCount:  p.QuizCount,
		MaxPlayers: p.MaxPlayers,
		IsPublic:   p.IsPublic,
		Players:    []internal.Player{internal.NewPlayer(p.HostID, p.HostName)},
		Status:     internal.StatusWaiting,
		CreatedAt:  r.now().UTC(),
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		room.Code = r.newCode()
		err := r.store.InsertRoom(ctx, room)
		if err == nil {
			r.logger.Info("[CreateRoom] created room", "room", room.Code, "host", p.HostID,
				"category", p.Category, "quizCount", p.QuizCount, "maxPlayers", p.MaxPlayers, "public", p.IsPublic)
			return room, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("insert room: %w", err)
		}
		r.logger.Debug("[CreateRoom] room code taken, retrying", "room", room.Code, "attempt", attempt)
	}
	return nil, fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

// JoinRoom adds the player to a waiting room. Must run inside the room's actor.
func (r *Registry) JoinRoom(ctx context.Context, code, playerID, playerName string) (*internal.Room, []Event, error) {
	room, err := r.getRoom(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	if room.HasPlayer(playerID) {
		r.logger.Debug("[JoinRoom] player already in room", "room", code, "player", playerID)
		return room, nil, nil
	}
	if room.Status != internal.StatusWaiting {
		return nil, nil, fmt.Errorf("join room %s: %w", code, ErrAlreadyStarted)
	}
	if room.IsFull() {
		return nil, nil, fmt.Errorf("join room %s: %w", code, ErrRoomFull)
	}

	room.Players = append(room.Players, internal.NewPlayer(playerID, playerName))
	if err := r.store.UpsertRoom(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("save room %s: %w", code, err)
	}

	r.logger.Info("[JoinRoom] player joined", "room", code, "player", playerID,
		"players", len(room.Players), "maxPlayers", room.MaxPlayers)
	return room, []Event{roomEvent(internal.EventRoomUpdated, room.Clone())}, nil
}

// QuickMatchCandidates lists public Random rooms waiting on a single player.
func (r *Registry) QuickMatchCandidates(ctx context.Context) ([]internal.Room, error) {
	rooms, err := r.store.FindRooms(ctx, store.RoomFilter{
		Status:      internal.StatusWaiting,
		Category:    internal.QuickMatchCategory,
		PublicOnly:  true,
		PlayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("find quick match rooms: %w", err)
	}
	return rooms, nil
}

func (r *Registry) ListPublicWaitingRooms(ctx context.Context) ([]internal.Room, error) {
	rooms, err := r.store.FindRooms(ctx, store.RoomFilter{
		Status:     internal.StatusWaiting,
		PublicOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list public rooms: %w", err)
	}
	if rooms == nil {
		rooms = []internal.Room{}
	}
	return rooms, nil
}

func (r *Registry) Room(ctx context.Context, code string) (*internal.Room, error) {
	return r.getRoom(ctx, code)
}

func (r *Registry) getRoom(ctx context.Context, code string) (*internal.Room, error) {
	room, err := r.store.GetRoom(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("room %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}
	return room, nil
}
