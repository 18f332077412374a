package game

import (
	"context"
	"fmt"

	"github.com/scythe504/trivia-backend/internal"
)

// =============================================================================
// GAME FLOW - LOBBY
// =============================================================================

// SetReady toggles a player's ready flag in the lobby. Once everyone is ready
// a solo room starts on its own; otherwise the host is told it can start.
func (e *Engine) SetReady(ctx context.Context, code, playerID string, ready bool) ([]Event, error) {
	room, err := e.loadRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.Status != internal.StatusWaiting {
		return nil, fmt.Errorf("set ready in room %s: %w", code, ErrAlreadyStarted)
	}
	idx := room.PlayerIndex(playerID)
	if idx < 0 {
		return nil, fmt.Errorf("set ready in room %s: player %s is not in the room: %w", code, playerID, ErrForbidden)
	}

	room.Players[idx].Ready = ready
	if err := e.store.UpsertRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room %s: %w", code, err)
	}

	e.logger.Info("[SetReady] player ready state changed", "room", code, "player", playerID, "ready", ready)

	events := []Event{roomEvent(internal.EventRoomUpdated, room.Clone())}
	if !room.AreAllPlayersReady() {
		return events, nil
	}

	if len(room.Players) == 1 {
		e.logger.Info("[SetReady] solo room ready, starting game", "room", code)
		started, err := e.StartGame(ctx, code, room.Host)
		if err != nil {
			// the ready flag is stored; the start failure is broadcast as gameError
			e.logger.Warn("[SetReady] auto start failed", "room", code, "error", err)
		}
		return append(events, started...), nil
	}

	e.logger.Info("[SetReady] all players ready", "room", code, "players", len(room.Players))
	return append(events, userEvent(room.Host, internal.EventCanStartGame, internal.CanStartGameData{Code: code})), nil
}
