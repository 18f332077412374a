package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/scythe504/trivia-backend/internal"
)

const matchmakingKey = "matchmaking"

// DeadlineFunc returns how long a published question stays open. A nil
// DeadlineFunc disables question deadlines.
type DeadlineFunc func(q internal.Question) time.Duration

// QuestionDeadline allows each question its own time limit plus grace.
func QuestionDeadline(grace time.Duration) DeadlineFunc {
	return func(q internal.Question) time.Duration {
		return time.Duration(q.TimeLimit)*time.Second + grace
	}
}

// Coordinator is the entry point for every client action. Mutations of a
// room run inside that room's actor, and the events they produce are
// published before the actor takes the next task.
type Coordinator struct {
	actors    *Serializer
	registry  *Registry
	engine    *Engine
	hub       *Hub
	deadlines *Deadlines
	deadline  DeadlineFunc
	logger    *slog.Logger
}

func NewCoordinator(registry *Registry, engine *Engine, hub *Hub, deadline DeadlineFunc, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		actors:    NewSerializer(logger),
		registry:  registry,
		engine:    engine,
		hub:       hub,
		deadlines: NewDeadlines(logger),
		deadline:  deadline,
		logger:    logger,
	}
}

func (c *Coordinator) CreateRoom(ctx context.Context, p CreateRoomParams) (*internal.Room, error) {
	return c.registry.CreateRoom(context.WithoutCancel(ctx), p)
}

func (c *Coordinator) JoinRoom(ctx context.Context, code, playerID, playerName string) (*internal.Room, error) {
	return doValue(ctx, c.actors, code, func() (*internal.Room, error) {
		room, events, err := c.registry.JoinRoom(context.WithoutCancel(ctx), code, playerID, playerName)
		c.publish(code, events)
		return room, err
	})
}

// QuickMatch seats the player in a public Random room that is waiting for a
// second player, or opens a new one. Matchmaking runs one request at a time.
func (c *Coordinator) QuickMatch(ctx context.Context, playerID, playerName string) (*internal.Room, error) {
	return doValue(ctx, c.actors, matchmakingKey, func() (*internal.Room, error) {
		ctx := context.WithoutCancel(ctx)

		candidates, err := c.registry.QuickMatchCandidates(ctx)
		if err != nil {
			return nil, err
		}

		for i := range candidates {
			candidate := &candidates[i]
			if candidate.HasPlayer(playerID) {
				c.logger.Info("[QuickMatch] player already waiting in room", "room", candidate.Code, "player", playerID)
				return candidate, nil
			}

			room, err := c.JoinRoom(ctx, candidate.Code, playerID, playerName)
			if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
				c.logger.Debug("[QuickMatch] candidate no longer joinable", "room", candidate.Code, "error", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			c.logger.Info("[QuickMatch] matched", "room", room.Code, "player", playerID)
			return room, nil
		}

		room, err := c.registry.CreateRoom(ctx, CreateRoomParams{
			HostID:     playerID,
			HostName:   playerName,
			Category:   internal.QuickMatchCategory,
			QuizCount:  internal.QuickMatchQuizCount,
			MaxPlayers: internal.QuickMatchMaxPlayers,
			IsPublic:   true,
		})
		if err != nil {
			return nil, err
		}
		c.logger.Info("[QuickMatch] opened new room", "room", room.Code, "player", playerID)
		return room, nil
	})
}

func (c *Coordinator) ListPublicWaitingRooms(ctx context.Context) ([]internal.Room, error) {
	return c.registry.ListPublicWaitingRooms(ctx)
}

func (c *Coordinator) SetReady(ctx context.Context, code, playerID string, ready bool) error {
	return c.actors.Do(ctx, code, func() error {
		events, err := c.engine.SetReady(context.WithoutCancel(ctx), code, playerID, ready)
		c.publish(code, events)
		return err
	})
}

func (c *Coordinator) StartGame(ctx context.Context, code, requesterID string) error {
	return c.actors.Do(ctx, code, func() error {
		events, err := c.engine.StartGame(context.WithoutCancel(ctx), code, requesterID)
		c.publish(code, events)
		return err
	})
}

func (c *Coordinator) SubmitAnswer(ctx context.Context, code, playerID string, questionIndex int, answer string, timeTakenMs int64) error {
	return c.actors.Do(ctx, code, func() error {
		events, err := c.engine.SubmitAnswer(context.WithoutCancel(ctx), code, playerID, questionIndex, answer, timeTakenMs)
		c.publish(code, events)
		return err
	})
}

func (c *Coordinator) Game(ctx context.Context, code string) (*internal.Game, error) {
	return c.engine.Game(ctx, code)
}

// Subscribe attaches sub to the room's broadcasts and sends it the current
// room state, ordered with the room's other events.
func (c *Coordinator) Subscribe(ctx context.Context, code string, sub Subscriber) error {
	return c.actors.Do(ctx, code, func() error {
		room, err := c.registry.Room(context.WithoutCancel(ctx), code)
		if err != nil {
			return err
		}
		c.hub.Join(code, sub)
		c.hub.Send(sub, roomEvent(internal.EventRoomUpdated, room))
		return nil
	})
}

func (c *Coordinator) Unsubscribe(code string, sub Subscriber) {
	c.hub.Leave(code, sub)
}

// Close stops pending question deadlines.
func (c *Coordinator) Close() {
	c.deadlines.Stop()
}

// publish runs inside the room's actor.
func (c *Coordinator) publish(code string, events []Event) {
	if len(events) == 0 {
		return
	}
	c.hub.Publish(code, events...)

	for _, ev := range events {
		switch ev.Type {
		case internal.EventGameStarted, internal.EventNextQuestion:
			data, ok := ev.Data.(internal.QuestionData)
			if ok {
				c.armDeadline(code, data)
			}
		case internal.EventGameEnded:
			c.deadlines.Cancel(code)
		}
	}
}

func (c *Coordinator) armDeadline(code string, data internal.QuestionData) {
	if c.deadline == nil {
		return
	}
	q := internal.Question{Text: data.Question.Text, TimeLimit: data.Question.TimeLimit}
	c.deadlines.Arm(code, data.QuestionIndex, c.deadline(q), c.expire)
}

func (c *Coordinator) expire(code string, questionIndex int) {
	err := c.actors.Do(context.Background(), code, func() error {
		events, err := c.engine.ExpireQuestion(context.Background(), code, questionIndex)
		c.publish(code, events)
		return err
	})
	if err != nil {
		c.logger.Error("[Deadlines] expiring question failed", "room", code, "question", questionIndex, "error", err)
	}
}
