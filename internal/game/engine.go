package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/store"
)

// =============================================================================
// GAME FLOW
// =============================================================================

type QuestionSource interface {
	Questions(ctx context.Context, category string, n int) ([]internal.Question, error)
}

// ScoreRecorder receives final scores of finished games.
type ScoreRecorder interface {
	Record(ctx context.Context, scores []internal.ScoreEntry) error
}

const recordTimeout = 2 * time.Second

// Engine drives a room from lobby to final standings. Every method mutates
// one room and must run inside that room's actor; returned events are in the
// order the mutations happened.
type Engine struct {
	store     store.Store
	questions QuestionSource
	scores    ScoreRecorder
	now       func() time.Time
	logger    *slog.Logger
}

func NewEngine(s store.Store, questions QuestionSource, scores ScoreRecorder, logger *slog.Logger) *Engine {
	return &Engine{
		store:     s,
		questions: questions,
		scores:    scores,
		now:       time.Now,
		logger:    logger,
	}
}

// StartGame fetches the room's questions and opens question 0. Only the host
// may start, and only from the lobby. When questions cannot be assembled the
// room stays in the lobby and a gameError is returned for broadcast.
func (e *Engine) StartGame(ctx context.Context, code, requesterID string) ([]Event, error) {
	room, err := e.loadRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.Host != requesterID {
		return nil, fmt.Errorf("start game in room %s: only the host can start: %w", code, ErrForbidden)
	}
	if room.Status != internal.StatusWaiting {
		return nil, fmt.Errorf("start game in room %s: %w", code, ErrAlreadyStarted)
	}

	questions, err := e.questions.Questions(ctx, room.Category, room.QuizCount)
	if err != nil {
		e.logger.Warn("[StartGame] could not assemble questions", "room", code,
			"category", room.Category, "quizCount", room.QuizCount, "error", err)
		events := []Event{roomEvent(internal.EventGameError, internal.GameErrorData{
			Message: "Could not load questions for this game, please try again.",
		})}
		return events, fmt.Errorf("start game in room %s: %w: %w", code, ErrQuestionSource, err)
	}

	game := &internal.Game{
		RoomCode:        code,
		Questions:       questions,
		CurrentQuestion: 0,
		Scores:          make([]internal.ScoreEntry, 0, len(room.Players)),
		StartedAt:       e.now().UTC(),
	}
	for _, p := range room.Players {
		game.Scores = append(game.Scores, internal.ScoreEntry{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Answers:    []internal.AnswerRecord{},
		})
	}

	if err := e.store.UpsertGame(ctx, game); err != nil {
		return nil, fmt.Errorf("save game %s: %w", code, err)
	}
	room.Status = internal.StatusInProgress
	if err := e.store.UpsertRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room %s: %w", code, err)
	}

	e.logger.Info("[StartGame] game started", "room", code, "players", len(game.Scores),
		"questions", len(questions))

	return []Event{
		roomEvent(internal.EventRoomUpdated, room.Clone()),
		roomEvent(internal.EventGameStarted, questionData(game, 0)),
	}, nil
}

func (e *Engine) loadRoom(ctx context.Context, code string) (*internal.Room, error) {
	room, err := e.store.GetRoom(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("room %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}
	return room, nil
}

// loadGame returns (nil, nil) when the room has no game.
func (e *Engine) loadGame(ctx context.Context, code string) (*internal.Game, error) {
	game, err := e.store.GetGame(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", code, err)
	}
	return game, nil
}

// Game returns the stored game, hiding answers until it has ended.
func (e *Engine) Game(ctx context.Context, code string) (*internal.Game, error) {
	game, err := e.loadGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game %s: %w", code, ErrNotFound)
	}
	if !game.IsEnded() {
		return game.Redacted(), nil
	}
	return game, nil
}

func questionData(game *internal.Game, index int) internal.QuestionData {
	return internal.QuestionData{
		QuestionIndex:  index,
		Question:       game.Questions[index].Public(),
		TotalQuestions: len(game.Questions),
	}
}
