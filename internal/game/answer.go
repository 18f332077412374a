package game

import (
	"context"
	"fmt"

	"github.com/scythe504/trivia-backend/internal"
)

// =============================================================================
// ANSWER HANDLING
// =============================================================================

// SubmitAnswer records a player's answer for the current question, at most
// once per question. Anything that cannot be recorded is ignored silently.
func (e *Engine) SubmitAnswer(ctx context.Context, code, playerID string, questionIndex int, answer string, timeTakenMs int64) ([]Event, error) {
	game, err := e.loadGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if game == nil || game.IsEnded() {
		e.logger.Debug("[SubmitAnswer] no running game, ignoring", "room", code, "player", playerID)
		return nil, nil
	}
	if questionIndex != game.CurrentQuestion {
		e.logger.Debug("[SubmitAnswer] answer for a question that is not open, ignoring",
			"room", code, "player", playerID, "question", questionIndex, "current", game.CurrentQuestion)
		return nil, nil
	}
	si := game.ScoreIndex(playerID)
	if si < 0 {
		e.logger.Debug("[SubmitAnswer] player not in game, ignoring", "room", code, "player", playerID)
		return nil, nil
	}
	entry := &game.Scores[si]
	if entry.HasAnswered(questionIndex) {
		e.logger.Debug("[SubmitAnswer] duplicate answer, ignoring", "room", code, "player", playerID, "question", questionIndex)
		return nil, nil
	}

	if timeTakenMs < 0 {
		timeTakenMs = 0
	}
	isCorrect := answer == game.Questions[questionIndex].CorrectAnswer
	points := 0
	if isCorrect {
		points = CalculatePoints(timeTakenMs)
	}

	entry.Answers = append(entry.Answers, internal.AnswerRecord{
		QuestionIndex: questionIndex,
		Answer:        answer,
		IsCorrect:     isCorrect,
		TimeTaken:     timeTakenMs,
		Points:        points,
	})
	entry.Score += points

	e.logger.Info("[SubmitAnswer] answer recorded", "room", code, "player", playerID,
		"question", questionIndex, "correct", isCorrect, "points", points, "score", entry.Score)

	events := []Event{roomEvent(internal.EventAnswerReceived, internal.AnswerReceivedData{
		PlayerID:      playerID,
		QuestionIndex: questionIndex,
		IsCorrect:     isCorrect,
	})}
	return e.settle(ctx, game, questionIndex, events)
}

// ExpireQuestion closes questionIndex when its deadline passes: every player
// without an answer gets a forfeited, pointless record. A deadline for a
// question that is no longer open does nothing.
func (e *Engine) ExpireQuestion(ctx context.Context, code string, questionIndex int) ([]Event, error) {
	game, err := e.loadGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if game == nil || game.IsEnded() || game.CurrentQuestion != questionIndex {
		e.logger.Debug("[ExpireQuestion] stale deadline, ignoring", "room", code, "question", questionIndex)
		return nil, nil
	}

	deadlineMs := int64(game.Questions[questionIndex].TimeLimit) * 1000
	var events []Event
	for i := range game.Scores {
		entry := &game.Scores[i]
		if entry.HasAnswered(questionIndex) {
			continue
		}
		entry.Answers = append(entry.Answers, internal.AnswerRecord{
			QuestionIndex: questionIndex,
			Answer:        "",
			IsCorrect:     false,
			TimeTaken:     deadlineMs,
			Points:        0,
			Forfeited:     true,
		})
		events = append(events, roomEvent(internal.EventAnswerReceived, internal.AnswerReceivedData{
			PlayerID:      entry.PlayerID,
			QuestionIndex: questionIndex,
			IsCorrect:     false,
			Forfeited:     true,
		}))
	}

	e.logger.Info("[ExpireQuestion] question closed by deadline", "room", code,
		"question", questionIndex, "forfeits", len(events))
	return e.settle(ctx, game, questionIndex, events)
}

// settle evaluates the barrier for questionIndex, persists the game and
// returns events with any advance or end appended.
func (e *Engine) settle(ctx context.Context, game *internal.Game, questionIndex int, events []Event) ([]Event, error) {
	code := game.RoomCode

	if !game.HasEveryoneAnswered(questionIndex) {
		if err := e.store.UpsertGame(ctx, game); err != nil {
			return nil, fmt.Errorf("save game %s: %w", code, err)
		}
		return events, nil
	}

	if !game.IsLastQuestion() {
		game.CurrentQuestion++
		if err := e.store.UpsertGame(ctx, game); err != nil {
			return nil, fmt.Errorf("save game %s: %w", code, err)
		}
		e.logger.Info("[NextQuestion] advancing", "room", code, "question", game.CurrentQuestion,
			"total", len(game.Questions))
		return append(events, roomEvent(internal.EventNextQuestion, questionData(game, game.CurrentQuestion))), nil
	}

	return e.endGame(ctx, game, events)
}

func (e *Engine) endGame(ctx context.Context, game *internal.Game, events []Event) ([]Event, error) {
	code := game.RoomCode
	endedAt := e.now().UTC()
	game.EndedAt = &endedAt
	if err := e.store.UpsertGame(ctx, game); err != nil {
		return nil, fmt.Errorf("save game %s: %w", code, err)
	}

	room, err := e.loadRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	room.Status = internal.StatusCompleted
	for i := range room.Players {
		if si := game.ScoreIndex(room.Players[i].ID); si >= 0 {
			room.Players[i].Score = game.Scores[si].Score
		}
	}
	if err := e.store.UpsertRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room %s: %w", code, err)
	}

	standings := FinalStandings(game.Scores)
	e.recordScores(ctx, code, standings)

	e.logger.Info("[EndGame] game finished", "room", code, "players", len(standings))
	return append(events,
		roomEvent(internal.EventRoomUpdated, room.Clone()),
		roomEvent(internal.EventGameEnded, internal.GameEndedData{Scores: standings}),
	), nil
}

func (e *Engine) recordScores(ctx context.Context, code string, standings []internal.ScoreEntry) {
	if e.scores == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()
	if err := e.scores.Record(ctx, standings); err != nil {
		e.logger.Warn("[EndGame] leaderboard update failed", "room", code, "error", err)
	}
}
