package game

import (
	"cmp"
	"slices"

	"github.com/scythe504/trivia-backend/internal"
)

// CalculatePoints scores a correct answer: a base award plus a bonus for each
// whole second left in the bonus window.
func CalculatePoints(timeTakenMs int64) int {
	if timeTakenMs < 0 {
		timeTakenMs = 0
	}
	secondsLeft := max(int64(internal.BonusWindowSecs)-timeTakenMs/1000, 0)
	return internal.BasePoints + internal.BonusPerSecond*int(secondsLeft)
}

// FinalStandings returns a copy of scores ordered by score, highest first.
// Ties keep their original order.
func FinalStandings(scores []internal.ScoreEntry) []internal.ScoreEntry {
	standings := make([]internal.ScoreEntry, len(scores))
	for i, s := range scores {
		s.Answers = slices.Clone(s.Answers)
		standings[i] = s
	}
	slices.SortStableFunc(standings, func(a, b internal.ScoreEntry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return standings
}
