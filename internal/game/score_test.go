package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scythe504/trivia-backend/internal"
)

func TestCalculatePoints(t *testing.T) {
	tests := []struct {
		timeTaken int64
		want      int
	}{
		{-500, 200},
		{0, 200},
		{500, 200},
		{999, 200},
		{1000, 190},
		{5500, 150},
		{9999, 110},
		{10000, 100},
		{10500, 100},
		{120000, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculatePoints(tt.timeTaken), "timeTaken=%d", tt.timeTaken)
	}
}

func TestFinalStandings_StableDescending(t *testing.T) {
	scores := []internal.ScoreEntry{
		{PlayerID: "a", Score: 100},
		{PlayerID: "b", Score: 300},
		{PlayerID: "c", Score: 100},
		{PlayerID: "d", Score: 200},
	}

	got := FinalStandings(scores)

	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.PlayerID
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
	assert.Equal(t, "a", scores[0].PlayerID, "input must not be reordered")
}
