package utils

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/scythe504/trivia-backend/internal"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// GenerateRoomCode returns a short numeric code. Uniqueness is the caller's job.
func GenerateRoomCode() string {
	var b strings.Builder
	b.Grow(internal.RoomCodeLength)
	// no leading zero, so codes survive being typed into numeric fields
	b.WriteByte(byte('1' + rand.IntN(9)))
	for i := 1; i < internal.RoomCodeLength; i++ {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

// Shuffle permutes s in place with Fisher-Yates.
func Shuffle[T any](s []T) {
	rand.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}

var questionNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

// QuestionID derives a stable id so re-importing a question updates it in place.
func QuestionID(category, text string) string {
	return uuid.NewSHA1(questionNamespace, []byte(category+"\x00"+text)).String()
}

// NewConnectionID identifies one websocket connection.
func NewConnectionID() string {
	return uuid.NewString()
}
