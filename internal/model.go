package internal

import (
	"time"
)

const (
	QuickMatchCategory   = "Random"
	QuickMatchQuizCount  = 5
	QuickMatchMaxPlayers = 2

	MaxQuizCount     = 50
	MaxPlayersLimit  = 16
	RoomCodeLength   = 6
	BasePoints       = 100
	BonusPerSecond   = 10
	BonusWindowSecs  = 10
	DefaultTimeLimit = 15
)

type RoomStatus string

const (
	StatusWaiting    RoomStatus = "waiting"
	StatusInProgress RoomStatus = "in-progress"
	StatusCompleted  RoomStatus = "completed"
)

type Question struct {
	ID            string   `json:"id,omitempty"`
	Category      string   `json:"category,omitempty"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	TimeLimit     int      `json:"timeLimit"` // seconds
}

// PublicQuestion is the shape of a question on the wire, without the answer.
type PublicQuestion struct {
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

type Room struct {
	Code       string     `json:"code"`
	Host       string     `json:"host"`
	Category   string     `json:"category"`
	QuizCount  int        `json:"quizCount"`
	MaxPlayers int        `json:"maxPlayers"`
	IsPublic   bool       `json:"isPublic"`
	Players    []Player   `json:"players"`
	Status     RoomStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type AnswerRecord struct {
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
	IsCorrect     bool   `json:"isCorrect"`
	TimeTaken     int64  `json:"timeTaken"` // ms
	Points        int    `json:"points"`
	Forfeited     bool   `json:"forfeited,omitempty"`
}

type ScoreEntry struct {
	PlayerID   string         `json:"playerId"`
	PlayerName string         `json:"playerName"`
	Score      int            `json:"score"`
	Answers    []AnswerRecord `json:"answers"`
}

type Game struct {
	RoomCode        string       `json:"roomCode"`
	Questions       []Question   `json:"questions"`
	CurrentQuestion int          `json:"currentQuestion"`
	Scores          []ScoreEntry `json:"scores"`
	StartedAt       time.Time    `json:"startedAt"`
	EndedAt         *time.Time   `json:"endedAt,omitempty"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
