package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Outbound event names.
const (
	EventRoomUpdated    = "roomUpdated"
	EventCanStartGame   = "canStartGame"
	EventGameStarted    = "gameStarted"
	EventNextQuestion   = "nextQuestion"
	EventAnswerReceived = "answerReceived"
	EventGameEnded      = "gameEnded"
	EventGameError      = "gameError"
)

// Inbound message types.
const (
	MsgJoinRoom     = "joinRoom"
	MsgLeaveRoom    = "leaveRoom"
	MsgPlayerReady  = "playerReady"
	MsgStartGame    = "startGame"
	MsgSubmitAnswer = "submitAnswer"
)

type RoomCodeData struct {
	Code string `json:"code"`
}

type PlayerReadyData struct {
	Code  string `json:"code"`
	Ready bool   `json:"ready"`
}

type SubmitAnswerData struct {
	Code          string `json:"code"`
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
	TimeTaken     int64  `json:"timeTaken"`
}

type CanStartGameData struct {
	Code string `json:"code"`
}

type QuestionData struct {
	QuestionIndex  int            `json:"questionIndex"`
	Question       PublicQuestion `json:"question"`
	TotalQuestions int            `json:"totalQuestions"`
}

type AnswerReceivedData struct {
	PlayerID      string `json:"playerId"`
	QuestionIndex int    `json:"questionIndex"`
	IsCorrect     bool   `json:"isCorrect"`
	Forfeited     bool   `json:"forfeited,omitempty"`
}

type GameEndedData struct {
	Scores []ScoreEntry `json:"scores"`
}

type GameErrorData struct {
	Message string `json:"message"`
}
