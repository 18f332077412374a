package internal

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Score int    `json:"score"`
}

func NewPlayer(id, name string) Player {
	if name == "" {
		name = "Anonymous"
	}
	return Player{
		ID:   id,
		Name: name,
	}
}

func (s *ScoreEntry) HasAnswered(questionIndex int) bool {
	for _, a := range s.Answers {
		if a.QuestionIndex == questionIndex {
			return true
		}
	}
	return false
}
