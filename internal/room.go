package internal

// Methods (Room Struct)
func (r *Room) PlayerIndex(playerID string) int {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) HasPlayer(playerID string) bool {
	return r.PlayerIndex(playerID) >= 0
}

func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

func (r *Room) AreAllPlayersReady() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, player := range r.Players {
		if !player.Ready {
			return false
		}
	}

	return true
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append([]Player(nil), r.Players...)
	return &c
}

// Methods (Game Struct)
func (g *Game) IsEnded() bool {
	return g.EndedAt != nil
}

func (g *Game) IsLastQuestion() bool {
	return g.CurrentQuestion >= len(g.Questions)-1
}

func (g *Game) ScoreIndex(playerID string) int {
	for i := range g.Scores {
		if g.Scores[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

// HasEveryoneAnswered reports whether every score entry holds an answer for index.
func (g *Game) HasEveryoneAnswered(index int) bool {
	for i := range g.Scores {
		if !g.Scores[i].HasAnswered(index) {
			return false
		}
	}
	return true
}

func (g *Game) Clone() *Game {
	c := *g
	c.Questions = make([]Question, len(g.Questions))
	for i, q := range g.Questions {
		q.Options = append([]string(nil), q.Options...)
		c.Questions[i] = q
	}
	c.Scores = make([]ScoreEntry, len(g.Scores))
	for i, s := range g.Scores {
		s.Answers = append([]AnswerRecord(nil), s.Answers...)
		c.Scores[i] = s
	}
	if g.EndedAt != nil {
		t := *g.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// Redacted hides correct answers, used while a game is still running.
// Answers given to the open question stay hidden until everyone is past it.
func (g *Game) Redacted() *Game {
	c := g.Clone()
	for i := range c.Questions {
		c.Questions[i].CorrectAnswer = ""
	}
	for i := range c.Scores {
		for j := range c.Scores[i].Answers {
			if c.Scores[i].Answers[j].QuestionIndex >= c.CurrentQuestion {
				c.Scores[i].Answers[j].Answer = ""
			}
		}
	}
	return c
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		Text:      q.Text,
		Options:   append([]string(nil), q.Options...),
		TimeLimit: q.TimeLimit,
	}
}
