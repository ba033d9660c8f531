package core

import "time"

// Question is an immutable quiz question.
type Question struct {
	ID           int      `json:"id"`
	Prompt       string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_answer"`
}

// QuizSession tracks one participant's pass through a drawn question subset.
type QuizSession struct {
	ID             string
	Identity       string
	Questions      []Question
	CurrentIndex   int
	CorrectCount   int
	TotalQuestions int
	StartedAt      time.Time
	ExpiresAt      time.Time
}

// Completed reports whether every question has been answered.
func (s *QuizSession) Completed() bool {
	return s.CurrentIndex >= s.TotalQuestions
}

// Current returns the question awaiting an answer.
func (s *QuizSession) Current() (Question, bool) {
	if s.Completed() {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Clone returns a copy safe to hand out of a store.
func (s *QuizSession) Clone() *QuizSession {
	c := *s
	c.Questions = append([]Question(nil), s.Questions...)
	return &c
}
