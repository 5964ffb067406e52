package model

import "time"

// Test is immutable once stored.
// swagger:model Test
type Test struct {
	ID            string     `json:"test_id"`
	Variant       Variant    `json:"type"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	Questions     []Question `json:"questions"`
	TotalPoints   int        `json:"total_points"`
	QuestionCount int        `json:"question_count"`
	FallbackUsed  bool       `json:"fallback_used"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NewTest(variant Variant, topic string, difficulty Difficulty, questions []Question, fallbackUsed bool) *Test {
	t := &Test{
		ID:            GenerateUUID(),
		Variant:       variant,
		Topic:         topic,
		Difficulty:    difficulty,
		Questions:     questions,
		QuestionCount: len(questions),
		FallbackUsed:  fallbackUsed,
		CreatedAt:     time.Now().UTC(),
	}
	for _, q := range questions {
		t.TotalPoints += q.Points
	}
	return t
}

func (t *Test) QuestionByID(id string) (*Question, bool) {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i], true
		}
	}
	return nil, false
}

func (t *Test) Clone() *Test {
	c := *t
	c.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		c.Questions[i] = q.Clone()
	}
	return &c
}
