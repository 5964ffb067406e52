package model

import (
	"encoding/json"
	"time"
)

// Answer is consumed once by grading and never stored.
type Answer struct {
	QuestionID string `json:"question_id" binding:"required"`
	Value      string `json:"answer"`
}

// UnmarshalJSON also accepts the per-variant field names older clients send
// (selected_answer for mcq, code for code questions).
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionID     string  `json:"question_id"`
		Answer         *string `json:"answer"`
		SelectedAnswer *string `json:"selected_answer"`
		Code           *string `json:"code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.QuestionID = raw.QuestionID
	switch {
	case raw.Answer != nil:
		a.Value = *raw.Answer
	case raw.SelectedAnswer != nil:
		a.Value = *raw.SelectedAnswer
	case raw.Code != nil:
		a.Value = *raw.Code
	default:
		a.Value = ""
	}
	return nil
}

type GradeState string

const (
	StateGraded          GradeState = "graded"
	StateTimedOutPartial GradeState = "timed_out_partial"
	StateErroredPartial  GradeState = "errored_partial"
)

type QuestionFeedback struct {
	QuestionID  string     `json:"question_id"`
	State       GradeState `json:"state"`
	Earned      int        `json:"points_earned"`
	Max         int        `json:"max_points"`
	Correct     *bool      `json:"correct,omitempty"`
	Score       *float64   `json:"score,omitempty"` // 0-10, free-form answers only
	Explanation string     `json:"explanation"`
}

// GradeResult is built once per grading call.
// swagger:model GradeResult
type GradeResult struct {
	StudentID           string             `json:"student_id"`
	TestID              string             `json:"test_id"`
	Variant             Variant            `json:"test_type"`
	OverallScore        float64            `json:"overall_score"`
	PointsEarned        int                `json:"total_points"`
	MaxPoints           int                `json:"max_possible_points"`
	TestTotalPoints     int                `json:"test_total_points"`
	Passed              bool               `json:"passed"`
	CertificateEligible bool               `json:"certificate_eligible"`
	LetterGrade         string             `json:"grade"`
	QuestionsGraded     int                `json:"questions_graded"`
	CorrectAnswers      int                `json:"correct_answers"`
	Feedback            []QuestionFeedback `json:"feedback"`
	Message             string             `json:"message"`
	GradedAt            time.Time          `json:"graded_at"`
}
