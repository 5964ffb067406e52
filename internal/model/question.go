package model

import "strings"

// OptionLabels are the fixed multiple-choice labels, in display order.
var OptionLabels = []string{"A", "B", "C", "D"}

func IsOptionLabel(s string) bool {
	for _, l := range OptionLabels {
		if s == l {
			return true
		}
	}
	return false
}

// TestCase is advisory only; submissions are never executed.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Question is one item of a Test. Which payload fields are meaningful
// depends on Variant.
// swagger:model Question
type Question struct {
	ID      string  `json:"id"`
	Variant Variant `json:"type"`
	Prompt  string  `json:"question"`
	Points  int     `json:"points"`

	// mcq
	Options      map[string]string `json:"options,omitempty"`
	CorrectLabel string            `json:"correct,omitempty"`
	Explanation  string            `json:"explanation,omitempty"`

	// code (ReferenceSolution is also the optional reference answer for text)
	Template          string     `json:"template,omitempty"`
	ReferenceSolution string     `json:"solution,omitempty"`
	TestCases         []TestCase `json:"test_cases,omitempty"`
}

// Complete reports whether every field required by the variant is populated.
func (q *Question) Complete() bool {
	if q.Points <= 0 || strings.TrimSpace(q.Prompt) == "" {
		return false
	}
	switch q.Variant {
	case VariantMCQ:
		if !IsOptionLabel(q.CorrectLabel) {
			return false
		}
		for _, l := range OptionLabels {
			if strings.TrimSpace(q.Options[l]) == "" {
				return false
			}
		}
		return true
	case VariantCode:
		return strings.TrimSpace(q.Template) != "" &&
			strings.TrimSpace(q.ReferenceSolution) != "" &&
			len(q.TestCases) > 0
	case VariantText:
		return true
	}
	return false
}

func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = make(map[string]string, len(q.Options))
		for k, v := range q.Options {
			c.Options[k] = v
		}
	}
	if q.TestCases != nil {
		c.TestCases = append([]TestCase(nil), q.TestCases...)
	}
	return c
}
