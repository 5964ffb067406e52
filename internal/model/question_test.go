package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcqQuestion() Question {
	return Question{
		ID:      "javascript_mcq_1",
		Variant: VariantMCQ,
		Prompt:  "What does === compare?",
		Points:  2,
		Options: map[string]string{
			"A": "Value only",
			"B": "Type only",
			"C": "Value and type",
			"D": "Nothing",
		},
		CorrectLabel: "C",
	}
}

func TestQuestionComplete(t *testing.T) {
	q := mcqQuestion()
	assert.True(t, q.Complete())

	missing := mcqQuestion()
	delete(missing.Options, "D")
	assert.False(t, missing.Complete(), "mcq without option D")

	badLabel := mcqQuestion()
	badLabel.CorrectLabel = "E"
	assert.False(t, badLabel.Complete())

	noPoints := mcqQuestion()
	noPoints.Points = 0
	assert.False(t, noPoints.Complete())

	code := Question{
		Variant:           VariantCode,
		Prompt:            "Double a number",
		Points:            5,
		Template:          "function double(n) {}",
		ReferenceSolution: "return n * 2",
	}
	assert.False(t, code.Complete(), "code without test cases")
	code.TestCases = []TestCase{{Input: "double(2)", Expected: "4"}}
	assert.True(t, code.Complete())

	text := Question{Variant: VariantText, Prompt: "Explain closures", Points: 3}
	assert.True(t, text.Complete())
}

func TestQuestionCloneIsDeep(t *testing.T) {
	q := mcqQuestion()
	c := q.Clone()
	c.Options["A"] = "changed"
	assert.Equal(t, "Value only", q.Options["A"])
}

func TestTestCloneAndLookup(t *testing.T) {
	test := NewTest(VariantMCQ, "JavaScript", Beginner, []Question{mcqQuestion()}, false)
	require.NotEmpty(t, test.ID)
	assert.Equal(t, 2, test.TotalPoints)
	assert.Equal(t, 1, test.QuestionCount)

	c := test.Clone()
	c.Questions[0].Prompt = "mutated"
	assert.Equal(t, "What does === compare?", test.Questions[0].Prompt)

	q, ok := test.QuestionByID("javascript_mcq_1")
	require.True(t, ok)
	assert.Equal(t, "C", q.CorrectLabel)

	_, ok = test.QuestionByID("missing")
	assert.False(t, ok)
}

func TestAnswerUnmarshalAliases(t *testing.T) {
	cases := map[string]string{
		`{"question_id":"q1","answer":"A"}`:          "A",
		`{"question_id":"q1","selected_answer":"B"}`: "B",
		`{"question_id":"q1","code":"return 1"}`:     "return 1",
		`{"question_id":"q1"}`:                       "",
	}
	for in, want := range cases {
		var a Answer
		require.NoError(t, json.Unmarshal([]byte(in), &a), in)
		assert.Equal(t, "q1", a.QuestionID)
		assert.Equal(t, want, a.Value, in)
	}
}

func TestEnums(t *testing.T) {
	assert.True(t, Beginner.Valid())
	assert.False(t, Difficulty("expert").Valid())
	assert.True(t, VariantText.Valid())
	assert.False(t, Variant("essay").Valid())
}
