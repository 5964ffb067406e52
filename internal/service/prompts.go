package service

import (
	"fmt"
	"skill_assess_backend/internal/model"
	"strings"
)

const healthPrompt = "Say 'OK' if you can respond"

func buildGenerationPrompt(variant model.Variant, topic string, difficulty model.Difficulty, count int, points PointsTable) string {
	switch variant {
	case model.VariantCode:
		return buildCodePrompt(topic, difficulty, count, points)
	case model.VariantText:
		return buildTextPrompt(topic, difficulty, count, points)
	default:
		return buildMCQPrompt(topic, difficulty, count, points)
	}
}

func buildMCQPrompt(topic string, difficulty model.Difficulty, count int, points PointsTable) string {
	return fmt.Sprintf(`Generate %d multiple choice questions about %s programming.

Return ONLY a JSON array with this exact format:

[{"id": "q1", "question": "What is a variable in %s?", "options": {"A": "Stores data", "B": "Wrong answer", "C": "Also wrong", "D": "Wrong too"}, "correct": "A", "points": %d, "explanation": "Variables store data values"}]

Requirements:
- Questions about %s programming
- Difficulty: %s level
- Each question worth %d points
- Options must use A, B, C, D format
- Include brief explanations

JSON array only, no other text:`,
		count, topic, topic, points.Points(model.VariantMCQ, difficulty),
		topic, difficulty, points.Points(model.VariantMCQ, difficulty))
}

func buildCodePrompt(topic string, difficulty model.Difficulty, count int, points PointsTable) string {
	// the template is embedded inside a JSON string in the example
	template := strings.ReplaceAll(codeTemplate(topic), "\n", `\n`)
	return fmt.Sprintf(`Generate %d coding questions for %s programming.

Return ONLY a JSON array with this exact format:

[{"id": "c1", "question": "Write a function that adds two numbers", "template": "%s", "solution": "// Example solution", "points": %d, "test_cases": [{"input": "add(2,3)", "expected": "5"}]}]

Requirements:
- Questions about %s programming
- Difficulty: %s level
- Include template code for student to fill
- Include example solution
- Include test cases to validate solution
- Each question worth %d points

JSON array only, no other text:`,
		count, topic, template, points.Points(model.VariantCode, difficulty),
		topic, difficulty, points.Points(model.VariantCode, difficulty))
}

func buildTextPrompt(topic string, difficulty model.Difficulty, count int, points PointsTable) string {
	return fmt.Sprintf(`Generate %d short-answer conceptual questions about %s programming.

Return ONLY a JSON array with this exact format:

[{"id": "t1", "question": "Explain what a closure is in %s.", "solution": "A model answer in two or three sentences", "points": %d}]

Requirements:
- Questions about %s programming
- Difficulty: %s level
- Answerable in a short paragraph
- Include a model answer in "solution"
- Each question worth %d points

JSON array only, no other text:`,
		count, topic, topic, points.Points(model.VariantText, difficulty),
		topic, difficulty, points.Points(model.VariantText, difficulty))
}

func buildGradingPrompt(q *model.Question, submission string) string {
	reference := q.ReferenceSolution
	if reference == "" {
		reference = "Not provided"
	}

	if q.Variant == model.VariantCode {
		return fmt.Sprintf(`Grade this coding solution from 0-10:

Question: %s
Expected solution approach: %s
Student submitted code:
%s

Evaluate based on:
1. Correctness of logic (40%%)
2. Code quality and style (30%%)
3. Completeness (30%%)

Respond with: SCORE: X/10
Then provide brief feedback explaining the score.`, q.Prompt, reference, submission)
	}

	return fmt.Sprintf(`Grade this answer from 0-10:

Question: %s
Reference answer: %s
Student answer:
%s

Evaluate based on:
1. Accuracy (50%%)
2. Completeness (30%%)
3. Clarity (20%%)

Respond with: SCORE: X/10
Then provide brief feedback explaining the score.`, q.Prompt, reference, submission)
}
