package service

import (
	"context"
	"fmt"
	"math"
	"skill_assess_backend/internal/config"
	"skill_assess_backend/internal/model"
	"skill_assess_backend/pkg/logger"
	"skill_assess_backend/pkg/monitoring"
	"skill_assess_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	timedOutVerdict = "Submitted but grading timed out - partial credit given"
	erroredVerdict  = "Submitted but could not be fully evaluated - partial credit given"
	blankVerdict    = "No answer submitted"
)

// GradingService scores answers against a stored test. Multiple-choice is
// matched locally, code and text answers are scored by the oracle.
type GradingService struct {
	oracle Oracle
	cfg    config.GradingConfig
}

func NewGradingService(oracle Oracle, cfg config.GradingConfig) *GradingService {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = 0.7
	}
	return &GradingService{oracle: oracle, cfg: cfg}
}

type answeredQuestion struct {
	question *model.Question
	value    string
}

// Grade never fails: oracle problems turn into partial credit. Feedback
// follows the order of answers; unknown and repeated question ids are skipped.
func (s *GradingService) Grade(ctx context.Context, test *model.Test, studentID string, answers []model.Answer) *model.GradeResult {
	ctx, span := tracing.Tracer().Start(ctx, "grading.grade")
	defer span.End()
	span.SetAttributes(
		attribute.String("test.id", test.ID),
		attribute.Int("answers", len(answers)),
	)

	answered := make([]answeredQuestion, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		q, ok := test.QuestionByID(a.QuestionID)
		if !ok {
			logger.Log.Warn("answer for unknown question skipped",
				zap.String("test_id", test.ID),
				zap.String("question_id", a.QuestionID),
			)
			continue
		}
		if seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true
		answered = append(answered, answeredQuestion{question: q, value: a.Value})
	}

	feedback := make([]model.QuestionFeedback, len(answered))
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)
	for i, aq := range answered {
		if aq.question.Variant == model.VariantMCQ {
			feedback[i] = gradeChoice(aq.question, aq.value)
			continue
		}
		if strings.TrimSpace(aq.value) == "" {
			feedback[i] = blankFeedback(aq.question)
			continue
		}
		i, aq := i, aq
		g.Go(func() error {
			feedback[i] = s.gradeFreeForm(ctx, aq.question, aq.value)
			return nil
		})
	}
	_ = g.Wait()

	result := s.aggregate(test, studentID, feedback)
	for _, fb := range feedback {
		monitoring.RecordGradeOutcome(string(test.Variant), string(fb.State))
	}
	span.SetAttributes(attribute.Float64("grade.overall_score", result.OverallScore))
	return result
}

func gradeChoice(q *model.Question, value string) model.QuestionFeedback {
	correct := strings.ToUpper(strings.TrimSpace(value)) == q.CorrectLabel
	fb := model.QuestionFeedback{
		QuestionID:  q.ID,
		State:       model.StateGraded,
		Max:         q.Points,
		Correct:     &correct,
		Explanation: q.Explanation,
	}
	if correct {
		fb.Earned = q.Points
		if fb.Explanation == "" {
			fb.Explanation = "Correct!"
		}
	} else if fb.Explanation == "" {
		fb.Explanation = fmt.Sprintf("Correct answer was %s", q.CorrectLabel)
	}
	return fb
}

func blankFeedback(q *model.Question) model.QuestionFeedback {
	correct := false
	score := 0.0
	return model.QuestionFeedback{
		QuestionID:  q.ID,
		State:       model.StateGraded,
		Max:         q.Points,
		Correct:     &correct,
		Score:       &score,
		Explanation: blankVerdict,
	}
}

func (s *GradingService) timeoutFor(variant model.Variant) time.Duration {
	if variant == model.VariantCode {
		return s.cfg.CodeTimeout
	}
	return s.cfg.TextTimeout
}

func (s *GradingService) gradeFreeForm(ctx context.Context, q *model.Question, submission string) model.QuestionFeedback {
	fb := model.QuestionFeedback{QuestionID: q.ID, Max: q.Points}

	reply, err := askWithDeadline(ctx, s.oracle, s.timeoutFor(q.Variant), buildGradingPrompt(q, submission), AskOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Purpose:     "grade",
	})
	if err != nil {
		fb.Earned = s.partialCredit(q.Points)
		if IsOracleTimeout(err) {
			fb.State = model.StateTimedOutPartial
			fb.Explanation = timedOutVerdict
		} else {
			fb.State = model.StateErroredPartial
			fb.Explanation = erroredVerdict
		}
		logger.Log.Warn("grading fell back to partial credit",
			zap.String("question_id", q.ID),
			zap.String("state", string(fb.State)),
			zap.Error(err),
		)
		return fb
	}

	score, ok := ParseScore(reply)
	if !ok {
		logger.Log.Info("no score in grading reply, using default",
			zap.String("question_id", q.ID),
			zap.String("reply", truncate(reply, 200)),
		)
	}
	correct := score >= s.cfg.PassThreshold*10
	fb.State = model.StateGraded
	fb.Score = &score
	fb.Correct = &correct
	fb.Earned = int(math.Floor(score * float64(q.Points) / 10))
	fb.Explanation = reply
	return fb
}

func (s *GradingService) partialCredit(points int) int {
	return int(math.Floor(float64(points) * s.cfg.PartialCreditRatio))
}

func (s *GradingService) aggregate(test *model.Test, studentID string, feedback []model.QuestionFeedback) *model.GradeResult {
	result := &model.GradeResult{
		StudentID:       studentID,
		TestID:          test.ID,
		Variant:         test.Variant,
		TestTotalPoints: test.TotalPoints,
		QuestionsGraded: len(feedback),
		Feedback:        feedback,
		GradedAt:        time.Now().UTC(),
	}
	for _, fb := range feedback {
		result.PointsEarned += fb.Earned
		result.MaxPoints += fb.Max
		if fb.Correct != nil && *fb.Correct {
			result.CorrectAnswers++
		}
	}
	if result.MaxPoints > 0 {
		result.OverallScore = float64(result.PointsEarned) / float64(result.MaxPoints)
	}
	result.Passed = result.OverallScore >= s.cfg.PassThreshold
	result.CertificateEligible = result.Passed
	result.LetterGrade = LetterGrade(result.OverallScore)
	result.Message = gradeMessage(test.Variant, result.OverallScore, result.Passed)
	return result
}

// LetterGrade bands: A >= 0.9, B >= 0.8, C >= 0.7, D >= 0.6, else F.
func LetterGrade(score float64) string {
	switch {
	case score >= 0.9:
		return "A"
	case score >= 0.8:
		return "B"
	case score >= 0.7:
		return "C"
	case score >= 0.6:
		return "D"
	}
	return "F"
}

var gradeMessages = map[model.Variant][3]string{
	model.VariantCode: {"Excellent coding skills!", "Good programming work!", "Keep practicing your coding skills!"},
}

var defaultGradeMessages = [3]string{"Excellent work!", "Good job!", "Keep practicing and try again!"}

func gradeMessage(variant model.Variant, score float64, passed bool) string {
	msgs, ok := gradeMessages[variant]
	if !ok {
		msgs = defaultGradeMessages
	}
	switch {
	case score >= 0.9:
		return msgs[0]
	case passed:
		return msgs[1]
	}
	return msgs[2]
}
