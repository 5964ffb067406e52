package service

import (
	"context"
	"errors"
	"fmt"
	"skill_assess_backend/internal/config"
	"skill_assess_backend/internal/model"
	"skill_assess_backend/internal/repository"
	"skill_assess_backend/internal/util"
	"skill_assess_backend/pkg/events"
	"skill_assess_backend/pkg/logger"
	"skill_assess_backend/pkg/monitoring"
	"skill_assess_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const healthTimeout = 10 * time.Second

var defaultQuestionCounts = map[model.Variant]int{
	model.VariantMCQ:  5,
	model.VariantCode: 3,
	model.VariantText: 3,
}

type GenerateTestRequest struct {
	Topic      string `json:"topic" example:"Python"`
	Difficulty string `json:"difficulty" example:"beginner"`
	// nil means the per-variant default (5 mcq, 3 code, 3 text)
	QuestionCount *int   `json:"question_count" example:"5"`
	Type          string `json:"type" example:"mcq"`
}

// GradeTestRequest takes a single answers list. The per-variant lists are
// what older clients send and are merged in after it.
type GradeTestRequest struct {
	StudentID   string         `json:"student_id" example:"student-42"`
	TestID      string         `json:"test_id" binding:"required"`
	Answers     []model.Answer `json:"answers"`
	MCQAnswers  []model.Answer `json:"mcq_answers,omitempty"`
	CodeAnswers []model.Answer `json:"code_answers,omitempty"`
	TextAnswers []model.Answer `json:"text_answers,omitempty"`
}

func (r *GradeTestRequest) AllAnswers() []model.Answer {
	all := make([]model.Answer, 0, len(r.Answers)+len(r.MCQAnswers)+len(r.CodeAnswers)+len(r.TextAnswers))
	all = append(all, r.Answers...)
	all = append(all, r.MCQAnswers...)
	all = append(all, r.CodeAnswers...)
	all = append(all, r.TextAnswers...)
	return all
}

type HealthStatus struct {
	Status          string `json:"status"`
	OracleConnected bool   `json:"oracle_connected"`
	Model           string `json:"model,omitempty"`
	TestsInMemory   int    `json:"tests_in_memory"`
	Reply           string `json:"reply,omitempty"`
}

type TestGeneratedEvent struct {
	TestID        string `json:"test_id"`
	Type          string `json:"type"`
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
	TotalPoints   int    `json:"total_points"`
	FallbackUsed  bool   `json:"fallback_used"`
}

type TestGradedEvent struct {
	TestID       string  `json:"test_id"`
	StudentID    string  `json:"student_id"`
	OverallScore float64 `json:"overall_score"`
	Passed       bool    `json:"passed"`
	Grade        string  `json:"grade"`
}

// TestService ties generation, storage and grading together.
type TestService struct {
	repo       repository.TestRepository
	oracle     Oracle
	publisher  events.Publisher
	cfg        config.AssessmentConfig
	points     PointsTable
	bank       *FallbackBank
	normalizer *QuestionNormalizer
	grader     *GradingService
}

func NewTestService(repo repository.TestRepository, oracle Oracle, publisher events.Publisher, cfg config.AssessmentConfig) *TestService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if cfg.DefaultTopic == "" {
		cfg.DefaultTopic = builtinDefaultTopic
	}
	if cfg.MaxTopicLength <= 0 {
		cfg.MaxTopicLength = 64
	}
	points := NewPointsTable(cfg.Points)
	bank := NewFallbackBank(points, cfg.DefaultTopic)
	return &TestService{
		repo:       repo,
		oracle:     oracle,
		publisher:  publisher,
		cfg:        cfg,
		points:     points,
		bank:       bank,
		normalizer: NewQuestionNormalizer(bank, points, cfg.MaxQuestionPoints),
		grader:     NewGradingService(oracle, cfg.Grading),
	}
}

type generateParams struct {
	variant    model.Variant
	topic      string
	difficulty model.Difficulty
	count      int
}

func (s *TestService) maxQuestions(variant model.Variant) int {
	if n := s.cfg.Generation.MaxQuestions[string(variant)]; n > 0 {
		return n
	}
	if variant == model.VariantMCQ {
		return 20
	}
	return 10
}

func (s *TestService) generationTimeout(variant model.Variant) time.Duration {
	if d := s.cfg.Generation.Timeouts[string(variant)]; d > 0 {
		return d
	}
	if variant == model.VariantCode {
		return 90 * time.Second
	}
	return 60 * time.Second
}

func (s *TestService) validateGenerate(req GenerateTestRequest) (generateParams, error) {
	var p generateParams

	p.variant = model.Variant(strings.ToLower(strings.TrimSpace(req.Type)))
	if p.variant == "" {
		p.variant = model.VariantMCQ
	}
	if !p.variant.Valid() {
		return p, util.NewValidationError("type", "must be one of mcq, code, text (got %q)", req.Type)
	}

	p.difficulty = model.Difficulty(strings.ToLower(strings.TrimSpace(req.Difficulty)))
	if p.difficulty == "" {
		p.difficulty = model.Beginner
	}
	if !p.difficulty.Valid() {
		return p, util.NewValidationError("difficulty", "must be one of beginner, intermediate, advanced (got %q)", req.Difficulty)
	}

	p.topic = strings.TrimSpace(req.Topic)
	if p.topic == "" {
		p.topic = s.cfg.DefaultTopic
	}
	if len([]rune(p.topic)) > s.cfg.MaxTopicLength {
		return p, util.NewValidationError("topic", "must be at most %d characters", s.cfg.MaxTopicLength)
	}

	p.count = defaultQuestionCounts[p.variant]
	if req.QuestionCount != nil {
		p.count = *req.QuestionCount
	}
	if limit := s.maxQuestions(p.variant); p.count < 1 || p.count > limit {
		return p, util.NewValidationError("question_count", "must be between 1 and %d for %s tests", limit, p.variant)
	}
	return p, nil
}

type generation struct {
	questions []model.Question
	usedBank  bool
	reason    string
	err       error
}

// GenerateTest validates the request before any oracle call, then runs the
// generation pipeline under the variant's deadline. A deadline or any oracle
// problem yields fallback questions; only a cancelled caller is an error.
func (s *TestService) GenerateTest(ctx context.Context, req GenerateTestRequest) (*model.Test, error) {
	p, err := s.validateGenerate(req)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer().Start(ctx, "tests.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("test.type", string(p.variant)),
		attribute.String("test.topic", p.topic),
		attribute.String("test.difficulty", string(p.difficulty)),
		attribute.Int("test.question_count", p.count),
	)

	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout(p.variant))
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: fmt.Errorf("generation pipeline panic: %v", r)}
			}
		}()
		done <- s.runPipeline(genCtx, p)
	}()

	var gen generation
	select {
	case gen = <-done:
	case <-genCtx.Done():
		gen = generation{reason: "timeout"}
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, fmt.Errorf("generate %s test: %w", p.variant, ctx.Err())
	}
	if gen.err != nil {
		span.RecordError(gen.err)
		return nil, fmt.Errorf("generate %s test: %w", p.variant, gen.err)
	}
	if gen.reason == "timeout" {
		logger.Log.Warn("question generation timed out, using fallback questions",
			zap.String("type", string(p.variant)),
			zap.String("topic", p.topic),
			zap.Duration("timeout", s.generationTimeout(p.variant)),
		)
		gen.questions = s.bank.Questions(p.topic, p.difficulty, p.variant, p.count)
		gen.usedBank = true
	}
	if gen.usedBank {
		monitoring.RecordFallback(string(p.variant), gen.reason)
	}

	test := model.NewTest(p.variant, p.topic, p.difficulty, gen.questions, gen.usedBank)
	if err := s.repo.Put(test); err != nil {
		return nil, fmt.Errorf("store test: %w", err)
	}
	span.SetAttributes(attribute.Bool("test.fallback_used", test.FallbackUsed))

	logger.Log.Info("test generated",
		zap.String("test_id", test.ID),
		zap.String("type", string(test.Variant)),
		zap.String("topic", test.Topic),
		zap.String("difficulty", string(test.Difficulty)),
		zap.Int("questions", test.QuestionCount),
		zap.Int("total_points", test.TotalPoints),
		zap.Bool("fallback_used", test.FallbackUsed),
	)
	s.publish(ctx, util.EventTestGenerated, TestGeneratedEvent{
		TestID:        test.ID,
		Type:          string(test.Variant),
		Topic:         test.Topic,
		Difficulty:    string(test.Difficulty),
		QuestionCount: test.QuestionCount,
		TotalPoints:   test.TotalPoints,
		FallbackUsed:  test.FallbackUsed,
	})
	return test, nil
}

func (s *TestService) runPipeline(ctx context.Context, p generateParams) generation {
	prompt := buildGenerationPrompt(p.variant, p.topic, p.difficulty, p.count, s.points)
	raw, askErr := askWithDeadline(ctx, s.oracle, 0, prompt, AskOptions{
		MaxTokens:   s.cfg.Generation.MaxTokens[string(p.variant)],
		Temperature: s.cfg.Generation.Temperature,
		Purpose:     "generate",
	})

	records, ok := ParseQuestionResponse(raw, askErr)
	if !ok {
		reason := "parse"
		if askErr != nil {
			reason = "oracle"
			if IsOracleTimeout(askErr) {
				reason = "timeout"
			}
		}
		return generation{
			questions: s.bank.Questions(p.topic, p.difficulty, p.variant, p.count),
			usedBank:  true,
			reason:    reason,
		}
	}

	questions, usedBank := s.normalizer.Normalize(records, p.topic, p.difficulty, p.count, p.variant)
	return generation{questions: questions, usedBank: usedBank, reason: "padding"}
}

func (s *TestService) GetTest(id string) (*model.Test, error) {
	test, ok := s.repo.Get(id)
	if !ok {
		return nil, util.ErrTestNotFound
	}
	return test, nil
}

func (s *TestService) GradeTest(ctx context.Context, req GradeTestRequest) (*model.GradeResult, error) {
	test, ok := s.repo.Get(req.TestID)
	if !ok {
		return nil, util.ErrTestNotFound
	}
	answers := req.AllAnswers()
	if len(answers) == 0 {
		return nil, util.NewValidationError("answers", "at least one answer is required")
	}
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		return nil, util.NewValidationError("student_id", "is required")
	}

	result := s.grader.Grade(ctx, test, studentID, answers)

	logger.Log.Info("test graded",
		zap.String("test_id", test.ID),
		zap.String("student_id", studentID),
		zap.Int("points_earned", result.PointsEarned),
		zap.Int("max_points", result.MaxPoints),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("grade", result.LetterGrade),
	)
	s.publish(ctx, util.EventTestGraded, TestGradedEvent{
		TestID:       test.ID,
		StudentID:    studentID,
		OverallScore: result.OverallScore,
		Passed:       result.Passed,
		Grade:        result.LetterGrade,
	})
	return result, nil
}

// SampleTest generates and stores a beginner test on the default topic.
func (s *TestService) SampleTest(ctx context.Context, variant string) (*model.Test, error) {
	return s.GenerateTest(ctx, GenerateTestRequest{
		Topic:      s.cfg.DefaultTopic,
		Difficulty: string(model.Beginner),
		Type:       variant,
	})
}

// HealthCheck probes the oracle with a trivial prompt. An unreachable oracle
// degrades the service but is not an error: fallback content still works.
func (s *TestService) HealthCheck(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:        "degraded",
		TestsInMemory: s.repo.Count(),
	}
	if m, ok := s.oracle.(interface{ Model() string }); ok {
		status.Model = m.Model()
	}

	reply, err := askWithDeadline(ctx, s.oracle, healthTimeout, healthPrompt, AskOptions{
		MaxTokens:   10,
		Temperature: 0,
		Purpose:     "health",
	})
	if err != nil {
		logger.Log.Warn("oracle health probe failed", zap.Error(err))
		return status
	}

	status.Reply = truncate(reply, 50)
	if strings.Contains(strings.ToLower(reply), "ok") {
		status.Status = "healthy"
		status.OracleConnected = true
	}
	return status
}

func (s *TestService) publish(ctx context.Context, eventType string, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		logger.Log.Warn("failed to publish event",
			zap.String("event", eventType),
			zap.Error(err),
		)
	}
}
