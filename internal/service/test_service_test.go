package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"skill_assess_backend/internal/model"
	"skill_assess_backend/internal/repository"
	"skill_assess_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Payload: payload})
	return p.err
}

func (p *recordingPublisher) Close() {}

func intPtr(n int) *int { return &n }

func newTestService(oracle Oracle) (*TestService, *repository.MemoryTestRepository, *recordingPublisher) {
	repo := repository.NewMemoryTestRepository()
	pub := &recordingPublisher{}
	cfg := testAssessmentConfig()
	cfg.Grading.CodeTimeout = 50 * time.Millisecond
	cfg.Grading.TextTimeout = 50 * time.Millisecond
	return NewTestService(repo, oracle, pub, cfg), repo, pub
}

func mcqReply(n int) string {
	records := make([]map[string]interface{}, n)
	for i := range records {
		records[i] = map[string]interface{}{
			"id":          "q1",
			"question":    fmt.Sprintf("generated %d", i),
			"options":     map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			"correct":     "B",
			"points":      2,
			"explanation": "b is right",
		}
	}
	b, _ := json.Marshal(records)
	return "```json\n" + string(b) + "\n```"
}

func TestGenerateTestFromOracle(t *testing.T) {
	svc, repo, pub := newTestService(replyWith(mcqReply(4)))

	test, err := svc.GenerateTest(context.Background(), GenerateTestRequest{
		Topic: "Go", Difficulty: "Intermediate", QuestionCount: intPtr(4), Type: "mcq",
	})
	require.NoError(t, err)

	assert.False(t, test.FallbackUsed)
	assert.Equal(t, model.Intermediate, test.Difficulty)
	require.Len(t, test.Questions, 4)
	assert.Equal(t, 4, test.QuestionCount)
	assert.Equal(t, 8, test.TotalPoints)
	assert.Equal(t, "generated 0", test.Questions[0].Prompt)
	assert.Equal(t, "go_mcq_4", test.Questions[3].ID)
	assert.Equal(t, 1, repo.Count())

	require.Len(t, pub.events, 1)
	assert.Equal(t, util.EventTestGenerated, pub.events[0].Type)
	assert.Equal(t, test.ID, pub.events[0].Payload.(TestGeneratedEvent).TestID)
}

func TestGenerateTestOracleFailureUsesFallback(t *testing.T) {
	svc, _, _ := newTestService(failWith(OracleUnavailable))

	test, err := svc.GenerateTest(context.Background(), GenerateTestRequest{
		Topic: "JavaScript", Difficulty: "beginner", QuestionCount: intPtr(3), Type: "mcq",
	})
	require.NoError(t, err)

	assert.True(t, test.FallbackUsed)
	require.Len(t, test.Questions, 3)
	for _, q := range test.Questions {
		assert.Equal(t, 2, q.Points)
		assert.True(t, q.Complete())
	}
	assert.Equal(t, 6, test.TotalPoints)
}

func TestGenerateTestAlwaysReturnsCount(t *testing.T) {
	replies := []string{"", "garbage", "[]", `[{"question": "only one", "options": ["a","b","c","d"], "correct": "a"}]`, mcqReply(30)}
	for _, reply := range replies {
		for _, variant := range model.Variants {
			for _, difficulty := range model.Difficulties {
				svc, _, _ := newTestService(replyWith(reply))
				test, err := svc.GenerateTest(context.Background(), GenerateTestRequest{
					Topic: "Rust", Difficulty: string(difficulty), QuestionCount: intPtr(7), Type: string(variant),
				})
				require.NoError(t, err)
				require.Len(t, test.Questions, 7, "%s/%s %q", variant, difficulty, reply)
				for _, q := range test.Questions {
					assert.True(t, q.Complete(), "%s/%s %q", variant, difficulty, reply)
					assert.Positive(t, q.Points)
				}
			}
		}
	}
}

func TestGenerateTestPaddingMarksFallback(t *testing.T) {
	svc, _, _ := newTestService(replyWith(mcqReply(2)))

	test, err := svc.GenerateTest(context.Background(), GenerateTestRequest{QuestionCount: intPtr(5)})
	require.NoError(t, err)
	assert.True(t, test.FallbackUsed)
	assert.Len(t, test.Questions, 5)
	assert.Equal(t, "JavaScript", test.Topic)
	assert.Equal(t, model.VariantMCQ, test.Variant)
}

func TestGenerateTestTimeoutUsesFallback(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc, _, _ := newTestService(hangingOracle(release))
	svc.cfg.Generation.Timeouts = map[string]time.Duration{"code": 30 * time.Millisecond}

	start := time.Now()
	test, err := svc.GenerateTest(context.Background(), GenerateTestRequest{Topic: "Python", QuestionCount: intPtr(2), Type: "code"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, test.FallbackUsed)
	assert.Len(t, test.Questions, 2)
	assert.Equal(t, "python_code_1", test.Questions[0].ID)
}

func TestGenerateTestCancelledCaller(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc, repo, _ := newTestService(hangingOracle(release))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := svc.GenerateTest(ctx, GenerateTestRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, repo.Count())
}

func TestGenerateTestValidation(t *testing.T) {
	oracle := replyWith(mcqReply(5))
	svc, _, _ := newTestService(oracle)

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'x'
	}
	bad := []GenerateTestRequest{
		{Type: "essay"},
		{Difficulty: "expert"},
		{QuestionCount: intPtr(0)},
		{QuestionCount: intPtr(21)},
		{Type: "code", QuestionCount: intPtr(11)},
		{Type: "text", QuestionCount: intPtr(-1)},
		{Topic: string(long)},
	}
	for _, req := range bad {
		_, err := svc.GenerateTest(context.Background(), req)
		assert.True(t, util.IsValidationError(err), "%+v", req)
	}
	assert.Zero(t, oracle.Calls())

	_, err := svc.GenerateTest(context.Background(), GenerateTestRequest{QuestionCount: intPtr(20)})
	assert.NoError(t, err)
}

func TestGenerateTestNeverMutatesStoredTests(t *testing.T) {
	svc, _, _ := newTestService(replyWith(mcqReply(3)))

	first, err := svc.GenerateTest(context.Background(), GenerateTestRequest{QuestionCount: intPtr(3)})
	require.NoError(t, err)
	before, err := svc.GetTest(first.ID)
	require.NoError(t, err)
	beforeJSON, _ := json.Marshal(before)

	first.Questions[0].Prompt = "caller mutation"
	_, err = svc.GenerateTest(context.Background(), GenerateTestRequest{QuestionCount: intPtr(3)})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := svc.GetTest(first.ID)
		require.NoError(t, err)
		againJSON, _ := json.Marshal(again)
		assert.JSONEq(t, string(beforeJSON), string(againJSON))
	}
}

func TestGetTestNotFound(t *testing.T) {
	svc, _, _ := newTestService(replyWith(""))
	_, err := svc.GetTest("missing")
	assert.ErrorIs(t, err, util.ErrTestNotFound)
}

func TestGradeTest(t *testing.T) {
	svc, _, pub := newTestService(failWith(OracleUnavailable))
	test, err := svc.GenerateTest(context.Background(), GenerateTestRequest{QuestionCount: intPtr(2)})
	require.NoError(t, err)

	result, err := svc.GradeTest(context.Background(), GradeTestRequest{
		StudentID: "s1",
		TestID:    test.ID,
		MCQAnswers: []model.Answer{
			{QuestionID: test.Questions[0].ID, Value: test.Questions[0].CorrectLabel},
			{QuestionID: test.Questions[1].ID, Value: "Z"},
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, result.OverallScore, 1e-9)
	assert.False(t, result.Passed)
	assert.Equal(t, "F", result.LetterGrade)
	assert.Equal(t, test.ID, result.TestID)

	require.Len(t, pub.events, 2)
	assert.Equal(t, util.EventTestGraded, pub.events[1].Type)
}

func TestGradeTestErrors(t *testing.T) {
	svc, _, _ := newTestService(failWith(OracleUnavailable))
	test, err := svc.GenerateTest(context.Background(), GenerateTestRequest{QuestionCount: intPtr(1)})
	require.NoError(t, err)
	answer := []model.Answer{{QuestionID: test.Questions[0].ID, Value: "A"}}

	_, err = svc.GradeTest(context.Background(), GradeTestRequest{StudentID: "s1", TestID: "missing", Answers: answer})
	assert.ErrorIs(t, err, util.ErrTestNotFound)

	_, err = svc.GradeTest(context.Background(), GradeTestRequest{StudentID: "s1", TestID: test.ID})
	assert.True(t, util.IsValidationError(err))

	_, err = svc.GradeTest(context.Background(), GradeTestRequest{StudentID: " ", TestID: test.ID, Answers: answer})
	assert.True(t, util.IsValidationError(err))
}

func TestGradeTestPublishFailureIsIgnored(t *testing.T) {
	svc, _, pub := newTestService(failWith(OracleUnavailable))
	pub.err = errors.New("broker down")

	test, err := svc.GenerateTest(context.Background(), GenerateTestRequest{QuestionCount: intPtr(1)})
	require.NoError(t, err)
	_, err = svc.GradeTest(context.Background(), GradeTestRequest{
		StudentID: "s1", TestID: test.ID, Answers: []model.Answer{{QuestionID: test.Questions[0].ID, Value: "A"}},
	})
	assert.NoError(t, err)
}

func TestSampleTest(t *testing.T) {
	svc, _, _ := newTestService(failWith(OracleUnavailable))

	for variant, want := range map[string]int{"mcq": 5, "code": 3, "text": 3, "": 5} {
		test, err := svc.SampleTest(context.Background(), variant)
		require.NoError(t, err)
		assert.Len(t, test.Questions, want, variant)
		assert.Equal(t, "JavaScript", test.Topic)
		assert.Equal(t, model.Beginner, test.Difficulty)
	}

	_, err := svc.SampleTest(context.Background(), "essay")
	assert.True(t, util.IsValidationError(err))
}

func TestHealthCheck(t *testing.T) {
	svc, _, _ := newTestService(replyWith("OK."))
	status := svc.HealthCheck(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.OracleConnected)

	svc, _, _ = newTestService(replyWith("I am a teapot"))
	assert.Equal(t, "degraded", svc.HealthCheck(context.Background()).Status)

	svc, _, _ = newTestService(failWith(OracleTransport))
	status = svc.HealthCheck(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.OracleConnected)
}
