package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"skill_assess_backend/internal/config"
)

// fakeOracle answers with a canned function and counts calls.
type fakeOracle struct {
	calls  int32
	mu     sync.Mutex
	asked  []string
	answer func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeOracle) Ask(ctx context.Context, prompt string, _ AskOptions) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.asked = append(f.asked, prompt)
	f.mu.Unlock()
	return f.answer(ctx, prompt)
}

func (f *fakeOracle) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

func replyWith(text string) *fakeOracle {
	return &fakeOracle{answer: func(context.Context, string) (string, error) { return text, nil }}
}

func failWith(kind OracleErrorKind) *fakeOracle {
	return &fakeOracle{answer: func(context.Context, string) (string, error) {
		return "", &OracleError{Kind: kind, Err: errors.New("boom")}
	}}
}

// hangingOracle ignores its context and only returns once release is closed.
func hangingOracle(release <-chan struct{}) *fakeOracle {
	return &fakeOracle{answer: func(context.Context, string) (string, error) {
		<-release
		return `[]`, nil
	}}
}

func testAssessmentConfig() config.AssessmentConfig {
	return config.Defaults().Assessment
}
