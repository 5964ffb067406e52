package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"skill_assess_backend/internal/config"
	"skill_assess_backend/pkg/monitoring"
	"skill_assess_backend/pkg/tracing"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Oracle is a remote text-completion model: prompt in, unstructured text out.
type Oracle interface {
	Ask(ctx context.Context, prompt string, opts AskOptions) (string, error)
}

type AskOptions struct {
	MaxTokens   int
	Temperature float64
	// Purpose labels metrics and spans (generate, grade, health).
	Purpose string
}

type OracleErrorKind string

const (
	OracleTimeout     OracleErrorKind = "timeout"
	OracleCanceled    OracleErrorKind = "canceled"
	OracleUnavailable OracleErrorKind = "unavailable"
	OracleTransport   OracleErrorKind = "transport"
	OracleStatus      OracleErrorKind = "status"
	OracleMalformed   OracleErrorKind = "malformed"
)

// OracleError is every failure the oracle boundary can produce. It is
// recovered locally (fallback content, partial credit) and never surfaced.
type OracleError struct {
	Kind       OracleErrorKind
	StatusCode int
	Err        error
}

func (e *OracleError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("oracle %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("oracle %s: %v", e.Kind, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

func IsOracleTimeout(err error) bool {
	var oe *OracleError
	if errors.As(err, &oe) {
		return oe.Kind == OracleTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func contextError(err error) *OracleError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &OracleError{Kind: OracleTimeout, Err: err}
	}
	return &OracleError{Kind: OracleCanceled, Err: err}
}

// askWithDeadline bounds an oracle call by timeout even if the oracle ignores
// its context. A reply arriving after the deadline is dropped.
func askWithDeadline(ctx context.Context, oracle Oracle, timeout time.Duration, prompt string, opts AskOptions) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: &OracleError{Kind: OracleTransport, Err: fmt.Errorf("oracle panic: %v", r)}}
			}
		}()
		text, err := oracle.Ask(ctx, prompt, opts)
		ch <- reply{text: text, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", contextError(ctx.Err())
	}
}

// AIService talks to an OpenAI-compatible chat completions endpoint.
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

var _ Oracle = (*AIService)(nil)

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// UpdateConfig swaps endpoint settings, used on config reload.
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: cfg.RequestTimeout}
}

func (s *AIService) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Model
}

func (s *AIService) snapshot() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIService) Ask(ctx context.Context, prompt string, opts AskOptions) (string, error) {
	purpose := opts.Purpose
	if purpose == "" {
		purpose = "ask"
	}

	ctx, span := tracing.Tracer().Start(ctx, "oracle.ask")
	defer span.End()
	span.SetAttributes(
		attribute.String("oracle.purpose", purpose),
		attribute.Int("oracle.max_tokens", opts.MaxTokens),
	)

	start := time.Now()
	text, err := s.ask(ctx, prompt, opts)

	outcome := "ok"
	if err != nil {
		var oe *OracleError
		if errors.As(err, &oe) {
			outcome = string(oe.Kind)
		} else {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	monitoring.ObserveOracleCall(purpose, outcome, time.Since(start))
	return text, err
}

func (s *AIService) ask(ctx context.Context, prompt string, opts AskOptions) (string, error) {
	cfg, client := s.snapshot()
	if cfg.APIKey == "" {
		return "", &OracleError{Kind: OracleUnavailable, Err: errors.New("ai api key not set")}
	}

	reqBody := ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &OracleError{Kind: OracleMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &OracleError{Kind: OracleTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", contextError(ctxErr)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", &OracleError{Kind: OracleTimeout, Err: err}
		}
		return "", &OracleError{Kind: OracleTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", contextError(ctxErr)
		}
		return "", &OracleError{Kind: OracleTransport, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &OracleError{
			Kind:       OracleStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("ai api error: %s", truncate(string(body), 200)),
		}
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &OracleError{Kind: OracleMalformed, Err: err}
	}
	if result.Error != nil {
		return "", &OracleError{Kind: OracleStatus, StatusCode: resp.StatusCode, Err: errors.New(result.Error.Message)}
	}
	if len(result.Choices) == 0 {
		return "", &OracleError{Kind: OracleMalformed, Err: errors.New("ai returned no choices")}
	}

	content := stripReasoning(result.Choices[0].Message.Content)
	if content == "" {
		return "", &OracleError{Kind: OracleMalformed, Err: errors.New("ai returned empty content")}
	}
	return content, nil
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripReasoning drops <think> blocks emitted by reasoning models.
func stripReasoning(s string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(s, ""))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
