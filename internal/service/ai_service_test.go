package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"skill_assess_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAIServer(t *testing.T, handler http.HandlerFunc) (*AIService, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewAIService(config.AIConfig{
		BaseURL:        srv.URL + "/v1/",
		APIKey:         "secret",
		Model:          "test-model",
		RequestTimeout: 2 * time.Second,
	}), &hits
}

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + jsonString(content) + `}}]}`))
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func oracleKind(t *testing.T, err error) OracleErrorKind {
	t.Helper()
	var oe *OracleError
	require.True(t, errors.As(err, &oe), "not an oracle error: %v", err)
	return oe.Kind
}

func TestAIServiceAsk(t *testing.T) {
	svc, _ := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 123, req.MaxTokens)
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, "hello", req.Messages[0].Content)
		}

		chatReply(w, "<think>\nreasoning\n</think>\n  SCORE: 9/10 ")
	})

	text, err := svc.Ask(context.Background(), "hello", AskOptions{MaxTokens: 123, Purpose: "grade"})
	require.NoError(t, err)
	assert.Equal(t, "SCORE: 9/10", text)
}

func TestAIServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    OracleErrorKind
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			kind: OracleStatus,
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>")) },
			kind:    OracleMalformed,
		},
		{
			name:    "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"choices":[]}`)) },
			kind:    OracleMalformed,
		},
		{
			name:    "only reasoning",
			handler: func(w http.ResponseWriter, _ *http.Request) { chatReply(w, "<think>hmm</think>") },
			kind:    OracleMalformed,
		},
		{
			name: "error object",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
			},
			kind: OracleStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newAIServer(t, tt.handler)
			_, err := svc.Ask(context.Background(), "p", AskOptions{})
			require.Error(t, err)
			assert.Equal(t, tt.kind, oracleKind(t, err))
		})
	}
}

func TestAIServiceWithoutKeySkipsNetwork(t *testing.T) {
	svc, hits := newAIServer(t, func(w http.ResponseWriter, _ *http.Request) { chatReply(w, "OK") })
	svc.UpdateConfig(config.AIConfig{BaseURL: "http://127.0.0.1:1", Model: "other"})

	_, err := svc.Ask(context.Background(), "p", AskOptions{})
	assert.Equal(t, OracleUnavailable, oracleKind(t, err))
	assert.Zero(t, atomic.LoadInt32(hits))
	assert.Equal(t, "other", svc.Model())
}

func TestAIServiceDeadline(t *testing.T) {
	block := make(chan struct{})
	svc, _ := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.Ask(ctx, "p", AskOptions{})
	assert.True(t, IsOracleTimeout(err))
}

func TestAskWithDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	_, err := askWithDeadline(context.Background(), hangingOracle(release), 20*time.Millisecond, "p", AskOptions{})
	assert.True(t, IsOracleTimeout(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = askWithDeadline(ctx, hangingOracle(release), time.Second, "p", AskOptions{})
	assert.Equal(t, OracleCanceled, oracleKind(t, err))

	panicky := &fakeOracle{answer: func(context.Context, string) (string, error) { panic("nil map") }}
	_, err = askWithDeadline(context.Background(), panicky, time.Second, "p", AskOptions{})
	assert.Equal(t, OracleTransport, oracleKind(t, err))

	text, err := askWithDeadline(context.Background(), replyWith("fine"), 0, "p", AskOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fine", text)
}
