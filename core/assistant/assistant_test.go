package assistant

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/caseload/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// fakeGenerator answers per model; models missing from `answers` are not found.
type fakeGenerator struct {
	answers map[string]string
	errs    map[string]error
	calls   []string
	prompts []string
	atts    [][]Attachment
}

func (g *fakeGenerator) Generate(_ context.Context, model, prompt string, attachments ...Attachment) (string, error) {
	g.calls = append(g.calls, model)
	g.prompts = append(g.prompts, prompt)
	g.atts = append(g.atts, attachments)
	if err, ok := g.errs[model]; ok {
		return "", err
	}
	if text, ok := g.answers[model]; ok {
		return text, nil
	}
	return "", &APIError{Status: http.StatusNotFound, Err: errors.New("model not found")}
}

func newTestService(gen Generator, models ...string) *Service {
	conf := &core.Config{}
	conf.AI.Models = models
	conf.AI.Timeout = time.Second
	return NewService(gen, conf, nopLogger{})
}

func externalError(t *testing.T, err error) *core.ExternalError {
	t.Helper()
	var extErr *core.ExternalError
	require.True(t, errors.As(err, &extErr), "want *core.ExternalError, got %v", err)
	return extErr
}

func TestGenerateFallback(t *testing.T) {
	tests := []struct {
		name       string
		gen        *fakeGenerator
		wantText   string
		wantCalls  []string
		wantStatus int
		wantMsg    string
	}{
		{
			name:      "first model answers",
			gen:       &fakeGenerator{answers: map[string]string{"m1": "ok", "m2": "unused"}},
			wantText:  "ok",
			wantCalls: []string{"m1"},
		},
		{
			name:      "falls back on not found",
			gen:       &fakeGenerator{answers: map[string]string{"m2": "from m2"}},
			wantText:  "from m2",
			wantCalls: []string{"m1", "m2"},
		},
		{
			name:       "no model available",
			gen:        &fakeGenerator{},
			wantCalls:  []string{"m1", "m2", "m3"},
			wantStatus: http.StatusBadGateway,
			wantMsg:    msgNoModel,
		},
		{
			name: "auth failure stops",
			gen: &fakeGenerator{
				errs:    map[string]error{"m1": &APIError{Status: http.StatusForbidden}},
				answers: map[string]string{"m2": "unused"},
			},
			wantCalls:  []string{"m1"},
			wantStatus: http.StatusBadGateway,
			wantMsg:    msgAuthFailed,
		},
		{
			name: "other error stops",
			gen: &fakeGenerator{
				errs:    map[string]error{"m1": &APIError{Status: http.StatusInternalServerError}},
				answers: map[string]string{"m2": "unused"},
			},
			wantCalls:  []string{"m1"},
			wantStatus: http.StatusBadGateway,
			wantMsg:    msgFailed,
		},
		{
			name:       "timeout",
			gen:        &fakeGenerator{errs: map[string]error{"m1": errors.Wrap(context.DeadlineExceeded, "calling model")}},
			wantCalls:  []string{"m1"},
			wantStatus: http.StatusGatewayTimeout,
			wantMsg:    msgTimeout,
		},
		{
			name:       "empty answer",
			gen:        &fakeGenerator{answers: map[string]string{"m1": ""}},
			wantCalls:  []string{"m1"},
			wantStatus: http.StatusBadGateway,
			wantMsg:    msgEmptyAnswer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.gen, "m1", "m2", "m3")
			text, err := svc.Generate(context.Background(), "prompt")
			assert.Equal(t, tt.wantCalls, tt.gen.calls)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, text)
				return
			}
			extErr := externalError(t, err)
			assert.Equal(t, tt.wantStatus, extErr.Status)
			assert.Equal(t, tt.wantMsg, extErr.Message)
		})
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	for name, svc := range map[string]*Service{
		"no generator": newTestService(nil, "m1"),
		"no models":    newTestService(&fakeGenerator{}),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), "prompt")
			extErr := externalError(t, err)
			assert.Equal(t, http.StatusServiceUnavailable, extErr.Status)
			assert.Equal(t, "AI service is not configured", extErr.Message)
		})
	}
}

func TestSessionPlanPrompt(t *testing.T) {
	gen := &fakeGenerator{answers: map[string]string{"m1": "plan"}}
	svc := newTestService(gen, "m1")

	resp, err := svc.SessionPlan(context.Background(), SessionPlanRequest{
		StudentName:     "Alex",
		Grade:           "3",
		Goals:           []string{"Produce /s/ in words"},
		SessionDuration: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "plan", resp.Text)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Alex (grade 3) for a 30-minute session")
	assert.Contains(t, gen.prompts[0], "- Produce /s/ in words")
}
