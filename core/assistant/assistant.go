// Package assistant drafts clinical text through a hosted generative model.
package assistant

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var (
	ErrNotConfigured = core.NewExternalError(http.StatusServiceUnavailable, "AI service is not configured", nil)

	msgAuthFailed  = "AI service authentication failed"
	msgNoModel     = "no available AI model"
	msgTimeout     = "AI service timed out"
	msgFailed      = "AI service request failed"
	msgEmptyAnswer = "AI service returned an empty response"
)

// Attachment is a file sent inline with a prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Generator calls one model of a hosted generative API.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, attachments ...Attachment) (string, error)
}

// APIError is returned by Generator implementations when the API answers with an HTTP error status.
type APIError struct {
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

func (e *APIError) Unwrap() error { return e.Err }

type Service struct {
	gen     Generator
	models  []string
	timeout time.Duration
	log     core.Logger
}

// NewService returns an assistant Service; a nil gen makes every call fail with ErrNotConfigured.
func NewService(gen Generator, conf *core.Config, log core.Logger) *Service {
	timeout := conf.AI.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Service{gen: gen, models: conf.AI.Models, timeout: timeout, log: log}
}

// Configured reports whether a generator and at least one model are available.
func (svc *Service) Configured() bool {
	return svc.gen != nil && len(svc.models) > 0
}

// Generate sends prompt to the configured models in order, moving to the next model when one is not found.
func (svc *Service) Generate(ctx context.Context, prompt string, attachments ...Attachment) (string, error) {
	if !svc.Configured() {
		return "", ErrNotConfigured
	}

	var lastErr error
	for _, model := range svc.models {
		text, err := svc.generate(ctx, model, prompt, attachments...)
		if err == nil {
			if text == "" {
				return "", core.NewExternalError(http.StatusBadGateway, msgEmptyAnswer, nil)
			}
			return text, nil
		}

		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
			svc.log.Warn("AI model not found, trying next model", map[string]interface{}{"model": model})
			lastErr = err
			continue
		case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden):
			return "", core.NewExternalError(http.StatusBadGateway, msgAuthFailed, err)
		case errors.Is(err, context.DeadlineExceeded):
			return "", core.NewExternalError(http.StatusGatewayTimeout, msgTimeout, err)
		default:
			return "", core.NewExternalError(http.StatusBadGateway, msgFailed, err)
		}
	}
	return "", core.NewExternalError(http.StatusBadGateway, msgNoModel, lastErr)
}

func (svc *Service) generate(ctx context.Context, model, prompt string, attachments ...Attachment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()
	return svc.gen.Generate(ctx, model, prompt, attachments...)
}
