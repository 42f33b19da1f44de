// Package genaisvc implements assistant.Generator with the Gemini API.
package genaisvc

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/assistant"
)

type Gemini struct {
	client *genai.Client
}

var _ assistant.Generator = (*Gemini)(nil)

// NewGemini returns a Gemini generator, or nil (with no error) when no API key is configured.
func NewGemini(ctx context.Context, conf *core.Config) (*Gemini, error) {
	if conf.AI.APIKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.AI.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Gemini) Generate(ctx context.Context, model, prompt string, attachments ...assistant.Attachment) (string, error) {
	parts := make([]genai.Part, 0, len(attachments)+1)
	for _, at := range attachments {
		parts = append(parts, genai.Blob{MIMEType: at.MIMEType, Data: at.Data})
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := g.client.GenerativeModel(model).GenerateContent(ctx, parts...)
	if err != nil {
		return "", toAPIError(err)
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
		if b.Len() > 0 {
			break // first candidate with text
		}
	}
	return b.String()
}

var grpcToHTTP = map[codes.Code]int{
	codes.InvalidArgument:   http.StatusBadRequest,
	codes.Unauthenticated:   http.StatusUnauthorized,
	codes.PermissionDenied:  http.StatusForbidden,
	codes.NotFound:          http.StatusNotFound,
	codes.ResourceExhausted: http.StatusTooManyRequests,
	codes.Unavailable:       http.StatusServiceUnavailable,
	codes.DeadlineExceeded:  http.StatusGatewayTimeout,
	codes.Internal:          http.StatusInternalServerError,
}

// toAPIError maps REST and gRPC failures to *assistant.APIError so the assistant can fall back on 404.
// Context errors are returned as is.
func toAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &assistant.APIError{Status: gerr.Code, Err: err}
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		if code, found := grpcToHTTP[st.Code()]; found {
			return &assistant.APIError{Status: code, Err: err}
		}
	}
	return err
}
