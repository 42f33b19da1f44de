package assistant

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{name: "surrounding prose", in: "Here you go:\n{\"a\":{\"b\":2}}\nThanks", want: `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestParseDocument(t *testing.T) {
	answer := "```json\n" + `{
		"studentName": "Alex Doe",
		"grade": "3",
		"concerns": ["articulation"],
		"goals": [{"description": "Produce /r/", "baseline": "20%", "target": "80%", "domain": "articulation"}]
	}` + "\n```"
	gen := &fakeGenerator{answers: map[string]string{"m1": answer}}
	svc := newTestService(gen, "m1")

	doc, err := svc.ParseDocument(context.Background(), "IEP.PDF", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "Alex Doe", doc.StudentName)
	assert.Equal(t, []string{"articulation"}, doc.Concerns)
	assert.Equal(t, []string{}, doc.Exceptionality)
	assert.Equal(t, []ParsedGoal{{Description: "Produce /r/", Baseline: "20%", Target: "80%", Domain: "articulation"}}, doc.Goals)

	require.Len(t, gen.atts, 1)
	assert.Equal(t, []Attachment{{MIMEType: "application/pdf", Data: []byte("%PDF-1.4")}}, gen.atts[0])
}

func TestParseDocumentErrors(t *testing.T) {
	svc := newTestService(&fakeGenerator{answers: map[string]string{"m1": "not json"}}, "m1")

	_, err := svc.ParseDocument(context.Background(), "notes.txt", []byte("x"))
	assert.Equal(t, ErrUnsupportedDocument, err)

	_, err = svc.ParseDocument(context.Background(), "big.docx", make([]byte, MaxDocumentSize+1))
	assert.Equal(t, ErrDocumentTooLarge, err)

	_, err = svc.ParseDocument(context.Background(), "iep.doc", []byte("x"))
	extErr := externalError(t, err)
	assert.Equal(t, http.StatusBadGateway, extErr.Status)
}
