package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

// MaxDocumentSize is the largest document accepted by ParseDocument.
const MaxDocumentSize = 10 << 20

// DocumentMIMETypes maps accepted document extensions to their MIME type.
var DocumentMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var (
	ErrUnsupportedDocument = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "only PDF and Word documents are supported"})
	ErrDocumentTooLarge    = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file must not exceed 10MB"})
)

// ParsedGoal is a goal extracted from an IEP document.
type ParsedGoal struct {
	Description string `json:"description"`
	Baseline    string `json:"baseline"`
	Target      string `json:"target"`
	Domain      string `json:"domain"`
}

// ParsedDocument is the student information extracted from an IEP document.
type ParsedDocument struct {
	StudentName    string       `json:"studentName"`
	Grade          string       `json:"grade"`
	School         string       `json:"school"`
	DateOfBirth    string       `json:"dateOfBirth"`
	IEPStartDate   string       `json:"iepStartDate"`
	IEPDueDate     string       `json:"iepDueDate"`
	Concerns       []string     `json:"concerns"`
	Exceptionality []string     `json:"exceptionality"`
	Goals          []ParsedGoal `json:"goals"`
}

const extractionPrompt = `Extract the student information from this IEP document.
Answer with JSON only, no commentary, using exactly this shape:
{"studentName": "", "grade": "", "school": "", "dateOfBirth": "YYYY-MM-DD", "iepStartDate": "YYYY-MM-DD", "iepDueDate": "YYYY-MM-DD",
 "concerns": [""], "exceptionality": [""], "goals": [{"description": "", "baseline": "", "target": "", "domain": ""}]}
Use empty strings or empty arrays for anything not found in the document.`

// DocumentMIMEType returns the MIME type of an accepted document filename.
func DocumentMIMEType(filename string) (string, bool) {
	mt, ok := DocumentMIMETypes[strings.ToLower(filepath.Ext(filename))]
	return mt, ok
}

// ParseDocument extracts student information from a PDF or Word document.
func (svc *Service) ParseDocument(ctx context.Context, filename string, data []byte) (ParsedDocument, error) {
	mimeType, ok := DocumentMIMEType(filename)
	if !ok {
		return ParsedDocument{}, ErrUnsupportedDocument
	}
	if len(data) > MaxDocumentSize {
		return ParsedDocument{}, ErrDocumentTooLarge
	}

	text, err := svc.Generate(ctx, extractionPrompt, Attachment{MIMEType: mimeType, Data: data})
	if err != nil {
		return ParsedDocument{}, err
	}
	return DecodeDocument(text)
}

// DecodeDocument decodes a model answer into a ParsedDocument, tolerating markdown code fences around the JSON.
func DecodeDocument(text string) (ParsedDocument, error) {
	var doc ParsedDocument
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &doc); err != nil {
		return ParsedDocument{}, core.NewExternalError(
			http.StatusBadGateway,
			"AI service returned an invalid document summary",
			errors.Wrap(err, "decoding parsed document"),
		)
	}
	if doc.Concerns == nil {
		doc.Concerns = []string{}
	}
	if doc.Exceptionality == nil {
		doc.Exceptionality = []string{}
	}
	if doc.Goals == nil {
		doc.Goals = []ParsedGoal{}
	}
	return doc, nil
}

// StripCodeFences removes a surrounding ``` or ```json fence, and any text outside the outermost JSON object.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		}
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}
	if start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}'); start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
