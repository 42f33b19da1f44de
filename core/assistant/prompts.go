package assistant

import (
	"context"
	"fmt"
	"strings"
)

// SessionPlanRequest describes the student and goals a session plan is drafted for.
type SessionPlanRequest struct {
	StudentName     string   `json:"studentName" validate:"required"`
	Grade           string   `json:"grade"`
	Goals           []string `json:"goals" validate:"required,min=1,dive,required"`
	SessionDuration int      `json:"sessionDuration" validate:"gte=0,lte=480"`
	Notes           string   `json:"notes"`
}

type SOAPNoteRequest struct {
	StudentName     string   `json:"studentName" validate:"required"`
	Goals           []string `json:"goals"`
	Activities      []string `json:"activities"`
	PerformanceData []string `json:"performanceData"`
	Observations    string   `json:"observations"`
}

type IEPUpdateRequest struct {
	StudentName  string   `json:"studentName" validate:"required"`
	Grade        string   `json:"grade"`
	CurrentGoals []string `json:"currentGoals" validate:"required,min=1,dive,required"`
	ProgressData string   `json:"progressData"`
	Concerns     []string `json:"concerns"`
}

// TextResponse is the answer of the drafting endpoints.
type TextResponse struct {
	Text string `json:"text"`
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- (none provided)\n"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- " + strings.TrimSpace(it) + "\n")
	}
	return b.String()
}

func (svc *Service) SessionPlan(ctx context.Context, req SessionPlanRequest) (TextResponse, error) {
	var b strings.Builder
	b.WriteString("You are an experienced school-based speech-language pathologist.\n")
	fmt.Fprintf(&b, "Write a therapy session plan for %s", req.StudentName)
	if req.Grade != "" {
		fmt.Fprintf(&b, " (grade %s)", req.Grade)
	}
	if req.SessionDuration > 0 {
		fmt.Fprintf(&b, " for a %d-minute session", req.SessionDuration)
	}
	b.WriteString(".\nTarget these IEP goals:\n")
	b.WriteString(bulletList(req.Goals))
	if req.Notes != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", req.Notes)
	}
	b.WriteString("Include a warm-up, activities per goal with materials, data collection notes and a wrap-up.")

	text, err := svc.Generate(ctx, b.String())
	return TextResponse{Text: text}, err
}

func (svc *Service) SOAPNote(ctx context.Context, req SOAPNoteRequest) (TextResponse, error) {
	var b strings.Builder
	b.WriteString("You are a speech-language pathologist writing clinical documentation.\n")
	fmt.Fprintf(&b, "Write a concise SOAP note (Subjective, Objective, Assessment, Plan) for a session with %s.\n", req.StudentName)
	b.WriteString("Goals targeted:\n")
	b.WriteString(bulletList(req.Goals))
	b.WriteString("Activities:\n")
	b.WriteString(bulletList(req.Activities))
	b.WriteString("Performance data:\n")
	b.WriteString(bulletList(req.PerformanceData))
	if req.Observations != "" {
		fmt.Fprintf(&b, "Clinician observations: %s\n", req.Observations)
	}
	b.WriteString("Use objective, measurable language.")

	text, err := svc.Generate(ctx, b.String())
	return TextResponse{Text: text}, err
}

func (svc *Service) IEPUpdate(ctx context.Context, req IEPUpdateRequest) (TextResponse, error) {
	var b strings.Builder
	b.WriteString("You are a speech-language pathologist preparing an IEP update.\n")
	fmt.Fprintf(&b, "Student: %s", req.StudentName)
	if req.Grade != "" {
		fmt.Fprintf(&b, ", grade %s", req.Grade)
	}
	b.WriteString("\nCurrent goals:\n")
	b.WriteString(bulletList(req.CurrentGoals))
	if req.ProgressData != "" {
		fmt.Fprintf(&b, "Progress data: %s\n", req.ProgressData)
	}
	if len(req.Concerns) > 0 {
		b.WriteString("Areas of concern:\n")
		b.WriteString(bulletList(req.Concerns))
	}
	b.WriteString("Summarize present levels of performance and propose updated, measurable annual goals with baselines and targets.")

	text, err := svc.Generate(ctx, b.String())
	return TextResponse{Text: text}, err
}
