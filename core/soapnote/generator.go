package soapnote

import (
	"fmt"
	"strings"

	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/session"
)

// Accuracy thresholds (percent) driving the assessment and plan wording.
const (
	StrongProgressThreshold = 80.0
	SteadyProgressThreshold = 60.0
)

// Draft is generated SOAP text for a session, ready to be reviewed and saved.
type Draft struct {
	StudentID       string   `json:"studentId"`
	SessionID       string   `json:"sessionId"`
	Date            string   `json:"date"`
	Subjective      string   `json:"subjective"`
	Objective       string   `json:"objective"`
	Assessment      string   `json:"assessment"`
	Plan            string   `json:"plan"`
	AverageAccuracy *float64 `json:"averageAccuracy"`
}

// Generate assembles a SOAP draft from a session, the student's name and the targeted goals.
func Generate(sess session.Session, studentName string, goals []goal.Goal) Draft {
	name := studentName
	if name == "" {
		name = "The student"
	}
	byID := make(map[string]goal.Goal, len(goals))
	for _, g := range goals {
		byID[g.ID] = g
	}

	draft := Draft{
		StudentID: sess.StudentID,
		SessionID: sess.ID,
		Date:      sess.Date,
	}

	if sess.MissedSession {
		draft.Subjective = fmt.Sprintf("%s was not seen for the scheduled session.", name)
		draft.Objective = "No data collected; session missed."
		draft.Assessment = "Unable to assess progress this session."
		draft.Plan = withDefault(sess.Plan, "Reschedule the missed session and continue targeting current IEP goals.")
		return draft
	}

	draft.Subjective = subjective(sess, name)
	draft.Objective = objective(sess, name, byID)

	avg, ok := averageAccuracy(sess.PerformanceData)
	if ok {
		draft.AverageAccuracy = &avg
	}
	draft.Assessment = assessment(name, avg, ok)
	draft.Plan = withDefault(sess.Plan, plan(avg, ok))
	return draft
}

func subjective(sess session.Session, name string) string {
	parts := make([]string, 0, len(sess.SelectedSubjectiveStatements)+1)
	for _, st := range sess.SelectedSubjectiveStatements {
		parts = append(parts, sentence(st))
	}
	if c := strings.TrimSpace(sess.CustomSubjective); c != "" {
		parts = append(parts, sentence(c))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s participated willingly in the session.", name)
	}
	return strings.Join(parts, " ")
}

func objective(sess session.Session, name string, goals map[string]goal.Goal) string {
	var b strings.Builder
	if !sess.IsDirectServices {
		b.WriteString("Indirect services provided.")
		if n := strings.TrimSpace(sess.IndirectServicesNotes); n != "" {
			b.WriteString(" " + sentence(n))
		}
	}
	if len(sess.ActivitiesUsed) > 0 {
		appendLine(&b, fmt.Sprintf("Activities: %s.", strings.Join(sess.ActivitiesUsed, ", ")))
	}

	for _, perf := range sess.PerformanceData {
		desc := "Goal"
		if g, ok := goals[perf.GoalID]; ok && g.Description != "" {
			desc = strings.TrimSuffix(g.Description, ".")
		}
		line := desc + ": "
		if acc, ok := perf.AccuracyValue(); ok {
			line += fmt.Sprintf("%s achieved %.0f%% accuracy", name, acc)
			if t := perf.Trials(); t > 0 {
				line += fmt.Sprintf(" (%d/%d trials)", perf.CorrectTrials, t)
			}
		} else {
			line += "targeted, no accuracy data recorded"
		}
		if len(perf.CuingLevels) > 0 {
			line += " with " + strings.Join(perf.CuingLevels, ", ") + " cues"
		}
		line += "."
		if n := strings.TrimSpace(perf.Notes); n != "" {
			line += " " + sentence(n)
		}
		appendLine(&b, line)
	}

	if n := strings.TrimSpace(sess.Notes); n != "" {
		appendLine(&b, sentence(n))
	}
	if b.Len() == 0 {
		return "No objective data recorded."
	}
	return b.String()
}

func assessment(name string, avg float64, ok bool) string {
	switch {
	case !ok:
		return "Insufficient data collected to assess progress toward goals."
	case avg >= StrongProgressThreshold:
		return fmt.Sprintf("%s demonstrated strong progress toward targeted goals (average accuracy %.0f%%).", name, avg)
	case avg >= SteadyProgressThreshold:
		return fmt.Sprintf("%s is making steady progress toward targeted goals (average accuracy %.0f%%).", name, avg)
	default:
		return fmt.Sprintf("%s continues to require support to meet targeted goals (average accuracy %.0f%%).", name, avg)
	}
}

func plan(avg float64, ok bool) string {
	switch {
	case !ok:
		return "Continue targeting current IEP goals and collect performance data next session."
	case avg >= StrongProgressThreshold:
		return "Increase task complexity and fade cues next session."
	case avg >= SteadyProgressThreshold:
		return "Continue targeting current goals with current level of support."
	default:
		return "Continue targeting current goals with increased cueing and modeling."
	}
}

// averageAccuracy averages the accuracy of the entries that have one.
func averageAccuracy(data session.PerformanceList) (float64, bool) {
	var sum float64
	var n int
	for _, perf := range data {
		if acc, ok := perf.AccuracyValue(); ok {
			sum += acc
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}

func appendLine(b *strings.Builder, line string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(line)
}

func withDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
