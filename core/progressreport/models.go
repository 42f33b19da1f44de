package progressreport

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

// Report types
const (
	TypeQuarterly = "quarterly"
	TypeAnnual    = "annual"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
)

type ProgressReport struct {
	ID            string          `json:"id" db:"id"`
	StudentID     string          `json:"studentId" db:"student_id" validate:"required"`
	ReportType    string          `json:"reportType" db:"report_type" validate:"required,oneof=quarterly annual"`
	DueDate       string          `json:"dueDate" db:"due_date" validate:"required,date"`
	PeriodStart   string          `json:"periodStart" db:"period_start" validate:"omitempty,date"`
	PeriodEnd     string          `json:"periodEnd" db:"period_end" validate:"omitempty,date"`
	Status        string          `json:"status" db:"status" validate:"required,oneof=pending in-progress completed overdue"`
	CompletedDate null.String     `json:"completedDate" db:"completed_date" validate:"omitempty,date"`
	Content       string          `json:"content" db:"content"`
	GoalIDs       core.StringList `json:"goalIds" db:"goal_ids"`
	SentDate      null.String     `json:"sentDate" db:"sent_date" validate:"omitempty,date"`
	SentTo        core.StringList `json:"sentTo" db:"sent_to" validate:"dive,email"`
	CreatedAt     core.Timestamp  `json:"createdAt" db:"created_at"`
	UpdatedAt     core.Timestamp  `json:"updatedAt" db:"updated_at"`
}

func (r *ProgressReport) Clean() {
	r.StudentID = core.CleanString(r.StudentID)
	r.ReportType = core.CleanString(r.ReportType, true /* lower */)
	r.DueDate = core.CleanString(r.DueDate)
	r.PeriodStart = core.CleanString(r.PeriodStart)
	r.PeriodEnd = core.CleanString(r.PeriodEnd)
	r.Status = core.CleanString(r.Status, true /* lower */)
	if r.Status == "" {
		r.Status = StatusPending
	}
	r.GoalIDs = core.CleanStrings(r.GoalIDs)
	r.SentTo = core.CleanStrings(r.SentTo)
	if r.CompletedDate.Valid && core.CleanString(r.CompletedDate.String) == "" {
		r.CompletedDate = null.String{}
	}
	if r.SentDate.Valid && core.CleanString(r.SentDate.String) == "" {
		r.SentDate = null.String{}
	}
}

type QueryFilter struct {
	core.DateRange
	StudentID  string `query:"studentId"`
	School     string `query:"school"`
	Status     string `query:"status"`
	ReportType string `query:"reportType"`
	// Statuses and StudentIDs match any of the given values; used internally.
	Statuses   []string
	StudentIDs []string
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.School = core.CleanString(qf.School)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.ReportType = core.CleanString(qf.ReportType, true /* lower */)
}

// ScheduleRequest asks for reports to be generated over a school year.
// Empty bounds default to the current school year.
type ScheduleRequest struct {
	StudentIDs      []string `json:"studentIds"`
	SchoolYearStart string   `json:"schoolYearStart" validate:"omitempty,date"`
	SchoolYearEnd   string   `json:"schoolYearEnd" validate:"omitempty,date"`
}

type ScheduleResult struct {
	Created []ProgressReport `json:"created"`
	Skipped int              `json:"skipped"`
}
