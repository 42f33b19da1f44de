package student

import (
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

// Progress report frequencies
const (
	FrequencyQuarterly = "quarterly"
	FrequencyAnnual    = "annual"
)

type Student struct {
	ID                      string          `json:"id" db:"id"`
	Name                    string          `json:"name" db:"name" validate:"required,max=200"`
	Grade                   string          `json:"grade" db:"grade" validate:"required,max=20"`
	School                  string          `json:"school" db:"school" validate:"max=200"`
	Teacher                 string          `json:"teacher" db:"teacher" validate:"max=200"`
	CaseManagerID           null.String     `json:"caseManagerId" db:"case_manager_id"`
	Concerns                core.StringList `json:"concerns" db:"concerns" validate:"dive,max=500"`
	Exceptionality          core.StringList `json:"exceptionality" db:"exceptionality" validate:"dive,max=200"`
	IEPStartDate            string          `json:"iepStartDate" db:"iep_start_date" validate:"omitempty,date"`
	IEPDueDate              string          `json:"iepDueDate" db:"iep_due_date" validate:"omitempty,date"`
	EvaluationDueDate       string          `json:"evaluationDueDate" db:"evaluation_due_date" validate:"omitempty,date"`
	ProgressReportFrequency string          `json:"progressReportFrequency" db:"progress_report_frequency" validate:"oneof=quarterly annual"`
	FrequencyPerWeek        int             `json:"frequencyPerWeek" db:"frequency_per_week" validate:"gte=0,lte=14"`
	FrequencyType           string          `json:"frequencyType" db:"frequency_type" validate:"omitempty,oneof=weekly monthly"`
	SessionDuration         int             `json:"sessionDuration" db:"session_duration" validate:"gte=0,lte=480"`
	DateOfBirth             string          `json:"dateOfBirth" db:"date_of_birth" validate:"omitempty,date"`
	Notes                   string          `json:"notes" db:"notes"`
	Archived                bool            `json:"archived" db:"archived"`
	CreatedAt               core.Timestamp  `json:"createdAt" db:"created_at"`
	UpdatedAt               core.Timestamp  `json:"updatedAt" db:"updated_at"`
}

func (st *Student) Clean() {
	st.Name = core.CleanString(st.Name)
	st.Grade = core.CleanString(st.Grade)
	st.School = core.CleanString(st.School)
	st.Teacher = core.CleanString(st.Teacher)
	st.FrequencyType = core.CleanString(st.FrequencyType, true /* lower */)
	st.ProgressReportFrequency = core.CleanString(st.ProgressReportFrequency, true /* lower */)
	if st.ProgressReportFrequency == "" {
		st.ProgressReportFrequency = FrequencyQuarterly
	}
	if st.CaseManagerID.Valid && core.CleanString(st.CaseManagerID.String) == "" {
		st.CaseManagerID = null.String{}
	}
	st.Concerns = core.CleanStrings(st.Concerns)
	st.Exceptionality = core.CleanStrings(st.Exceptionality)
}

type QueryFilter struct {
	Search        string `query:"search"`
	School        string `query:"school"`
	Grade         string `query:"grade"`
	Teacher       string `query:"teacher"`
	CaseManagerID string `query:"caseManagerId"`
	Archived      string `query:"archived"` // "", "true" or "false"; archived students are hidden by default
	IDs           []string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.School = core.CleanString(qf.School)
	qf.Grade = core.CleanString(qf.Grade)
	qf.Teacher = core.CleanString(qf.Teacher)
	qf.CaseManagerID = core.CleanString(qf.CaseManagerID)
}

// ArchivedValue returns the archived flag to filter on, or nil for "any".
func (qf *QueryFilter) ArchivedValue() *bool {
	switch v := strings.ToLower(qf.Archived); v {
	case "all", "any":
		return nil
	case "":
		b := false
		return &b
	default:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil
		}
		return &b
	}
}
