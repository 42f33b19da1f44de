package session

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

// PerformanceEntry is the data collected for one targeted goal during a session.
type PerformanceEntry struct {
	GoalID          string          `json:"goalId" validate:"required"`
	Accuracy        *float64        `json:"accuracy,omitempty" validate:"omitempty,gte=0,lte=100"`
	CorrectTrials   int             `json:"correctTrials" validate:"gte=0"`
	IncorrectTrials int             `json:"incorrectTrials" validate:"gte=0"`
	CuingLevels     core.StringList `json:"cuingLevels"`
	Notes           string          `json:"notes,omitempty"`
}

// Trials returns the number of recorded trials.
func (p PerformanceEntry) Trials() int {
	return p.CorrectTrials + p.IncorrectTrials
}

// AccuracyValue returns the recorded accuracy, or the one computed from trials.
// ok is false when neither is available.
func (p PerformanceEntry) AccuracyValue() (acc float64, ok bool) {
	if p.Accuracy != nil {
		return *p.Accuracy, true
	}
	if t := p.Trials(); t > 0 {
		return float64(p.CorrectTrials) * 100 / float64(t), true
	}
	return 0, false
}

// PerformanceList is stored as a JSON array.
type PerformanceList []PerformanceEntry

func (l PerformanceList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return core.JSONValue([]PerformanceEntry(l))
}

func (l *PerformanceList) Scan(src interface{}) error {
	return core.ScanJSON(src, l)
}

func (l PerformanceList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]PerformanceEntry(l))
}

type Session struct {
	ID                           string          `json:"id" db:"id"`
	StudentID                    string          `json:"studentId" db:"student_id" validate:"required"`
	Date                         string          `json:"date" db:"date" validate:"required,date"`
	StartTime                    string          `json:"startTime" db:"start_time" validate:"omitempty,timeofday"`
	EndTime                      string          `json:"endTime" db:"end_time" validate:"omitempty,timeofday"`
	GoalsTargeted                core.StringList `json:"goalsTargeted" db:"goals_targeted"`
	ActivitiesUsed               core.StringList `json:"activitiesUsed" db:"activities_used" validate:"dive,max=500"`
	PerformanceData              PerformanceList `json:"performanceData" db:"performance_data" validate:"dive"`
	Notes                        string          `json:"notes" db:"notes"`
	IsDirectServices             bool            `json:"isDirectServices" db:"is_direct_services"`
	IndirectServicesNotes        string          `json:"indirectServicesNotes" db:"indirect_services_notes"`
	MissedSession                bool            `json:"missedSession" db:"missed_session"`
	SelectedSubjectiveStatements core.StringList `json:"selectedSubjectiveStatements" db:"selected_subjective_statements"`
	CustomSubjective             string          `json:"customSubjective" db:"custom_subjective"`
	Plan                         string          `json:"plan" db:"plan"`
	GroupSessionID               null.String     `json:"groupSessionId" db:"group_session_id"`
	CreatedAt                    core.Timestamp  `json:"createdAt" db:"created_at"`
	UpdatedAt                    core.Timestamp  `json:"updatedAt" db:"updated_at"`
}

func (s *Session) Clean() {
	s.StudentID = core.CleanString(s.StudentID)
	s.Date = core.CleanString(s.Date)
	s.StartTime = core.CleanString(s.StartTime)
	s.EndTime = core.CleanString(s.EndTime)
	s.GoalsTargeted = core.CleanStrings(s.GoalsTargeted)
	s.ActivitiesUsed = core.CleanStrings(s.ActivitiesUsed)
	s.SelectedSubjectiveStatements = core.CleanStrings(s.SelectedSubjectiveStatements)
	if s.GroupSessionID.Valid && core.CleanString(s.GroupSessionID.String) == "" {
		s.GroupSessionID = null.String{}
	}
	if s.PerformanceData == nil {
		s.PerformanceData = PerformanceList{}
	}
}

// NewSession returns a Session with the defaults of a direct-services session.
func NewSession() Session {
	return Session{IsDirectServices: true}
}

type QueryFilter struct {
	core.DateRange
	StudentID      string `query:"studentId"`
	School         string `query:"school"`
	GroupSessionID string `query:"groupSessionId"`
	StudentIDs     []string
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.School = core.CleanString(qf.School)
	qf.GroupSessionID = core.CleanString(qf.GroupSessionID)
}
