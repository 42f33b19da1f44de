package schedule

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

// Recurrence patterns
const (
	PatternWeekly        = "weekly"
	PatternDaily         = "daily"
	PatternSpecificDates = "specific-dates"
	PatternNone          = "none"
)

// ScheduledSession is a recurring slot on the SLP's calendar.
type ScheduledSession struct {
	ID                string          `json:"id" db:"id"`
	StudentIDs        core.StringList `json:"studentIds" db:"student_ids" validate:"required,min=1"`
	StartTime         string          `json:"startTime" db:"start_time" validate:"required,timeofday"`
	EndTime           string          `json:"endTime" db:"end_time" validate:"required,timeofday"`
	RecurrencePattern string          `json:"recurrencePattern" db:"recurrence_pattern" validate:"required,oneof=weekly daily specific-dates none"`
	DayOfWeek         null.Int        `json:"dayOfWeek" db:"day_of_week" validate:"omitempty,min=0,max=6"`
	SpecificDates     core.StringList `json:"specificDates" db:"specific_dates" validate:"dive,date"`
	ExcludedDates     core.StringList `json:"excludedDates" db:"excluded_dates" validate:"dive,date"`
	StartDate         string          `json:"startDate" db:"start_date" validate:"required,date"`
	EndDate           null.String     `json:"endDate" db:"end_date" validate:"omitempty,date"`
	IsDirectServices  bool            `json:"isDirectServices" db:"is_direct_services"`
	IsActive          bool            `json:"isActive" db:"is_active"`
	School            string          `json:"school" db:"school" validate:"max=200"`
	Notes             string          `json:"notes" db:"notes"`
	CreatedAt         core.Timestamp  `json:"createdAt" db:"created_at"`
	UpdatedAt         core.Timestamp  `json:"updatedAt" db:"updated_at"`
}

// NewScheduledSession returns an active direct-services ScheduledSession.
func NewScheduledSession() ScheduledSession {
	return ScheduledSession{IsDirectServices: true, IsActive: true}
}

func (s *ScheduledSession) Clean() {
	s.StudentIDs = core.CleanStrings(s.StudentIDs)
	s.StartTime = core.CleanString(s.StartTime)
	s.EndTime = core.CleanString(s.EndTime)
	s.RecurrencePattern = core.CleanString(s.RecurrencePattern, true /* lower */)
	s.SpecificDates = core.CleanStrings(s.SpecificDates)
	s.ExcludedDates = core.CleanStrings(s.ExcludedDates)
	s.StartDate = core.CleanString(s.StartDate)
	s.School = core.CleanString(s.School)
	if s.EndDate.Valid && core.CleanString(s.EndDate.String) == "" {
		s.EndDate = null.String{}
	}
	if s.RecurrencePattern != PatternWeekly {
		s.DayOfWeek = null.Int{}
	}
}

type QueryFilter struct {
	StudentID string `query:"studentId"`
	School    string `query:"school"`
	IsActive  string `query:"isActive"` // "", "true" or "false"
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.School = core.CleanString(qf.School)
	qf.IsActive = core.CleanString(qf.IsActive, true /* lower */)
}

// OccurrenceFilter selects the range expanded by Service.Occurrences.
type OccurrenceFilter struct {
	StartDate string `query:"startDate" validate:"required,date"`
	EndDate   string `query:"endDate" validate:"required,date"`
	School    string `query:"school"`
	StudentID string `query:"studentId"`
}

// Occurrence is one dated instance of a ScheduledSession.
type Occurrence struct {
	ScheduledSessionID string          `json:"scheduledSessionId"`
	Date               string          `json:"date"`
	StartTime          string          `json:"startTime"`
	EndTime            string          `json:"endTime"`
	StudentIDs         core.StringList `json:"studentIds"`
	School             string          `json:"school"`
	IsDirectServices   bool            `json:"isDirectServices"`
}
