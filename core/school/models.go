package school

import "github.com/trezcool/caseload/core"

type School struct {
	ID                string         `json:"id" db:"id"`
	Name              string         `json:"name" db:"name" validate:"required,max=200"`
	State             string         `json:"state" db:"state" validate:"max=100"`
	TeachingFrequency string         `json:"teachingFrequency" db:"teaching_frequency" validate:"max=200"`
	HoursPerWeek      float64        `json:"hoursPerWeek" db:"hours_per_week" validate:"gte=0,lte=168"`
	CreatedAt         core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt         core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (s *School) Clean() {
	s.Name = core.CleanString(s.Name)
	s.State = core.CleanString(s.State)
	s.TeachingFrequency = core.CleanString(s.TeachingFrequency)
}

// Lunch is a school's lunch period, used to avoid scheduling sessions over it.
type Lunch struct {
	ID        string         `json:"id" db:"id"`
	School    string         `json:"school" db:"school" validate:"required,max=200"`
	StartTime string         `json:"startTime" db:"start_time" validate:"required,timeofday"`
	EndTime   string         `json:"endTime" db:"end_time" validate:"required,timeofday"`
	Grade     string         `json:"grade" db:"grade" validate:"max=20"`
	CreatedAt core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (l *Lunch) Clean() {
	l.School = core.CleanString(l.School)
	l.StartTime = core.CleanString(l.StartTime)
	l.EndTime = core.CleanString(l.EndTime)
	l.Grade = core.CleanString(l.Grade)
}

type QueryFilter struct {
	Search string `query:"search"`
	State  string `query:"state"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.State = core.CleanString(qf.State)
}

type LunchFilter struct {
	School string `query:"school"`
	Grade  string `query:"grade"`
}

func (lf *LunchFilter) Clean() {
	lf.School = core.CleanString(lf.School)
	lf.Grade = core.CleanString(lf.Grade)
}
