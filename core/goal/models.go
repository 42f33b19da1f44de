package goal

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

// Statuses
const (
	StatusInProgress   = "in-progress"
	StatusAchieved     = "achieved"
	StatusModified     = "modified"
	StatusDiscontinued = "discontinued"
)

// Priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

type Goal struct {
	ID           string         `json:"id" db:"id"`
	StudentID    string         `json:"studentId" db:"student_id" validate:"required"`
	Description  string         `json:"description" db:"description" validate:"required,max=2000"`
	Baseline     string         `json:"baseline" db:"baseline" validate:"max=1000"`
	Target       string         `json:"target" db:"target" validate:"max=1000"`
	Status       string         `json:"status" db:"status" validate:"oneof=in-progress achieved modified discontinued"`
	Domain       string         `json:"domain" db:"domain" validate:"max=100"`
	Priority     string         `json:"priority" db:"priority" validate:"omitempty,oneof=high medium low"`
	ParentGoalID null.String    `json:"parentGoalId" db:"parent_goal_id"`
	DateCreated  string         `json:"dateCreated" db:"date_created" validate:"date"`
	CreatedAt    core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt    core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (g *Goal) Clean() {
	g.StudentID = core.CleanString(g.StudentID)
	g.Description = core.CleanString(g.Description)
	g.Baseline = core.CleanString(g.Baseline)
	g.Target = core.CleanString(g.Target)
	g.Domain = core.CleanString(g.Domain)
	g.Status = core.CleanString(g.Status, true /* lower */)
	if g.Status == "" {
		g.Status = StatusInProgress
	}
	g.Priority = core.CleanString(g.Priority, true /* lower */)
	if g.ParentGoalID.Valid && core.CleanString(g.ParentGoalID.String) == "" {
		g.ParentGoalID = null.String{}
	}
	if g.DateCreated == "" {
		g.DateCreated = core.Today()
	}
}

// IsSubGoal reports whether the goal is nested under another goal.
func (g Goal) IsSubGoal() bool {
	return g.ParentGoalID.Valid
}

type QueryFilter struct {
	StudentID    string `query:"studentId"`
	Status       string `query:"status"`
	Domain       string `query:"domain"`
	ParentGoalID string `query:"parentGoalId"`
	Search       string `query:"search"`
	StudentIDs   []string
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Domain = core.CleanString(qf.Domain)
	qf.ParentGoalID = core.CleanString(qf.ParentGoalID)
	qf.Search = core.CleanString(qf.Search)
}
