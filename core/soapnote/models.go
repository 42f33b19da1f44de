package soapnote

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

type SOAPNote struct {
	ID         string         `json:"id" db:"id"`
	StudentID  string         `json:"studentId" db:"student_id" validate:"required"`
	SessionID  null.String    `json:"sessionId" db:"session_id"`
	Date       string         `json:"date" db:"date" validate:"required,date"`
	Subjective string         `json:"subjective" db:"subjective"`
	Objective  string         `json:"objective" db:"objective"`
	Assessment string         `json:"assessment" db:"assessment"`
	Plan       string         `json:"plan" db:"plan"`
	CreatedAt  core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt  core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (n *SOAPNote) Clean() {
	n.StudentID = core.CleanString(n.StudentID)
	n.Date = core.CleanString(n.Date)
	n.Subjective = core.CleanString(n.Subjective)
	n.Objective = core.CleanString(n.Objective)
	n.Assessment = core.CleanString(n.Assessment)
	n.Plan = core.CleanString(n.Plan)
	if n.SessionID.Valid && core.CleanString(n.SessionID.String) == "" {
		n.SessionID = null.String{}
	}
}

type QueryFilter struct {
	core.DateRange
	StudentID string `query:"studentId"`
	SessionID string `query:"sessionId"`
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.SessionID = core.CleanString(qf.SessionID)
}
