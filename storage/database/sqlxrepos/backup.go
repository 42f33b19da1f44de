package sqlxrepos

import (
	"context"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/backup"
	"github.com/trezcool/caseload/core/goal"
)

type backupRepository struct {
	db core.DB
}

var _ backup.Repository = (*backupRepository)(nil)

func NewBackupRepository(db core.DB) *backupRepository {
	return &backupRepository{db: db}
}

// parentTables lists the tables parents first; deletions walk it backwards.
var parentTables = []table{
	schoolTable, lunchTable, teacherTable, caseManagerTable, studentTable, goalTable, sessionTable,
	evaluationTable, soapNoteTable, progressReportTable, dueDateTable, communicationTable,
	scheduleTable, timesheetTable,
}

func (repo backupRepository) Export(ctx context.Context) (backup.Snapshot, error) {
	var snap backup.Snapshot
	dests := []interface{}{
		&snap.Schools, &snap.Lunches, &snap.Teachers, &snap.CaseManagers, &snap.Students, &snap.Goals,
		&snap.Sessions, &snap.Evaluations, &snap.SOAPNotes, &snap.ProgressReports, &snap.DueDateItems,
		&snap.Communications, &snap.ScheduledSessions, &snap.TimesheetNotes,
	}

	err := withTx(ctx, repo.db, func(tx core.DBExecutor) error {
		for i, t := range parentTables {
			if err := t.query(ctx, tx, dests[i], nil, nil); err != nil {
				return err
			}
		}
		return nil
	})
	return snap, err
}

func (repo backupRepository) Import(ctx context.Context, snap backup.Snapshot, replace bool) error {
	rows := [][]interface{}{
		rowsOf(snap.Schools), rowsOf(snap.Lunches), rowsOf(snap.Teachers), rowsOf(snap.CaseManagers),
		rowsOf(snap.Students), rowsOf(parentsFirst(snap.Goals)), rowsOf(snap.Sessions),
		rowsOf(snap.Evaluations), rowsOf(snap.SOAPNotes), rowsOf(snap.ProgressReports),
		rowsOf(snap.DueDateItems), rowsOf(snap.Communications), rowsOf(snap.ScheduledSessions),
		rowsOf(snap.TimesheetNotes),
	}

	return withTx(ctx, repo.db, func(tx core.DBExecutor) error {
		if replace {
			for i := len(parentTables) - 1; i >= 0; i-- {
				if err := parentTables[i].deleteAll(ctx, tx); err != nil {
					return err
				}
			}
		}
		for i, t := range parentTables {
			if err := t.upsert(ctx, tx, rows[i]...); err != nil {
				return err
			}
		}
		return nil
	})
}

func rowsOf[T any](records []T) []interface{} {
	rows := make([]interface{}, len(records))
	for i := range records {
		rows[i] = records[i]
	}
	return rows
}

// parentsFirst orders goals so that a parent goal is written before its sub-goals.
// Goals whose parent is missing or part of a cycle keep their relative order at the end.
func parentsFirst(goals []goal.Goal) []goal.Goal {
	byID := make(map[string]bool, len(goals))
	for _, g := range goals {
		byID[g.ID] = true
	}

	sorted := make([]goal.Goal, 0, len(goals))
	written := make(map[string]bool, len(goals))
	pending := goals
	for len(pending) > 0 {
		var next []goal.Goal
		for _, g := range pending {
			parent := g.ParentGoalID.String
			if !g.ParentGoalID.Valid || parent == "" || !byID[parent] || written[parent] {
				sorted = append(sorted, g)
				written[g.ID] = true
			} else {
				next = append(next, g)
			}
		}
		if len(next) == len(pending) {
			sorted = append(sorted, next...)
			break
		}
		pending = next
	}
	return sorted
}
