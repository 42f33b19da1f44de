package sqlxrepos

import (
	"context"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/communication"
	"github.com/trezcool/caseload/core/schedule"
	"github.com/trezcool/caseload/core/timesheet"
)

var (
	communicationTable = newTable("communications", communication.ErrNotFound,
		[]core.DBOrdering{{Field: "date", Ascending: false}, {Field: "created_at", Ascending: false}},
		"id", "student_id", "contact_type", "contact_id", "contact_name", "contact_email", "method",
		"date", "subject", "body", "related_to", "created_at", "updated_at",
	)
	scheduleTable = newTable("scheduled_sessions", schedule.ErrNotFound,
		[]core.DBOrdering{{Field: "start_date", Ascending: true}, {Field: "start_time", Ascending: true}},
		"id", "student_ids", "start_time", "end_time", "recurrence_pattern", "day_of_week",
		"specific_dates", "excluded_dates", "start_date", "end_date", "is_direct_services",
		"is_active", "school", "notes", "created_at", "updated_at",
	)
	timesheetTable = newTable("timesheet_notes", timesheet.ErrNotFound,
		[]core.DBOrdering{{Field: "date_for", Ascending: false}},
		"id", "content", "date_for", "school", "created_at", "updated_at",
	)
)

// Communications

type communicationRepository struct {
	db core.DB
}

var _ communication.Repository = (*communicationRepository)(nil)

func NewCommunicationRepository(db core.DB) *communicationRepository {
	return &communicationRepository{db: db}
}

// Create inserts the communications in one transaction.
func (repo communicationRepository) Create(ctx context.Context, comms ...communication.Communication) error {
	if len(comms) == 1 {
		return communicationTable.insert(ctx, repo.db, comms[0])
	}
	rows := make([]interface{}, len(comms))
	for i := range comms {
		rows[i] = comms[i]
	}
	return withTx(ctx, repo.db, func(tx core.DBExecutor) error {
		return communicationTable.insert(ctx, tx, rows...)
	})
}

func (repo communicationRepository) Query(ctx context.Context, filter communication.QueryFilter, ordering ...core.DBOrdering) ([]communication.Communication, error) {
	w := new(where)
	w.eq("student_id", filter.StudentID)
	w.eq("contact_type", filter.ContactType)
	w.eq("method", filter.Method)
	w.search(filter.Search, "contact_name", "subject")
	w.dateRange("date", filter.DateRange)

	comms := make([]communication.Communication, 0)
	if err := communicationTable.query(ctx, repo.db, &comms, w, ordering); err != nil {
		return nil, err
	}
	return comms, nil
}

func (repo communicationRepository) Get(ctx context.Context, id string) (communication.Communication, error) {
	var c communication.Communication
	err := communicationTable.get(ctx, repo.db, &c, id)
	return c, err
}

func (repo communicationRepository) Update(ctx context.Context, c communication.Communication) error {
	return communicationTable.update(ctx, repo.db, c)
}

func (repo communicationRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return communicationTable.delete(ctx, repo.db, ids...)
}

// Scheduled sessions

type scheduleRepository struct {
	exec core.DBExecutor
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(exec core.DBExecutor) *scheduleRepository {
	return &scheduleRepository{exec: exec}
}

func (repo scheduleRepository) Create(ctx context.Context, s schedule.ScheduledSession) error {
	return scheduleTable.insert(ctx, repo.exec, s)
}

// Query matches QueryFilter.StudentID against the JSON encoded student_ids list.
func (repo scheduleRepository) Query(ctx context.Context, filter schedule.QueryFilter, ordering ...core.DBOrdering) ([]schedule.ScheduledSession, error) {
	w := new(where)
	if filter.StudentID != "" {
		w.add("student_ids LIKE ?", `%"`+filter.StudentID+`"%`)
	}
	w.eq("school", filter.School)
	w.boolean("is_active", filter.IsActive)

	scheds := make([]schedule.ScheduledSession, 0)
	if err := scheduleTable.query(ctx, repo.exec, &scheds, w, ordering); err != nil {
		return nil, err
	}
	return scheds, nil
}

func (repo scheduleRepository) Get(ctx context.Context, id string) (schedule.ScheduledSession, error) {
	var s schedule.ScheduledSession
	err := scheduleTable.get(ctx, repo.exec, &s, id)
	return s, err
}

func (repo scheduleRepository) Update(ctx context.Context, s schedule.ScheduledSession) error {
	return scheduleTable.update(ctx, repo.exec, s)
}

func (repo scheduleRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return scheduleTable.delete(ctx, repo.exec, ids...)
}

// Timesheet notes

type timesheetRepository struct {
	exec core.DBExecutor
}

var _ timesheet.Repository = (*timesheetRepository)(nil)

func NewTimesheetRepository(exec core.DBExecutor) *timesheetRepository {
	return &timesheetRepository{exec: exec}
}

func (repo timesheetRepository) Create(ctx context.Context, n timesheet.Note) error {
	return timesheetTable.insert(ctx, repo.exec, n)
}

func (repo timesheetRepository) Query(ctx context.Context, filter timesheet.QueryFilter, ordering ...core.DBOrdering) ([]timesheet.Note, error) {
	w := new(where)
	w.eq("school", filter.School)
	w.dateRange("date_for", filter.DateRange)

	notes := make([]timesheet.Note, 0)
	if err := timesheetTable.query(ctx, repo.exec, &notes, w, ordering); err != nil {
		return nil, err
	}
	return notes, nil
}

func (repo timesheetRepository) Get(ctx context.Context, id string) (timesheet.Note, error) {
	var n timesheet.Note
	err := timesheetTable.get(ctx, repo.exec, &n, id)
	return n, err
}

func (repo timesheetRepository) Update(ctx context.Context, n timesheet.Note) error {
	return timesheetTable.update(ctx, repo.exec, n)
}

func (repo timesheetRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return timesheetTable.delete(ctx, repo.exec, ids...)
}
