package sqlxrepos

import (
	"context"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/session"
)

var sessionTable = newTable("sessions", session.ErrNotFound,
	[]core.DBOrdering{{Field: "date", Ascending: false}, {Field: "start_time", Ascending: false}},
	"id", "student_id", "date", "start_time", "end_time", "goals_targeted", "activities_used",
	"performance_data", "notes", "is_direct_services", "indirect_services_notes", "missed_session",
	"selected_subjective_statements", "custom_subjective", "plan", "group_session_id",
	"created_at", "updated_at",
)

type sessionRepository struct {
	exec core.DBExecutor
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(exec core.DBExecutor) *sessionRepository {
	return &sessionRepository{exec: exec}
}

func (repo sessionRepository) Create(ctx context.Context, s session.Session) error {
	return sessionTable.insert(ctx, repo.exec, s)
}

func (repo sessionRepository) Query(ctx context.Context, filter session.QueryFilter, ordering ...core.DBOrdering) ([]session.Session, error) {
	w := new(where)
	w.eq("student_id", filter.StudentID)
	w.in("student_id", filter.StudentIDs)
	if filter.School != "" {
		w.add("student_id IN (SELECT id FROM students WHERE school = ?)", filter.School)
	}
	w.eq("group_session_id", filter.GroupSessionID)
	w.dateRange("date", filter.DateRange)

	sessions := make([]session.Session, 0)
	if err := sessionTable.query(ctx, repo.exec, &sessions, w, ordering); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (repo sessionRepository) Get(ctx context.Context, id string) (session.Session, error) {
	var s session.Session
	err := sessionTable.get(ctx, repo.exec, &s, id)
	return s, err
}

func (repo sessionRepository) Update(ctx context.Context, s session.Session) error {
	return sessionTable.update(ctx, repo.exec, s)
}

func (repo sessionRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return sessionTable.delete(ctx, repo.exec, ids...)
}

func (repo sessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	return sessionTable.exists(ctx, repo.exec, id)
}
