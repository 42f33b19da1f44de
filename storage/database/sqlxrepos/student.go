package sqlxrepos

import (
	"context"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/student"
)

var studentTable = newTable("students", student.ErrNotFound,
	[]core.DBOrdering{{Field: "name", Ascending: true}},
	"id", "name", "grade", "school", "teacher", "case_manager_id", "concerns", "exceptionality",
	"iep_start_date", "iep_due_date", "evaluation_due_date", "progress_report_frequency",
	"frequency_per_week", "frequency_type", "session_duration", "date_of_birth", "notes", "archived",
	"created_at", "updated_at",
)

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) Create(ctx context.Context, st student.Student) error {
	return studentTable.insert(ctx, repo.exec, st)
}

func (repo studentRepository) Query(ctx context.Context, filter student.QueryFilter, ordering ...core.DBOrdering) ([]student.Student, error) {
	w := new(where)
	w.search(filter.Search, "name")
	w.eq("school", filter.School)
	w.eq("grade", filter.Grade)
	w.eq("teacher", filter.Teacher)
	w.eq("case_manager_id", filter.CaseManagerID)
	if archived := filter.ArchivedValue(); archived != nil {
		w.add("archived = ?", *archived)
	}
	w.in("id", filter.IDs)

	students := make([]student.Student, 0)
	if err := studentTable.query(ctx, repo.exec, &students, w, ordering); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo studentRepository) Get(ctx context.Context, id string) (student.Student, error) {
	var st student.Student
	err := studentTable.get(ctx, repo.exec, &st, id)
	return st, err
}

func (repo studentRepository) Update(ctx context.Context, st student.Student) error {
	return studentTable.update(ctx, repo.exec, st)
}

// Delete relies on ON DELETE CASCADE for goals, sessions, evaluations, SOAP notes and progress reports.
func (repo studentRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return studentTable.delete(ctx, repo.exec, ids...)
}

func (repo studentRepository) Exists(ctx context.Context, id string) (bool, error) {
	return studentTable.exists(ctx, repo.exec, id)
}
