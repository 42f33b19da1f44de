package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/duedate"
	"github.com/trezcool/caseload/core/evaluation"
	"github.com/trezcool/caseload/core/progressreport"
	"github.com/trezcool/caseload/core/soapnote"
)

var (
	evaluationTable = newTable("evaluations", evaluation.ErrNotFound,
		[]core.DBOrdering{{Field: "due_date", Ascending: true}},
		"id", "student_id", "evaluation_type", "grade", "areas_of_concern", "teacher",
		"results_of_screening", "assessments", "due_date", "qualifies", "report_completed",
		"iep_completed", "meeting_completed", "notes", "created_at", "updated_at",
	)
	soapNoteTable = newTable("soap_notes", soapnote.ErrNotFound,
		[]core.DBOrdering{{Field: "date", Ascending: false}, {Field: "created_at", Ascending: false}},
		"id", "student_id", "session_id", "date", "subjective", "objective", "assessment", "plan",
		"created_at", "updated_at",
	)
	progressReportTable = newTable("progress_reports", progressreport.ErrNotFound,
		[]core.DBOrdering{{Field: "due_date", Ascending: true}},
		"id", "student_id", "report_type", "due_date", "period_start", "period_end", "status",
		"completed_date", "content", "goal_ids", "sent_date", "sent_to", "created_at", "updated_at",
	)
	dueDateTable = newTable("due_date_items", duedate.ErrNotFound,
		[]core.DBOrdering{{Field: "due_date", Ascending: true}},
		"id", "title", "description", "due_date", "student_id", "category", "priority", "status",
		"completed_date", "created_at", "updated_at",
	)
)

// Evaluations

type evaluationRepository struct {
	exec core.DBExecutor
}

var _ evaluation.Repository = (*evaluationRepository)(nil)

func NewEvaluationRepository(exec core.DBExecutor) *evaluationRepository {
	return &evaluationRepository{exec: exec}
}

func (repo evaluationRepository) Create(ctx context.Context, e evaluation.Evaluation) error {
	return evaluationTable.insert(ctx, repo.exec, e)
}

func (repo evaluationRepository) Query(ctx context.Context, filter evaluation.QueryFilter, ordering ...core.DBOrdering) ([]evaluation.Evaluation, error) {
	w := new(where)
	w.eq("student_id", filter.StudentID)
	w.eq("evaluation_type", filter.EvaluationType)
	w.dateRange("due_date", filter.DateRange)
	switch filter.Completed {
	case "true":
		w.add("report_completed = ? AND iep_completed = ? AND meeting_completed = ?", true, true, true)
	case "false":
		w.add("(report_completed = ? OR iep_completed = ? OR meeting_completed = ?)", false, false, false)
	}

	evals := make([]evaluation.Evaluation, 0)
	if err := evaluationTable.query(ctx, repo.exec, &evals, w, ordering); err != nil {
		return nil, err
	}
	return evals, nil
}

func (repo evaluationRepository) Get(ctx context.Context, id string) (evaluation.Evaluation, error) {
	var e evaluation.Evaluation
	err := evaluationTable.get(ctx, repo.exec, &e, id)
	return e, err
}

func (repo evaluationRepository) Update(ctx context.Context, e evaluation.Evaluation) error {
	return evaluationTable.update(ctx, repo.exec, e)
}

func (repo evaluationRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return evaluationTable.delete(ctx, repo.exec, ids...)
}

// SOAP notes

type soapNoteRepository struct {
	exec core.DBExecutor
}

var _ soapnote.Repository = (*soapNoteRepository)(nil)

func NewSOAPNoteRepository(exec core.DBExecutor) *soapNoteRepository {
	return &soapNoteRepository{exec: exec}
}

func (repo soapNoteRepository) Create(ctx context.Context, n soapnote.SOAPNote) error {
	return soapNoteTable.insert(ctx, repo.exec, n)
}

func (repo soapNoteRepository) Query(ctx context.Context, filter soapnote.QueryFilter, ordering ...core.DBOrdering) ([]soapnote.SOAPNote, error) {
	w := new(where)
	w.eq("student_id", filter.StudentID)
	w.eq("session_id", filter.SessionID)
	w.dateRange("date", filter.DateRange)

	notes := make([]soapnote.SOAPNote, 0)
	if err := soapNoteTable.query(ctx, repo.exec, &notes, w, ordering); err != nil {
		return nil, err
	}
	return notes, nil
}

func (repo soapNoteRepository) Get(ctx context.Context, id string) (soapnote.SOAPNote, error) {
	var n soapnote.SOAPNote
	err := soapNoteTable.get(ctx, repo.exec, &n, id)
	return n, err
}

func (repo soapNoteRepository) Update(ctx context.Context, n soapnote.SOAPNote) error {
	return soapNoteTable.update(ctx, repo.exec, n)
}

func (repo soapNoteRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return soapNoteTable.delete(ctx, repo.exec, ids...)
}

// Progress reports

type progressReportRepository struct {
	db core.DB
}

var _ progressreport.Repository = (*progressReportRepository)(nil)

func NewProgressReportRepository(db core.DB) *progressReportRepository {
	return &progressReportRepository{db: db}
}

// Create inserts the reports in one transaction.
func (repo progressReportRepository) Create(ctx context.Context, reports ...progressreport.ProgressReport) error {
	if len(reports) == 1 {
		return progressReportTable.insert(ctx, repo.db, reports[0])
	}
	rows := make([]interface{}, len(reports))
	for i := range reports {
		rows[i] = reports[i]
	}
	return withTx(ctx, repo.db, func(tx core.DBExecutor) error {
		return progressReportTable.insert(ctx, tx, rows...)
	})
}

func (repo progressReportRepository) Query(ctx context.Context, filter progressreport.QueryFilter, ordering ...core.DBOrdering) ([]progressreport.ProgressReport, error) {
	w := new(where)
	w.eq("student_id", filter.StudentID)
	w.in("student_id", filter.StudentIDs)
	if filter.School != "" {
		w.add("student_id IN (SELECT id FROM students WHERE school = ?)", filter.School)
	}
	w.eq("status", filter.Status)
	w.in("status", filter.Statuses)
	w.eq("report_type", filter.ReportType)
	w.dateRange("due_date", filter.DateRange)

	reports := make([]progressreport.ProgressReport, 0)
	if err := progressReportTable.query(ctx, repo.db, &reports, w, ordering); err != nil {
		return nil, err
	}
	return reports, nil
}

func (repo progressReportRepository) Get(ctx context.Context, id string) (progressreport.ProgressReport, error) {
	var r progressreport.ProgressReport
	err := progressReportTable.get(ctx, repo.db, &r, id)
	return r, err
}

func (repo progressReportRepository) Update(ctx context.Context, r progressreport.ProgressReport) error {
	return progressReportTable.update(ctx, repo.db, r)
}

func (repo progressReportRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return progressReportTable.delete(ctx, repo.db, ids...)
}

func (repo progressReportRepository) MarkOverdue(ctx context.Context, today string) (int64, error) {
	query := repo.db.Rebind("UPDATE progress_reports SET status = ?, updated_at = ? WHERE status IN (?, ?) AND due_date < ?")
	res, err := repo.db.ExecContext(ctx, query,
		progressreport.StatusOverdue, core.Now(), progressreport.StatusPending, progressreport.StatusInProgress, today)
	if err != nil {
		return 0, errors.Wrap(err, "marking progress reports overdue")
	}
	return res.RowsAffected()
}

// Due date items

type dueDateRepository struct {
	exec core.DBExecutor
}

var _ duedate.Repository = (*dueDateRepository)(nil)

func NewDueDateRepository(exec core.DBExecutor) *dueDateRepository {
	return &dueDateRepository{exec: exec}
}

func (repo dueDateRepository) Create(ctx context.Context, it duedate.Item) error {
	return dueDateTable.insert(ctx, repo.exec, it)
}

func (repo dueDateRepository) Query(ctx context.Context, filter duedate.QueryFilter, ordering ...core.DBOrdering) ([]duedate.Item, error) {
	w := new(where)
	w.eq("student_id", filter.StudentID)
	w.eq("category", filter.Category)
	w.eq("status", filter.Status)
	w.eq("priority", filter.Priority)
	w.dateRange("due_date", filter.DateRange)

	items := make([]duedate.Item, 0)
	if err := dueDateTable.query(ctx, repo.exec, &items, w, ordering); err != nil {
		return nil, err
	}
	return items, nil
}

func (repo dueDateRepository) Get(ctx context.Context, id string) (duedate.Item, error) {
	var it duedate.Item
	err := dueDateTable.get(ctx, repo.exec, &it, id)
	return it, err
}

func (repo dueDateRepository) Update(ctx context.Context, it duedate.Item) error {
	return dueDateTable.update(ctx, repo.exec, it)
}

func (repo dueDateRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return dueDateTable.delete(ctx, repo.exec, ids...)
}

func (repo dueDateRepository) MarkOverdue(ctx context.Context, today string) (int64, error) {
	query := repo.exec.Rebind("UPDATE due_date_items SET status = ?, updated_at = ? WHERE status = ? AND due_date < ?")
	res, err := repo.exec.ExecContext(ctx, query, duedate.StatusOverdue, core.Now(), duedate.StatusPending, today)
	if err != nil {
		return 0, errors.Wrap(err, "marking due date items overdue")
	}
	return res.RowsAffected()
}
