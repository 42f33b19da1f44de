package evaluation

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

var ErrNotFound = core.NewNotFoundError("evaluation")

// Evaluation types
const (
	TypeInitial      = "initial"
	TypeTriennial    = "triennial"
	TypeReevaluation = "reevaluation"
	TypeIndependent  = "independent"
)

type Evaluation struct {
	ID                 string         `json:"id" db:"id"`
	StudentID          string         `json:"studentId" db:"student_id" validate:"required"`
	EvaluationType     string         `json:"evaluationType" db:"evaluation_type" validate:"required,oneof=initial triennial reevaluation independent"`
	Grade              string         `json:"grade" db:"grade" validate:"max=20"`
	AreasOfConcern     string         `json:"areasOfConcern" db:"areas_of_concern"`
	Teacher            string         `json:"teacher" db:"teacher" validate:"max=200"`
	ResultsOfScreening string         `json:"resultsOfScreening" db:"results_of_screening"`
	Assessments        string         `json:"assessments" db:"assessments"`
	DueDate            string         `json:"dueDate" db:"due_date" validate:"required,date"`
	Qualifies          null.Bool      `json:"qualifies" db:"qualifies"`
	ReportCompleted    bool           `json:"reportCompleted" db:"report_completed"`
	IEPCompleted       bool           `json:"iepCompleted" db:"iep_completed"`
	MeetingCompleted   bool           `json:"meetingCompleted" db:"meeting_completed"`
	Notes              string         `json:"notes" db:"notes"`
	CreatedAt          core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt          core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (e *Evaluation) Clean() {
	e.StudentID = core.CleanString(e.StudentID)
	e.EvaluationType = core.CleanString(e.EvaluationType, true /* lower */)
	e.Grade = core.CleanString(e.Grade)
	e.Teacher = core.CleanString(e.Teacher)
	e.DueDate = core.CleanString(e.DueDate)
}

// Completed reports whether every step of the evaluation is done.
func (e Evaluation) Completed() bool {
	return e.ReportCompleted && e.IEPCompleted && e.MeetingCompleted
}

type QueryFilter struct {
	core.DateRange
	StudentID      string `query:"studentId"`
	EvaluationType string `query:"evaluationType"`
	Completed      string `query:"completed"` // "", "true" or "false"
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.EvaluationType = core.CleanString(qf.EvaluationType, true /* lower */)
	qf.Completed = core.CleanString(qf.Completed, true /* lower */)
}

type (
	Repository interface {
		Create(ctx context.Context, e Evaluation) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Evaluation, error)
		Get(ctx context.Context, id string) (Evaluation, error)
		Update(ctx context.Context, e Evaluation) error
		Delete(ctx context.Context, ids ...string) (int64, error)
	}

	Service struct {
		repo     Repository
		students core.ExistenceChecker
		validate *validator.Validate
	}
)

func NewService(repo Repository, students core.ExistenceChecker, validate *validator.Validate) *Service {
	return &Service{repo: repo, students: students, validate: validate}
}

func (svc *Service) check(ctx context.Context, e Evaluation) error {
	if err := svc.validate.Struct(e); err != nil {
		return err
	}
	return core.CheckReference(ctx, svc.students, "studentId", "student", e.StudentID)
}

func (svc *Service) Create(ctx context.Context, e Evaluation) (Evaluation, error) {
	e.Clean()
	if err := svc.check(ctx, e); err != nil {
		return Evaluation{}, err
	}

	now := core.Now()
	e.ID = core.NewID()
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := svc.repo.Create(ctx, e); err != nil {
		return Evaluation{}, errors.Wrap(err, "inserting evaluation")
	}
	return e, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Evaluation, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (Evaluation, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, e Evaluation) (Evaluation, error) {
	e.ID = orig.ID
	e.CreatedAt = orig.CreatedAt
	e.Clean()
	if err := svc.check(ctx, e); err != nil {
		return Evaluation{}, err
	}

	e.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, e); err != nil {
		return Evaluation{}, errors.Wrap(err, "updating evaluation")
	}
	return e, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}
