package progressreport

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/student"
)

var ErrNotFound = core.NewNotFoundError("progress report")

type (
	Repository interface {
		Create(ctx context.Context, reports ...ProgressReport) error
		// Query applies AND operation on available QueryFilter fields.
		// QueryFilter.School matches the school of the report's student.
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]ProgressReport, error)
		Get(ctx context.Context, id string) (ProgressReport, error)
		Update(ctx context.Context, r ProgressReport) error
		Delete(ctx context.Context, ids ...string) (int64, error)
		// MarkOverdue flags pending and in-progress reports due before `today` as overdue.
		MarkOverdue(ctx context.Context, today string) (int64, error)
	}

	Service struct {
		repo     Repository
		students *student.Service
		validate *validator.Validate
		cfg      core.ProgressReportConfig
		now      func() time.Time
	}
)

func NewService(repo Repository, students *student.Service, validate *validator.Validate, cfg core.ProgressReportConfig) *Service {
	if cfg.SchoolYearStartMonth == 0 {
		cfg.SchoolYearStartMonth = time.August
	}
	if cfg.SchoolYearStartDay == 0 {
		cfg.SchoolYearStartDay = 15
	}
	return &Service{
		repo:     repo,
		students: students,
		validate: validate,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) today() string {
	return core.FormatDate(svc.now())
}

func (svc *Service) check(ctx context.Context, r ProgressReport) error {
	if err := svc.validate.Struct(r); err != nil {
		return err
	}
	return core.CheckReference(ctx, svc.students, "studentId", "student", r.StudentID)
}

func (svc *Service) Create(ctx context.Context, r ProgressReport) (ProgressReport, error) {
	r.Clean()
	if err := svc.check(ctx, r); err != nil {
		return ProgressReport{}, err
	}

	now := core.Now()
	r.ID = core.NewID()
	r.CreatedAt = now
	r.UpdatedAt = now
	if err := svc.repo.Create(ctx, r); err != nil {
		return ProgressReport{}, errors.Wrap(err, "inserting progress report")
	}
	return r, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]ProgressReport, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (ProgressReport, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, r ProgressReport) (ProgressReport, error) {
	r.ID = orig.ID
	r.CreatedAt = orig.CreatedAt
	r.Clean()
	if r.Status == StatusCompleted && !r.CompletedDate.Valid {
		r.CompletedDate = null.StringFrom(svc.today())
	}
	if err := svc.check(ctx, r); err != nil {
		return ProgressReport{}, err
	}

	r.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, r); err != nil {
		return ProgressReport{}, errors.Wrap(err, "updating progress report")
	}
	return r, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}

// Complete marks a report completed today.
func (svc *Service) Complete(ctx context.Context, r ProgressReport) (ProgressReport, error) {
	r.Status = StatusCompleted
	r.CompletedDate = null.StringFrom(svc.today())
	r.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, r); err != nil {
		return ProgressReport{}, errors.Wrap(err, "completing progress report")
	}
	return r, nil
}

// Upcoming returns the reports not completed yet and due within `days` days from today, overdue ones included.
func (svc *Service) Upcoming(ctx context.Context, days int) ([]ProgressReport, error) {
	if days <= 0 {
		days = 30
	}
	filter := QueryFilter{
		DateRange: core.DateRange{EndDate: core.FormatDate(svc.now().AddDate(0, 0, days))},
		Statuses:  []string{StatusPending, StatusInProgress, StatusOverdue},
	}
	return svc.repo.Query(ctx, filter, core.DBOrdering{Field: "due_date", Ascending: true})
}

// CurrentSchoolYear returns the school year containing today.
func (svc *Service) CurrentSchoolYear() SchoolYear {
	return SchoolYearOf(svc.now(), svc.cfg.SchoolYearStartMonth, svc.cfg.SchoolYearStartDay)
}

func (svc *Service) schoolYear(req ScheduleRequest) (SchoolYear, error) {
	sy := svc.CurrentSchoolYear()
	if req.SchoolYearStart != "" {
		start, err := core.ParseDate(req.SchoolYearStart)
		if err != nil {
			return sy, errors.Wrap(err, "parsing schoolYearStart")
		}
		sy = SchoolYear{Start: start, End: start.AddDate(1, 0, -1)}
	}
	if req.SchoolYearEnd != "" {
		end, err := core.ParseDate(req.SchoolYearEnd)
		if err != nil {
			return sy, errors.Wrap(err, "parsing schoolYearEnd")
		}
		sy.End = end
	}
	if !sy.End.After(sy.Start) {
		return sy, core.NewValidationError(nil, core.FieldError{
			Field: "schoolYearEnd",
			Error: "schoolYearEnd must be after schoolYearStart",
		})
	}
	return sy, nil
}

// ScheduleAuto creates the missing reports of the requested (or all active) students over a school year.
func (svc *Service) ScheduleAuto(ctx context.Context, req ScheduleRequest) (ScheduleResult, error) {
	if err := svc.validate.Struct(req); err != nil {
		return ScheduleResult{}, err
	}
	sy, err := svc.schoolYear(req)
	if err != nil {
		return ScheduleResult{}, err
	}

	filter := student.QueryFilter{IDs: core.CleanStrings(req.StudentIDs)}
	students, err := svc.students.Query(ctx, filter)
	if err != nil {
		return ScheduleResult{}, errors.Wrap(err, "querying students")
	}
	if len(students) == 0 {
		return ScheduleResult{Created: []ProgressReport{}}, nil
	}

	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	existing, err := svc.repo.Query(ctx, QueryFilter{StudentIDs: ids})
	if err != nil {
		return ScheduleResult{}, errors.Wrap(err, "querying progress reports")
	}
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[key(r)] = true
	}

	result := ScheduleResult{Created: []ProgressReport{}}
	now := core.Now()
	for _, st := range students {
		for _, r := range Plan(st, sy) {
			k := key(r)
			if seen[k] {
				result.Skipped++
				continue
			}
			seen[k] = true
			r.ID = core.NewID()
			r.CreatedAt = now
			r.UpdatedAt = now
			result.Created = append(result.Created, r)
		}
	}

	if len(result.Created) > 0 {
		if err := svc.repo.Create(ctx, result.Created...); err != nil {
			return ScheduleResult{}, errors.Wrap(err, "inserting progress reports")
		}
	}
	return result, nil
}

// MarkOverdue flags reports past their due date; it returns the number of reports updated.
func (svc *Service) MarkOverdue(ctx context.Context) (int64, error) {
	return svc.repo.MarkOverdue(ctx, svc.today())
}
