package schedule

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var ErrNotFound = core.NewNotFoundError("scheduled session")

type (
	Repository interface {
		Create(ctx context.Context, s ScheduledSession) error
		// Query applies AND operation on available QueryFilter fields.
		// QueryFilter.StudentID matches schedules including that student.
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]ScheduledSession, error)
		Get(ctx context.Context, id string) (ScheduledSession, error)
		Update(ctx context.Context, s ScheduledSession) error
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

func (svc *Service) check(ctx context.Context, s ScheduledSession) error {
	if err := svc.validate.Struct(s); err != nil {
		return err
	}

	var flds []core.FieldError
	if s.EndTime <= s.StartTime {
		flds = append(flds, core.FieldError{Field: "endTime", Error: "endTime must be after startTime"})
	}
	if s.RecurrencePattern == PatternWeekly && !s.DayOfWeek.Valid {
		flds = append(flds, core.FieldError{Field: "dayOfWeek", Error: "dayOfWeek is required for weekly schedules"})
	}
	if s.RecurrencePattern == PatternSpecificDates && len(s.SpecificDates) == 0 {
		flds = append(flds, core.FieldError{Field: "specificDates", Error: "specificDates is required for specific-dates schedules"})
	}
	if s.EndDate.Valid && s.EndDate.String < s.StartDate {
		flds = append(flds, core.FieldError{Field: "endDate", Error: "endDate must not be before startDate"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}

	for i, id := range s.StudentIDs {
		if err := core.CheckReference(ctx, svc.students, fmt.Sprintf("studentIds[%d]", i), "student", id); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, s ScheduledSession) (ScheduledSession, error) {
	s.Clean()
	if err := svc.check(ctx, s); err != nil {
		return ScheduledSession{}, err
	}

	now := core.Now()
	s.ID = core.NewID()
	s.CreatedAt = now
	s.UpdatedAt = now
	if err := svc.repo.Create(ctx, s); err != nil {
		return ScheduledSession{}, errors.Wrap(err, "inserting scheduled session")
	}
	return s, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]ScheduledSession, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (ScheduledSession, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, s ScheduledSession) (ScheduledSession, error) {
	s.ID = orig.ID
	s.CreatedAt = orig.CreatedAt
	s.Clean()
	if err := svc.check(ctx, s); err != nil {
		return ScheduledSession{}, err
	}

	s.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, s); err != nil {
		return ScheduledSession{}, errors.Wrap(err, "updating scheduled session")
	}
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}

// Occurrences expands the active schedules matching filter over its date range.
func (svc *Service) Occurrences(ctx context.Context, filter OccurrenceFilter) ([]Occurrence, error) {
	filter.School = core.CleanString(filter.School)
	filter.StudentID = core.CleanString(filter.StudentID)
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	from, _ := core.ParseDate(filter.StartDate)
	to, _ := core.ParseDate(filter.EndDate)
	if to.Before(from) {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "endDate", Error: "endDate must not be before startDate"})
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > MaxOccurrenceRange {
		return nil, core.NewValidationError(nil, core.FieldError{
			Field: "endDate",
			Error: fmt.Sprintf("date range cannot exceed %d days", MaxOccurrenceRange),
		})
	}

	schedules, err := svc.repo.Query(ctx, QueryFilter{
		StudentID: filter.StudentID,
		School:    filter.School,
		IsActive:  "true",
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying scheduled sessions")
	}
	return Expand(schedules, from, to), nil
}
