package session

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var (
	ErrNotFound = core.NewNotFoundError("session")

	errEndBeforeStart = "endTime must be after startTime"
)

type (
	Repository interface {
		Create(ctx context.Context, s Session) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Session, error)
		Get(ctx context.Context, id string) (Session, error)
		Update(ctx context.Context, s Session) error
		Delete(ctx context.Context, ids ...string) (int64, error)
		Exists(ctx context.Context, id string) (bool, error)
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

func (svc *Service) check(ctx context.Context, s Session) error {
	if err := svc.validate.Struct(s); err != nil {
		return err
	}
	if s.StartTime != "" && s.EndTime != "" && s.EndTime <= s.StartTime {
		return core.NewValidationError(nil, core.FieldError{Field: "endTime", Error: errEndBeforeStart})
	}
	return core.CheckReference(ctx, svc.students, "studentId", "student", s.StudentID)
}

func (svc *Service) Create(ctx context.Context, s Session) (Session, error) {
	s.Clean()
	if err := svc.check(ctx, s); err != nil {
		return Session{}, err
	}

	now := core.Now()
	s.ID = core.NewID()
	s.CreatedAt = now
	s.UpdatedAt = now
	if err := svc.repo.Create(ctx, s); err != nil {
		return Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Session, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (Session, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Exists(ctx context.Context, id string) (bool, error) {
	return svc.repo.Exists(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, s Session) (Session, error) {
	s.ID = orig.ID
	s.CreatedAt = orig.CreatedAt
	s.Clean()
	if err := svc.check(ctx, s); err != nil {
		return Session{}, err
	}

	s.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, s); err != nil {
		return Session{}, errors.Wrap(err, "updating session")
	}
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}
