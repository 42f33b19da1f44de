package student

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var ErrNotFound = core.NewNotFoundError("student")

type (
	Repository interface {
		Create(ctx context.Context, st Student) error
		// Query applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Student.Name.
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error)
		Get(ctx context.Context, id string) (Student, error)
		Update(ctx context.Context, st Student) error
		Delete(ctx context.Context, ids ...string) (int64, error)
		Exists(ctx context.Context, id string) (bool, error)
	}

	Service struct {
		repo         Repository
		caseManagers core.ExistenceChecker
		validate     *validator.Validate
	}
)

// NewService returns a student Service; caseManagers validates Student.CaseManagerID.
func NewService(repo Repository, caseManagers core.ExistenceChecker, validate *validator.Validate) *Service {
	return &Service{repo: repo, caseManagers: caseManagers, validate: validate}
}

func (svc *Service) check(ctx context.Context, st Student) error {
	if err := svc.validate.Struct(st); err != nil {
		return err
	}
	return core.CheckReference(ctx, svc.caseManagers, "caseManagerId", "case manager", st.CaseManagerID.String)
}

func (svc *Service) Create(ctx context.Context, st Student) (Student, error) {
	st.Clean()
	if err := svc.check(ctx, st); err != nil {
		return Student{}, err
	}

	now := core.Now()
	st.ID = core.NewID()
	st.CreatedAt = now
	st.UpdatedAt = now
	if err := svc.repo.Create(ctx, st); err != nil {
		return Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Exists(ctx context.Context, id string) (bool, error) {
	return svc.repo.Exists(ctx, id)
}

// Update saves `st` over `orig`; ID and CreatedAt are kept from `orig`.
func (svc *Service) Update(ctx context.Context, orig, st Student) (Student, error) {
	st.ID = orig.ID
	st.CreatedAt = orig.CreatedAt
	st.Clean()
	if err := svc.check(ctx, st); err != nil {
		return Student{}, err
	}

	st.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, st); err != nil {
		return Student{}, errors.Wrap(err, "updating student")
	}
	return st, nil
}

// Delete removes students with their goals, sessions, evaluations, SOAP notes and progress reports.
func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}
