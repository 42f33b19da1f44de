package teacher

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var ErrNotFound = core.NewNotFoundError("teacher")

type Teacher struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name" validate:"required,max=200"`
	Grade        string         `json:"grade" db:"grade" validate:"max=20"`
	School       string         `json:"school" db:"school" validate:"max=200"`
	PhoneNumber  string         `json:"phoneNumber" db:"phone_number" validate:"max=50"`
	EmailAddress string         `json:"emailAddress" db:"email_address" validate:"omitempty,email"`
	Birthday     string         `json:"birthday" db:"birthday" validate:"omitempty,date"`
	Notes        string         `json:"notes" db:"notes"`
	CreatedAt    core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt    core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (t *Teacher) Clean() {
	t.Name = core.CleanString(t.Name)
	t.Grade = core.CleanString(t.Grade)
	t.School = core.CleanString(t.School)
	t.PhoneNumber = core.CleanString(t.PhoneNumber)
	t.EmailAddress = core.CleanString(t.EmailAddress, true /* lower */)
}

type QueryFilter struct {
	Search string `query:"search"`
	School string `query:"school"`
	Grade  string `query:"grade"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.School = core.CleanString(qf.School)
	qf.Grade = core.CleanString(qf.Grade)
}

type (
	Repository interface {
		Create(ctx context.Context, t Teacher) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Teacher, error)
		Get(ctx context.Context, id string) (Teacher, error)
		Update(ctx context.Context, t Teacher) error
		Delete(ctx context.Context, ids ...string) (int64, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, t Teacher) (Teacher, error) {
	t.Clean()
	if err := svc.validate.Struct(t); err != nil {
		return Teacher{}, err
	}

	now := core.Now()
	t.ID = core.NewID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := svc.repo.Create(ctx, t); err != nil {
		return Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return t, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Teacher, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, t Teacher) (Teacher, error) {
	t.ID = orig.ID
	t.CreatedAt = orig.CreatedAt
	t.Clean()
	if err := svc.validate.Struct(t); err != nil {
		return Teacher{}, err
	}

	t.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, t); err != nil {
		return Teacher{}, errors.Wrap(err, "updating teacher")
	}
	return t, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}
