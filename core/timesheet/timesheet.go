package timesheet

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var ErrNotFound = core.NewNotFoundError("timesheet note")

// Note is a free-text timesheet entry for a day.
type Note struct {
	ID        string         `json:"id" db:"id"`
	Content   string         `json:"content" db:"content" validate:"required"`
	DateFor   string         `json:"dateFor" db:"date_for" validate:"required,date"`
	School    string         `json:"school" db:"school" validate:"max=200"`
	CreatedAt core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (n *Note) Clean() {
	n.Content = core.CleanString(n.Content)
	n.DateFor = core.CleanString(n.DateFor)
	n.School = core.CleanString(n.School)
}

type QueryFilter struct {
	core.DateRange
	School string `query:"school"`
}

func (qf *QueryFilter) Clean() {
	qf.School = core.CleanString(qf.School)
}

type (
	Repository interface {
		Create(ctx context.Context, n Note) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Note, error)
		Get(ctx context.Context, id string) (Note, error)
		Update(ctx context.Context, n Note) error
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

func (svc *Service) Create(ctx context.Context, n Note) (Note, error) {
	n.Clean()
	if err := svc.validate.Struct(n); err != nil {
		return Note{}, err
	}

	now := core.Now()
	n.ID = core.NewID()
	n.CreatedAt = now
	n.UpdatedAt = now
	if err := svc.repo.Create(ctx, n); err != nil {
		return Note{}, errors.Wrap(err, "inserting timesheet note")
	}
	return n, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Note, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (Note, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, n Note) (Note, error) {
	n.ID = orig.ID
	n.CreatedAt = orig.CreatedAt
	n.Clean()
	if err := svc.validate.Struct(n); err != nil {
		return Note{}, err
	}

	n.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, n); err != nil {
		return Note{}, errors.Wrap(err, "updating timesheet note")
	}
	return n, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}
