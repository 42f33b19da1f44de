package school

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var (
	ErrNotFound      = core.NewNotFoundError("school")
	ErrLunchNotFound = core.NewNotFoundError("lunch")
	ErrNameExists    = errors.New("a school with this name already exists")

	errEndBeforeStart = "endTime must be after startTime"
)

type (
	Repository interface {
		Create(ctx context.Context, s School) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]School, error)
		Get(ctx context.Context, id string) (School, error)
		// NameExists reports whether another school (not excludedID) is named `name`, ignoring case.
		NameExists(ctx context.Context, name, excludedID string) (bool, error)
		// GetByName returns the school named `name`, ignoring case.
		GetByName(ctx context.Context, name string) (School, error)
		// Update saves the school; when it is renamed, lunches follow the new name.
		Update(ctx context.Context, s School, oldName string) error
		// Delete removes the schools in one transaction; their lunches are moved to the
		// school named `transferTo`, or deleted when it is empty.
		Delete(ctx context.Context, transferTo string, schools ...School) (int64, error)

		CreateLunch(ctx context.Context, l Lunch) error
		QueryLunches(ctx context.Context, filter LunchFilter, ordering ...core.DBOrdering) ([]Lunch, error)
		GetLunch(ctx context.Context, id string) (Lunch, error)
		UpdateLunch(ctx context.Context, l Lunch) error
		DeleteLunches(ctx context.Context, ids ...string) (int64, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) check(ctx context.Context, s School) error {
	if err := svc.validate.Struct(s); err != nil {
		return err
	}
	exists, err := svc.repo.NameExists(ctx, s.Name, s.ID)
	if err != nil {
		return errors.Wrap(err, "checking school name uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, s School) (School, error) {
	s.Clean()
	if err := svc.check(ctx, s); err != nil {
		return School{}, err
	}

	now := core.Now()
	s.ID = core.NewID()
	s.CreatedAt = now
	s.UpdatedAt = now
	if err := svc.repo.Create(ctx, s); err != nil {
		return School{}, errors.Wrap(err, "inserting school")
	}
	return s, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]School, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (School, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, s School) (School, error) {
	s.ID = orig.ID
	s.CreatedAt = orig.CreatedAt
	s.Clean()
	if err := svc.check(ctx, s); err != nil {
		return School{}, err
	}

	s.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, s, orig.Name); err != nil {
		return School{}, errors.Wrap(err, "updating school")
	}
	return s, nil
}

// Delete removes schools; see Repository.Delete for what happens to their lunches.
// transferTo must name an existing school, ignoring case, that is not being deleted.
func (svc *Service) Delete(ctx context.Context, transferTo string, schools ...School) (int64, error) {
	transferTo = core.CleanString(transferTo)
	if transferTo != "" {
		target, err := svc.repo.GetByName(ctx, transferTo)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return 0, core.NewValidationError(nil, core.FieldError{Field: "transferTo", Error: "school to transfer lunches to does not exist"})
			}
			return 0, errors.Wrap(err, "getting transfer school")
		}
		for _, s := range schools {
			if s.ID == target.ID {
				return 0, core.NewValidationError(nil, core.FieldError{Field: "transferTo", Error: "cannot transfer to a deleted school"})
			}
		}
		transferTo = target.Name
	}
	return svc.repo.Delete(ctx, transferTo, schools...)
}

// DeleteByIDs loads then deletes the schools, deleting their lunches.
func (svc *Service) DeleteByIDs(ctx context.Context, ids ...string) (int64, error) {
	schools := make([]School, 0, len(ids))
	for _, id := range ids {
		s, err := svc.repo.Get(ctx, id)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return 0, errors.Wrap(err, "getting school")
		}
		schools = append(schools, s)
	}
	if len(schools) == 0 {
		return 0, nil
	}
	return svc.repo.Delete(ctx, "", schools...)
}

// Lunches

func (svc *Service) checkLunch(l Lunch) error {
	if err := svc.validate.Struct(l); err != nil {
		return err
	}
	if l.EndTime <= l.StartTime {
		return core.NewValidationError(nil, core.FieldError{Field: "endTime", Error: errEndBeforeStart})
	}
	return nil
}

func (svc *Service) CreateLunch(ctx context.Context, l Lunch) (Lunch, error) {
	l.Clean()
	if err := svc.checkLunch(l); err != nil {
		return Lunch{}, err
	}

	now := core.Now()
	l.ID = core.NewID()
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := svc.repo.CreateLunch(ctx, l); err != nil {
		return Lunch{}, errors.Wrap(err, "inserting lunch")
	}
	return l, nil
}

func (svc *Service) QueryLunches(ctx context.Context, filter LunchFilter, ordering ...core.DBOrdering) ([]Lunch, error) {
	filter.Clean()
	return svc.repo.QueryLunches(ctx, filter, ordering...)
}

func (svc *Service) GetLunch(ctx context.Context, id string) (Lunch, error) {
	return svc.repo.GetLunch(ctx, id)
}

func (svc *Service) UpdateLunch(ctx context.Context, orig, l Lunch) (Lunch, error) {
	l.ID = orig.ID
	l.CreatedAt = orig.CreatedAt
	l.Clean()
	if err := svc.checkLunch(l); err != nil {
		return Lunch{}, err
	}

	l.UpdatedAt = core.Now()
	if err := svc.repo.UpdateLunch(ctx, l); err != nil {
		return Lunch{}, errors.Wrap(err, "updating lunch")
	}
	return l, nil
}

func (svc *Service) DeleteLunches(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.DeleteLunches(ctx, ids...)
}
