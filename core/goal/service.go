package goal

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var (
	ErrNotFound = core.NewNotFoundError("goal")

	errParentStudent = "parent goal belongs to another student"
	errParentSelf    = "a goal cannot be its own parent"
	errParentCycle   = "parent goal cannot be one of the goal's sub-goals"
)

type (
	Repository interface {
		Create(ctx context.Context, g Goal) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Goal, error)
		Get(ctx context.Context, id string) (Goal, error)
		Update(ctx context.Context, g Goal) error
		// Delete removes goals; their sub-goals become top-level goals.
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

func (svc *Service) check(ctx context.Context, g Goal) error {
	if err := svc.validate.Struct(g); err != nil {
		return err
	}
	if err := core.CheckReference(ctx, svc.students, "studentId", "student", g.StudentID); err != nil {
		return err
	}
	if !g.ParentGoalID.Valid {
		return nil
	}

	parentErr := func(msg string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "parentGoalId", Error: msg})
	}
	if g.ParentGoalID.String == g.ID {
		return parentErr(errParentSelf)
	}
	parent, err := svc.repo.Get(ctx, g.ParentGoalID.String)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return parentErr("parent goal not found")
		}
		return errors.Wrap(err, "getting parent goal")
	}
	if parent.StudentID != g.StudentID {
		return parentErr(errParentStudent)
	}

	// walk up the ancestors to refuse cycles
	for seen := map[string]bool{g.ID: true}; parent.ParentGoalID.Valid; {
		if seen[parent.ParentGoalID.String] {
			return parentErr(errParentCycle)
		}
		seen[parent.ID] = true
		if parent, err = svc.repo.Get(ctx, parent.ParentGoalID.String); err != nil {
			if errors.Cause(err) == ErrNotFound {
				break
			}
			return errors.Wrap(err, "getting ancestor goal")
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, g Goal) (Goal, error) {
	g.Clean()
	g.ID = core.NewID()
	if err := svc.check(ctx, g); err != nil {
		return Goal{}, err
	}

	now := core.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	if err := svc.repo.Create(ctx, g); err != nil {
		return Goal{}, errors.Wrap(err, "inserting goal")
	}
	return g, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Goal, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (Goal, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Exists(ctx context.Context, id string) (bool, error) {
	return svc.repo.Exists(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, g Goal) (Goal, error) {
	g.ID = orig.ID
	g.CreatedAt = orig.CreatedAt
	g.Clean()
	if err := svc.check(ctx, g); err != nil {
		return Goal{}, err
	}

	g.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, g); err != nil {
		return Goal{}, errors.Wrap(err, "updating goal")
	}
	return g, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}

// Hierarchy returns the student's goals organized as an IEP tree.
func (svc *Service) Hierarchy(ctx context.Context, studentID string) ([]*Node, error) {
	goals, err := svc.repo.Query(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return nil, errors.Wrap(err, "querying goals")
	}
	return Organize(goals), nil
}
