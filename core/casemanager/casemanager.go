package casemanager

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var ErrNotFound = core.NewNotFoundError("case manager")

// Roles lists the accepted CaseManager.Role values.
var Roles = []string{"SPED", "SLP", "OT", "PT", "Psychologist", "Counselor", "Other"}

type CaseManager struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name" validate:"required,max=200"`
	Role         string         `json:"role" db:"role" validate:"omitempty,oneof=SPED SLP OT PT Psychologist Counselor Other"`
	School       string         `json:"school" db:"school" validate:"max=200"`
	PhoneNumber  string         `json:"phoneNumber" db:"phone_number" validate:"max=50"`
	EmailAddress string         `json:"emailAddress" db:"email_address" validate:"omitempty,email"`
	Gender       string         `json:"gender" db:"gender" validate:"omitempty,oneof=male female non-binary"`
	CreatedAt    core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt    core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (cm *CaseManager) Clean() {
	cm.Name = core.CleanString(cm.Name)
	cm.Role = core.CleanString(cm.Role)
	cm.School = core.CleanString(cm.School)
	cm.PhoneNumber = core.CleanString(cm.PhoneNumber)
	cm.EmailAddress = core.CleanString(cm.EmailAddress, true /* lower */)
	cm.Gender = core.CleanString(cm.Gender, true /* lower */)
}

type QueryFilter struct {
	Search string `query:"search"`
	School string `query:"school"`
	Role   string `query:"role"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.School = core.CleanString(qf.School)
	qf.Role = core.CleanString(qf.Role)
}

type (
	Repository interface {
		Create(ctx context.Context, cm CaseManager) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]CaseManager, error)
		Get(ctx context.Context, id string) (CaseManager, error)
		Update(ctx context.Context, cm CaseManager) error
		// Delete removes case managers and unassigns their students.
		Delete(ctx context.Context, ids ...string) (int64, error)
		Exists(ctx context.Context, id string) (bool, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, cm CaseManager) (CaseManager, error) {
	cm.Clean()
	if err := svc.validate.Struct(cm); err != nil {
		return CaseManager{}, err
	}

	now := core.Now()
	cm.ID = core.NewID()
	cm.CreatedAt = now
	cm.UpdatedAt = now
	if err := svc.repo.Create(ctx, cm); err != nil {
		return CaseManager{}, errors.Wrap(err, "inserting case manager")
	}
	return cm, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]CaseManager, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (CaseManager, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Exists(ctx context.Context, id string) (bool, error) {
	return svc.repo.Exists(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, cm CaseManager) (CaseManager, error) {
	cm.ID = orig.ID
	cm.CreatedAt = orig.CreatedAt
	cm.Clean()
	if err := svc.validate.Struct(cm); err != nil {
		return CaseManager{}, err
	}

	cm.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, cm); err != nil {
		return CaseManager{}, errors.Wrap(err, "updating case manager")
	}
	return cm, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}
