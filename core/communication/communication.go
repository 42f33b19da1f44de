package communication

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

var ErrNotFound = core.NewNotFoundError("communication")

// Contact types
const (
	ContactTeacher     = "teacher"
	ContactParent      = "parent"
	ContactCaseManager = "case-manager"
	ContactOther       = "other"
)

const MethodEmail = "email"

// Communication is a logged exchange with a contact about a student.
type Communication struct {
	ID           string         `json:"id" db:"id"`
	StudentID    null.String    `json:"studentId" db:"student_id"`
	ContactType  string         `json:"contactType" db:"contact_type" validate:"required,oneof=teacher parent case-manager other"`
	ContactID    null.String    `json:"contactId" db:"contact_id"`
	ContactName  string         `json:"contactName" db:"contact_name" validate:"required,max=200"`
	ContactEmail string         `json:"contactEmail" db:"contact_email" validate:"omitempty,email"`
	Method       string         `json:"method" db:"method" validate:"required,oneof=email phone in-person other"`
	Date         string         `json:"date" db:"date" validate:"required,date"`
	Subject      string         `json:"subject" db:"subject" validate:"max=500"`
	Body         string         `json:"body" db:"body"`
	RelatedTo    string         `json:"relatedTo" db:"related_to"`
	CreatedAt    core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt    core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (c *Communication) Clean() {
	c.ContactType = core.CleanString(c.ContactType, true /* lower */)
	c.ContactName = core.CleanString(c.ContactName)
	c.ContactEmail = core.CleanString(c.ContactEmail, true /* lower */)
	c.Method = core.CleanString(c.Method, true /* lower */)
	c.Date = core.CleanString(c.Date)
	if c.Date == "" {
		c.Date = core.Today()
	}
	c.Subject = core.CleanString(c.Subject)
	c.RelatedTo = core.CleanString(c.RelatedTo)
	if c.StudentID.Valid && core.CleanString(c.StudentID.String) == "" {
		c.StudentID = null.String{}
	}
	if c.ContactID.Valid && core.CleanString(c.ContactID.String) == "" {
		c.ContactID = null.String{}
	}
}

type QueryFilter struct {
	core.DateRange
	StudentID   string `query:"studentId"`
	ContactType string `query:"contactType"`
	Method      string `query:"method"`
	Search      string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.ContactType = core.CleanString(qf.ContactType, true /* lower */)
	qf.Method = core.CleanString(qf.Method, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}

type (
	Repository interface {
		Create(ctx context.Context, comms ...Communication) error
		// Query applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on contact name or subject.
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Communication, error)
		Get(ctx context.Context, id string) (Communication, error)
		Update(ctx context.Context, c Communication) error
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

func (svc *Service) check(ctx context.Context, c Communication) error {
	if err := svc.validate.Struct(c); err != nil {
		return err
	}
	return core.CheckReference(ctx, svc.students, "studentId", "student", c.StudentID.String)
}

func (svc *Service) Create(ctx context.Context, c Communication) (Communication, error) {
	created, err := svc.CreateMany(ctx, c)
	if err != nil {
		return Communication{}, err
	}
	return created[0], nil
}

// CreateMany validates and saves all communications, or none.
func (svc *Service) CreateMany(ctx context.Context, comms ...Communication) ([]Communication, error) {
	now := core.Now()
	for i := range comms {
		comms[i].Clean()
		if err := svc.check(ctx, comms[i]); err != nil {
			return nil, err
		}
		comms[i].ID = core.NewID()
		comms[i].CreatedAt = now
		comms[i].UpdatedAt = now
	}
	if len(comms) == 0 {
		return comms, nil
	}
	if err := svc.repo.Create(ctx, comms...); err != nil {
		return nil, errors.Wrap(err, "inserting communications")
	}
	return comms, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Communication, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (Communication, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, c Communication) (Communication, error) {
	c.ID = orig.ID
	c.CreatedAt = orig.CreatedAt
	c.Clean()
	if err := svc.check(ctx, c); err != nil {
		return Communication{}, err
	}

	c.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, c); err != nil {
		return Communication{}, errors.Wrap(err, "updating communication")
	}
	return c, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}
