package duedate

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

var ErrNotFound = core.NewNotFoundError("due date item")

// Statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusOverdue   = "overdue"
)

type Item struct {
	ID            string         `json:"id" db:"id"`
	Title         string         `json:"title" db:"title" validate:"required,max=200"`
	Description   string         `json:"description" db:"description"`
	DueDate       string         `json:"dueDate" db:"due_date" validate:"required,date"`
	StudentID     null.String    `json:"studentId" db:"student_id"`
	Category      string         `json:"category" db:"category" validate:"omitempty,oneof=iep evaluation progress-report meeting other"`
	Priority      string         `json:"priority" db:"priority" validate:"omitempty,oneof=low medium high"`
	Status        string         `json:"status" db:"status" validate:"required,oneof=pending completed overdue"`
	CompletedDate null.String    `json:"completedDate" db:"completed_date" validate:"omitempty,date"`
	CreatedAt     core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt     core.Timestamp `json:"updatedAt" db:"updated_at"`
}

func (it *Item) Clean() {
	it.Title = core.CleanString(it.Title)
	it.DueDate = core.CleanString(it.DueDate)
	it.Category = core.CleanString(it.Category, true /* lower */)
	if it.Category == "" {
		it.Category = "other"
	}
	it.Priority = core.CleanString(it.Priority, true /* lower */)
	if it.Priority == "" {
		it.Priority = "medium"
	}
	it.Status = core.CleanString(it.Status, true /* lower */)
	if it.Status == "" {
		it.Status = StatusPending
	}
	if it.StudentID.Valid && core.CleanString(it.StudentID.String) == "" {
		it.StudentID = null.String{}
	}
	if it.CompletedDate.Valid && core.CleanString(it.CompletedDate.String) == "" {
		it.CompletedDate = null.String{}
	}
}

type QueryFilter struct {
	core.DateRange
	StudentID string `query:"studentId"`
	Category  string `query:"category"`
	Status    string `query:"status"`
	Priority  string `query:"priority"`
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Priority = core.CleanString(qf.Priority, true /* lower */)
}

type (
	Repository interface {
		Create(ctx context.Context, it Item) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Item, error)
		Get(ctx context.Context, id string) (Item, error)
		Update(ctx context.Context, it Item) error
		Delete(ctx context.Context, ids ...string) (int64, error)
		// MarkOverdue flags pending items due before `today` as overdue.
		MarkOverdue(ctx context.Context, today string) (int64, error)
	}

	Service struct {
		repo     Repository
		students core.ExistenceChecker
		validate *validator.Validate
		now      func() time.Time
	}
)

func NewService(repo Repository, students core.ExistenceChecker, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		students: students,
		validate: validate,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) check(ctx context.Context, it Item) error {
	if err := svc.validate.Struct(it); err != nil {
		return err
	}
	return core.CheckReference(ctx, svc.students, "studentId", "student", it.StudentID.String)
}

func (svc *Service) Create(ctx context.Context, it Item) (Item, error) {
	it.Clean()
	if err := svc.check(ctx, it); err != nil {
		return Item{}, err
	}

	now := core.Now()
	it.ID = core.NewID()
	it.CreatedAt = now
	it.UpdatedAt = now
	if err := svc.repo.Create(ctx, it); err != nil {
		return Item{}, errors.Wrap(err, "inserting due date item")
	}
	return it, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Item, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (Item, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, it Item) (Item, error) {
	it.ID = orig.ID
	it.CreatedAt = orig.CreatedAt
	it.Clean()
	if it.Status != StatusCompleted {
		it.CompletedDate = null.String{}
	} else if !it.CompletedDate.Valid {
		it.CompletedDate = null.StringFrom(core.FormatDate(svc.now()))
	}
	if err := svc.check(ctx, it); err != nil {
		return Item{}, err
	}

	it.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, it); err != nil {
		return Item{}, errors.Wrap(err, "updating due date item")
	}
	return it, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}

// Complete marks an item completed today.
func (svc *Service) Complete(ctx context.Context, it Item) (Item, error) {
	it.Status = StatusCompleted
	it.CompletedDate = null.StringFrom(core.FormatDate(svc.now()))
	it.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, it); err != nil {
		return Item{}, errors.Wrap(err, "completing due date item")
	}
	return it, nil
}

// MarkOverdue flags pending items past their due date; it returns the number of items updated.
func (svc *Service) MarkOverdue(ctx context.Context) (int64, error) {
	return svc.repo.MarkOverdue(ctx, core.FormatDate(svc.now()))
}
