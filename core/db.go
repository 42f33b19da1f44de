package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	// DBExecutor is implemented by both *sqlx.DB and *sqlx.Tx.
	DBExecutor interface {
		sqlx.ExtContext
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

var (
	_ DB           = (*sqlx.DB)(nil)
	_ DBTransactor = (*sqlx.Tx)(nil)
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// DateRange bounds a query on a YYYY-MM-DD column; empty bounds are open.
type DateRange struct {
	StartDate string `query:"startDate" validate:"omitempty,date"`
	EndDate   string `query:"endDate" validate:"omitempty,date"`
}

// ExistenceChecker is implemented by services whose entities may be referenced by others.
type ExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// CheckReference returns a ValidationError on `field` when id does not reference an existing `entity`.
// Empty ids are not checked.
func CheckReference(ctx context.Context, checker ExistenceChecker, field, entity, id string) error {
	if id == "" || checker == nil {
		return nil
	}
	ok, err := checker.Exists(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "checking %s %s", entity, id)
	}
	if !ok {
		return NewValidationError(nil, FieldError{Field: field, Error: entity + " not found"})
	}
	return nil
}
