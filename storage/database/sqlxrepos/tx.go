package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

// withTx runs fn inside a transaction, committed when fn returns nil.
func withTx(ctx context.Context, db core.DB, fn func(tx core.DBExecutor) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}
