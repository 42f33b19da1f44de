package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/school"
)

var (
	schoolTable = newTable("schools", school.ErrNotFound,
		[]core.DBOrdering{{Field: "name", Ascending: true}},
		"id", "name", "state", "teaching_frequency", "hours_per_week", "created_at", "updated_at",
	)
	lunchTable = newTable("lunches", school.ErrLunchNotFound,
		[]core.DBOrdering{{Field: "school", Ascending: true}, {Field: "start_time", Ascending: true}},
		"id", "school", "start_time", "end_time", "grade", "created_at", "updated_at",
	)
)

type schoolRepository struct {
	db core.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db core.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo schoolRepository) Create(ctx context.Context, s school.School) error {
	return schoolTable.insert(ctx, repo.db, s)
}

func (repo schoolRepository) Query(ctx context.Context, filter school.QueryFilter, ordering ...core.DBOrdering) ([]school.School, error) {
	w := new(where)
	w.search(filter.Search, "name")
	w.eq("state", filter.State)

	schools := make([]school.School, 0)
	if err := schoolTable.query(ctx, repo.db, &schools, w, ordering); err != nil {
		return nil, err
	}
	return schools, nil
}

func (repo schoolRepository) Get(ctx context.Context, id string) (school.School, error) {
	var s school.School
	err := schoolTable.get(ctx, repo.db, &s, id)
	return s, err
}

func (repo schoolRepository) NameExists(ctx context.Context, name, excludedID string) (bool, error) {
	var n int
	query := repo.db.Rebind("SELECT COUNT(*) FROM schools WHERE LOWER(name) = LOWER(?) AND id <> ?")
	if err := repo.db.GetContext(ctx, &n, query, name, excludedID); err != nil {
		return false, errors.Wrap(err, "checking school name")
	}
	return n > 0, nil
}

func (repo schoolRepository) GetByName(ctx context.Context, name string) (school.School, error) {
	var s school.School
	query := repo.db.Rebind(schoolTable.selectSQL() + " WHERE LOWER(name) = LOWER(?)")
	if err := repo.db.GetContext(ctx, &s, query, name); err != nil {
		return s, schoolTable.trapNoRowsErr(err, "getting school by name")
	}
	return s, nil
}

func (repo schoolRepository) Update(ctx context.Context, s school.School, oldName string) error {
	return withTx(ctx, repo.db, func(tx core.DBExecutor) error {
		if err := schoolTable.update(ctx, tx, s); err != nil {
			return err
		}
		if oldName == "" || oldName == s.Name {
			return nil
		}
		query := tx.Rebind("UPDATE lunches SET school = ? WHERE school = ?")
		if _, err := tx.ExecContext(ctx, query, s.Name, oldName); err != nil {
			return errors.Wrap(err, "renaming lunches school")
		}
		return nil
	})
}

func (repo schoolRepository) Delete(ctx context.Context, transferTo string, schools ...school.School) (int64, error) {
	var deleted int64
	err := withTx(ctx, repo.db, func(tx core.DBExecutor) error {
		ids := make([]string, len(schools))
		for i, s := range schools {
			ids[i] = s.ID
			var (
				query string
				args  []interface{}
			)
			if transferTo != "" {
				query, args = "UPDATE lunches SET school = ? WHERE school = ?", []interface{}{transferTo, s.Name}
			} else {
				query, args = "DELETE FROM lunches WHERE school = ?", []interface{}{s.Name}
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return errors.Wrap(err, "handling lunches of "+s.Name)
			}
		}

		n, err := schoolTable.delete(ctx, tx, ids...)
		deleted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (repo schoolRepository) CreateLunch(ctx context.Context, l school.Lunch) error {
	return lunchTable.insert(ctx, repo.db, l)
}

func (repo schoolRepository) QueryLunches(ctx context.Context, filter school.LunchFilter, ordering ...core.DBOrdering) ([]school.Lunch, error) {
	w := new(where)
	w.eq("school", filter.School)
	w.eq("grade", filter.Grade)

	lunches := make([]school.Lunch, 0)
	if err := lunchTable.query(ctx, repo.db, &lunches, w, ordering); err != nil {
		return nil, err
	}
	return lunches, nil
}

func (repo schoolRepository) GetLunch(ctx context.Context, id string) (school.Lunch, error) {
	var l school.Lunch
	err := lunchTable.get(ctx, repo.db, &l, id)
	return l, err
}

func (repo schoolRepository) UpdateLunch(ctx context.Context, l school.Lunch) error {
	return lunchTable.update(ctx, repo.db, l)
}

func (repo schoolRepository) DeleteLunches(ctx context.Context, ids ...string) (int64, error) {
	return lunchTable.delete(ctx, repo.db, ids...)
}
