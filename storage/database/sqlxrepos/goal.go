package sqlxrepos

import (
	"context"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/goal"
)

var goalTable = newTable("goals", goal.ErrNotFound,
	[]core.DBOrdering{{Field: "date_created", Ascending: true}, {Field: "created_at", Ascending: true}},
	"id", "student_id", "description", "baseline", "target", "status", "domain", "priority",
	"parent_goal_id", "date_created", "created_at", "updated_at",
)

type goalRepository struct {
	exec core.DBExecutor
}

var _ goal.Repository = (*goalRepository)(nil)

func NewGoalRepository(exec core.DBExecutor) *goalRepository {
	return &goalRepository{exec: exec}
}

func (repo goalRepository) Create(ctx context.Context, g goal.Goal) error {
	return goalTable.insert(ctx, repo.exec, g)
}

func (repo goalRepository) Query(ctx context.Context, filter goal.QueryFilter, ordering ...core.DBOrdering) ([]goal.Goal, error) {
	w := new(where)
	w.eq("student_id", filter.StudentID)
	w.in("student_id", filter.StudentIDs)
	w.eq("status", filter.Status)
	w.eq("domain", filter.Domain)
	switch filter.ParentGoalID {
	case "":
	case "null", "none":
		w.add("parent_goal_id IS NULL")
	default:
		w.add("parent_goal_id = ?", filter.ParentGoalID)
	}
	w.search(filter.Search, "description")

	goals := make([]goal.Goal, 0)
	if err := goalTable.query(ctx, repo.exec, &goals, w, ordering); err != nil {
		return nil, err
	}
	return goals, nil
}

func (repo goalRepository) Get(ctx context.Context, id string) (goal.Goal, error) {
	var g goal.Goal
	err := goalTable.get(ctx, repo.exec, &g, id)
	return g, err
}

func (repo goalRepository) Update(ctx context.Context, g goal.Goal) error {
	return goalTable.update(ctx, repo.exec, g)
}

// Delete detaches sub-goals (ON DELETE SET NULL), which become roots.
func (repo goalRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return goalTable.delete(ctx, repo.exec, ids...)
}

func (repo goalRepository) Exists(ctx context.Context, id string) (bool, error) {
	return goalTable.exists(ctx, repo.exec, id)
}
