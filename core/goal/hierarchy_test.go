package goal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
)

func newGoal(id, parent, dateCreated, status string, createdAt time.Time) Goal {
	g := Goal{
		ID:          id,
		StudentID:   "st1",
		Description: id,
		Status:      status,
		DateCreated: dateCreated,
		CreatedAt:   core.NewTimestamp(createdAt),
	}
	if parent != "" {
		g.ParentGoalID = null.StringFrom(parent)
	}
	return g
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestOrganize(t *testing.T) {
	t0 := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	goals := []Goal{
		newGoal("b", "", "2024-09-02", StatusInProgress, t0),
		newGoal("a", "", "2024-09-01", StatusAchieved, t0),
		newGoal("a2", "a", "2024-09-03", StatusInProgress, t0.Add(time.Hour)),
		newGoal("a1", "a", "2024-09-03", StatusAchieved, t0),
		newGoal("a1x", "a1", "2024-09-04", StatusDiscontinued, t0),
		newGoal("orphan", "missing", "2024-09-05", StatusModified, t0),
	}

	roots := Organize(goals)
	assert.Equal(t, []string{"a", "b", "orphan"}, ids(roots))

	a := roots[0]
	assert.Equal(t, []string{"a1", "a2"}, ids(a.SubGoals))
	assert.Equal(t, []string{"a1x"}, ids(a.SubGoals[0].SubGoals))
	assert.Equal(t, StatusSummary{Total: 4, InProgress: 1, Achieved: 2, Discontinued: 1}, a.Summary)
	assert.Equal(t, StatusSummary{Total: 2, Achieved: 1, Discontinued: 1}, a.SubGoals[0].Summary)
	assert.Equal(t, StatusSummary{Total: 1, Modified: 1}, roots[2].Summary)
	assert.Empty(t, roots[1].SubGoals)
}

func TestOrganizeBreaksCycles(t *testing.T) {
	t0 := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	goals := []Goal{
		newGoal("x", "y", "2024-09-01", StatusInProgress, t0),
		newGoal("y", "x", "2024-09-02", StatusInProgress, t0),
	}

	roots := Organize(goals)
	if assert.Len(t, roots, 1) {
		assert.Equal(t, 2, roots[0].Summary.Total)
		assert.Len(t, roots[0].SubGoals, 1)
	}
}
