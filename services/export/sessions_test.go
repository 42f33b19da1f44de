package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/session"
	"github.com/trezcool/caseload/core/student"
)

func TestSessionsXLSX(t *testing.T) {
	acc := 75.0
	students := []student.Student{{ID: "st-1", Name: "Ava Lopez", School: "Lincoln Elementary"}}
	goals := []goal.Goal{{ID: "g-1", Description: "Produce /r/ in initial position"}}
	sessions := []session.Session{
		{
			StudentID:        "st-1",
			Date:             "2024-09-03",
			StartTime:        "09:00",
			EndTime:          "09:30",
			IsDirectServices: true,
			GoalsTargeted:    []string{"g-1", "g-unknown"},
			ActivitiesUsed:   []string{"articulation cards", "board game"},
			PerformanceData: session.PerformanceList{
				{GoalID: "g-1", Accuracy: &acc},
				{GoalID: "g-unknown", CorrectTrials: 9, IncorrectTrials: 1},
			},
			Notes: "Good focus",
		},
		{StudentID: "st-gone", Date: "2024-09-04", MissedSession: true},
	}

	buf := new(bytes.Buffer)
	require.NoError(t, SessionsXLSX(buf, sessions, students, goals))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SessionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, []string{
		"2024-09-03", "Ava Lopez", "Lincoln Elementary", "09:00", "09:30", "Direct", "No",
		"Produce /r/ in initial position; g-unknown", "articulation cards, board game", "82.5", "Good focus",
	}, rows[1])

	assert.Equal(t, "st-gone", rows[2][1])
	assert.Equal(t, "Indirect", rows[2][5])
	assert.Equal(t, "Yes", rows[2][6])
}
