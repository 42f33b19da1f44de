package backup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/caseload/core"
)

func TestConvertLegacy(t *testing.T) {
	students := `[
		{"id": 1, "name": "Alex", "grade": 3, "concerns": "articulation, fluency", "iepDueDate": "2025-03-01T00:00:00.000Z", "archived": "false"},
		{"id": 2, "name": "Sam", "grade": "K", "createdAt": "2024-09-01T10:00:00.000Z", "legacyOnly": "dropped"}
	]`
	raw := map[string]interface{}{
		// localStorage stores JSON strings
		"slp_students": students,
		"goals": []interface{}{
			map[string]interface{}{"id": 10, "studentId": 1, "description": "Produce /r/", "dateCreated": "2024-09-05T14:30:00Z"},
			map[string]interface{}{"id": 11, "studentId": 1, "description": "Sub goal", "parentGoalId": 10},
			map[string]interface{}{"id": 12, "studentId": 99, "description": "Orphan"},
		},
		"sessions": []interface{}{
			map[string]interface{}{
				"id": 20, "studentId": 2, "date": "2024-10-01T09:00:00Z", "startTime": "9:00", "endTime": "9:30 AM",
				"goalsTargeted": []interface{}{10.0, 42.0},
				"performanceData": []interface{}{
					map[string]interface{}{"goalId": 10, "accuracy": "80%", "correctTrials": "8"},
					map[string]interface{}{"goalId": 42, "accuracy": 50},
				},
			},
		},
		"scheduledSessions": []interface{}{
			map[string]interface{}{"id": 30, "studentIds": "1,2,77", "startTime": "10:00", "endTime": "10:30", "recurrencePattern": "weekly", "dayOfWeek": "2", "startDate": "2024-09-01"},
		},
		"theme": "dark",
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	snap, report, err := ConvertLegacy(data)
	require.NoError(t, err)

	require.Len(t, snap.Students, 2)
	alex, sam := snap.Students[0], snap.Students[1]
	if alex.Name != "Alex" {
		alex, sam = sam, alex
	}
	assert.True(t, core.IsID(alex.ID))
	assert.Equal(t, "3", alex.Grade)
	assert.Equal(t, core.StringList{"articulation", "fluency"}, alex.Concerns)
	assert.Equal(t, "2025-03-01", alex.IEPDueDate)
	assert.False(t, alex.Archived)
	assert.Equal(t, "2024-09-01T10:00:00Z", sam.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))

	require.Len(t, snap.Goals, 2)
	goalsByDesc := map[string]string{}
	for _, g := range snap.Goals {
		assert.Equal(t, alex.ID, g.StudentID)
		goalsByDesc[g.Description] = g.ID
	}
	parentID := goalsByDesc["Produce /r/"]
	for _, g := range snap.Goals {
		if g.Description == "Sub goal" {
			assert.Equal(t, parentID, g.ParentGoalID.String)
		} else {
			assert.Equal(t, "2024-09-05", g.DateCreated)
		}
	}

	require.Len(t, snap.Sessions, 1)
	sess := snap.Sessions[0]
	assert.Equal(t, sam.ID, sess.StudentID)
	assert.Equal(t, "2024-10-01", sess.Date)
	assert.Equal(t, "09:00", sess.StartTime)
	assert.Equal(t, "09:30", sess.EndTime)
	assert.True(t, sess.IsDirectServices)
	assert.Equal(t, core.StringList{parentID}, sess.GoalsTargeted)
	require.Len(t, sess.PerformanceData, 1)
	assert.Equal(t, parentID, sess.PerformanceData[0].GoalID)
	if assert.NotNil(t, sess.PerformanceData[0].Accuracy) {
		assert.Equal(t, 80.0, *sess.PerformanceData[0].Accuracy)
	}
	assert.Equal(t, 8, sess.PerformanceData[0].CorrectTrials)

	require.Len(t, snap.ScheduledSessions, 1)
	sched := snap.ScheduledSessions[0]
	assert.ElementsMatch(t, []string{alex.ID, sam.ID}, []string(sched.StudentIDs))
	assert.True(t, sched.IsActive)
	assert.Equal(t, 2, sched.DayOfWeek.Int)

	assert.Equal(t, 1, report.Dropped["goals"])
	assert.Equal(t, 2, report.Converted["students"])
	assert.Equal(t, 7, report.RemappedIDs)
	assert.Equal(t, []string{"theme"}, report.IgnoredKeys)
}

func TestConvertLegacyInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"not json":         "nope",
		"not a list":       `{"students": {"id": 1}}`,
		"bad string value": `{"students": "[{"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := ConvertLegacy([]byte(data))
			assert.Equal(t, ErrInvalidLegacyExport, err)
		})
	}
}

func TestCheckReferences(t *testing.T) {
	data := `{
		"students": [{"id": "5f0a1d4e-3c43-4a3c-9d8e-0c5a6f1f7b11", "name": "Alex", "grade": "3"}],
		"goals": [{"id": "b0f7a3de-7d0e-4a8c-9b1b-6c1f0b2d3e44", "studentId": "1f0b2d3e-0000-4a8c-9b1b-6c1f0b2d3e44", "description": "x"}]
	}`
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))

	assert.NoError(t, checkReferences(&snap, false))

	err := checkReferences(&snap, true)
	var vErr *core.ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, []core.FieldError{{Field: "goals[0].studentId", Error: "student not found"}}, vErr.Fields)
	}
}
