package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/progressreport"
	"github.com/trezcool/caseload/core/school"
	"github.com/trezcool/caseload/core/session"
	"github.com/trezcool/caseload/core/soapnote"
	"github.com/trezcool/caseload/core/student"
)

func TestHealth(t *testing.T) {
	rec := do(app, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]interface{}
	decode(t, rec, &data)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "test", data["version"])
	assert.Equal(t, false, data["aiConfigured"])
	assert.NotEmpty(t, data["timestamp"])
}

func Test_studentApi_crud(t *testing.T) {
	resetDB(t)

	// create
	rec := do(app, http.MethodPost, "/api/students", []byte(`{"name": " Ann ", "grade": "2", "concerns": ["articulation"]}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ann student.Student
	decode(t, rec, &ann)
	assert.NotEmpty(t, ann.ID)
	assert.Equal(t, "Ann", ann.Name)
	assert.Equal(t, student.FrequencyQuarterly, ann.ProgressReportFrequency)

	rec = do(app, http.MethodPost, "/api/students", []byte(`{"grade": "2"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var vErr validationErr
	decode(t, rec, &vErr)
	assert.Equal(t, "validation failed", vErr.Error)
	require.Len(t, vErr.Details, 1)
	assert.Equal(t, "name", vErr.Details[0].Field)

	bob := createStudent(t, "Bob", func(st *student.Student) { st.School = "Oak" })
	createStudent(t, "Old", func(st *student.Student) { st.Archived = true })

	tests := []httpTest{
		{name: "retrieve", method: http.MethodGet, path: "/api/students/" + bob.ID, wantCode: http.StatusOK, wantData: marchallObj(t, bob)},
		{
			name: "retrieve (unknown)", method: http.MethodGet, path: "/api/students/unknown",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "list hides archived", method: http.MethodGet, path: "/api/students?ordering=name",
			wantCode: http.StatusOK, wantData: marchallObj(t, []student.Student{ann, bob}),
		},
		{
			name: "list by school", method: http.MethodGet, path: "/api/students?school=Oak",
			wantCode: http.StatusOK, wantData: marchallObj(t, []student.Student{bob}),
		},
		{
			name: "list ordering desc", method: http.MethodGet, path: "/api/students?ordering=-name",
			wantCode: http.StatusOK, wantData: marchallObj(t, []student.Student{bob, ann}),
		},
		{
			name: "bulk delete requires ids", method: http.MethodDelete, path: "/api/students", body: []byte(`{"ids": []}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "validation failed", "details": [{"field": "ids", "message": "ids must be a non-empty array"}]}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("update merges the body", func(t *testing.T) {
		rec := do(app, http.MethodPut, "/api/students/"+bob.ID, []byte(`{"grade": "4"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got student.Student
		decode(t, rec, &got)
		assert.Equal(t, "Bob", got.Name)
		assert.Equal(t, "Oak", got.School)
		assert.Equal(t, "4", got.Grade)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(app, http.MethodDelete, "/api/students/"+bob.ID)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = do(app, http.MethodDelete, "/api/students/"+bob.ID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bulk delete", func(t *testing.T) {
		rec := do(app, http.MethodDelete, "/api/students", []byte(`{"ids": ["`+ann.ID+`", "unknown"]}`))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"deletedCount": 1}`, rec.Body.String())
	})
}

func Test_goalApi(t *testing.T) {
	resetDB(t)
	st := createStudent(t, "Ann")

	rec := do(app, http.MethodPost, "/api/goals", []byte(`{"studentId": "unknown", "description": "Produce /s/"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var vErr validationErr
	decode(t, rec, &vErr)
	require.Len(t, vErr.Details, 1)
	assert.Equal(t, "studentId", vErr.Details[0].Field)

	rec = do(app, http.MethodPost, "/api/goals", []byte(`{"studentId": "`+st.ID+`", "description": "Produce /s/"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var parent goal.Goal
	decode(t, rec, &parent)
	assert.Equal(t, goal.StatusInProgress, parent.Status)

	rec = do(app, http.MethodPost, "/api/goals", []byte(
		`{"studentId": "`+st.ID+`", "description": "/s/ in words", "status": "achieved", "parentGoalId": "`+parent.ID+`"}`,
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("hierarchy requires a student", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/api/goals/hierarchy")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("hierarchy", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/api/goals/hierarchy?studentId="+st.ID)
		require.Equal(t, http.StatusOK, rec.Code)
		var nodes []goal.Node
		decode(t, rec, &nodes)
		require.Len(t, nodes, 1)
		assert.Equal(t, parent.ID, nodes[0].ID)
		require.Len(t, nodes[0].SubGoals, 1)
		assert.Equal(t, 2, nodes[0].Summary.Total)
		assert.Equal(t, 1, nodes[0].Summary.Achieved)
	})

	t.Run("filter by parent", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/api/goals?parentGoalId="+parent.ID)
		require.Equal(t, http.StatusOK, rec.Code)
		var goals []goal.Goal
		decode(t, rec, &goals)
		require.Len(t, goals, 1)
		assert.Equal(t, "/s/ in words", goals[0].Description)
	})

	t.Run("deleting the student cascades", func(t *testing.T) {
		rec := do(app, http.MethodDelete, "/api/students/"+st.ID)
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = do(app, http.MethodGet, "/api/goals?studentId="+st.ID)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func Test_sessionApi(t *testing.T) {
	resetDB(t)
	st := createStudent(t, "Ann")

	rec := do(app, http.MethodPost, "/api/sessions", []byte(
		`{"studentId": "`+st.ID+`", "date": "2024-03-04", "startTime": "09:00", "endTime": "09:30",
		  "activitiesUsed": ["picture cards"],
		  "performanceData": [{"goalId": "g1", "accuracy": 85, "correctTrials": 17, "incorrectTrials": 3}]}`,
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sess session.Session
	decode(t, rec, &sess)
	assert.True(t, sess.IsDirectServices)

	t.Run("date range", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/api/sessions?startDate=2024-03-05")
		assert.JSONEq(t, `[]`, rec.Body.String())
		rec = do(app, http.MethodGet, "/api/sessions?startDate=2024-03-01&endDate=2024-03-04")
		var got []session.Session
		decode(t, rec, &got)
		assert.Len(t, got, 1)
	})

	t.Run("export", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/api/sessions/export")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx files are zip archives")
	})

	t.Run("generate SOAP note", func(t *testing.T) {
		rec := do(app, http.MethodPost, "/api/soap-notes/generate", []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(app, http.MethodPost, "/api/soap-notes/generate", []byte(`{"sessionId": "unknown"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(app, http.MethodPost, "/api/soap-notes/generate", []byte(`{"sessionId": "`+sess.ID+`"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var draft soapnote.Draft
		decode(t, rec, &draft)
		assert.Equal(t, sess.ID, draft.SessionID)
		assert.Equal(t, "2024-03-04", draft.Date)
		require.NotNil(t, draft.AverageAccuracy)
		assert.Equal(t, 85.0, *draft.AverageAccuracy)
		assert.NotEmpty(t, draft.Subjective)
	})

	t.Run("update replaces list entries whole", func(t *testing.T) {
		rec := do(app, http.MethodPost, "/api/sessions", []byte(
			`{"studentId": "`+st.ID+`", "date": "2024-04-01", "startTime": "10:00", "activitiesUsed": ["board game"],
			  "performanceData": [{"goalId": "g1", "accuracy": 90, "notes": "old note", "cuingLevels": ["visual", "verbal"]}]}`,
		))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var orig session.Session
		decode(t, rec, &orig)

		rec = do(app, http.MethodPut, "/api/sessions/"+orig.ID, []byte(
			`{"performanceData": [{"goalId": "g2", "correctTrials": 3, "incorrectTrials": 7}]}`,
		))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := deps.SessionSvc.Get(context.Background(), orig.ID)
		require.NoError(t, err)
		require.Len(t, got.PerformanceData, 1)
		perf := got.PerformanceData[0]
		assert.Equal(t, "g2", perf.GoalID)
		assert.Nil(t, perf.Accuracy)
		assert.Empty(t, perf.CuingLevels)
		assert.Empty(t, perf.Notes)
		acc, ok := perf.AccuracyValue()
		assert.True(t, ok)
		assert.Equal(t, 30.0, acc)

		// omitted fields keep their values
		assert.Equal(t, "10:00", got.StartTime)
		assert.Equal(t, []string{"board game"}, []string(got.ActivitiesUsed))

		rec = do(app, http.MethodPost, "/api/soap-notes/generate", []byte(`{"sessionId": "`+orig.ID+`"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var draft soapnote.Draft
		decode(t, rec, &draft)
		require.NotNil(t, draft.AverageAccuracy)
		assert.Equal(t, 30.0, *draft.AverageAccuracy)

		rec = do(app, http.MethodPut, "/api/sessions/"+orig.ID, []byte(`{"performanceData": "nope"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec = do(app, http.MethodPut, "/api/sessions/"+orig.ID, []byte(`{"date": "04/01/2024"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_schoolApi_deleteTransfersLunches(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	lincoln, err := deps.SchoolSvc.Create(ctx, school.School{Name: "Lincoln"})
	require.NoError(t, err)
	oak, err := deps.SchoolSvc.Create(ctx, school.School{Name: "Oak"})
	require.NoError(t, err)
	elm, err := deps.SchoolSvc.Create(ctx, school.School{Name: "Elm"})
	require.NoError(t, err)

	for _, name := range []string{"Lincoln", "Elm"} {
		rec := do(app, http.MethodPost, "/api/lunches", []byte(`{"school": "`+name+`", "startTime": "11:30", "endTime": "12:00"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(app, http.MethodPost, "/api/schools", []byte(`{"name": "lincoln"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "names are unique")

	tests := []httpTest{
		{
			name: "unknown target", method: http.MethodDelete, path: "/api/schools/" + lincoln.ID + "?transferTo=Nowhere",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, validationErr{
				Error:   "validation failed",
				Details: []core.FieldError{{Field: "transferTo", Error: "school to transfer lunches to does not exist"}},
			}),
		},
		{
			name: "target is the deleted school", method: http.MethodDelete, path: "/api/schools/" + lincoln.ID + "?transferTo=lincoln",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, validationErr{
				Error:   "validation failed",
				Details: []core.FieldError{{Field: "transferTo", Error: "cannot transfer to a deleted school"}},
			}),
		},
		{name: "transfer ignoring case", method: http.MethodDelete, path: "/api/schools/" + lincoln.ID + "?transferTo=OAK", wantCode: http.StatusNoContent},
		{name: "no target deletes lunches", method: http.MethodDelete, path: "/api/schools/" + elm.ID, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	rec = do(app, http.MethodGet, "/api/lunches")
	var lunches []school.Lunch
	decode(t, rec, &lunches)
	require.Len(t, lunches, 1)
	assert.Equal(t, oak.Name, lunches[0].School, "the canonical name is stored")
	assert.Equal(t, "11:30", lunches[0].StartTime)

	rec = do(app, http.MethodGet, "/api/schools")
	var schools []school.School
	decode(t, rec, &schools)
	require.Len(t, schools, 1)
	assert.Equal(t, oak.ID, schools[0].ID)
}

func Test_progressReportApi(t *testing.T) {
	resetDB(t)
	st := createStudent(t, "Ann")
	createStudent(t, "Yearly", func(st *student.Student) {
		st.ProgressReportFrequency = student.FrequencyAnnual
		st.IEPDueDate = "2025-03-01"
	})

	body := []byte(`{"schoolYearStart": "2024-08-15", "schoolYearEnd": "2025-06-15"}`)
	rec := do(app, http.MethodPost, "/api/progress-reports/schedule-auto", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result progressreport.ScheduleResult
	decode(t, rec, &result)
	assert.Len(t, result.Created, 5)
	assert.Zero(t, result.Skipped)

	rec = do(app, http.MethodPost, "/api/progress-reports/schedule-auto", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &result)
	assert.Empty(t, result.Created)
	assert.Equal(t, 5, result.Skipped)

	rec = do(app, http.MethodGet, "/api/progress-reports?studentId="+st.ID+"&ordering=dueDate")
	var reports []progressreport.ProgressReport
	decode(t, rec, &reports)
	require.Len(t, reports, 4)
	assert.Equal(t, "2024-11-15", reports[0].DueDate)
	assert.Equal(t, "2025-06-15", reports[3].DueDate)

	rec = do(app, http.MethodGet, "/api/progress-reports?studentId="+st.ID+"&ordering=-dueDate,unknownField")
	decode(t, rec, &reports)
	require.Len(t, reports, 4)
	assert.Equal(t, "2025-06-15", reports[0].DueDate)
	assert.Equal(t, "2024-11-15", reports[3].DueDate)

	t.Run("complete", func(t *testing.T) {
		rec := do(app, http.MethodPost, "/api/progress-reports/"+reports[0].ID+"/complete")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got progressreport.ProgressReport
		decode(t, rec, &got)
		assert.Equal(t, progressreport.StatusCompleted, got.Status)
		assert.True(t, got.CompletedDate.Valid)

		rec = do(app, http.MethodPost, "/api/progress-reports/unknown/complete")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("upcoming", func(t *testing.T) {
		for _, days := range []string{"lots", "0", "-5", "367"} {
			rec := do(app, http.MethodGet, "/api/progress-reports/upcoming?days="+days)
			checkCodeAndData(t, httpTest{
				wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, validationErr{
					Error:   "validation failed",
					Details: []core.FieldError{{Field: "days", Error: "days must be an integer between 1 and 366"}},
				}),
			}, rec)
		}
		rec := do(app, http.MethodGet, "/api/progress-reports/upcoming?days=366")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(app, http.MethodGet, "/api/progress-reports/upcoming?days=30")
		require.Equal(t, http.StatusOK, rec.Code)
		var got []progressreport.ProgressReport
		decode(t, rec, &got)
		for _, r := range got {
			assert.NotEqual(t, progressreport.StatusCompleted, r.Status)
		}
	})

	t.Run("schedule rejects inverted years", func(t *testing.T) {
		rec := do(app, http.MethodPost, "/api/progress-reports/schedule-auto",
			[]byte(`{"schoolYearStart": "2024-08-15", "schoolYearEnd": "2024-01-01"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_dueDateApi_complete(t *testing.T) {
	resetDB(t)

	rec := do(app, http.MethodPost, "/api/due-date-items", []byte(`{"title": "IEP meeting", "dueDate": "2024-05-01", "category": "meeting"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item map[string]interface{}
	decode(t, rec, &item)
	assert.Equal(t, "pending", item["status"])

	rec = do(app, http.MethodPost, "/api/due-date-items/"+item["id"].(string)+"/complete")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &item)
	assert.Equal(t, "completed", item["status"])
	assert.NotEmpty(t, item["completedDate"])

	rec = do(app, http.MethodGet, "/api/due-date-items?status=completed")
	var items []map[string]interface{}
	decode(t, rec, &items)
	assert.Len(t, items, 1)
}

func Test_scheduleApi_occurrences(t *testing.T) {
	resetDB(t)
	st := createStudent(t, "Ann")

	rec := do(app, http.MethodPost, "/api/scheduled-sessions", []byte(
		`{"studentIds": ["`+st.ID+`"], "startTime": "10:00", "endTime": "10:30", "recurrencePattern": "weekly",
		  "dayOfWeek": 1, "startDate": "2024-03-01", "excludedDates": ["2024-03-11"], "school": "Lincoln"}`,
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(app, http.MethodPost, "/api/scheduled-sessions", []byte(
		`{"studentIds": [], "startTime": "10:00", "endTime": "10:30", "recurrencePattern": "none", "startDate": "2024-03-01"}`,
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(app, http.MethodGet, "/api/scheduled-sessions/occurrences")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(app, http.MethodGet, "/api/scheduled-sessions/occurrences?startDate=2024-03-01&endDate=2024-03-31")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var occs []struct {
		Date string `json:"date"`
	}
	decode(t, rec, &occs)
	var dates []string
	for _, o := range occs {
		dates = append(dates, o.Date)
	}
	assert.Equal(t, []string{"2024-03-04", "2024-03-18", "2024-03-25"}, dates)

	rec = do(app, http.MethodGet, "/api/scheduled-sessions?studentId="+st.ID)
	var schedules []map[string]interface{}
	decode(t, rec, &schedules)
	assert.Len(t, schedules, 1)
}

func Test_communicationApi_foreignKeys(t *testing.T) {
	resetDB(t)

	rec := do(app, http.MethodPost, "/api/communications", []byte(
		`{"studentId": "unknown", "contactType": "parent", "contactName": "Mrs. Doe", "method": "phone"}`,
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(app, http.MethodPost, "/api/communications", []byte(
		`{"contactType": "parent", "contactName": "Mrs. Doe", "method": "phone", "subject": "Homework"}`,
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(app, http.MethodGet, "/api/communications?search=homework")
	var comms []map[string]interface{}
	decode(t, rec, &comms)
	assert.Len(t, comms, 1)
}

func TestDocs(t *testing.T) {
	rec := do(app, http.MethodGet, "/api-docs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")

	rec = do(app, http.MethodGet, "/api-docs.json")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		OpenAPI    string                                       `json:"openapi"`
		Paths      map[string]map[string]map[string]interface{} `json:"paths"`
		Components map[string]interface{}                       `json:"components"`
	}
	decode(t, rec, &doc)
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	require.Contains(t, doc.Paths, "/api/students/{id}")
	assert.Contains(t, doc.Paths["/api/students/{id}"], "put")
	assert.Contains(t, doc.Paths, "/api/progress-reports/schedule-auto")
	assert.Contains(t, doc.Paths["/api/auth/me"]["get"], "security")
	assert.NotContains(t, doc.Paths["/api/auth/login"]["post"], "security")
	assert.Contains(t, doc.Components, "securitySchemes")
}

func Test_resourceApi_crud(t *testing.T) {
	resetDB(t)
	st := createStudent(t, "Ann")

	tests := []struct {
		path    string
		valid   string
		invalid string
		update  string
		changed string // field set by update
		kept    string // field omitted by update
	}{
		{
			path:    "/api/teachers",
			valid:   `{"name": "Ms Frizzle", "grade": "3", "school": "Lincoln", "emailAddress": "frizzle@example.com"}`,
			invalid: `{"name": "Ms Frizzle", "emailAddress": "not-an-email"}`,
			update:  `{"grade": "4"}`,
			changed: "grade", kept: "emailAddress",
		},
		{
			path:    "/api/case-managers",
			valid:   `{"name": "Dana", "role": "SLP", "school": "Lincoln"}`,
			invalid: `{"name": "Dana", "role": "Wizard"}`,
			update:  `{"role": "OT"}`,
			changed: "role", kept: "school",
		},
		{
			path:    "/api/lunches",
			valid:   `{"school": "Lincoln", "startTime": "11:30", "endTime": "12:00", "grade": "3"}`,
			invalid: `{"school": "Lincoln", "startTime": "12:00", "endTime": "11:30"}`,
			update:  `{"endTime": "12:15"}`,
			changed: "endTime", kept: "grade",
		},
		{
			path:    "/api/evaluations",
			valid:   `{"studentId": "` + st.ID + `", "evaluationType": "initial", "dueDate": "2024-05-01", "notes": "hearing"}`,
			invalid: `{"studentId": "` + st.ID + `", "evaluationType": "yearly", "dueDate": "2024-05-01"}`,
			update:  `{"dueDate": "2024-06-01"}`,
			changed: "dueDate", kept: "notes",
		},
		{
			path:    "/api/timesheet-notes",
			valid:   `{"content": "IEP meeting prep", "dateFor": "2024-03-04", "school": "Lincoln"}`,
			invalid: `{"content": "", "dateFor": "2024-03-04"}`,
			update:  `{"content": "IEP meeting"}`,
			changed: "content", kept: "school",
		},
	}
	for _, tt := range tests {
		t.Run(strings.TrimPrefix(tt.path, "/api/"), func(t *testing.T) {
			rec := do(app, http.MethodPost, tt.path, []byte(tt.invalid))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			rec = do(app, http.MethodPost, tt.path, []byte(tt.valid))
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var created map[string]interface{}
			decode(t, rec, &created)
			id, _ := created["id"].(string)
			require.NotEmpty(t, id)

			rec = do(app, http.MethodGet, tt.path+"/"+id)
			require.Equal(t, http.StatusOK, rec.Code)

			rec = do(app, http.MethodPut, tt.path+"/"+id, []byte(tt.update))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var updated, patch map[string]interface{}
			decode(t, rec, &updated)
			require.NoError(t, json.Unmarshal([]byte(tt.update), &patch))
			assert.Equal(t, patch[tt.changed], updated[tt.changed])
			assert.Equal(t, created[tt.kept], updated[tt.kept])
			assert.NotEmpty(t, updated[tt.kept])

			rec = do(app, http.MethodGet, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			var items []map[string]interface{}
			decode(t, rec, &items)
			assert.Len(t, items, 1)

			rec = do(app, http.MethodDelete, tt.path+"/"+id)
			assert.Equal(t, http.StatusNoContent, rec.Code)
			rec = do(app, http.MethodGet, tt.path+"/"+id)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}
