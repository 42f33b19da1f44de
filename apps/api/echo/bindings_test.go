package echoapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/progressreport"
	"github.com/trezcool/caseload/core/session"
)

func TestColumnsOf(t *testing.T) {
	cols := columnsOf[progressreport.ProgressReport]()
	assert.Equal(t, "due_date", cols["dueDate"])
	assert.Equal(t, "student_id", cols["studentId"])
	assert.NotContains(t, cols, "due_date")

	cols = columnsOf[session.Session]()
	assert.Equal(t, "is_direct_services", cols["isDirectServices"])
	assert.Equal(t, "start_time", cols["startTime"])
}

func TestOrdering_Bind(t *testing.T) {
	tests := []struct {
		query string
		want  []core.DBOrdering
	}{
		{query: "", want: nil},
		{query: "dueDate", want: []core.DBOrdering{{Field: "due_date", Ascending: true}}},
		{
			query: "-dueDate, studentId",
			want:  []core.DBOrdering{{Field: "due_date"}, {Field: "student_id", Ascending: true}},
		},
		{query: "due_date,-bogus", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?ordering="+url.QueryEscape(tt.query), nil)
			ctx := echo.New().NewContext(req, httptest.NewRecorder())

			var ord Ordering
			ord.Bind(ctx, columnsOf[progressreport.ProgressReport]())
			assert.Equal(t, tt.want, ord.Orderings)
		})
	}
}

func TestCrud_plural(t *testing.T) {
	assert.Equal(t, "case managers", crud[any, any]{name: "case manager"}.plural())
}
