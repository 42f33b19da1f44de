package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/session"
	"github.com/trezcool/caseload/core/student"
	"github.com/trezcool/caseload/services/export"
)

type sessionApi struct {
	svc      *session.Service
	students *student.Service
	goals    *goal.Service
}

func registerSessionAPI(g *routeGroup, deps ServerDeps) {
	api := sessionApi{svc: deps.SessionSvc, students: deps.StudentSvc, goals: deps.GoalSvc}

	g.GET("/sessions/export", api.export, "Sessions", "Export sessions as an Excel workbook")
	registerCRUD(g, "/sessions", crud[session.Session, session.QueryFilter]{
		name:    "session",
		tag:     "Sessions",
		newItem: session.NewSession,
		query:   api.svc.Query,
		get:     api.svc.Get,
		create:  api.svc.Create,
		update:  api.svc.Update,
		destroy: api.svc.Delete,
	})
}

// export writes the sessions matching the list filters as XLSX, with their students and goals resolved.
func (api *sessionApi) export(ctx echo.Context) error {
	var filter session.QueryFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return errors.Wrap(err, "binding query params")
	}
	rctx := reqCtx(ctx)

	sessions, err := api.svc.Query(rctx, filter, core.DBOrdering{Field: "date", Ascending: true})
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}

	seen := make(map[string]bool)
	var ids []string
	for _, s := range sessions {
		if !seen[s.StudentID] {
			seen[s.StudentID] = true
			ids = append(ids, s.StudentID)
		}
	}
	var (
		students []student.Student
		goals    []goal.Goal
	)
	if len(ids) > 0 {
		if students, err = api.students.Query(rctx, student.QueryFilter{IDs: ids, Archived: "all"}); err != nil {
			return errors.Wrap(err, "querying students")
		}
		if goals, err = api.goals.Query(rctx, goal.QueryFilter{StudentIDs: ids}); err != nil {
			return errors.Wrap(err, "querying goals")
		}
	}

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, export.XLSXMediaType)
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "sessions-"+core.Today()+".xlsx"))
	resp.WriteHeader(http.StatusOK)
	if err := export.SessionsXLSX(resp, sessions, students, goals); err != nil {
		return errors.Wrap(err, "writing sessions workbook")
	}
	return nil
}
