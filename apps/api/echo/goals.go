package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/goal"
)

type goalApi struct {
	svc *goal.Service
}

func registerGoalAPI(g *routeGroup, deps ServerDeps) {
	api := goalApi{svc: deps.GoalSvc}

	g.GET("/goals/hierarchy", api.hierarchy, "Goals", "Goals of a student organized by parent goal")
	registerCRUD(g, "/goals", crud[goal.Goal, goal.QueryFilter]{
		name:    "goal",
		tag:     "Goals",
		query:   api.svc.Query,
		get:     api.svc.Get,
		create:  api.svc.Create,
		update:  api.svc.Update,
		destroy: api.svc.Delete,
	})
}

func (api *goalApi) hierarchy(ctx echo.Context) error {
	studentID := core.CleanString(ctx.QueryParam("studentId"))
	if studentID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "studentId", Error: "studentId is a required field"})
	}
	nodes, err := api.svc.Hierarchy(reqCtx(ctx), studentID)
	if err != nil {
		return errors.Wrap(err, "building goal hierarchy")
	}
	if nodes == nil {
		nodes = []*goal.Node{}
	}
	return ctx.JSON(http.StatusOK, nodes)
}
