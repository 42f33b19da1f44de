package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core/communication"
	"github.com/trezcool/caseload/core/schedule"
	"github.com/trezcool/caseload/core/timesheet"
)

func registerCommunicationAPI(g *routeGroup, deps ServerDeps) {
	svc := deps.CommunicationSvc
	registerCRUD(g, "/communications", crud[communication.Communication, communication.QueryFilter]{
		name:    "communication",
		tag:     "Communications",
		query:   svc.Query,
		get:     svc.Get,
		create:  svc.Create,
		update:  svc.Update,
		destroy: svc.Delete,
	})
}

type scheduleApi struct {
	svc *schedule.Service
}

func registerScheduleAPI(g *routeGroup, deps ServerDeps) {
	api := scheduleApi{svc: deps.ScheduleSvc}

	g.GET("/scheduled-sessions/occurrences", api.occurrences, "Scheduled sessions", "Expand schedules over a date range")
	registerCRUD(g, "/scheduled-sessions", crud[schedule.ScheduledSession, schedule.QueryFilter]{
		name:    "scheduled session",
		tag:     "Scheduled sessions",
		newItem: schedule.NewScheduledSession,
		query:   api.svc.Query,
		get:     api.svc.Get,
		create:  api.svc.Create,
		update:  api.svc.Update,
		destroy: api.svc.Delete,
	})
}

func (api *scheduleApi) occurrences(ctx echo.Context) error {
	var filter schedule.OccurrenceFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return errors.Wrap(err, "binding query params")
	}
	occs, err := api.svc.Occurrences(reqCtx(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "expanding scheduled sessions")
	}
	if occs == nil {
		occs = []schedule.Occurrence{}
	}
	return ctx.JSON(http.StatusOK, occs)
}

func registerTimesheetAPI(g *routeGroup, deps ServerDeps) {
	svc := deps.TimesheetSvc
	registerCRUD(g, "/timesheet-notes", crud[timesheet.Note, timesheet.QueryFilter]{
		name:    "timesheet note",
		tag:     "Timesheet notes",
		query:   svc.Query,
		get:     svc.Get,
		create:  svc.Create,
		update:  svc.Update,
		destroy: svc.Delete,
	})
}
