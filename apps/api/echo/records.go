package echoapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/duedate"
	"github.com/trezcool/caseload/core/evaluation"
	"github.com/trezcool/caseload/core/progressreport"
	"github.com/trezcool/caseload/core/soapnote"
)

func registerEvaluationAPI(g *routeGroup, deps ServerDeps) {
	svc := deps.EvaluationSvc
	registerCRUD(g, "/evaluations", crud[evaluation.Evaluation, evaluation.QueryFilter]{
		name:    "evaluation",
		tag:     "Evaluations",
		query:   svc.Query,
		get:     svc.Get,
		create:  svc.Create,
		update:  svc.Update,
		destroy: svc.Delete,
	})
}

type soapNoteApi struct {
	svc *soapnote.Service
}

func registerSOAPNoteAPI(g *routeGroup, deps ServerDeps) {
	api := soapNoteApi{svc: deps.SOAPNoteSvc}

	g.POST("/soap-notes/generate", api.generate, "SOAP notes", "Draft a SOAP note from a session")
	registerCRUD(g, "/soap-notes", crud[soapnote.SOAPNote, soapnote.QueryFilter]{
		name:    "SOAP note",
		tag:     "SOAP notes",
		query:   api.svc.Query,
		get:     api.svc.Get,
		create:  api.svc.Create,
		update:  api.svc.Update,
		destroy: api.svc.Delete,
	})
}

type GenerateSOAPNoteRequest struct {
	SessionID string `json:"sessionId"`
}

func (api *soapNoteApi) generate(ctx echo.Context) error {
	var data GenerateSOAPNoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateSOAPNoteRequest")
	}
	if data.SessionID = core.CleanString(data.SessionID); data.SessionID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "sessionId", Error: "sessionId is a required field"})
	}
	draft, err := api.svc.GenerateForSession(reqCtx(ctx), data.SessionID)
	if err != nil {
		return errors.Wrap(err, "generating SOAP note")
	}
	return ctx.JSON(http.StatusOK, draft)
}

type progressReportApi struct {
	svc *progressreport.Service
}

func registerProgressReportAPI(g *routeGroup, deps ServerDeps) {
	api := progressReportApi{svc: deps.ProgressReportSvc}

	g.GET("/progress-reports/upcoming", api.upcoming, "Progress reports", "Reports due within ?days=N days")
	g.POST("/progress-reports/schedule-auto", api.scheduleAuto, "Progress reports", "Schedule the reports of a school year")
	g.POST("/progress-reports/:id/complete", api.complete, "Progress reports", "Mark a report completed")
	registerCRUD(g, "/progress-reports", crud[progressreport.ProgressReport, progressreport.QueryFilter]{
		name:    "progress report",
		tag:     "Progress reports",
		query:   api.svc.Query,
		get:     api.svc.Get,
		create:  api.svc.Create,
		update:  api.svc.Update,
		destroy: api.svc.Delete,
	})
}

func (api *progressReportApi) upcoming(ctx echo.Context) error {
	days, err := intQueryParam(ctx, "days", 30, 1, 366)
	if err != nil {
		return err
	}
	reports, err := api.svc.Upcoming(reqCtx(ctx), days)
	if err != nil {
		return errors.Wrap(err, "querying upcoming progress reports")
	}
	if reports == nil {
		reports = []progressreport.ProgressReport{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *progressReportApi) scheduleAuto(ctx echo.Context) error {
	var data progressreport.ScheduleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScheduleRequest")
	}
	result, err := api.svc.ScheduleAuto(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "scheduling progress reports")
	}
	return ctx.JSON(http.StatusCreated, result)
}

func (api *progressReportApi) complete(ctx echo.Context) error {
	r, err := api.svc.Get(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting progress report")
	}
	if r, err = api.svc.Complete(reqCtx(ctx), r); err != nil {
		return errors.Wrap(err, "completing progress report")
	}
	return ctx.JSON(http.StatusOK, r)
}

type dueDateApi struct {
	svc *duedate.Service
}

func registerDueDateAPI(g *routeGroup, deps ServerDeps) {
	api := dueDateApi{svc: deps.DueDateSvc}

	g.POST("/due-date-items/:id/complete", api.complete, "Due dates", "Mark an item completed")
	registerCRUD(g, "/due-date-items", crud[duedate.Item, duedate.QueryFilter]{
		name:    "due date item",
		tag:     "Due dates",
		query:   api.svc.Query,
		get:     api.svc.Get,
		create:  api.svc.Create,
		update:  api.svc.Update,
		destroy: api.svc.Delete,
	})
}

func (api *dueDateApi) complete(ctx echo.Context) error {
	it, err := api.svc.Get(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting due date item")
	}
	if it, err = api.svc.Complete(reqCtx(ctx), it); err != nil {
		return errors.Wrap(err, "completing due date item")
	}
	return ctx.JSON(http.StatusOK, it)
}

// intQueryParam parses the `name` query param within [min, max], defaulting to dflt when absent.
func intQueryParam(ctx echo.Context, name string, dflt, min, max int) (int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return dflt, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < min || n > max {
		return 0, core.NewValidationError(err, core.FieldError{
			Field: name,
			Error: fmt.Sprintf("%s must be an integer between %d and %d", name, min, max),
		})
	}
	return n, nil
}
