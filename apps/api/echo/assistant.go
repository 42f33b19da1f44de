package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/assistant"
)

type assistantApi struct {
	deps ServerDeps
	svc  *assistant.Service
}

func registerAssistantAPI(g *routeGroup, strictLimiter echo.MiddlewareFunc, deps ServerDeps) {
	api := assistantApi{deps: deps, svc: deps.AssistantSvc}

	g.POST("/document-parser/parse", api.parseDocument, "AI", "Extract student information from an IEP document", strictLimiter)

	ai := g.group("/ai", strictLimiter)
	ai.POST("/session-plan", api.sessionPlan, "AI", "Draft a session plan")
	ai.POST("/soap-note", api.soapNote, "AI", "Draft a SOAP note")
	ai.POST("/iep-update", api.iepUpdate, "AI", "Draft IEP goal updates")
}

func (api *assistantApi) parseDocument(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "no file uploaded"})
	}
	if _, ok := assistant.DocumentMIMEType(fh.Filename); !ok {
		return assistant.ErrUnsupportedDocument
	}
	if fh.Size > assistant.MaxDocumentSize {
		return assistant.ErrDocumentTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, assistant.MaxDocumentSize+1))
	if err != nil {
		return errors.Wrap(err, "reading uploaded file")
	}

	doc, err := api.svc.ParseDocument(reqCtx(ctx), fh.Filename, data)
	if err != nil {
		return errors.Wrap(err, "parsing document")
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *assistantApi) sessionPlan(ctx echo.Context) error {
	var data assistant.SessionPlanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionPlanRequest")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}
	resp, err := api.svc.SessionPlan(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "drafting session plan")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *assistantApi) soapNote(ctx echo.Context) error {
	var data assistant.SOAPNoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SOAPNoteRequest")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}
	resp, err := api.svc.SOAPNote(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "drafting SOAP note")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *assistantApi) iepUpdate(ctx echo.Context) error {
	var data assistant.IEPUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IEPUpdateRequest")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}
	resp, err := api.svc.IEPUpdate(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "drafting IEP update")
	}
	return ctx.JSON(http.StatusOK, resp)
}
