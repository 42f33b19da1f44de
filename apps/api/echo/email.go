package echoapi

import (
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/communication"
)

type emailApi struct {
	deps ServerDeps
}

func registerEmailAPI(g *routeGroup, strictLimiter echo.MiddlewareFunc, deps ServerDeps) {
	api := emailApi{deps: deps}
	g.POST("/email", api.send, "Email", "Send an email, optionally logged as communications", strictLimiter)
}

type (
	SendEmailRequest struct {
		To               []string `json:"to" validate:"required,min=1,dive,email"`
		Cc               []string `json:"cc" validate:"dive,email"`
		Subject          string   `json:"subject" validate:"required,max=500"`
		Body             string   `json:"body" validate:"required"`
		StudentID        string   `json:"studentId"`
		LogCommunication bool     `json:"logCommunication"`
		ContactType      string   `json:"contactType" validate:"omitempty,oneof=teacher parent case-manager other"`
	}

	SendEmailResponse struct {
		Success        bool                          `json:"success"`
		Communications []communication.Communication `json:"communications,omitempty"`
	}
)

func (api *emailApi) send(ctx echo.Context) error {
	var data SendEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendEmailRequest")
	}
	data.To = core.CleanStrings(data.To)
	data.Cc = core.CleanStrings(data.Cc)
	data.Subject = core.CleanString(data.Subject)
	data.StudentID = core.CleanString(data.StudentID)
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	msg := &core.EmailMessage{Subject: data.Subject, BodyStr: data.Body}
	for _, addr := range data.To {
		msg.To = append(msg.To, mail.Address{Address: addr})
	}
	for _, addr := range data.Cc {
		msg.Cc = append(msg.Cc, mail.Address{Address: addr})
	}

	// log first: a missing student must not leave an email sent but unrecorded
	var resp SendEmailResponse
	if data.LogCommunication {
		comms, err := api.deps.CommunicationSvc.CreateMany(reqCtx(ctx), api.communications(data)...)
		if err != nil {
			return errors.Wrap(err, "logging communications")
		}
		resp.Communications = comms
	}

	api.deps.MailSvc.SendMessages(msg)
	resp.Success = true
	return ctx.JSON(http.StatusOK, resp)
}

// communications returns one Communication per recipient.
func (api *emailApi) communications(data SendEmailRequest) []communication.Communication {
	contactType := data.ContactType
	if contactType == "" {
		contactType = communication.ContactOther
	}
	var studentID null.String
	if data.StudentID != "" {
		studentID = null.StringFrom(data.StudentID)
	}

	recipients := append(append([]string{}, data.To...), data.Cc...)
	comms := make([]communication.Communication, 0, len(recipients))
	for _, addr := range recipients {
		comms = append(comms, communication.Communication{
			StudentID:    studentID,
			ContactType:  contactType,
			ContactName:  addr,
			ContactEmail: addr,
			Method:       communication.MethodEmail,
			Date:         core.Today(),
			Subject:      data.Subject,
			Body:         data.Body,
			RelatedTo:    "email",
		})
	}
	return comms
}
