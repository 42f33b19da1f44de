package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/user"
	"github.com/trezcool/caseload/storage/database"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errTooManyRequests    = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")

	msgValidationFailed = "validation failed"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Details []core.FieldError `json:"details,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, resp := errorStatus(err, translator)

		if code == http.StatusInternalServerError {
			var person core.Person
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				person = core.Person{ID: claims.Subject, Username: claims.Username, Email: claims.Email}
			}
			logger.Error(resp.Error, errors.Wrap(err, resp.Error), person, map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Path(),
			})

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				logger.Error("sending error response", err)
			}
		}
	}
}

func errorStatus(err error, translator ut.Translator) (int, errorResponse) {
	cause := errors.Cause(err)
	if cause == user.ErrInvalidCredentials {
		cause = errInvalidCredentials
	}

	switch origErr := cause.(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing || origErr.Message == middleware.ErrJWTMissing.Message {
			return http.StatusUnauthorized, errorResponse{Error: fmt.Sprint(origErr.Message)}
		}
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, errorResponse{Error: fmt.Sprint(origErr.Message)}
	case validator.ValidationErrors:
		return http.StatusBadRequest, errorResponse{
			Error:   msgValidationFailed,
			Details: core.FieldErrors(origErr, translator),
		}
	case *core.ValidationError:
		if len(origErr.Fields) == 0 {
			return http.StatusBadRequest, errorResponse{Error: origErr.Error()}
		}
		return http.StatusBadRequest, errorResponse{Error: msgValidationFailed, Details: origErr.Fields}
	case *core.NotFoundError:
		return http.StatusNotFound, errorResponse{Error: origErr.Error()}
	case *core.ExternalError:
		return origErr.Status, errorResponse{Error: origErr.Message}
	}

	if database.IsForeignKeyViolation(err) {
		return http.StatusBadRequest, errorResponse{Error: "referenced record does not exist"}
	}
	// any other error is a server error
	return http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)}
}
