package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

func fieldErrors(flds []core.FieldError) map[string]string {
	errs := make(map[string]string, len(flds))
	for _, fErr := range flds {
		errs[fErr.Field] = fErr.Error
	}
	return errs
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			vErr := core.TranslateValidationErrors(origErr, translator).(*core.ValidationError)
			code = http.StatusBadRequest
			message = fieldErrors(vErr.Fields)
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = fieldErrors(origErr.Fields)
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.AuthorizationError:
			code = http.StatusForbidden
			message = origErr.Error()
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *core.TransportError:
			code = http.StatusServiceUnavailable
			message = core.OperatorMessage(origErr)
			logger.Error(origErr.Error(), err, contextSession(ctx))
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextSession(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// contextSession returns the session of the request, or a zero Session.
func contextSession(ctx echo.Context) auth.Session {
	sess, _ := getContextSession(ctx)
	return sess
}
