package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core/auth"
)

func roleMiddleware(allowed func(auth.Session) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			if allowed(sess) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func ownerMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(auth.Session.IsOwner)
}

func studentMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(auth.Session.IsStudent)
}
