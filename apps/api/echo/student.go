package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core/lifecycle"
	"github.com/trezcool/libwork/core/student"
)

type studentApi struct {
	svc *lifecycle.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *lifecycle.Service) {
	api := studentApi{svc: svc}

	og := g.Group("/students", jwt, ownerMiddleware())
	og.GET("", api.query)
	og.POST("", api.create)
	og.POST("/:id/transitions", api.transition)

	g.GET("/me", api.overview, jwt, studentMiddleware())
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.List(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	out, err := api.svc.Enroll(ctx.Request().Context(), sess, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, out)
}

func (api *studentApi) transition(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var req lifecycle.TransitionRequest
	if err = ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to TransitionRequest")
	}
	out, err := api.svc.Apply(ctx.Request().Context(), sess, ctx.Param("id"), req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *studentApi) overview(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	ov, err := api.svc.Overview(ctx.Request().Context(), sess)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ov)
}
