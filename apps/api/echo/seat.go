package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core/lifecycle"
	"github.com/trezcool/libwork/core/seat"
)

type seatApi struct {
	svc *lifecycle.Service
}

func registerSeatAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *lifecycle.Service) {
	api := seatApi{svc: svc}

	sg := g.Group("/seats", jwt, ownerMiddleware())
	sg.GET("", api.sheet)
	sg.PUT("/:mobile", api.assign)

	bg := g.Group("/bookings", jwt, ownerMiddleware())
	bg.GET("", api.queryBookings)
	bg.POST("", api.book)
}

// Handlers

func (api *seatApi) sheet(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	rows, err := api.svc.SeatSheet(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "building seat sheet")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *seatApi) assign(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data seat.Assignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Assignment")
	}
	alloc, err := api.svc.AssignSeat(ctx.Request().Context(), sess, ctx.Param("mobile"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, alloc)
}

func (api *seatApi) queryBookings(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	bkgs, err := api.svc.Bookings(ctx.Request().Context(), sess, ctx.QueryParam("mobile"))
	if err != nil {
		return errors.Wrap(err, "listing bookings")
	}
	return ctx.JSON(http.StatusOK, bkgs)
}

func (api *seatApi) book(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data seat.NewBooking
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBooking")
	}
	bkg, err := api.svc.Book(ctx.Request().Context(), sess, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, bkg)
}
