package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/order"
)

type orderApi struct {
	svc       *order.Service
	courseSvc *course.Service
}

func registerOrderAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *order.Service, courseSvc *course.Service) {
	api := orderApi{svc: svc, courseSvc: courseSvc}

	og := g.Group("/order", jwt)
	og.POST("/create", api.create)
	og.GET("/my-orders", api.mine)
	og.GET("/list", api.list, teacherMiddleware())
}

func (api *orderApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data order.NewOrder
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	ord, err := api.svc.Place(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"order": ord})
}

func (api *orderApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	page, sort, err := bindListParams(ctx)
	if err != nil {
		return err
	}

	filter := order.QueryFilter{UserID: claims.Subject}
	orders, meta, err := api.svc.Filter(ctx.Request().Context(), filter, sort, page)
	if err != nil {
		return errors.Wrap(err, "filtering orders")
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return ctx.JSON(http.StatusOK, paginated(orders, meta))
}

// list is the tutor/admin dashboard: teachers see orders of their own courses
// only, admins see all.
func (api *orderApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	page, sort, err := bindListParams(ctx)
	if err != nil {
		return err
	}
	var filter order.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if filter.CreatedFrom, err = bindTimeParam(ctx, "createdFrom"); err != nil {
		return err
	}
	if filter.CreatedTo, err = bindTimeParam(ctx, "createdTo"); err != nil {
		return err
	}
	filter.UserID = ""
	if !claims.IsAdmin {
		filter.CreatorID = claims.Subject
	}

	orders, meta, err := api.svc.Filter(ctx.Request().Context(), filter, sort, page)
	if err != nil {
		return errors.Wrap(err, "filtering orders")
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return ctx.JSON(http.StatusOK, paginated(orders, meta))
}
