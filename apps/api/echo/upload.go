package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core"
	"github.com/GraduateProjectPTIT/lms-backend/core/media"
)

type uploadApi struct {
	mgr *media.Manager
}

func registerUploadAPI(g *echo.Group, jwt echo.MiddlewareFunc, mgr *media.Manager) {
	api := uploadApi{mgr: mgr}

	ug := g.Group("/upload/video", jwt, teacherMiddleware())
	ug.POST("", api.init)
	ug.PUT("/:id/:part", api.putChunk)
	ug.POST("/:id/complete", api.complete)
	ug.PUT("/:id/duration", api.setDuration)
	ug.DELETE("/:id", api.cancel)
	ug.GET("/:id", api.status)
}

type initUploadRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size" validate:"required,gt=0"`
}

func (r *initUploadRequest) Validate() error {
	r.Filename = core.CleanString(r.Filename)
	return core.Validate.Struct(r)
}

type setDurationRequest struct {
	DurationSeconds int `json:"durationSeconds" validate:"required,gt=0"`
}

func (api *uploadApi) init(ctx echo.Context) error {
	var data initUploadRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to initUploadRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, err := api.mgr.Init(ctx.Request().Context(), data.Filename, data.ContentType, data.Size)
	if err != nil {
		if errors.Cause(err) == media.ErrEmptyUpload {
			return core.NewValidationError(nil, core.FieldError{Field: "size", Error: err.Error()})
		}
		return errors.Wrap(err, "initiating upload")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"session": s})
}

func (api *uploadApi) putChunk(ctx echo.Context) error {
	part, err := strconv.Atoi(ctx.Param("part"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "part", Error: "part must be an integer"})
	}

	body := ctx.Request().Body
	defer body.Close()

	s, err := api.mgr.PutChunk(ctx.Request().Context(), ctx.Param("id"), part, body)
	if err != nil {
		if errors.Cause(err) == media.ErrBadPart {
			return core.NewValidationError(nil, core.FieldError{Field: "part", Error: err.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"session": s})
}

func (api *uploadApi) complete(ctx echo.Context) error {
	s, err := api.mgr.Complete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if cause := errors.Cause(err); cause == media.ErrNotComplete || cause == media.ErrBadState {
			return echo.NewHTTPError(http.StatusConflict, cause.Error())
		}
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"session": s})
}

func (api *uploadApi) setDuration(ctx echo.Context) error {
	var data setDurationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to setDurationRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	s, err := api.mgr.SetDuration(ctx.Request().Context(), ctx.Param("id"), data.DurationSeconds)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"session": s})
}

func (api *uploadApi) cancel(ctx echo.Context) error {
	s, err := api.mgr.Cancel(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == media.ErrBadState {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"session": s})
}

func (api *uploadApi) status(ctx echo.Context) error {
	s, err := api.mgr.Status(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"session": s})
}
