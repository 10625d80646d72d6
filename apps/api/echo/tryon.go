package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core"
)

type tryOnApi struct {
	svc core.TryOnService
}

func registerTryOnAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc core.TryOnService) {
	api := tryOnApi{svc: svc}

	vg := g.Group("/vto", jwt)
	vg.POST("/consult-styles", api.consultStyles)
	vg.POST("/generate-makeup", api.generateMakeup)
}

func (api *tryOnApi) consultStyles(ctx echo.Context) error {
	userRequest := ctx.FormValue("user_request")
	if core.CleanString(userRequest) == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "user_request", Error: "this field is required"})
	}

	styles, err := api.svc.ConsultStyles(ctx.Request().Context(), userRequest)
	if err != nil {
		return err
	}
	if styles == nil {
		styles = []core.StyleOption{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"styles": styles})
}

func (api *tryOnApi) generateMakeup(ctx echo.Context) error {
	file, err := ctx.FormFile("face_image")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "face_image", Error: "a face image is required"})
	}
	src, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening face image")
	}
	defer src.Close()

	overrides := core.StyleOverrides{
		StyleID:   ctx.FormValue("style_id"),
		Lipstick:  ctx.FormValue("lipstick"),
		Eyeshadow: ctx.FormValue("eyeshadow"),
		Blush:     ctx.FormValue("blush"),
		Eyeliner:  ctx.FormValue("eyeliner"),
	}

	result, err := api.svc.GenerateMakeup(ctx.Request().Context(), src, file.Filename, overrides)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"result": result})
}
