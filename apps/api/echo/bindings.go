package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core"
	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
)

// bindListParams decodes the shared list controls (page, limit, sortBy,
// sortOrder) from the query string.
func bindListParams(ctx echo.Context) (filtering.Pagination, filtering.Sort, error) {
	var page filtering.Pagination
	if err := ctx.Bind(&page); err != nil {
		return filtering.Pagination{}, filtering.Sort{}, errors.Wrap(err, "binding pagination")
	}
	var sort filtering.Sort
	if err := ctx.Bind(&sort); err != nil {
		return filtering.Pagination{}, filtering.Sort{}, errors.Wrap(err, "binding sort")
	}
	page.Clean()
	sort.Clean()
	return page, sort, nil
}

// bindTimeParam decodes an optional RFC 3339 timestamp query parameter.
func bindTimeParam(ctx echo.Context, name string) (*time.Time, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be an RFC 3339 timestamp"})
	}
	return &t, nil
}

// paginatedResult is the envelope of every admin list endpoint.
type paginatedResult struct {
	Data interface{}        `json:"data"`
	Meta filtering.PageMeta `json:"meta"`
}

func paginated(data interface{}, meta filtering.PageMeta) echo.Map {
	return echo.Map{"paginatedResult": paginatedResult{Data: data, Meta: meta}}
}
