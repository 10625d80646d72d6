package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core/course"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}

	cg := g.Group("/course")

	// public catalog
	cg.GET("/get_courses", api.catalog)
	cg.GET("/get_course/:id", api.retrieve)

	// authoring endpoints (teachers and admins)
	tg := cg.Group("", jwt, teacherMiddleware())
	tg.GET("/admin/courses", api.adminList)
	tg.POST("/create_course", api.create)
	tg.PUT("/edit_course/:id", api.update)
	tg.DELETE("/delete_course/:id", api.destroy)
	tg.POST("/:id/sections", api.addSection)
	tg.POST("/:id/sections/:sectionID/lectures", api.addLecture)
	tg.PUT("/:id/sections/:sectionID/lectures/:lectureID", api.updateLecture)
	tg.PUT("/:id/reorder_sections", api.reorderSections)
	tg.PUT("/:id/sections/:sectionID/reorder_lectures", api.reorderLectures)

	// enrolled playback
	eg := cg.Group("/enroll", jwt)
	eg.GET("/:id", api.content)
	eg.POST("/:id/complete/:lectureID", api.completeLecture)
	eg.GET("/:id/progress", api.progress)
}

type reorderRequest struct {
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1"`
}

// ownedCourse fetches the course and checks the caller may author it: admins
// always, teachers only on their own courses.
func (api *courseApi) ownedCourse(ctx echo.Context) (course.Course, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "getting context claims")
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return course.Course{}, err
	}
	if !claims.IsAdmin && c.CreatorID != claims.Subject {
		return course.Course{}, errHttpForbidden
	}
	return c, nil
}

// Handlers

func (api *courseApi) catalog(ctx echo.Context) error {
	page, sort, err := bindListParams(ctx)
	if err != nil {
		return err
	}
	var filter course.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	published := true
	filter.Published = &published
	filter.CreatorID = ""

	courses, meta, err := api.svc.Filter(ctx.Request().Context(), filter, sort, page)
	if err != nil {
		return errors.Wrap(err, "filtering courses")
	}
	for i := range courses {
		// the public catalog never exposes lecture videos
		courses[i] = course.RedactLocked(courses[i], course.NewCompletedSet(), false)
	}
	return ctx.JSON(http.StatusOK, paginated(courses, meta))
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	c = course.RedactLocked(c, course.NewCompletedSet(), false)
	return ctx.JSON(http.StatusOK, echo.Map{"course": c})
}

func (api *courseApi) adminList(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	page, sort, err := bindListParams(ctx)
	if err != nil {
		return err
	}
	var filter course.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	// teachers only manage their own courses
	if !claims.IsAdmin {
		filter.CreatorID = claims.Subject
	}

	courses, meta, err := api.svc.Filter(ctx.Request().Context(), filter, sort, page)
	if err != nil {
		return errors.Wrap(err, "filtering courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"courses": courses, "meta": meta})
}

func (api *courseApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"course": c})
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(c); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"course": c})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	c, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) addSection(ctx echo.Context) error {
	c, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	var data course.NewSection
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	c, err = api.svc.AddSection(ctx.Request().Context(), c.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding section")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"course": c})
}

func (api *courseApi) addLecture(ctx echo.Context) error {
	c, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	var data course.NewLecture
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLecture")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	c, err = api.svc.AddLecture(ctx.Request().Context(), c.ID, ctx.Param("sectionID"), data)
	if err != nil {
		if errors.Cause(err) == course.ErrSectionNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"course": c})
}

func (api *courseApi) updateLecture(ctx echo.Context) error {
	c, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateLecture
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLecture")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	c, err = api.svc.UpdateLecture(ctx.Request().Context(), c.ID, ctx.Param("sectionID"), ctx.Param("lectureID"), data)
	if err != nil {
		if cause := errors.Cause(err); cause == course.ErrSectionNotFound || cause == course.ErrLectureNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"course": c})
}

func (api *courseApi) reorderSections(ctx echo.Context) error {
	c, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	var data reorderRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to reorderRequest")
	}

	c, err = api.svc.ReorderSections(ctx.Request().Context(), c.ID, data.OrderedIDs)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"course": c})
}

func (api *courseApi) reorderLectures(ctx echo.Context) error {
	c, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	var data reorderRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to reorderRequest")
	}

	c, err = api.svc.ReorderLectures(ctx.Request().Context(), c.ID, ctx.Param("sectionID"), data.OrderedIDs)
	if err != nil {
		if errors.Cause(err) == course.ErrSectionNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"course": c})
}

func (api *courseApi) content(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, _, err := api.svc.Content(ctx.Request().Context(), ctx.Param("id"), claims.Subject, claims.IsAdmin)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"course": contentView(c)})
}

func (api *courseApi) completeLecture(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	enr, err := api.svc.CompleteLecture(
		ctx.Request().Context(), ctx.Param("id"), claims.Subject, ctx.Param("lectureID"), claims.IsAdmin)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"completedLectureIds": enr.CompletedLectureIDs})
}

func (api *courseApi) progress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	percent, completed, err := api.svc.Progress(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"progress": percent, "completedLectureIds": completed})
}

// contentView trims a course to the fields the player needs.
type courseContent struct {
	Name       string           `json:"name"`
	Level      string           `json:"level"`
	Categories []string         `json:"categories"`
	Sections   []course.Section `json:"courseData"`
}

func contentView(c course.Course) courseContent {
	return courseContent{
		Name:       c.Name,
		Level:      c.Level,
		Categories: c.Categories,
		Sections:   c.Sections,
	}
}
