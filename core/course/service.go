package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrLectureNotFound = errors.New("lecture not found")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrNotEnrolled     = errors.New("not enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Keyword does a case-insensitive match on Course.Name. It
		// returns the page plus the total number of matches before pagination.
		FilterCourses(ctx context.Context, filter QueryFilter, sort filtering.Sort, page filtering.Pagination) ([]Course, int, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		GetEnrollment(ctx context.Context, courseID, userID string) (Enrollment, error)
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse, creatorID string) (Course, error) {
	now := time.Now().UTC()
	c := Course{
		Name:           nc.Name,
		Description:    nc.Description,
		Level:          nc.Level,
		Categories:     nc.Categories,
		Tags:           nc.Tags,
		Thumbnail:      nc.Thumbnail,
		Price:          nc.Price,
		EstimatedPrice: nc.EstimatedPrice,
		Benefits:       nc.Benefits,
		Prerequisites:  nc.Prerequisites,
		CreatorID:      creatorID,
		Sections:       []Section{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

// Filter returns one page of a course list plus its page meta.
func (svc *Service) Filter(ctx context.Context, filter QueryFilter, sort filtering.Sort, page filtering.Pagination) ([]Course, filtering.PageMeta, error) {
	filter.Clean()
	sort.Clean()
	page.Clean()

	courses, total, err := svc.repo.FilterCourses(ctx, filter, sort, page)
	if err != nil {
		return nil, filtering.PageMeta{}, err
	}
	return courses, filtering.NewPageMeta(page, total), nil
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}

	c.Name = uc.Name
	c.Description = uc.Description
	c.Level = uc.Level
	if uc.Categories != nil {
		c.Categories = uc.Categories
	}
	if uc.Tags != nil {
		c.Tags = uc.Tags
	}
	if uc.Thumbnail != "" {
		c.Thumbnail = uc.Thumbnail
	}
	if uc.Price != nil {
		c.Price = *uc.Price
	}
	if uc.EstimatedPrice != nil {
		c.EstimatedPrice = *uc.EstimatedPrice
	}
	if uc.Benefits != nil {
		c.Benefits = uc.Benefits
	}
	if uc.Prerequisites != nil {
		c.Prerequisites = uc.Prerequisites
	}
	if uc.Published != nil {
		c.Published = *uc.Published
		if *uc.Published && !c.PublishedAt.Valid {
			c.PublishedAt.SetValid(time.Now().UTC())
		}
	}
	c.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

// Authoring

func (svc *Service) AddSection(ctx context.Context, courseID string, ns NewSection) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}

	c.Sections = append(c.Sections, Section{
		ID:       uuid.New().String(),
		Title:    ns.Title,
		Lectures: []Lecture{},
	})
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

// AddLecture appends a lecture to a section, subject to the authoring gate:
// every existing lecture of the section must already be complete.
func (svc *Service) AddLecture(ctx context.Context, courseID, sectionID string, nl NewLecture) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	s := findSection(&c, sectionID)
	if s == nil {
		return Course{}, ErrSectionNotFound
	}
	if err := checkCompleteForAppend(*s); err != nil {
		return Course{}, err
	}

	s.Lectures = append(s.Lectures, Lecture{
		ID:              uuid.New().String(),
		Title:           nl.Title,
		Description:     nl.Description,
		DurationSeconds: nl.DurationSeconds,
		Video:           nl.Video,
	})
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) UpdateLecture(ctx context.Context, courseID, sectionID, lectureID string, ul UpdateLecture) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	s := findSection(&c, sectionID)
	if s == nil {
		return Course{}, ErrSectionNotFound
	}
	l := findLecture(s, lectureID)
	if l == nil {
		return Course{}, ErrLectureNotFound
	}

	if ul.Title != "" {
		l.Title = ul.Title
	}
	if ul.Description != "" {
		l.Description = ul.Description
	}
	if ul.DurationSeconds != nil {
		// a manual edit overrides the probed duration for good
		l.DurationSeconds = *ul.DurationSeconds
		l.DurationManual = true
	}
	if ul.Video != nil {
		l.Video = *ul.Video
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) ReorderSections(ctx context.Context, courseID string, orderedIDs []string) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if err := reorderSections(&c, orderedIDs); err != nil {
		return Course{}, err
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) ReorderLectures(ctx context.Context, courseID, sectionID string, orderedIDs []string) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	s := findSection(&c, sectionID)
	if s == nil {
		return Course{}, ErrSectionNotFound
	}
	if err := reorderLectures(s, orderedIDs); err != nil {
		return Course{}, err
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

// Enrollment & playback

func (svc *Service) Enroll(ctx context.Context, courseID, userID string) (Enrollment, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if _, err = svc.repo.GetEnrollment(ctx, courseID, userID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if errors.Cause(err) != ErrNotEnrolled {
		return Enrollment{}, err
	}

	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		CourseID:            courseID,
		UserID:              userID,
		CompletedLectureIDs: []string{},
		EnrolledAt:          time.Now().UTC(),
	})
	if err != nil {
		return Enrollment{}, err
	}

	c.Purchased++
	if _, err = svc.repo.UpdateCourse(ctx, c); err != nil {
		return Enrollment{}, err
	}
	return enr, nil
}

// Content returns the course for a viewer, with video refs withheld on
// lectures the viewer cannot access yet. Admins (bypass) and the course
// creator see everything.
func (svc *Service) Content(ctx context.Context, courseID, userID string, bypass bool) (Course, Enrollment, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, Enrollment{}, err
	}
	bypass = bypass || c.CreatorID == userID

	enr, err := svc.repo.GetEnrollment(ctx, courseID, userID)
	if err != nil {
		if errors.Cause(err) != ErrNotEnrolled || !bypass {
			return Course{}, Enrollment{}, err
		}
		enr = Enrollment{CourseID: courseID, UserID: userID, CompletedLectureIDs: []string{}}
	}

	completed := NewCompletedSet(enr.CompletedLectureIDs...)
	return RedactLocked(c, completed, bypass), enr, nil
}

// CompleteLecture records a lecture as completed. Marking an inaccessible
// lecture is a silent no-op: the enrollment is returned unchanged and no
// error is surfaced, mirroring how clicks on locked lectures are ignored.
func (svc *Service) CompleteLecture(ctx context.Context, courseID, userID, lectureID string, bypass bool) (Enrollment, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	bypass = bypass || c.CreatorID == userID
	enr, err := svc.repo.GetEnrollment(ctx, courseID, userID)
	if err != nil {
		return Enrollment{}, err
	}

	flat := Flatten(c.Sections)
	completed := NewCompletedSet(enr.CompletedLectureIDs...)
	if !IsAccessible(lectureID, flat, completed, bypass) {
		return enr, nil
	}
	if completed.Contains(lectureID) {
		return enr, nil
	}

	enr.CompletedLectureIDs = append(enr.CompletedLectureIDs, lectureID)
	return svc.repo.UpdateEnrollment(ctx, enr)
}

// Progress returns the completion percentage over the course's current
// flattened lecture list plus the raw completed ids.
func (svc *Service) Progress(ctx context.Context, courseID, userID string) (int, []string, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return 0, nil, err
	}
	enr, err := svc.repo.GetEnrollment(ctx, courseID, userID)
	if err != nil {
		return 0, nil, err
	}

	completed := NewCompletedSet(enr.CompletedLectureIDs...)
	return ProgressPercent(completed, Flatten(c.Sections)), enr.CompletedLectureIDs, nil
}
