package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
)

type courseRepository struct {
	db  *courseTable
	enr *enrollmentTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course, enr: db.enrollment}
}

// cloneCourse detaches the section tree so callers cannot mutate the stored
// record through shared slices.
func cloneCourse(c course.Course) course.Course {
	sections := make([]course.Section, len(c.Sections))
	for i, s := range c.Sections {
		lectures := make([]course.Lecture, len(s.Lectures))
		copy(lectures, s.Lectures)
		s.Lectures = lectures
		sections[i] = s
	}
	c.Sections = sections
	return c
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		courses = append(courses, cloneCourse(*c))
	}
	return courses
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = uuid.New().String()
	stored := cloneCourse(c)
	repo.db.table[c.ID] = &stored
	return c, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return cloneCourse(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, srt filtering.Sort, page filtering.Pagination) ([]course.Course, int, error) {
	repo.db.mutex.RLock()
	courses := repo.query()
	repo.db.mutex.RUnlock()

	matches := make([]course.Course, 0, len(courses))
	for _, c := range courses {
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Keyword)) {
			continue
		}
		if filter.Category != "" && !contains(c.Categories, filter.Category) {
			continue
		}
		if filter.Level != "" && c.Level != filter.Level {
			continue
		}
		if filter.PriceMin != nil && c.Price < *filter.PriceMin {
			continue
		}
		if filter.PriceMax != nil && c.Price > *filter.PriceMax {
			continue
		}
		if filter.Published != nil && c.Published != *filter.Published {
			continue
		}
		if filter.CreatorID != "" && c.CreatorID != filter.CreatorID {
			continue
		}
		matches = append(matches, c)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		var less bool
		switch srt.By {
		case "name":
			less = a.Name < b.Name
		case "price":
			less = a.Price < b.Price
		case "ratings":
			less = a.Ratings < b.Ratings
		case "purchased":
			less = a.Purchased < b.Purchased
		case "updatedAt":
			less = a.UpdatedAt.Before(b.UpdatedAt)
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if srt.Order == "asc" {
			return less
		}
		return !less
	})

	paged, meta := filtering.Paginate(matches, page)
	return paged, meta.TotalItems, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	stored := cloneCourse(c)
	repo.db.table[c.ID] = &stored
	return c, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, courseID, userID string) (course.Enrollment, error) {
	repo.enr.mutex.RLock()
	defer repo.enr.mutex.RUnlock()

	for _, enr := range repo.enr.table {
		if enr.CourseID == courseID && enr.UserID == userID {
			out := *enr
			out.CompletedLectureIDs = append([]string(nil), enr.CompletedLectureIDs...)
			return out, nil
		}
	}
	return course.Enrollment{}, course.ErrNotEnrolled
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.enr.mutex.Lock()
	defer repo.enr.mutex.Unlock()

	enr.ID = uuid.New().String()
	stored := enr
	stored.CompletedLectureIDs = append([]string(nil), enr.CompletedLectureIDs...)
	repo.enr.table[enr.ID] = &stored
	return enr, nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.enr.mutex.Lock()
	defer repo.enr.mutex.Unlock()

	if _, ok := repo.enr.table[enr.ID]; !ok {
		return course.Enrollment{}, course.ErrNotEnrolled
	}
	stored := enr
	stored.CompletedLectureIDs = append([]string(nil), enr.CompletedLectureIDs...)
	repo.enr.table[enr.ID] = &stored
	return enr, nil
}
