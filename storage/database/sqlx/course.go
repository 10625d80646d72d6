package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
)

// Sections and the demo video travel as JSONB documents: the section tree is
// always read and written whole, so there is nothing to join on.
type dbCourse struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Description    string         `db:"description"`
	Level          string         `db:"level"`
	Categories     pq.StringArray `db:"categories"`
	Tags           pq.StringArray `db:"tags"`
	Thumbnail      string         `db:"thumbnail"`
	Price          float64        `db:"price"`
	EstimatedPrice float64        `db:"estimated_price"`
	Benefits       pq.StringArray `db:"benefits"`
	Prerequisites  pq.StringArray `db:"prerequisites"`
	DemoVideo      []byte         `db:"demo_video"`
	CreatorID      string         `db:"creator_id"`
	Published      bool           `db:"published"`
	PublishedAt    null.Time      `db:"published_at"`
	Ratings        float64        `db:"ratings"`
	Purchased      int            `db:"purchased"`
	Sections       []byte         `db:"sections"`
	CreatedAt      null.Time      `db:"created_at"`
	UpdatedAt      null.Time      `db:"updated_at"`
}

func (dc dbCourse) toCourse() (course.Course, error) {
	c := course.Course{
		ID:             dc.ID,
		Name:           dc.Name,
		Description:    dc.Description,
		Level:          dc.Level,
		Categories:     dc.Categories,
		Tags:           dc.Tags,
		Thumbnail:      dc.Thumbnail,
		Price:          dc.Price,
		EstimatedPrice: dc.EstimatedPrice,
		Benefits:       dc.Benefits,
		Prerequisites:  dc.Prerequisites,
		CreatorID:      dc.CreatorID,
		Published:      dc.Published,
		PublishedAt:    dc.PublishedAt,
		Ratings:        dc.Ratings,
		Purchased:      dc.Purchased,
		Sections:       []course.Section{},
		CreatedAt:      dc.CreatedAt.Time,
		UpdatedAt:      dc.UpdatedAt.Time,
	}
	if len(dc.Sections) > 0 {
		if err := json.Unmarshal(dc.Sections, &c.Sections); err != nil {
			return course.Course{}, errors.Wrap(err, "decoding course sections")
		}
	}
	if len(dc.DemoVideo) > 0 {
		if err := json.Unmarshal(dc.DemoVideo, &c.DemoVideo); err != nil {
			return course.Course{}, errors.Wrap(err, "decoding demo video")
		}
	}
	return c, nil
}

var courseSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"price":     "price",
	"ratings":   "ratings",
	"purchased": "purchased",
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	sections, demo, err := encodeDocs(c)
	if err != nil {
		return course.Course{}, err
	}

	q := `
INSERT INTO course (name, description, level, categories, tags, thumbnail, price, estimated_price,
                    benefits, prerequisites, demo_video, creator_id, published, published_at,
                    ratings, purchased, sections, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
RETURNING id`
	err = repo.db.QueryRowContext(ctx, q,
		c.Name, c.Description, c.Level, pq.Array(c.Categories), pq.Array(c.Tags), c.Thumbnail,
		c.Price, c.EstimatedPrice, pq.Array(c.Benefits), pq.Array(c.Prerequisites), demo,
		c.CreatorID, c.Published, c.PublishedAt, c.Ratings, c.Purchased, sections,
		c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return c, nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []dbCourse
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return toCourses(rows)
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row dbCourse
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toCourse()
}

func (repo courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, sort filtering.Sort, page filtering.Pagination) ([]course.Course, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Keyword != "" {
		where = append(where, "name ILIKE "+arg("%"+filter.Keyword+"%"))
	}
	if filter.Category != "" {
		where = append(where, arg(filter.Category)+" = ANY(categories)")
	}
	if filter.Level != "" {
		where = append(where, "level = "+arg(filter.Level))
	}
	if filter.PriceMin != nil {
		where = append(where, "price >= "+arg(*filter.PriceMin))
	}
	if filter.PriceMax != nil {
		where = append(where, "price <= "+arg(*filter.PriceMax))
	}
	if filter.Published != nil {
		where = append(where, "published = "+arg(*filter.Published))
	}
	if filter.CreatorID != "" {
		where = append(where, "creator_id = "+arg(filter.CreatorID))
	}

	q := `SELECT *, COUNT(*) OVER() AS total FROM course WHERE ` + strings.Join(where, " AND ") +
		orderClause(courseSortColumns, sort) + limitClause(&args, page)

	var rows []struct {
		dbCourse
		Total int `db:"total"`
	}
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering courses")
	}

	courses := make([]course.Course, len(rows))
	total := 0
	for i, row := range rows {
		c, err := row.toCourse()
		if err != nil {
			return nil, 0, err
		}
		courses[i] = c
		total = row.Total
	}
	return courses, total, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	sections, demo, err := encodeDocs(c)
	if err != nil {
		return course.Course{}, err
	}

	q := `
UPDATE course
SET name = $2, description = $3, level = $4, categories = $5, tags = $6, thumbnail = $7,
    price = $8, estimated_price = $9, benefits = $10, prerequisites = $11, demo_video = $12,
    published = $13, published_at = $14, ratings = $15, purchased = $16, sections = $17,
    updated_at = $18
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		c.ID, c.Name, c.Description, c.Level, pq.Array(c.Categories), pq.Array(c.Tags), c.Thumbnail,
		c.Price, c.EstimatedPrice, pq.Array(c.Benefits), pq.Array(c.Prerequisites), demo,
		c.Published, c.PublishedAt, c.Ratings, c.Purchased, sections, c.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting courses")
}

func (repo courseRepository) GetEnrollment(ctx context.Context, courseID, userID string) (course.Enrollment, error) {
	var row struct {
		ID                  string         `db:"id"`
		CourseID            string         `db:"course_id"`
		UserID              string         `db:"user_id"`
		CompletedLectureIDs pq.StringArray `db:"completed_lecture_ids"`
		EnrolledAt          null.Time      `db:"enrolled_at"`
	}
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM enrollment WHERE course_id = $1 AND user_id = $2`, courseID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrNotEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return course.Enrollment{
		ID:                  row.ID,
		CourseID:            row.CourseID,
		UserID:              row.UserID,
		CompletedLectureIDs: row.CompletedLectureIDs,
		EnrolledAt:          row.EnrolledAt.Time,
	}, nil
}

func (repo courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	q := `
INSERT INTO enrollment (course_id, user_id, completed_lecture_ids, enrolled_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		enr.CourseID, enr.UserID, pq.Array(enr.CompletedLectureIDs), enr.EnrolledAt,
	).Scan(&enr.ID)
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (repo courseRepository) UpdateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE enrollment SET completed_lecture_ids = $2 WHERE id = $1`,
		enr.ID, pq.Array(enr.CompletedLectureIDs))
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Enrollment{}, course.ErrNotEnrolled
	}
	return enr, nil
}

func encodeDocs(c course.Course) (sections, demo []byte, err error) {
	if sections, err = json.Marshal(c.Sections); err != nil {
		return nil, nil, errors.Wrap(err, "encoding course sections")
	}
	if demo, err = json.Marshal(c.DemoVideo); err != nil {
		return nil, nil, errors.Wrap(err, "encoding demo video")
	}
	return sections, demo, nil
}

func toCourses(rows []dbCourse) ([]course.Course, error) {
	courses := make([]course.Course, len(rows))
	for i, row := range rows {
		c, err := row.toCourse()
		if err != nil {
			return nil, err
		}
		courses[i] = c
	}
	return courses, nil
}
