package course

import (
	"net/url"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/GraduateProjectPTIT/lms-backend/core"
	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

var AllLevels = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}

type (
	// VideoRef points at an uploaded video asset.
	VideoRef struct {
		PublicID string `json:"publicId"`
		URL      string `json:"url"`
	}

	Lecture struct {
		ID              string   `json:"id"`
		Title           string   `json:"title"`
		Description     string   `json:"description"`
		DurationSeconds int      `json:"durationSeconds"`
		Video           VideoRef `json:"video"`
		// DurationManual is set when the author overrode the probed duration.
		DurationManual bool `json:"durationManual,omitempty"`
	}

	// Section is an ordered group of lectures. Lecture order is positional:
	// the slice order is the persisted order, there is no separate rank field.
	Section struct {
		ID       string    `json:"id"`
		Title    string    `json:"title"`
		Lectures []Lecture `json:"lectures"`
	}

	Course struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		Description    string    `json:"description"`
		Level          string    `json:"level"`
		Categories     []string  `json:"categories"`
		Tags           []string  `json:"tags,omitempty"`
		Thumbnail      string    `json:"thumbnail,omitempty"`
		Price          float64   `json:"price"`
		EstimatedPrice float64   `json:"estimatedPrice,omitempty"`
		Benefits       []string  `json:"benefits,omitempty"`
		Prerequisites  []string  `json:"prerequisites,omitempty"`
		DemoVideo      VideoRef  `json:"demoVideo,omitempty"`
		CreatorID      string    `json:"creatorId"`
		Published      bool      `json:"published"`
		PublishedAt    null.Time `json:"publishedAt,omitempty"`
		Ratings        float64   `json:"ratings"`
		Purchased      int       `json:"purchased"`
		Sections       []Section `json:"courseData"`
		CreatedAt      time.Time `json:"createdAt"` // UTC
		UpdatedAt      time.Time `json:"updatedAt"` // UTC
	}

	// Enrollment tracks one student's membership and completed lectures in a
	// course. The completed set is owned here; the unlock engine only reads it.
	Enrollment struct {
		ID                  string    `json:"id"`
		CourseID            string    `json:"courseId"`
		UserID              string    `json:"userId"`
		CompletedLectureIDs []string  `json:"completedLectureIds"`
		EnrolledAt          time.Time `json:"enrolledAt"` // UTC
	}
)

// Complete reports whether a lecture has everything authoring requires:
// title, description, an uploaded video and a positive duration.
func (l Lecture) Complete() bool {
	return l.Title != "" && l.Description != "" &&
		l.Video.PublicID != "" && l.Video.URL != "" &&
		l.DurationSeconds > 0
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name           string   `json:"name" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	Level          string   `json:"level" validate:"required,courselevel"`
	Categories     []string `json:"categories" validate:"required,min=1"`
	Tags           []string `json:"tags"`
	Thumbnail      string   `json:"thumbnail" validate:"omitempty,url"`
	Price          float64  `json:"price" validate:"gte=0"`
	EstimatedPrice float64  `json:"estimatedPrice" validate:"omitempty,gtefield=Price"`
	Benefits       []string `json:"benefits"`
	Prerequisites  []string `json:"prerequisites"`
}

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Level = core.CleanString(nc.Level, true /* lower */)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Level          string   `json:"level" validate:"omitempty,courselevel"`
	Categories     []string `json:"categories"`
	Tags           []string `json:"tags"`
	Thumbnail      string   `json:"thumbnail" validate:"omitempty,url"`
	Price          *float64 `json:"price" validate:"omitempty,gte=0"`
	EstimatedPrice *float64 `json:"estimatedPrice"`
	Benefits       []string `json:"benefits"`
	Prerequisites  []string `json:"prerequisites"`
	Published      *bool    `json:"published"`
}

func (uc *UpdateCourse) Validate(orig Course) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}

	desc := core.CleanString(uc.Description)
	if desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}

	level := core.CleanString(uc.Level, true /* lower */)
	if level != "" {
		uc.Level = level
	} else {
		uc.Level = orig.Level
	}

	return core.Validate.Struct(uc)
}

// NewSection appends an empty section to a course.
type NewSection struct {
	Title string `json:"title" validate:"required"`
}

func (ns *NewSection) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	return core.Validate.Struct(ns)
}

// NewLecture appends a lecture to a section. The video may still be missing
// at creation time; it must be present before the NEXT lecture is appended.
type NewLecture struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description"`
	DurationSeconds int      `json:"durationSeconds" validate:"gte=0"`
	Video           VideoRef `json:"video"`
}

func (nl *NewLecture) Validate() error {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	return core.Validate.Struct(nl)
}

// UpdateLecture modifies an existing lecture in place.
type UpdateLecture struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationSeconds *int      `json:"durationSeconds" validate:"omitempty,gte=0"`
	Video           *VideoRef `json:"video"`
}

func (ul *UpdateLecture) Validate() error {
	ul.Title = core.CleanString(ul.Title)
	ul.Description = core.CleanString(ul.Description)
	return core.Validate.Struct(ul)
}

// QueryFilter is the applied filter set of course lists.
// Zero values and the "all" sentinel mean "no filter" for their field.
type QueryFilter struct {
	Keyword   string   `json:"keyword" query:"keyword"`
	Category  string   `json:"category" query:"category"`
	Level     string   `json:"level" query:"level"`
	PriceMin  *float64 `json:"priceMin" query:"priceMin"`
	PriceMax  *float64 `json:"priceMax" query:"priceMax"`
	Published *bool    `json:"published" query:"published"`
	CreatorID string   `json:"-" query:"-"` // scoping, not user-facing
}

func (qf *QueryFilter) Clean() {
	qf.Keyword = core.CleanString(qf.Keyword)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Keyword == "" &&
		(qf.Category == "" || qf.Category == filtering.SentinelAll) &&
		(qf.Level == "" || qf.Level == filtering.SentinelAll) &&
		qf.PriceMin == nil && qf.PriceMax == nil &&
		qf.Published == nil && qf.CreatorID == ""
}

// Values emits the non-sentinel fields, for building list requests.
func (qf QueryFilter) Values() url.Values {
	v := make(url.Values)
	filtering.AddString(v, "category", qf.Category)
	filtering.AddString(v, "level", qf.Level)
	filtering.AddFloat(v, "priceMin", qf.PriceMin)
	filtering.AddFloat(v, "priceMax", qf.PriceMax)
	filtering.AddBool(v, "published", qf.Published)
	return v
}
