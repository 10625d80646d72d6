package order

import (
	"net/url"
	"time"

	"github.com/GraduateProjectPTIT/lms-backend/core"
	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
)

type (
	// Order records a course purchase. The price is frozen at purchase time
	// so later course edits do not rewrite revenue history.
	Order struct {
		ID         string    `json:"id"`
		CourseID   string    `json:"courseId"`
		CourseName string    `json:"courseName"`
		UserID     string    `json:"userId"`
		Price      float64   `json:"price"`
		Status     string    `json:"status"`
		CreatedAt  time.Time `json:"createdAt"` // UTC
	}

	// NewOrder contains information needed to place an Order.
	NewOrder struct {
		CourseID    string `json:"courseId" validate:"required"`
		PaymentInfo string `json:"paymentInfo"`
	}
)

// Statuses
const (
	StatusCompleted = "completed"
)

func (no *NewOrder) Validate() error {
	no.CourseID = core.CleanString(no.CourseID)
	return core.Validate.Struct(no)
}

// QueryFilter is the applied filter set of order lists. CreatorID limits the
// result to orders on courses owned by that user and is set server-side.
type QueryFilter struct {
	Keyword     string     `json:"keyword" query:"keyword"`
	CourseID    string     `json:"courseId" query:"courseId"`
	Status      string     `json:"status" query:"status"`
	CreatedFrom *time.Time `json:"createdFrom" query:"-"` // bound by hand, RFC 3339
	CreatedTo   *time.Time `json:"createdTo" query:"-"`
	UserID      string     `json:"-" query:"-"`
	CreatorID   string     `json:"-" query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Keyword = core.CleanString(qf.Keyword)
	qf.CourseID = core.CleanString(qf.CourseID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.Keyword == "" && qf.CourseID == "" &&
		(qf.Status == "" || qf.Status == filtering.SentinelAll) &&
		qf.CreatedFrom == nil && qf.CreatedTo == nil &&
		qf.UserID == "" && qf.CreatorID == ""
}

func (qf QueryFilter) Values() url.Values {
	vals := url.Values{}
	filtering.AddString(vals, "keyword", qf.Keyword)
	filtering.AddString(vals, "courseId", qf.CourseID)
	filtering.AddString(vals, "status", qf.Status)
	filtering.AddTime(vals, "createdFrom", qf.CreatedFrom)
	filtering.AddTime(vals, "createdTo", qf.CreatedTo)
	return vals
}
