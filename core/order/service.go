package order

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core"
	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
)

var ErrNotFound = errors.New("order not found")

type (
	Repository interface {
		CreateOrder(ctx context.Context, ord Order) (Order, error)
		GetOrderByID(ctx context.Context, id string) (Order, error)
		// FilterOrders applies AND operation on available QueryFilter fields
		// and returns the page plus the total number of matches.
		FilterOrders(ctx context.Context, filter QueryFilter, sort filtering.Sort, page filtering.Pagination) ([]Order, int, error)
	}

	Service struct {
		repo      Repository
		courseSvc *course.Service
	}
)

func NewService(repo Repository, courseSvc *course.Service) *Service {
	return &Service{repo: repo, courseSvc: courseSvc}
}

// Place buys a course for a user: it enrolls them and freezes the price into
// an order record. Buying a course twice is rejected as a validation error.
func (svc *Service) Place(ctx context.Context, no NewOrder, userID string) (Order, error) {
	c, err := svc.courseSvc.GetByID(ctx, no.CourseID)
	if err != nil {
		return Order{}, err
	}

	if _, err = svc.courseSvc.Enroll(ctx, c.ID, userID); err != nil {
		if errors.Cause(err) == course.ErrAlreadyEnrolled {
			return Order{}, core.NewValidationError(nil,
				core.FieldError{Field: "courseId", Error: "you have already purchased this course"})
		}
		return Order{}, err
	}

	return svc.repo.CreateOrder(ctx, Order{
		CourseID:   c.ID,
		CourseName: c.Name,
		UserID:     userID,
		Price:      c.Price,
		Status:     StatusCompleted,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Order, error) {
	return svc.repo.GetOrderByID(ctx, id)
}

// Filter returns one page of an order list plus its page meta.
func (svc *Service) Filter(ctx context.Context, filter QueryFilter, sort filtering.Sort, page filtering.Pagination) ([]Order, filtering.PageMeta, error) {
	filter.Clean()
	sort.Clean()
	page.Clean()

	orders, total, err := svc.repo.FilterOrders(ctx, filter, sort, page)
	if err != nil {
		return nil, filtering.PageMeta{}, err
	}
	return orders, filtering.NewPageMeta(page, total), nil
}
