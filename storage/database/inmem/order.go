package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
	"github.com/GraduateProjectPTIT/lms-backend/core/order"
)

type orderRepository struct {
	db     *orderTable
	course *courseTable
}

var _ order.Repository = (*orderRepository)(nil)

func NewOrderRepository(db *DB) order.Repository {
	return &orderRepository{db: db.order, course: db.course}
}

func (repo *orderRepository) CreateOrder(ctx context.Context, ord order.Order) (order.Order, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ord.ID = uuid.New().String()
	repo.db.table[ord.ID] = &ord
	return ord, nil
}

func (repo *orderRepository) GetOrderByID(ctx context.Context, id string) (order.Order, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ord, ok := repo.db.table[id]; ok {
		return *ord, nil
	}
	return order.Order{}, order.ErrNotFound
}

// creatorOf resolves a course's creator for tutor scoping.
func (repo *orderRepository) creatorOf(courseID string) string {
	repo.course.mutex.RLock()
	defer repo.course.mutex.RUnlock()

	if c, ok := repo.course.table[courseID]; ok {
		return c.CreatorID
	}
	return ""
}

func (repo *orderRepository) FilterOrders(ctx context.Context, filter order.QueryFilter, srt filtering.Sort, page filtering.Pagination) ([]order.Order, int, error) {
	repo.db.mutex.RLock()
	orders := make([]order.Order, 0, len(repo.db.table))
	for _, ord := range repo.db.table {
		orders = append(orders, *ord)
	}
	repo.db.mutex.RUnlock()

	matches := make([]order.Order, 0, len(orders))
	for _, ord := range orders {
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(ord.CourseName), strings.ToLower(filter.Keyword)) {
			continue
		}
		if filter.CourseID != "" && ord.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != "" && ord.Status != filter.Status {
			continue
		}
		if filter.CreatedFrom != nil && ord.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && ord.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		if filter.UserID != "" && ord.UserID != filter.UserID {
			continue
		}
		if filter.CreatorID != "" && repo.creatorOf(ord.CourseID) != filter.CreatorID {
			continue
		}
		matches = append(matches, ord)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		var less bool
		switch srt.By {
		case "price":
			less = a.Price < b.Price
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
