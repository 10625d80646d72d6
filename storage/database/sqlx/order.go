package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
	"github.com/GraduateProjectPTIT/lms-backend/core/order"
)

type dbOrder struct {
	ID         string    `db:"id"`
	CourseID   string    `db:"course_id"`
	CourseName string    `db:"course_name"`
	UserID     string    `db:"user_id"`
	Price      float64   `db:"price"`
	Status     string    `db:"status"`
	CreatedAt  null.Time `db:"created_at"`
}

func (do dbOrder) toOrder() order.Order {
	return order.Order{
		ID:         do.ID,
		CourseID:   do.CourseID,
		CourseName: do.CourseName,
		UserID:     do.UserID,
		Price:      do.Price,
		Status:     do.Status,
		CreatedAt:  do.CreatedAt.Time,
	}
}

var orderSortColumns = map[string]string{
	"createdAt": "o.created_at",
	"price":     "o.price",
}

type orderRepository struct {
	db *sqlx.DB
}

var _ order.Repository = (*orderRepository)(nil)

func NewOrderRepository(db *sqlx.DB) order.Repository {
	return &orderRepository{db: db}
}

func (repo orderRepository) CreateOrder(ctx context.Context, ord order.Order) (order.Order, error) {
	q := `
INSERT INTO "order" (course_id, course_name, user_id, price, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		ord.CourseID, ord.CourseName, ord.UserID, ord.Price, ord.Status, ord.CreatedAt,
	).Scan(&ord.ID)
	if err != nil {
		return order.Order{}, errors.Wrap(err, "creating order")
	}
	return ord, nil
}

func (repo orderRepository) GetOrderByID(ctx context.Context, id string) (order.Order, error) {
	var row dbOrder
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "order" WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, errors.Wrap(err, "getting order")
	}
	return row.toOrder(), nil
}

func (repo orderRepository) FilterOrders(ctx context.Context, filter order.QueryFilter, sort filtering.Sort, page filtering.Pagination) ([]order.Order, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Keyword != "" {
		where = append(where, "o.course_name ILIKE "+arg("%"+filter.Keyword+"%"))
	}
	if filter.CourseID != "" {
		where = append(where, "o.course_id = "+arg(filter.CourseID))
	}
	if filter.Status != "" {
		where = append(where, "o.status = "+arg(filter.Status))
	}
	if filter.CreatedFrom != nil {
		where = append(where, "o.created_at >= "+arg(*filter.CreatedFrom))
	}
	if filter.CreatedTo != nil {
		where = append(where, "o.created_at <= "+arg(*filter.CreatedTo))
	}
	if filter.UserID != "" {
		where = append(where, "o.user_id = "+arg(filter.UserID))
	}
	if filter.CreatorID != "" {
		where = append(where, "c.creator_id = "+arg(filter.CreatorID))
	}

	q := `
SELECT o.*, COUNT(*) OVER() AS total
FROM "order" o
         JOIN course c ON c.id = o.course_id
WHERE ` + strings.Join(where, " AND ") +
		orderClause(orderSortColumns, sort) + limitClause(&args, page)

	var rows []struct {
		dbOrder
		Total int `db:"total"`
	}
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering orders")
	}

	orders := make([]order.Order, len(rows))
	total := 0
	for i, row := range rows {
		orders[i] = row.toOrder()
		total = row.Total
	}
	return orders, total, nil
}
