package sqlxrepos

import (
	"fmt"
	"strings"

	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
)

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// orderClause maps a client sort key through a column whitelist; unknown keys
// fall back to created_at.
func orderClause(columns map[string]string, sort filtering.Sort) string {
	col, ok := columns[sort.By]
	if !ok {
		col = columns[filtering.DefaultSortBy]
	}
	dir := "DESC"
	if strings.EqualFold(sort.Order, "asc") {
		dir = "ASC"
	}
	return " ORDER BY " + col + " " + dir
}

func limitClause(args *[]interface{}, page filtering.Pagination) string {
	*args = append(*args, page.Limit)
	limit := placeholder(len(*args))
	*args = append(*args, page.Offset())
	offset := placeholder(len(*args))
	return " LIMIT " + limit + " OFFSET " + offset
}
