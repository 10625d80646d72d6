package filtering

import (
	"net/url"
	"strconv"
	"time"

	"github.com/GraduateProjectPTIT/lms-backend/core"
)

// Sentinel values that mean "no filter" and are never emitted in queries.
const (
	SentinelAll = "all"

	DefaultSortBy    = "createdAt"
	DefaultSortOrder = "desc"
)

// Sort is a (field, direction) pair.
type Sort struct {
	By    string `json:"sortBy" query:"sortBy"`
	Order string `json:"sortOrder" query:"sortOrder"`
}

func DefaultSort() Sort {
	return Sort{By: DefaultSortBy, Order: DefaultSortOrder}
}

func (s *Sort) Clean() {
	if s.By == "" {
		s.By = DefaultSortBy
	}
	if s.Order != "asc" {
		s.Order = DefaultSortOrder
	}
}

// Valuer is any filter record that can write its non-sentinel fields into
// query values.
type Valuer interface {
	Values() url.Values
}

// Encode builds the query values for a list request:
//   - page and limit are always included;
//   - keyword only when the trimmed search is non-empty;
//   - sort as a (sortBy, sortOrder) pair, emitted only when sortBy differs
//     from its default;
//   - filter fields only when they differ from their sentinels (delegated to
//     the record's Values).
//
// url.Values gives set semantics, so the effect on the resulting request is
// independent of field-set order.
func Encode(p Pagination, search string, sort Sort, filters Valuer) url.Values {
	p.Clean()
	v := make(url.Values)
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))

	if kw := core.CleanString(search); kw != "" {
		v.Set("keyword", kw)
	}

	if sort.By != "" && sort.By != DefaultSortBy {
		v.Set("sortBy", sort.By)
		if sort.Order != "" {
			v.Set("sortOrder", sort.Order)
		}
	}

	if filters != nil {
		for key, vals := range filters.Values() {
			for _, val := range vals {
				v.Add(key, val)
			}
		}
	}
	return v
}

// AddString sets key=val unless val is empty, "all" or one of the extra
// sentinels.
func AddString(v url.Values, key, val string, sentinels ...string) {
	val = core.CleanString(val)
	if val == "" || val == SentinelAll {
		return
	}
	for _, s := range sentinels {
		if val == s {
			return
		}
	}
	v.Set(key, val)
}

// AddStrings adds one entry per non-sentinel value.
func AddStrings(v url.Values, key string, vals []string, sentinels ...string) {
	for _, val := range vals {
		AddString(v, key, val, sentinels...)
	}
}

// AddBool sets key only when the tri-state flag is actually set.
func AddBool(v url.Values, key string, val *bool) {
	if val == nil {
		return
	}
	v.Set(key, strconv.FormatBool(*val))
}

// AddInt sets key unless val equals the sentinel (typically 0).
func AddInt(v url.Values, key string, val, sentinel int) {
	if val == sentinel {
		return
	}
	v.Set(key, strconv.Itoa(val))
}

// AddFloat sets key only when the optional value is actually set.
func AddFloat(v url.Values, key string, val *float64) {
	if val == nil {
		return
	}
	v.Set(key, strconv.FormatFloat(*val, 'f', -1, 64))
}

// AddTime sets key only when the optional timestamp is actually set.
func AddTime(v url.Values, key string, val *time.Time) {
	if val == nil {
		return
	}
	v.Set(key, val.UTC().Format(time.RFC3339))
}
