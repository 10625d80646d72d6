package filtering

import (
	"net/url"
	"reflect"
	"testing"
)

type userFilters struct {
	Role              string
	IsVerified        *bool
	IsSurveyCompleted *bool
}

func (f userFilters) Values() url.Values {
	v := make(url.Values)
	AddString(v, "role", f.Role)
	AddBool(v, "isVerified", f.IsVerified)
	AddBool(v, "isSurveyCompleted", f.IsSurveyCompleted)
	return v
}

func TestEncode(t *testing.T) {
	page := Pagination{Page: 2, Limit: 25}

	tests := []struct {
		name    string
		page    Pagination
		search  string
		sort    Sort
		filters Valuer
		want    url.Values
	}{
		{
			name:    "all defaults emit only page and limit",
			page:    page,
			sort:    DefaultSort(),
			filters: userFilters{Role: SentinelAll},
			want:    url.Values{"page": {"2"}, "limit": {"25"}},
		},
		{
			name: "zero pagination cleaned",
			sort: DefaultSort(),
			want: url.Values{"page": {"1"}, "limit": {"10"}},
		},
		{
			name:   "whitespace search omitted",
			page:   page,
			search: "   ",
			sort:   DefaultSort(),
			want:   url.Values{"page": {"2"}, "limit": {"25"}},
		},
		{
			name:   "search trimmed and emitted as keyword",
			page:   page,
			search: "  makeup 101 ",
			sort:   DefaultSort(),
			want:   url.Values{"page": {"2"}, "limit": {"25"}, "keyword": {"makeup 101"}},
		},
		{
			name: "non-default sort emits pair",
			page: page,
			sort: Sort{By: "name", Order: "asc"},
			want: url.Values{"page": {"2"}, "limit": {"25"}, "sortBy": {"name"}, "sortOrder": {"asc"}},
		},
		{
			name: "default sort field suppresses direction",
			page: page,
			sort: Sort{By: DefaultSortBy, Order: "asc"},
			want: url.Values{"page": {"2"}, "limit": {"25"}},
		},
		{
			name:    "filters emitted only when non-sentinel",
			page:    page,
			sort:    DefaultSort(),
			filters: userFilters{Role: "teacher", IsVerified: bPtr(true)},
			want:    url.Values{"page": {"2"}, "limit": {"25"}, "role": {"teacher"}, "isVerified": {"true"}},
		},
		{
			name:    "explicit false flag still emitted",
			page:    page,
			sort:    DefaultSort(),
			filters: userFilters{Role: SentinelAll, IsSurveyCompleted: bPtr(false)},
			want:    url.Values{"page": {"2"}, "limit": {"25"}, "isSurveyCompleted": {"false"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.page, tt.search, tt.sort, tt.filters)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode() = %v; want %v", got, tt.want)
			}
		})
	}
}

// The same logical filter constructed via different field-set orders must
// produce identical parameter sets.
func TestEncode_orderIndependent(t *testing.T) {
	a := userFilters{}
	a.IsVerified = bPtr(true)
	a.Role = "student"

	b := userFilters{}
	b.Role = "student"
	b.IsVerified = bPtr(true)

	va := Encode(Pagination{Page: 1, Limit: 10}, "q", DefaultSort(), a)
	vb := Encode(Pagination{Page: 1, Limit: 10}, "q", DefaultSort(), b)
	if !reflect.DeepEqual(va, vb) {
		t.Errorf("Encode() not order independent: %v != %v", va, vb)
	}
	if va.Encode() != vb.Encode() {
		t.Errorf("Encode() strings differ: %q != %q", va.Encode(), vb.Encode())
	}
}

func TestEncode_idempotent(t *testing.T) {
	f := userFilters{Role: "teacher"}
	first := Encode(Pagination{Page: 3, Limit: 50}, "glam", DefaultSort(), f)
	second := Encode(Pagination{Page: 3, Limit: 50}, "glam", DefaultSort(), f)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Encode() not idempotent: %v != %v", first, second)
	}
}
