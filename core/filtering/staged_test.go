package filtering

import (
	"reflect"
	"testing"
)

type courseFilters struct {
	Status     string   `json:"status"`
	Level      string   `json:"level"`
	Categories []string `json:"categories"`
	Published  *bool    `json:"published"`
}

func defaultCourseFilters() courseFilters {
	return courseFilters{Status: SentinelAll, Level: SentinelAll}
}

func bPtr(b bool) *bool { return &b }

func TestStaged_editDoesNotTouchApplied(t *testing.T) {
	s := NewStaged(defaultCourseFilters())

	s.Edit(func(f *courseFilters) { f.Status = "published" })
	s.Edit(func(f *courseFilters) { f.Level = "beginner" })

	if got := s.Applied(); !reflect.DeepEqual(got, defaultCourseFilters()) {
		t.Errorf("Applied() = %+v; want defaults", got)
	}
	if !s.HasUnappliedChanges() {
		t.Error("HasUnappliedChanges() = false; want true")
	}
	if s.HasActiveFilters() {
		t.Error("HasActiveFilters() = true; want false before Apply")
	}
}

func TestStaged_applyCommitsDraft(t *testing.T) {
	s := NewStaged(defaultCourseFilters())
	s.SetPage(Pagination{Page: 4, Limit: 20})

	s.Edit(func(f *courseFilters) {
		f.Status = "published"
		f.Published = bPtr(true)
	})
	if changed := s.Apply(); !changed {
		t.Error("Apply() = false; want true")
	}

	if s.HasUnappliedChanges() {
		t.Error("HasUnappliedChanges() = true after Apply; want false")
	}
	if got, want := s.Applied(), s.Draft(); !reflect.DeepEqual(got, want) {
		t.Errorf("Applied() = %+v; want %+v", got, want)
	}
	if got := s.Page(); got.Page != 1 || got.Limit != 20 {
		t.Errorf("Page() = %+v; want page reset to 1, limit kept", got)
	}

	// re-applying the same draft is a no-op commit
	if changed := s.Apply(); changed {
		t.Error("Apply() = true on unchanged draft; want false")
	}
}

func TestStaged_clearResetsBothCopies(t *testing.T) {
	s := NewStaged(defaultCourseFilters())
	s.Edit(func(f *courseFilters) { f.Status = "draft" })
	s.Apply()
	s.Edit(func(f *courseFilters) { f.Level = "advanced" })

	s.Clear()

	if got := s.Draft(); !reflect.DeepEqual(got, defaultCourseFilters()) {
		t.Errorf("Draft() = %+v; want defaults", got)
	}
	if got := s.Applied(); !reflect.DeepEqual(got, defaultCourseFilters()) {
		t.Errorf("Applied() = %+v; want defaults", got)
	}
	if s.HasActiveFilters() || s.HasUnappliedChanges() {
		t.Error("Clear() left active filters or unapplied changes")
	}
}

func TestStaged_resetFieldNeverDiverges(t *testing.T) {
	s := NewStaged(defaultCourseFilters())
	s.Edit(func(f *courseFilters) {
		f.Status = "published"
		f.Level = "beginner"
	})
	s.Apply()
	// leave an unapplied edit on another field
	s.Edit(func(f *courseFilters) { f.Categories = []string{"makeup"} })

	s.ResetField(func(f *courseFilters) { f.Status = SentinelAll })

	if got := s.Draft().Status; got != SentinelAll {
		t.Errorf("Draft().Status = %q; want %q", got, SentinelAll)
	}
	if got := s.Applied().Status; got != SentinelAll {
		t.Errorf("Applied().Status = %q; want %q", got, SentinelAll)
	}
	// the untouched field keeps its applied value and its draft edit
	if got := s.Applied().Level; got != "beginner" {
		t.Errorf("Applied().Level = %q; want %q", got, "beginner")
	}
	if got := s.Draft().Categories; !reflect.DeepEqual(got, []string{"makeup"}) {
		t.Errorf("Draft().Categories = %v; want unapplied edit kept", got)
	}
	if got := s.Page().Page; got != 1 {
		t.Errorf("Page().Page = %d; want 1", got)
	}
}

func TestStaged_activeFilters(t *testing.T) {
	s := NewStaged(defaultCourseFilters())
	if got := s.ActiveFilterCount(); got != 0 {
		t.Errorf("ActiveFilterCount() = %d; want 0", got)
	}

	s.Edit(func(f *courseFilters) {
		f.Status = "published"
		f.Published = bPtr(false)
	})
	s.Apply()

	want := []string{"status", "published"}
	got := s.ActiveFilters()
	if len(got) != len(want) {
		t.Fatalf("ActiveFilters() = %v; want %v", got, want)
	}
	for _, name := range want {
		var found bool
		for _, g := range got {
			if g == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ActiveFilters() = %v; missing %q", got, name)
		}
	}
}

func TestStaged_activeFiltersNonStruct(t *testing.T) {
	// a non-struct record has no nameable fields to badge
	s := NewStaged("all")
	s.Edit(func(v *string) { *v = "published" })
	s.Apply()

	if !s.HasActiveFilters() {
		t.Error("HasActiveFilters() = false; want true")
	}
	if got := s.ActiveFilters(); got != nil {
		t.Errorf("ActiveFilters() = %v; want nil", got)
	}
	if got := s.ActiveFilterCount(); got != 0 {
		t.Errorf("ActiveFilterCount() = %d; want 0", got)
	}
}

func TestSequencer_latestWins(t *testing.T) {
	var seq Sequencer

	first := seq.Next()
	second := seq.Next()

	if seq.Current(first) {
		t.Error("Current(first) = true after a newer fetch; want false")
	}
	if !seq.Current(second) {
		t.Error("Current(second) = false; want true")
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		page     Pagination
		want     []int
		wantMeta PageMeta
	}{
		{
			name:     "first page",
			page:     Pagination{Page: 1, Limit: 2},
			want:     []int{1, 2},
			wantMeta: PageMeta{TotalItems: 5, TotalPages: 3, CurrentPage: 1, PageSize: 2},
		},
		{
			name:     "last short page",
			page:     Pagination{Page: 3, Limit: 2},
			want:     []int{5},
			wantMeta: PageMeta{TotalItems: 5, TotalPages: 3, CurrentPage: 3, PageSize: 2},
		},
		{
			name:     "out of range",
			page:     Pagination{Page: 9, Limit: 2},
			want:     []int{},
			wantMeta: PageMeta{TotalItems: 5, TotalPages: 3, CurrentPage: 9, PageSize: 2},
		},
		{
			name:     "zero values cleaned",
			page:     Pagination{},
			want:     []int{1, 2, 3, 4, 5},
			wantMeta: PageMeta{TotalItems: 5, TotalPages: 1, CurrentPage: 1, PageSize: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, meta := Paginate(items, tt.page)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Paginate() = %v; want %v", got, tt.want)
			}
			if meta != tt.wantMeta {
				t.Errorf("Paginate() meta = %+v; want %+v", meta, tt.wantMeta)
			}
		})
	}
}
