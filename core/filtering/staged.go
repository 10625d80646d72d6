// Package filtering implements the two-phase filter state shared by every
// list screen: values are edited in a draft copy and only drive a query once
// explicitly applied.
package filtering

import (
	"reflect"
	"strings"
)

// Pagination is the page cursor attached to every list query.
type Pagination struct {
	Page  int `json:"page" query:"page"`
	Limit int `json:"limit" query:"limit"`
}

func DefaultPagination() Pagination {
	return Pagination{Page: 1, Limit: 10}
}

func (p *Pagination) Clean() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPagination().Limit
	}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Staged holds two copies of a filter record: a draft being edited and the
// applied set that actually drives queries. The applied copy only ever
// changes via Apply, Clear or ResetField. T must be a plain struct record;
// slice fields must be replaced by mutators, never appended to in place.
//
// A Staged value belongs to a single flow and is not safe for concurrent use.
type Staged[T any] struct {
	defaults T
	draft    T
	applied  T
	page     Pagination
}

func NewStaged[T any](defaults T) *Staged[T] {
	return &Staged[T]{
		defaults: defaults,
		draft:    defaults,
		applied:  defaults,
		page:     DefaultPagination(),
	}
}

func (s *Staged[T]) Defaults() T      { return s.defaults }
func (s *Staged[T]) Draft() T         { return s.draft }
func (s *Staged[T]) Applied() T       { return s.applied }
func (s *Staged[T]) Page() Pagination { return s.page }

// SetPage moves the page cursor without touching either filter copy.
func (s *Staged[T]) SetPage(p Pagination) {
	p.Clean()
	s.page = p
}

// Edit mutates the draft only; it never affects the applied copy and never
// fails.
func (s *Staged[T]) Edit(mutate func(*T)) {
	mutate(&s.draft)
}

// Apply commits the draft as the new applied set and resets the page cursor.
// It reports whether the applied set actually changed.
func (s *Staged[T]) Apply() bool {
	changed := !reflect.DeepEqual(s.applied, s.draft)
	s.applied = s.draft
	s.page.Page = 1
	return changed
}

// Clear resets both copies to the defaults and resets the page cursor.
func (s *Staged[T]) Clear() {
	s.draft = s.defaults
	s.applied = s.defaults
	s.page.Page = 1
}

// ResetField applies the same default-restoring mutation to the draft AND the
// applied copy, so the two can never diverge on that field afterwards. This is
// the one path that changes the applied set without going through Apply.
func (s *Staged[T]) ResetField(mutate func(*T)) {
	mutate(&s.draft)
	mutate(&s.applied)
	s.page.Page = 1
}

// HasUnappliedChanges reports structural inequality of draft vs applied.
func (s *Staged[T]) HasUnappliedChanges() bool {
	return !reflect.DeepEqual(s.draft, s.applied)
}

// HasActiveFilters reports whether the applied set differs from the defaults
// on any field.
func (s *Staged[T]) HasActiveFilters() bool {
	return !reflect.DeepEqual(s.applied, s.defaults)
}

// ActiveFilters returns the names of the applied fields differing from their
// defaults, for UI badges only; query building never consults it.
func (s *Staged[T]) ActiveFilters() []string {
	return diffFields(s.applied, s.defaults)
}

func (s *Staged[T]) ActiveFilterCount() int {
	return len(s.ActiveFilters())
}

// diffFields compares two records of the same struct type field by field and
// returns the names (JSON tag when present) of the exported fields that
// differ. Non-struct records have no nameable fields and yield nil.
func diffFields(a, b interface{}) []string {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Struct {
		return nil
	}

	var diff []string
	t := va.Type()
	for i := 0; i < t.NumField(); i++ {
		fld := t.Field(i)
		if fld.PkgPath != "" { // unexported
			continue
		}
		if reflect.DeepEqual(va.Field(i).Interface(), vb.Field(i).Interface()) {
			continue
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = fld.Name
		}
		diff = append(diff, name)
	}
	return diff
}
