package course

import (
	"github.com/GraduateProjectPTIT/lms-backend/core"
)

var (
	errIncompleteLectures = "complete the title, description, video and duration of every existing lecture before adding a new one"
	errBadReorder         = "orderedIds must be a permutation of the current ids"
)

// checkCompleteForAppend enforces the authoring gate: a new lecture may only
// be appended once every existing lecture in the section is complete. The
// rejection is a user-facing validation message, not an internal error.
func checkCompleteForAppend(s Section) error {
	for _, l := range s.Lectures {
		if !l.Complete() {
			return core.NewValidationError(nil, core.FieldError{Field: "lectures", Error: errIncompleteLectures})
		}
	}
	return nil
}

// checkPermutation verifies that want is a reordering of current: same id
// set, no duplicates, no additions or omissions.
func checkPermutation(current, want []string) error {
	badReorder := core.NewValidationError(nil, core.FieldError{Field: "orderedIds", Error: errBadReorder})
	if len(current) != len(want) {
		return badReorder
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = true
	}
	dup := make(map[string]bool, len(want))
	for _, id := range want {
		if !seen[id] || dup[id] {
			return badReorder
		}
		dup[id] = true
	}
	return nil
}

// reorderSections rearranges c.Sections to match orderedIDs.
func reorderSections(c *Course, orderedIDs []string) error {
	current := make([]string, len(c.Sections))
	byID := make(map[string]Section, len(c.Sections))
	for i, s := range c.Sections {
		current[i] = s.ID
		byID[s.ID] = s
	}
	if err := checkPermutation(current, orderedIDs); err != nil {
		return err
	}

	sections := make([]Section, len(orderedIDs))
	for i, id := range orderedIDs {
		sections[i] = byID[id]
	}
	c.Sections = sections
	return nil
}

// reorderLectures rearranges a section's lectures to match orderedIDs.
func reorderLectures(s *Section, orderedIDs []string) error {
	current := make([]string, len(s.Lectures))
	byID := make(map[string]Lecture, len(s.Lectures))
	for i, l := range s.Lectures {
		current[i] = l.ID
		byID[l.ID] = l
	}
	if err := checkPermutation(current, orderedIDs); err != nil {
		return err
	}

	lectures := make([]Lecture, len(orderedIDs))
	for i, id := range orderedIDs {
		lectures[i] = byID[id]
	}
	s.Lectures = lectures
	return nil
}

// findSection returns a pointer into c.Sections, or nil.
func findSection(c *Course, sectionID string) *Section {
	for i := range c.Sections {
		if c.Sections[i].ID == sectionID {
			return &c.Sections[i]
		}
	}
	return nil
}

// findLecture returns a pointer into a section's lectures, or nil.
func findLecture(s *Section, lectureID string) *Lecture {
	for i := range s.Lectures {
		if s.Lectures[i].ID == lectureID {
			return &s.Lectures[i]
		}
	}
	return nil
}
