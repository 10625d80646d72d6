package course

import "math"

// CompletedSet is the set of lecture ids a viewer has completed. It is
// supplied by the enrollment record; the unlock engine only reads it.
type CompletedSet map[string]struct{}

func NewCompletedSet(ids ...string) CompletedSet {
	cs := make(CompletedSet, len(ids))
	for _, id := range ids {
		cs[id] = struct{}{}
	}
	return cs
}

func (cs CompletedSet) Contains(id string) bool {
	_, ok := cs[id]
	return ok
}

func (cs CompletedSet) IDs() []string {
	ids := make([]string, 0, len(cs))
	for id := range cs {
		ids = append(ids, id)
	}
	return ids
}

// Flatten returns the linear lecture sequence: all sections' lecture lists
// concatenated in section order, then lecture order within each section.
// It never mutates its input.
func Flatten(sections []Section) []Lecture {
	var n int
	for _, s := range sections {
		n += len(s.Lectures)
	}
	flat := make([]Lecture, 0, n)
	for _, s := range sections {
		flat = append(flat, s.Lectures...)
	}
	return flat
}

// IsAccessible reports whether a lecture may be played: it is the first
// lecture overall, the viewer holds a bypass privilege (admin or course
// creator), or every strictly preceding lecture in the flattened order is
// completed. It must always be evaluated against the CURRENT flattened list;
// reordering or adding lectures changes the meaning of "preceding", so the
// result is never cached.
func IsAccessible(lectureID string, flat []Lecture, completed CompletedSet, bypass bool) bool {
	idx := -1
	for i, l := range flat {
		if l.ID == lectureID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	if idx == 0 || bypass {
		return true
	}
	for _, prev := range flat[:idx] {
		if !completed.Contains(prev.ID) {
			return false
		}
	}
	return true
}

// IsCompleted is a pure membership test.
func IsCompleted(lectureID string, completed CompletedSet) bool {
	return completed.Contains(lectureID)
}

// ProgressPercent returns round(100 * |completed ∩ flat| / |flat|),
// and 0 for an empty lecture list. Completed ids no longer present in the
// flattened list do not count.
func ProgressPercent(completed CompletedSet, flat []Lecture) int {
	if len(flat) == 0 {
		return 0
	}
	var done int
	for _, l := range flat {
		if completed.Contains(l.ID) {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(flat))))
}

// RedactLocked returns a copy of the course where inaccessible lectures have
// their video refs withheld so a non-bypass viewer can list, but not play,
// locked content. Sections and lecture order are preserved.
func RedactLocked(c Course, completed CompletedSet, bypass bool) Course {
	if bypass {
		return c
	}
	flat := Flatten(c.Sections)

	sections := make([]Section, len(c.Sections))
	for i, s := range c.Sections {
		lectures := make([]Lecture, len(s.Lectures))
		for j, l := range s.Lectures {
			if !IsAccessible(l.ID, flat, completed, false) {
				l.Video = VideoRef{}
			}
			lectures[j] = l
		}
		s.Lectures = lectures
		sections[i] = s
	}
	c.Sections = sections
	return c
}
