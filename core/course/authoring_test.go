package course

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GraduateProjectPTIT/lms-backend/core"
)

func TestCheckCompleteForAppend(t *testing.T) {
	complete := lec("A")
	noVideo := lec("B")
	noVideo.Video = VideoRef{}
	noDuration := lec("C")
	noDuration.DurationSeconds = 0

	tests := []struct {
		name    string
		section Section
		wantErr bool
	}{
		{"empty section", Section{ID: "s1"}, false},
		{"all complete", Section{ID: "s1", Lectures: []Lecture{complete}}, false},
		{"missing video blocks", Section{ID: "s1", Lectures: []Lecture{complete, noVideo}}, true},
		{"missing duration blocks", Section{ID: "s1", Lectures: []Lecture{noDuration}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCompleteForAppend(tt.section)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			verr, ok := err.(*core.ValidationError)
			if assert.True(t, ok) {
				assert.Equal(t, "lectures", verr.Fields[0].Field)
			}
		})
	}
}

func TestReorderLectures(t *testing.T) {
	s := Section{ID: "s1", Lectures: []Lecture{lec("A"), lec("B"), lec("C")}}

	// a wrong size or non-permutation is rejected untouched
	assert.Error(t, reorderLectures(&s, []string{"A", "B"}))
	assert.Error(t, reorderLectures(&s, []string{"A", "B", "Z"}))
	assert.Error(t, reorderLectures(&s, []string{"A", "A", "B"}))
	assert.Equal(t, "A", s.Lectures[0].ID)

	assert.NoError(t, reorderLectures(&s, []string{"C", "A", "B"}))
	ids := make([]string, len(s.Lectures))
	for i, l := range s.Lectures {
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"C", "A", "B"}, ids)
}

func TestReorderSections(t *testing.T) {
	c := twoSectionCourse()

	assert.Error(t, reorderSections(&c, []string{"s2"}))
	assert.NoError(t, reorderSections(&c, []string{"s2", "s1"}))
	assert.Equal(t, "s2", c.Sections[0].ID)
	assert.Equal(t, "s1", c.Sections[1].ID)
}
