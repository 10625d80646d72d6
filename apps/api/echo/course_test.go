package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/user"
)

type courseEnvelope struct {
	Course struct {
		Name       string           `json:"name"`
		Level      string           `json:"level"`
		Categories []string         `json:"categories"`
		Sections   []course.Section `json:"courseData"`
	} `json:"course"`
}

func Test_courseApi_authoring(t *testing.T) {
	app := setup(t)
	teacher := createUser(t, app.userRepo, "Teacher", "teacher1", "teacher@test.cm", "passwd", []string{user.RoleTeacher}, true)
	student := createUser(t, app.userRepo, "Student", "student1", "student@test.cm", "passwd", []string{user.RoleStudent}, true)
	teacherToken := getToken(t, teacher)

	t.Run("students cannot create courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/course/create_course", getToken(t, student),
			[]byte(`{"name":"Nope","description":"x","level":"beginner","categories":["makeup"]}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("create and extend a course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/course/create_course", teacherToken,
			[]byte(`{"name":"Bridal Makeup","description":"From base to veil","level":"beginner","categories":["makeup"],"price":59.99}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var res courseEnvelope
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "Bridal Makeup", res.Course.Name)
	})

	t.Run("invalid level is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/course/create_course", teacherToken,
			[]byte(`{"name":"Bad","description":"x","level":"expert","categories":["makeup"]}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lecture append is gated on completeness", func(t *testing.T) {
		c := createCourse(t, app.courseSvc, teacher.ID, "Gated Course", 1, 0)
		sectionID := c.Sections[0].ID

		// first lecture may omit the video
		req, rec := newAuthRequest(http.MethodPost, "/api/course/"+c.ID+"/sections/"+sectionID+"/lectures",
			teacherToken, []byte(`{"title":"Intro","description":"welcome"}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		// the next one is blocked until the first is complete
		req, rec = newAuthRequest(http.MethodPost, "/api/course/"+c.ID+"/sections/"+sectionID+"/lectures",
			teacherToken, []byte(`{"title":"Part 2","description":"more"}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fail map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fail))
		assert.Contains(t, fail, "lectures")
	})

	t.Run("teachers cannot edit other teachers' courses", func(t *testing.T) {
		other := createUser(t, app.userRepo, "Other", "teacher2", "other@test.cm", "passwd", []string{user.RoleTeacher}, true)
		c := createCourse(t, app.courseSvc, other.ID, "Foreign Course", 1, 1)

		req, rec := newAuthRequest(http.MethodPut, "/api/course/edit_course/"+c.ID, teacherToken,
			[]byte(`{"name":"Hijacked"}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("reorder rejects non-permutations", func(t *testing.T) {
		c := createCourse(t, app.courseSvc, teacher.ID, "Ordered Course", 2, 1)

		req, rec := newAuthRequest(http.MethodPut, "/api/course/"+c.ID+"/reorder_sections", teacherToken,
			[]byte(`{"orderedIds":["`+c.Sections[0].ID+`"]}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		body := marchallObj(t, map[string][]string{
			"orderedIds": {c.Sections[1].ID, c.Sections[0].ID},
		})
		req, rec = newAuthRequest(http.MethodPut, "/api/course/"+c.ID+"/reorder_sections", teacherToken, body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res courseEnvelope
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, c.Sections[1].ID, res.Course.Sections[0].ID)
	})
}

func Test_courseApi_playback(t *testing.T) {
	app := setup(t)
	teacher := createUser(t, app.userRepo, "Teacher", "teacher1", "teacher@test.cm", "passwd", []string{user.RoleTeacher}, true)
	student := createUser(t, app.userRepo, "Student", "student1", "student@test.cm", "passwd", []string{user.RoleStudent}, true)
	studentToken := getToken(t, student)

	c := createCourse(t, app.courseSvc, teacher.ID, "Natural Glow", 2, 2)
	if _, err := app.courseSvc.Enroll(context.Background(), c.ID, student.ID); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	flat := course.Flatten(c.Sections)

	t.Run("content withholds locked videos", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/course/enroll/"+c.ID, studentToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res courseEnvelope
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, c.Name, res.Course.Name)

		got := course.Flatten(res.Course.Sections)
		assert.NotEmpty(t, got[0].Video.URL) // first lecture is open
		for _, l := range got[1:] {          // everything else is locked
			assert.Empty(t, l.Video.URL)
		}
	})

	t.Run("completing in order unlocks the next lecture", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/course/enroll/"+c.ID+"/complete/"+flat[0].ID, studentToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/api/course/enroll/"+c.ID, studentToken)
		app.server.ServeHTTP(rec, req)
		var res courseEnvelope
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

		got := course.Flatten(res.Course.Sections)
		assert.NotEmpty(t, got[1].Video.URL)
		assert.Empty(t, got[2].Video.URL)
	})

	t.Run("completing a locked lecture is a silent no-op", func(t *testing.T) {
		last := flat[len(flat)-1]
		req, rec := newAuthRequest(http.MethodPost, "/api/course/enroll/"+c.ID+"/complete/"+last.ID, studentToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			CompletedLectureIDs []string `json:"completedLectureIds"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, []string{flat[0].ID}, res.CompletedLectureIDs)
	})

	t.Run("progress over current structure", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/course/enroll/"+c.ID+"/progress", studentToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			Progress            int      `json:"progress"`
			CompletedLectureIDs []string `json:"completedLectureIds"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 25, res.Progress) // 1 of 4
		assert.Len(t, res.CompletedLectureIDs, 1)
	})

	t.Run("creator sees everything without enrollment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/course/enroll/"+c.ID, getToken(t, teacher))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res courseEnvelope
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		for _, l := range course.Flatten(res.Course.Sections) {
			assert.NotEmpty(t, l.Video.URL)
		}
	})

	t.Run("unenrolled student is rejected", func(t *testing.T) {
		outsider := createUser(t, app.userRepo, "Outsider", "outsider1", "out@test.cm", "passwd", []string{user.RoleStudent}, true)
		req, rec := newAuthRequest(http.MethodGet, "/api/course/enroll/"+c.ID, getToken(t, outsider))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_orderApi_create(t *testing.T) {
	app := setup(t)
	teacher := createUser(t, app.userRepo, "Teacher", "teacher1", "teacher@test.cm", "passwd", []string{user.RoleTeacher}, true)
	student := createUser(t, app.userRepo, "Student", "student1", "student@test.cm", "passwd", []string{user.RoleStudent}, true)
	studentToken := getToken(t, student)

	c := createCourse(t, app.courseSvc, teacher.ID, "Evening Smoky", 1, 1)
	body := marchallObj(t, map[string]string{"courseId": c.ID})

	req, rec := newAuthRequest(http.MethodPost, "/api/order/create", studentToken, body)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var res struct {
		Order struct {
			CourseID   string  `json:"courseId"`
			CourseName string  `json:"courseName"`
			Price      float64 `json:"price"`
		} `json:"order"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, c.ID, res.Order.CourseID)
	assert.Equal(t, c.Name, res.Order.CourseName)
	assert.Equal(t, c.Price, res.Order.Price)

	// buying the same course twice is rejected
	req, rec = newAuthRequest(http.MethodPost, "/api/order/create", studentToken, body)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the purchase enrolled the student
	req, rec = newAuthRequest(http.MethodGet, "/api/course/enroll/"+c.ID, studentToken)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
