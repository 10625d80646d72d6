package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/media"
	"github.com/GraduateProjectPTIT/lms-backend/core/order"
	"github.com/GraduateProjectPTIT/lms-backend/core/user"
	emailsvc "github.com/GraduateProjectPTIT/lms-backend/services/email"
	tryonsvc "github.com/GraduateProjectPTIT/lms-backend/services/tryon"
	inmemdb "github.com/GraduateProjectPTIT/lms-backend/storage/database/inmem"
)

type testApp struct {
	server    Server
	userSvc   *user.Service
	courseSvc *course.Service
	orderSvc  *order.Service
	userRepo  user.Repository
	crsRepo   course.Repository
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func setup(t *testing.T) *testApp {
	t.Helper()

	db := inmemdb.Open()
	userRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	ordRepo := inmemdb.NewOrderRepository(db)

	userSvc := user.NewService(userRepo, emailsvc.NewConsoleServiceMock())
	courseSvc := course.NewService(crsRepo)
	orderSvc := order.NewService(ordRepo, courseSvc)
	uploadMgr := media.NewManager(t.TempDir(), 4, 5*time.Second, nopLogger{})

	srv := NewServer(&Options{
		Address:        ":0",
		DisableReqLogs: true,
		Logger:         nopLogger{},
		UserSvc:        userSvc,
		CourseSvc:      courseSvc,
		OrderSvc:       orderSvc,
		UploadMgr:      uploadMgr,
		TryOnSvc:       tryonsvc.NewDummyService(),
	})
	return &testApp{
		server:    srv,
		userSvc:   userSvc,
		courseSvc: courseSvc,
		orderSvc:  orderSvc,
		userRepo:  userRepo,
		crsRepo:   crsRepo,
	}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createUser(t *testing.T, repo user.Repository, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	return user.CreateUser(t, repo, name, uname, email, pwd, roles, isActive)
}

// createCourse builds a published course through the authoring service:
// numSections sections of lecturesPerSection complete lectures each.
func createCourse(t *testing.T, svc *course.Service, creatorID, name string, numSections, lecturesPerSection int) course.Course {
	t.Helper()
	ctx := context.Background()

	c, err := svc.Create(ctx, course.NewCourse{
		Name:        name,
		Description: "About " + name,
		Level:       course.LevelBeginner,
		Categories:  []string{"makeup"},
		Price:       49.99,
	}, creatorID)
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}

	for i := 0; i < numSections; i++ {
		if c, err = svc.AddSection(ctx, c.ID, course.NewSection{Title: "Section " + strconv.Itoa(i+1)}); err != nil {
			t.Fatalf("createCourse() failed: %v", err)
		}
		sectionID := c.Sections[len(c.Sections)-1].ID
		for j := 0; j < lecturesPerSection; j++ {
			n := strconv.Itoa(i+1) + "." + strconv.Itoa(j+1)
			c, err = svc.AddLecture(ctx, c.ID, sectionID, course.NewLecture{
				Title:           "Lecture " + n,
				Description:     "About lecture " + n,
				DurationSeconds: 60,
				Video:           course.VideoRef{PublicID: "vid-" + n, URL: "https://cdn.example.com/" + n + ".mp4"},
			})
			if err != nil {
				t.Fatalf("createCourse() failed: %v", err)
			}
		}
	}

	published := true
	if c, err = svc.Update(ctx, c.ID, course.UpdateCourse{Published: &published}); err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
