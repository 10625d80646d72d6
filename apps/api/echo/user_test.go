package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GraduateProjectPTIT/lms-backend/core/user"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	student := createUser(t, app.userRepo, "Awa Ndiaye", "awandiaye", "awa@test.cm", "passwd", []string{user.RoleStudent}, true)
	inactive := createUser(t, app.userRepo, "Gone User", "goneuser", "gone@test.cm", "passwd", []string{user.RoleStudent}, false)

	tests := []struct {
		name     string
		body     []byte
		wantCode int
	}{
		{"empty credentials", []byte(`{}`), http.StatusBadRequest},
		{"unknown user", []byte(`{"username":"nobody@test.cm","password":"passwd"}`), http.StatusBadRequest},
		{"wrong password", []byte(`{"username":"` + student.Username + `","password":"wrong"}`), http.StatusBadRequest},
		{"deactivated account", []byte(`{"username":"` + inactive.Username + `","password":"passwd"}`), http.StatusForbidden},
		{"login with username", []byte(`{"username":"` + student.Username + `","password":"passwd"}`), http.StatusOK},
		{"login with email", []byte(`{"username":"` + student.Email + `","password":"passwd"}`), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/user/login", tt.body)
			app.server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.NotEmpty(t, res.Token)
				assert.Equal(t, student.Username, res.User.Username)
			}
		})
	}
}

func Test_userApi_registration(t *testing.T) {
	app := setup(t)

	body := []byte(`{"name":"New Student","username":"newstudent","email":"new@test.cm",` +
		`"password":"5tr0ng#p4ss!","password_confirm":"5tr0ng#p4ss!"}`)
	req, rec := newRequest(http.MethodPost, "/api/user/registration", body)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var res LoginResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, []string{user.RoleStudent}, res.User.Roles)

	// an account with the same email cannot be registered twice
	req, rec = newRequest(http.MethodPost, "/api/user/registration", body)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := createUser(t, app.userRepo, "Admin", "rootadmin", "admin@test.cm", "passwd", []string{user.RoleAdmin}, true)
	student := createUser(t, app.userRepo, "Student", "student1", "student@test.cm", "passwd", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	t.Run("requires admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/admin/get_all_users", getToken(t, student))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("paginated envelope", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/admin/get_all_users?page=1&limit=10", adminToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			PaginatedResult struct {
				Data []user.User `json:"data"`
				Meta struct {
					TotalItems  int `json:"totalItems"`
					TotalPages  int `json:"totalPages"`
					CurrentPage int `json:"currentPage"`
					PageSize    int `json:"pageSize"`
				} `json:"meta"`
			} `json:"paginatedResult"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Len(t, res.PaginatedResult.Data, 2)
		assert.Equal(t, 2, res.PaginatedResult.Meta.TotalItems)
		assert.Equal(t, 1, res.PaginatedResult.Meta.TotalPages)
		assert.Equal(t, 1, res.PaginatedResult.Meta.CurrentPage)
		assert.Equal(t, 10, res.PaginatedResult.Meta.PageSize)
	})

	t.Run("role filter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/admin/get_all_users?role="+user.RoleStudent, adminToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			PaginatedResult struct {
				Data []user.User `json:"data"`
			} `json:"paginatedResult"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Len(t, res.PaginatedResult.Data, 1)
		assert.Equal(t, student.Username, res.PaginatedResult.Data[0].Username)
	})
}

func Test_userApi_updatePassword(t *testing.T) {
	app := setup(t)
	student := createUser(t, app.userRepo, "Student", "student1", "student@test.cm", "0ld#p4ssw0rd!", []string{user.RoleStudent}, true)
	token := getToken(t, student)

	tests := []struct {
		name     string
		body     []byte
		wantCode int
	}{
		{"wrong old password", []byte(`{"oldPassword":"nope","newPassword":"n3w#p4ssw0rd!"}`), http.StatusBadRequest},
		{"weak new password", []byte(`{"oldPassword":"0ld#p4ssw0rd!","newPassword":"short"}`), http.StatusBadRequest},
		{"valid change", []byte(`{"oldPassword":"0ld#p4ssw0rd!","newPassword":"n3w#p4ssw0rd!"}`), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/api/user/update_password", token, tt.body)
			app.server.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	// the new password works, the old one is gone
	req, rec := newRequest(http.MethodPost, "/api/user/login",
		[]byte(`{"username":"`+student.Username+`","password":"n3w#p4ssw0rd!"}`))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
