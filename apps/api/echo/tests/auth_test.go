package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/caseload/apps/api/echo"
	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/user"
)

const testPwd = "Sup3r-S3cret!"

func Test_authApi_login(t *testing.T) {
	resetDB(t)
	usr := createUser(t, "Jane Speech", "jane", "jane@test.cd", testPwd)

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login",
			body:     []byte(`{"username": "jane", "password": "nope"}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/api/auth/login",
			body:     []byte(`{"username": "joe", "password": "` + testPwd + `"}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	for _, uname := range []string{"JANE", "jane@test.cd"} {
		t.Run("login with "+uname, func(t *testing.T) {
			rec := do(app, http.MethodPost, "/api/auth/login", []byte(`{"username": "`+uname+`", "password": "`+testPwd+`"}`))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp LoginResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			require.NotNil(t, resp.User)
			assert.Equal(t, usr.ID, resp.User.ID)
			assert.False(t, resp.User.LastLogin.IsZero())
		})
	}
}

func Test_authApi_me(t *testing.T) {
	resetDB(t)
	usr := createUser(t, "Jane Speech", "jane", "jane@test.cd", testPwd)
	token := getToken(t, usr)

	tests := []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid token", method: http.MethodGet, path: "/api/auth/me", token: "not-a-token",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{name: "me", method: http.MethodGet, path: "/api/auth/me", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
		{name: "token refresh", method: http.MethodPost, path: "/api/auth/token-refresh", token: token, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("refresh window expired", func(t *testing.T) {
		claims := GetUserClaims(conf, usr, 1 /* 1970 */)
		old, err := GenerateToken(conf, claims)
		require.NoError(t, err)
		req, rec := newAuthRequest(http.MethodPost, "/api/auth/token-refresh", old)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})}, rec)
	})
}

func Test_authApi_passwordReset(t *testing.T) {
	resetDB(t)
	createUser(t, "Jane Speech", "jane", "jane@test.cd", testPwd)
	sent := len(mailSvc.SentMessages())

	// unknown addresses get the same answer
	for _, email := range []string{"jane@test.cd", "nobody@test.cd"} {
		rec := do(app, http.MethodPost, "/api/auth/password-reset", []byte(`{"email": "`+email+`"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	mailSvc.Wait()
	msgs := mailSvc.SentMessages()
	require.Len(t, msgs, sent+1)
	assert.Equal(t, "jane@test.cd", msgs[sent].To[0].Address)

	rec := do(app, http.MethodPost, "/api/auth/password-reset-confirm", []byte(
		`{"uid": "x", "token": "y", "password": "`+testPwd+`", "passwordConfirm": "`+testPwd+`"}`,
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_userApi(t *testing.T) {
	resetDB(t)
	jane := createUser(t, "Jane Speech", "jane", "jane@test.cd", testPwd)
	token := getToken(t, jane)

	req, rec := newAuthRequest(http.MethodGet, "/api/users", "")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "user routes always require a token")

	req, rec = newAuthRequest(http.MethodPost, "/api/users", token, []byte(
		`{"name": "Sam", "username": "sam_slp", "password": "password", "passwordConfirm": "password"}`,
	))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var vErr validationErr
	decode(t, rec, &vErr)
	assert.Equal(t, "password", vErr.Details[0].Field)

	req, rec = newAuthRequest(http.MethodPost, "/api/users", token, []byte(
		`{"name": "Sam", "username": "sam_slp", "password": "`+testPwd+`", "passwordConfirm": "`+testPwd+`"}`,
	))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sam user.User
	decode(t, rec, &sam)

	req, rec = newAuthRequest(http.MethodGet, "/api/users", token)
	app.ServeHTTP(rec, req)
	var users []user.User
	decode(t, rec, &users)
	assert.Len(t, users, 2)

	req, rec = newAuthRequest(http.MethodDelete, "/api/users/"+jane.ID, token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "you cannot delete your own account"})}, rec)

	req, rec = newAuthRequest(http.MethodDelete, "/api/users/"+sam.ID, token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	resetDB(t)
	usr := createUser(t, "Jane Speech", "jane", "jane@test.cd", testPwd)
	secured := newApp(func(c *core.Config, _ *ServerDeps) { c.Auth.Required = true })

	rec := do(secured, http.MethodGet, "/api/students")
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	rec = do(secured, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec := newAuthRequest(http.MethodGet, "/api/students", getToken(t, usr))
	secured.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	limited := newApp(func(c *core.Config, _ *ServerDeps) { c.RateLimit.Enabled = true })

	body := []byte(`{"username": "nobody", "password": "nope"}`)
	for i := 0; i < 2; i++ {
		rec := do(limited, http.MethodPost, "/api/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := do(limited, http.MethodPost, "/api/auth/login", body)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusTooManyRequests,
		wantData: marchallObj(t, httpErr{Error: "too many requests, please try again later"}),
	}, rec)

	// the general limiter still lets other routes through
	rec = do(limited, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}
