package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	dig_container "github.com/trezcool/caseload/apps/api/di/dig"
	. "github.com/trezcool/caseload/apps/api/echo"
	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/assistant"
	"github.com/trezcool/caseload/core/student"
	"github.com/trezcool/caseload/core/user"
	"github.com/trezcool/caseload/services/email"
	"github.com/trezcool/caseload/storage/database"
	"github.com/trezcool/caseload/storage/database/dbtest"
)

var (
	db      *sqlx.DB
	conf    *core.Config
	deps    ServerDeps
	app     *Server
	mailSvc *emailsvc.ConsoleService

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func testConfig(dir string) *core.Config {
	c := &core.Config{
		AppName:          "Caseload",
		Env:              core.EnvTest,
		TestMode:         true,
		Build:            "test",
		SecretKey:        "test-secret-key",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Caseload", Address: "noreply@test.cd"},
		LogLevel:         "panic",
	}
	c.Server.JWTExpirationDelta = time.Hour
	c.Server.JWTRefreshExpirationDelta = 24 * time.Hour
	c.Server.DisableReqLogs = true
	c.Server.UploadLimit = "11M"
	c.Auth.PasswordResetTimeoutDelta = time.Hour
	c.Database.Engine = database.EngineSQLite
	c.Database.Path = filepath.Join(dir, "caseload.db")
	c.RateLimit.APIRequests = 100
	c.RateLimit.APIWindow = time.Minute
	c.RateLimit.StrictRequests = 2
	c.RateLimit.StrictWindow = time.Minute
	c.AI.Models = []string{"model-a", "model-b"}
	return c
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "caseload-api")
	if err != nil {
		fmt.Printf("os.MkdirTemp(): %v", err)
		os.Exit(1)
	}
	conf = testConfig(dir)

	c := dig_container.New(func() *core.Config { return conf })
	err = c.Invoke(func(d *sqlx.DB, sd ServerDeps) {
		db = d
		deps = sd
	})
	if err != nil {
		fmt.Printf("container.Invoke(): %v", err)
		os.Exit(1)
	}
	mailSvc = deps.MailSvc.(*emailsvc.ConsoleService)
	app = NewServer(deps)

	// run tests
	code := m.Run()

	// clean up
	if err = db.Close(); err != nil {
		fmt.Printf("db.Close(): %v", err)
		code = 1
	}
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// newApp returns a server built from the shared dependencies, altered by `alter`.
func newApp(alter func(c *core.Config, d *ServerDeps)) *Server {
	c := *conf
	d := deps
	d.Conf = &c
	alter(&c, &d)
	return NewServer(d)
}

type fakeGenerator struct {
	answer string
	err    error
	calls  []string // models
}

func (g *fakeGenerator) Generate(_ context.Context, model, _ string, _ ...assistant.Attachment) (string, error) {
	g.calls = append(g.calls, model)
	return g.answer, g.err
}

func newAIApp(gen assistant.Generator) *Server {
	return newApp(func(c *core.Config, d *ServerDeps) {
		d.AssistantSvc = assistant.NewService(gen, c, d.Logger)
	})
}

type httpErr struct {
	Error string `json:"error"`
}

type validationErr struct {
	Error   string            `json:"error"`
	Details []core.FieldError `json:"details"`
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

// do serves a request with app and returns the recorder.
func do(srv *Server, method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	srv.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	require.NoError(t, err)
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		require.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func createStudent(t *testing.T, name string, alter ...func(st *student.Student)) student.Student {
	t.Helper()
	st := student.Student{Name: name, Grade: "3", School: "Lincoln"}
	for _, f := range alter {
		f(&st)
	}
	st, err := deps.StudentSvc.Create(context.Background(), st)
	require.NoError(t, err)
	return st
}

func createUser(t *testing.T, name, uname, email, pwd string) user.User {
	t.Helper()
	usr, err := deps.UserSvc.Create(context.Background(), user.NewUser{
		Name: name, Username: uname, Email: email, Password: pwd, PasswordConfirm: pwd,
	})
	require.NoError(t, err)
	return usr
}

func resetDB(t *testing.T) {
	dbtest.ResetDB(t, db)
}
