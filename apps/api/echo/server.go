package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/assistant"
	"github.com/trezcool/caseload/core/backup"
	"github.com/trezcool/caseload/core/casemanager"
	"github.com/trezcool/caseload/core/communication"
	"github.com/trezcool/caseload/core/duedate"
	"github.com/trezcool/caseload/core/evaluation"
	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/progressreport"
	"github.com/trezcool/caseload/core/schedule"
	"github.com/trezcool/caseload/core/school"
	"github.com/trezcool/caseload/core/session"
	"github.com/trezcool/caseload/core/soapnote"
	"github.com/trezcool/caseload/core/student"
	"github.com/trezcool/caseload/core/teacher"
	"github.com/trezcool/caseload/core/timesheet"
	"github.com/trezcool/caseload/core/user"
)

// LimiterStoreFunc builds the store of a named rate limiter allowing `limit` requests per `window`.
type LimiterStoreFunc func(name string, limit int, window time.Duration) middleware.RateLimiterStore

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		MailSvc    core.EmailService
		// LimiterStore defaults to in-memory stores.
		LimiterStore LimiterStoreFunc

		UserSvc           *user.Service
		StudentSvc        *student.Service
		GoalSvc           *goal.Service
		SessionSvc        *session.Service
		SchoolSvc         *school.Service
		TeacherSvc        *teacher.Service
		CaseManagerSvc    *casemanager.Service
		EvaluationSvc     *evaluation.Service
		SOAPNoteSvc       *soapnote.Service
		ProgressReportSvc *progressreport.Service
		DueDateSvc        *duedate.Service
		CommunicationSvc  *communication.Service
		ScheduleSvc       *schedule.Service
		TimesheetSvc      *timesheet.Service
		AssistantSvc      *assistant.Service
		BackupSvc         *backup.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
		routes   []route
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(requestLogger(s.deps.Logger))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(corsMiddleware(conf))
	if conf.Server.UploadLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.UploadLimit))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = false

	s.app.GET("/", home)
	s.registerDocs()

	limiters := newLimiters(conf, s.deps.LimiterStore)
	api := s.app.Group("/api", limiters.api)
	jwt := newJWTMiddleware(conf, true /* enforced */)
	optionalJWT := newJWTMiddleware(conf, conf.Auth.Required)

	rg := &routeGroup{eg: api, server: s, base: "/api"}
	rg.GET("/health", s.health, "System", "Health check")

	registerAuthAPI(rg.group("/auth"), jwt, limiters.strict, s.deps)

	private := rg.secure(optionalJWT)
	registerStudentAPI(private, s.deps)
	registerGoalAPI(private, s.deps)
	registerSessionAPI(private, s.deps)
	registerSchoolAPI(private, s.deps)
	registerPeopleAPI(private, s.deps)
	registerEvaluationAPI(private, s.deps)
	registerSOAPNoteAPI(private, s.deps)
	registerProgressReportAPI(private, s.deps)
	registerDueDateAPI(private, s.deps)
	registerCommunicationAPI(private, s.deps)
	registerScheduleAPI(private, s.deps)
	registerTimesheetAPI(private, s.deps)
	registerAssistantAPI(private, limiters.strict, s.deps)
	registerEmailAPI(private, limiters.strict, s.deps)
	registerBackupAPI(private, s.deps)
	registerUserAPI(rg, jwt, s.deps)
}

// Start listens until the server is shut down; a listener failure is sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Caseload API! Documentation lives at /api-docs.")
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	AI        bool      `json:"aiConfigured"`
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   s.deps.Conf.Build,
		AI:        s.deps.AssistantSvc != nil && s.deps.AssistantSvc.Configured(),
	})
}
