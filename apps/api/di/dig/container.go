package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/caseload/apps/api/echo"
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
	emailsvc "github.com/trezcool/caseload/services/email"
	genaisvc "github.com/trezcool/caseload/services/genai"
	"github.com/trezcool/caseload/services/jobs"
	logsvc "github.com/trezcool/caseload/services/logger"
	"github.com/trezcool/caseload/services/ratelimit"
	"github.com/trezcool/caseload/storage/database"
	"github.com/trezcool/caseload/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger *logsvc.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.New(os.Stdout, "api", conf)
}

func newDBLogger(conf *core.Config) *logsvc.Logger {
	return logsvc.New(os.Stdout, "db", conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db, loggerParam.Logger.Logrus()); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.TestMode {
		return emailsvc.NewConsoleServiceMock(conf, logger)
	}
	svc, err := emailsvc.New(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up email service: %v", err), err)
	}
	return svc
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// newValidate returns the validator with the application's custom rules and translations.
func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	return validate
}

// newGenerator returns the Gemini client, or a nil Generator when no API key is configured.
func newGenerator(conf *core.Config) (assistant.Generator, error) {
	gem, err := genaisvc.NewGemini(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	if gem == nil {
		return nil, nil
	}
	return gem, nil
}

// newLimiterStore shares the rate limits through Redis when REDIS_URL is set, in memory otherwise.
func newLimiterStore(conf *core.Config, logger core.Logger) echoapi.LimiterStoreFunc {
	if !conf.RateLimit.Enabled || conf.RateLimit.RedisURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := ratelimit.NewRedisClient(ctx, conf.RateLimit.RedisURL)
	if err != nil {
		logger.Warn(fmt.Sprintf("redis unavailable, rate limiting in memory: %v", err), err)
		return nil
	}
	return func(name string, limit int, window time.Duration) middleware.RateLimiterStore {
		return ratelimit.NewRedisStore(client, name, limit, window)
	}
}

func newStudentService(repo student.Repository, cms *casemanager.Service, validate *validator.Validate) *student.Service {
	return student.NewService(repo, cms, validate)
}

func newGoalService(repo goal.Repository, students *student.Service, validate *validator.Validate) *goal.Service {
	return goal.NewService(repo, students, validate)
}

func newSessionService(repo session.Repository, students *student.Service, validate *validator.Validate) *session.Service {
	return session.NewService(repo, students, validate)
}

func newEvaluationService(repo evaluation.Repository, students *student.Service, validate *validator.Validate) *evaluation.Service {
	return evaluation.NewService(repo, students, validate)
}

func newProgressReportService(repo progressreport.Repository, students *student.Service, validate *validator.Validate, conf *core.Config) *progressreport.Service {
	return progressreport.NewService(repo, students, validate, conf.ProgressReports)
}

func newDueDateService(repo duedate.Repository, students *student.Service, validate *validator.Validate) *duedate.Service {
	return duedate.NewService(repo, students, validate)
}

func newCommunicationService(repo communication.Repository, students *student.Service, validate *validator.Validate) *communication.Service {
	return communication.NewService(repo, students, validate)
}

func newScheduleService(repo schedule.Repository, students *student.Service, validate *validator.Validate) *schedule.Service {
	return schedule.NewService(repo, students, validate)
}

func newScheduler(conf *core.Config, logger core.Logger, reports *progressreport.Service, dueDates *duedate.Service) *jobs.Scheduler {
	return jobs.New(conf, logger, map[string]jobs.OverdueMarker{
		"progress reports": reports,
		"due date items":   dueDates,
	})
}

type serverParams struct {
	dig.In

	Conf         *core.Config
	Logger       core.Logger
	Validate     *validator.Validate
	Translator   ut.Translator
	MailSvc      core.EmailService
	LimiterStore echoapi.LimiterStoreFunc

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

func newServerDeps(p serverParams) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Conf:              p.Conf,
		Logger:            p.Logger,
		Validate:          p.Validate,
		Translator:        p.Translator,
		MailSvc:           p.MailSvc,
		LimiterStore:      p.LimiterStore,
		UserSvc:           p.UserSvc,
		StudentSvc:        p.StudentSvc,
		GoalSvc:           p.GoalSvc,
		SessionSvc:        p.SessionSvc,
		SchoolSvc:         p.SchoolSvc,
		TeacherSvc:        p.TeacherSvc,
		CaseManagerSvc:    p.CaseManagerSvc,
		EvaluationSvc:     p.EvaluationSvc,
		SOAPNoteSvc:       p.SOAPNoteSvc,
		ProgressReportSvc: p.ProgressReportSvc,
		DueDateSvc:        p.DueDateSvc,
		CommunicationSvc:  p.CommunicationSvc,
		ScheduleSvc:       p.ScheduleSvc,
		TimesheetSvc:      p.TimesheetSvc,
		AssistantSvc:      p.AssistantSvc,
		BackupSvc:         p.BackupSvc,
	}
}

type NewConfigFunc func() *core.Config

// New returns a new dependency injection dig.Container
func New(newConfig NewConfigFunc) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(newGenerator))
	must(c.Provide(newLimiterStore))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewStudentRepository, dig.As(new(student.Repository))))
	must(c.Provide(sqlxrepos.NewGoalRepository, dig.As(new(goal.Repository))))
	must(c.Provide(sqlxrepos.NewSessionRepository, dig.As(new(session.Repository))))
	must(c.Provide(sqlxrepos.NewSchoolRepository, dig.As(new(school.Repository))))
	must(c.Provide(sqlxrepos.NewTeacherRepository, dig.As(new(teacher.Repository))))
	must(c.Provide(sqlxrepos.NewCaseManagerRepository, dig.As(new(casemanager.Repository))))
	must(c.Provide(sqlxrepos.NewEvaluationRepository, dig.As(new(evaluation.Repository))))
	must(c.Provide(sqlxrepos.NewSOAPNoteRepository, dig.As(new(soapnote.Repository))))
	must(c.Provide(sqlxrepos.NewProgressReportRepository, dig.As(new(progressreport.Repository))))
	must(c.Provide(sqlxrepos.NewDueDateRepository, dig.As(new(duedate.Repository))))
	must(c.Provide(sqlxrepos.NewCommunicationRepository, dig.As(new(communication.Repository))))
	must(c.Provide(sqlxrepos.NewScheduleRepository, dig.As(new(schedule.Repository))))
	must(c.Provide(sqlxrepos.NewTimesheetRepository, dig.As(new(timesheet.Repository))))
	must(c.Provide(sqlxrepos.NewBackupRepository, dig.As(new(backup.Repository))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(casemanager.NewService))
	must(c.Provide(newStudentService))
	must(c.Provide(newGoalService))
	must(c.Provide(newSessionService))
	must(c.Provide(school.NewService))
	must(c.Provide(teacher.NewService))
	must(c.Provide(newEvaluationService))
	must(c.Provide(soapnote.NewService))
	must(c.Provide(newProgressReportService))
	must(c.Provide(newDueDateService))
	must(c.Provide(newCommunicationService))
	must(c.Provide(newScheduleService))
	must(c.Provide(timesheet.NewService))
	must(c.Provide(assistant.NewService))
	must(c.Provide(backup.NewService))
	must(c.Provide(newScheduler))

	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
