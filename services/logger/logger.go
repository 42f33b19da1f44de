package logsvc

import (
	"io"
	"os"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/caseload/core"
)

// Logger writes structured entries with logrus and reports them to Rollbar when enabled.
type Logger struct {
	log       *logrus.Entry
	rollbarOn bool
}

var _ core.Logger = (*Logger)(nil)

// New returns a Logger tagged with `component` (e.g. "api", "db").
// Entries are JSON formatted in production and plain text otherwise.
func New(out io.Writer, component string, conf *core.Config) *Logger {
	if out == nil {
		out = os.Stdout
	}
	base := logrus.New()
	base.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(conf.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if conf.IsProduction() {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	rollbarOn := conf.RollbarToken != "" && !conf.Debug && !conf.TestMode
	if rollbarOn {
		rollbar.SetToken(conf.RollbarToken)
		rollbar.SetEnvironment(conf.Env)
		rollbar.SetServerHost(conf.Server.Host)
		rollbar.SetCodeVersion(conf.Build)
		rollbar.SetStackTracer(errors.StackTracer)
	}
	rollbar.SetEnabled(rollbarOn)

	return &Logger{
		log:       base.WithField("component", component),
		rollbarOn: rollbarOn,
	}
}

// Discard returns a Logger that writes nowhere; used in tests.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{log: logrus.NewEntry(base)}
}

// prepare splits args into logrus fields and the values reported to Rollbar.
// expected args: error, map[string]interface{}, core.Person
func (l *Logger) prepare(msg string, args []interface{}) (*logrus.Entry, []interface{}) {
	entry := l.log
	var person *core.Person
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)

	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			entry = entry.WithError(v)
			rbArgs = append(rbArgs, v)
		case map[string]interface{}:
			entry = entry.WithFields(v)
			rbArgs = append(rbArgs, v)
		case core.Person:
			if person == nil { // only set one person
				p := v
				person = &p
				entry = entry.WithField("user", v.ID)
			}
		default:
			entry = entry.WithField("extra", v)
		}
	}

	if l.rollbarOn {
		if person != nil {
			rollbar.SetPerson(person.ID, person.Username, person.Email)
		} else {
			rollbar.ClearPerson()
		}
	}
	return entry, rbArgs
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	entry, _ := l.prepare(msg, args)
	entry.Debug(msg)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	entry, rbArgs := l.prepare(msg, args)
	entry.Info(msg)
	if l.rollbarOn {
		rollbar.Info(rbArgs...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	entry, rbArgs := l.prepare(msg, args)
	entry.Warn(msg)
	if l.rollbarOn {
		rollbar.Warning(rbArgs...)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	entry, rbArgs := l.prepare(msg, args)
	entry.Error(msg)
	if l.rollbarOn {
		rollbar.Error(rbArgs...)
	}
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	entry, rbArgs := l.prepare(msg, args)
	if l.rollbarOn {
		rollbar.Critical(rbArgs...)
		rollbar.Wait()
	}
	entry.Fatal(msg)
}

// Logrus exposes the underlying entry, for libraries that take a logrus logger or an io.Writer.
func (l *Logger) Logrus() *logrus.Entry {
	return l.log
}

// Printf lets the Logger serve as a goose/cron style printf logger.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}
