package database

import (
	"context"
	"embed"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/caseload/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"

	MigrationsDir = "migrations"
)

func init() {
	sqlx.BindDriver(EngineSQLite, sqlx.QUESTION)
}

// sqliteDSN enables foreign keys (for cascades) and waits on locks instead of failing.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open connects to the configured engine and waits for it to answer.
func Open(conf *core.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch conf.Database.Engine {
	case EngineSQLite, "":
		db, err = sqlx.Open(EngineSQLite, sqliteDSN(conf.Database.Path))
		if err == nil {
			// SQLite serializes writers; one connection avoids SQLITE_BUSY between pooled connections.
			db.SetMaxOpenConns(1)
		}
	case EnginePostgres:
		if conf.Database.URL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres engine")
		}
		db, err = sqlx.Open(EnginePostgres, conf.Database.URL)
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

func gooseDialect(driverName string) string {
	if driverName == EnginePostgres {
		return "postgres"
	}
	return "sqlite3"
}

// SetupGoose points goose at the embedded migrations, with the dialect of db.
// A nil logger keeps goose's default.
func SetupGoose(db *sqlx.DB, logger goose.Logger) error {
	goose.SetBaseFS(migrationsFS)
	if logger != nil {
		goose.SetLogger(logger)
	}
	return goose.SetDialect(gooseDialect(db.DriverName()))
}

// Migrate applies all pending migrations.
func Migrate(db *sqlx.DB, logger goose.Logger) error {
	if err := SetupGoose(db, logger); err != nil {
		return errors.Wrap(err, "setting up migrations")
	}
	if err := goose.Up(db.DB, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// IsForeignKeyViolation reports whether err comes from a broken foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(errors.Cause(err).Error())
	return strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, "violates foreign key")
}

