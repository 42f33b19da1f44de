package main

import (
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/backup"
	"github.com/trezcool/caseload/core/user"
	emailsvc "github.com/trezcool/caseload/services/email"
	logsvc "github.com/trezcool/caseload/services/logger"
	"github.com/trezcool/caseload/storage/database"
	"github.com/trezcool/caseload/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New(os.Stderr, "admin", conf)

	// set up DB; migrations are left to the migrate command
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	cli := commandLine{
		db:        db,
		logger:    logger,
		out:       os.Stdout,
		usrSvc:    user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger), validate, conf),
		backupSvc: backup.NewService(sqlxrepos.NewBackupRepository(db), validate),
	}
	if err := cli.run(os.Args[1:]); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		db.Close()
		os.Exit(1)
	}
}
