// Package emailsvc implements core.EmailService.
package emailsvc

import "github.com/trezcool/caseload/core"

// New returns the console service in development and tests, Sendgrid otherwise.
func New(conf *core.Config, logger core.Logger) (core.EmailService, error) {
	if conf.Debug || conf.TestMode {
		return NewConsoleService(conf, logger), nil
	}
	return NewSendgridService(conf, logger)
}
