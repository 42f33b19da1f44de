// Package jobs runs the periodic maintenance of the caseload.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/caseload/core"
)

// OverdueMarker flags the records that are past due; implemented by progress report and due date services.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	spec    string
	timeout time.Duration
	logger  core.Logger
	markers map[string]OverdueMarker
}

// New returns a Scheduler marking overdue records on conf.Jobs.OverdueSpec (standard 5-field cron).
func New(conf *core.Config, logger core.Logger, markers map[string]OverdueMarker) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cronLogger{logger}))),
		spec:    conf.Jobs.OverdueSpec,
		timeout: 5 * time.Minute,
		logger:  logger,
		markers: markers,
	}
}

// Start registers the jobs, runs them once and starts the cron engine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return errors.Wrapf(err, "adding overdue job %q", s.spec)
	}
	go s.run()
	s.cron.Start()
	s.logger.Info(fmt.Sprintf("jobs scheduler started: overdue check %q", s.spec))
	return nil
}

// Stop stops the cron engine; the returned context is done when running jobs complete.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.MarkOverdue(ctx); err != nil {
		s.logger.Error(fmt.Sprintf("marking overdue records: %v", err), err)
	}
}

// MarkOverdue runs every marker, returning the first error after trying them all.
func (s *Scheduler) MarkOverdue(ctx context.Context) error {
	var firstErr error
	for name, marker := range s.markers {
		n, err := marker.MarkOverdue(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Wrap(err, name)
			}
			continue
		}
		if n > 0 {
			s.logger.Info(fmt.Sprintf("%d %s marked overdue", n, name), map[string]interface{}{"job": "overdue", "kind": name, "count": n})
		}
	}
	return firstErr
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvMap(keysAndValues))
}

func kvMap(kv []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return m
}
