package soapnote

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/session"
	"github.com/trezcool/caseload/core/student"
)

var ErrNotFound = core.NewNotFoundError("SOAP note")

type (
	Repository interface {
		Create(ctx context.Context, n SOAPNote) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]SOAPNote, error)
		Get(ctx context.Context, id string) (SOAPNote, error)
		Update(ctx context.Context, n SOAPNote) error
		Delete(ctx context.Context, ids ...string) (int64, error)
	}

	Service struct {
		repo     Repository
		students *student.Service
		sessions *session.Service
		goals    *goal.Service
		validate *validator.Validate
	}
)

func NewService(
	repo Repository,
	students *student.Service,
	sessions *session.Service,
	goals *goal.Service,
	validate *validator.Validate,
) *Service {
	return &Service{
		repo:     repo,
		students: students,
		sessions: sessions,
		goals:    goals,
		validate: validate,
	}
}

func (svc *Service) check(ctx context.Context, n SOAPNote) error {
	if err := svc.validate.Struct(n); err != nil {
		return err
	}
	if err := core.CheckReference(ctx, svc.students, "studentId", "student", n.StudentID); err != nil {
		return err
	}
	return core.CheckReference(ctx, svc.sessions, "sessionId", "session", n.SessionID.String)
}

func (svc *Service) Create(ctx context.Context, n SOAPNote) (SOAPNote, error) {
	n.Clean()
	if err := svc.check(ctx, n); err != nil {
		return SOAPNote{}, err
	}

	now := core.Now()
	n.ID = core.NewID()
	n.CreatedAt = now
	n.UpdatedAt = now
	if err := svc.repo.Create(ctx, n); err != nil {
		return SOAPNote{}, errors.Wrap(err, "inserting SOAP note")
	}
	return n, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]SOAPNote, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service) Get(ctx context.Context, id string) (SOAPNote, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig, n SOAPNote) (SOAPNote, error) {
	n.ID = orig.ID
	n.CreatedAt = orig.CreatedAt
	n.Clean()
	if err := svc.check(ctx, n); err != nil {
		return SOAPNote{}, err
	}

	n.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, n); err != nil {
		return SOAPNote{}, errors.Wrap(err, "updating SOAP note")
	}
	return n, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}

// SessionContext is a session with the records needed to write about it.
type SessionContext struct {
	Session session.Session
	Student student.Student
	Goals   []goal.Goal
}

// LoadSessionContext fetches a session, its student and the goals it targeted.
func (svc *Service) LoadSessionContext(ctx context.Context, sessionID string) (SessionContext, error) {
	sess, err := svc.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Cause(err) == session.ErrNotFound {
			return SessionContext{}, core.NewValidationError(nil, core.FieldError{Field: "sessionId", Error: "session not found"})
		}
		return SessionContext{}, errors.Wrap(err, "getting session")
	}
	st, err := svc.students.Get(ctx, sess.StudentID)
	if err != nil {
		return SessionContext{}, errors.Wrap(err, "getting student")
	}
	goals, err := svc.goals.Query(ctx, goal.QueryFilter{StudentID: st.ID})
	if err != nil {
		return SessionContext{}, errors.Wrap(err, "querying goals")
	}

	targeted := make([]goal.Goal, 0, len(sess.GoalsTargeted))
	for _, g := range goals {
		if sess.GoalsTargeted.Contains(g.ID) || performanceHasGoal(sess.PerformanceData, g.ID) {
			targeted = append(targeted, g)
		}
	}
	return SessionContext{Session: sess, Student: st, Goals: targeted}, nil
}

// GenerateForSession builds the template SOAP draft of a session.
func (svc *Service) GenerateForSession(ctx context.Context, sessionID string) (Draft, error) {
	sc, err := svc.LoadSessionContext(ctx, sessionID)
	if err != nil {
		return Draft{}, err
	}
	return Generate(sc.Session, sc.Student.Name, sc.Goals), nil
}

func performanceHasGoal(data session.PerformanceList, goalID string) bool {
	for _, perf := range data {
		if perf.GoalID == goalID {
			return true
		}
	}
	return false
}
