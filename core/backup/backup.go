// Package backup exports and imports the whole caseload as a single JSON document.
package backup

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
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
)

// Version of the backup document format.
const Version = 1

// Import modes
const (
	ModeMerge   = "merge"
	ModeReplace = "replace"
)

// Snapshot holds every table of the caseload, users excluded.
type Snapshot struct {
	Version           int                               `json:"version"`
	ExportedAt        time.Time                         `json:"exportedAt"`
	Schools           []school.School                   `json:"schools" validate:"dive"`
	Lunches           []school.Lunch                    `json:"lunches" validate:"dive"`
	Teachers          []teacher.Teacher                 `json:"teachers" validate:"dive"`
	CaseManagers      []casemanager.CaseManager         `json:"caseManagers" validate:"dive"`
	Students          []student.Student                 `json:"students" validate:"dive"`
	Goals             []goal.Goal                       `json:"goals" validate:"dive"`
	Sessions          []session.Session                 `json:"sessions" validate:"dive"`
	Evaluations       []evaluation.Evaluation           `json:"evaluations" validate:"dive"`
	SOAPNotes         []soapnote.SOAPNote               `json:"soapNotes" validate:"dive"`
	ProgressReports   []progressreport.ProgressReport   `json:"progressReports" validate:"dive"`
	DueDateItems      []duedate.Item                    `json:"dueDateItems" validate:"dive"`
	Communications    []communication.Communication     `json:"communications" validate:"dive"`
	ScheduledSessions []schedule.ScheduledSession       `json:"scheduledSessions" validate:"dive"`
	TimesheetNotes    []timesheet.Note                  `json:"timesheetNotes" validate:"dive"`
}

// Counts returns the number of records per table.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"schools":           len(s.Schools),
		"lunches":           len(s.Lunches),
		"teachers":          len(s.Teachers),
		"caseManagers":      len(s.CaseManagers),
		"students":          len(s.Students),
		"goals":             len(s.Goals),
		"sessions":          len(s.Sessions),
		"evaluations":       len(s.Evaluations),
		"soapNotes":         len(s.SOAPNotes),
		"progressReports":   len(s.ProgressReports),
		"dueDateItems":      len(s.DueDateItems),
		"communications":    len(s.Communications),
		"scheduledSessions": len(s.ScheduledSessions),
		"timesheetNotes":    len(s.TimesheetNotes),
	}
}

type ImportResult struct {
	Mode     string         `json:"mode"`
	Imported map[string]int `json:"imported"`
}

type (
	Repository interface {
		Export(ctx context.Context) (Snapshot, error)
		// Import writes the snapshot in one transaction, parents first.
		// replace wipes every table beforehand; otherwise rows are upserted by id.
		Import(ctx context.Context, snap Snapshot, replace bool) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Export(ctx context.Context) (Snapshot, error) {
	snap, err := svc.repo.Export(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "exporting tables")
	}
	snap.Version = Version
	snap.ExportedAt = time.Now().UTC()
	return snap, nil
}

// Import validates the snapshot then writes it according to mode (merge by default).
func (svc *Service) Import(ctx context.Context, snap Snapshot, mode string) (ImportResult, error) {
	switch mode = core.CleanString(mode, true /* lower */); mode {
	case "":
		mode = ModeMerge
	case ModeMerge, ModeReplace:
	default:
		return ImportResult{}, core.NewValidationError(nil, core.FieldError{
			Field: "mode",
			Error: "mode must be one of: merge, replace",
		})
	}

	prepare(&snap)
	if err := svc.validate.Struct(snap); err != nil {
		return ImportResult{}, err
	}
	if err := checkReferences(&snap, mode == ModeReplace); err != nil {
		return ImportResult{}, err
	}

	if err := svc.repo.Import(ctx, snap, mode == ModeReplace); err != nil {
		return ImportResult{}, errors.Wrap(err, "importing snapshot")
	}
	return ImportResult{Mode: mode, Imported: snap.Counts()}, nil
}

// prepare cleans every record and fills in missing ids and timestamps.
func prepare(snap *Snapshot) {
	now := core.Now()
	stamp := func(id *string, created, updated *core.Timestamp) {
		if *id == "" {
			*id = core.NewID()
		}
		if created.IsZero() {
			*created = now
		}
		if updated.IsZero() {
			*updated = *created
		}
	}

	for i := range snap.Schools {
		r := &snap.Schools[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.Lunches {
		r := &snap.Lunches[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.Teachers {
		r := &snap.Teachers[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.CaseManagers {
		r := &snap.CaseManagers[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.Students {
		r := &snap.Students[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.Goals {
		r := &snap.Goals[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.Sessions {
		r := &snap.Sessions[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.Evaluations {
		r := &snap.Evaluations[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.SOAPNotes {
		r := &snap.SOAPNotes[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.ProgressReports {
		r := &snap.ProgressReports[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.DueDateItems {
		r := &snap.DueDateItems[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.Communications {
		r := &snap.Communications[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.ScheduledSessions {
		r := &snap.ScheduledSessions[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
	for i := range snap.TimesheetNotes {
		r := &snap.TimesheetNotes[i]
		r.Clean()
		stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	}
}

// checkReferences verifies that references between records of the snapshot hold.
// When merging, references to records absent from the snapshot are left to the database.
func checkReferences(snap *Snapshot, complete bool) error {
	students := make(map[string]bool, len(snap.Students))
	for _, st := range snap.Students {
		students[st.ID] = true
	}
	goals := make(map[string]bool, len(snap.Goals))
	for _, g := range snap.Goals {
		goals[g.ID] = true
	}
	sessions := make(map[string]bool, len(snap.Sessions))
	for _, s := range snap.Sessions {
		sessions[s.ID] = true
	}
	caseManagers := make(map[string]bool, len(snap.CaseManagers))
	for _, cm := range snap.CaseManagers {
		caseManagers[cm.ID] = true
	}

	var flds []core.FieldError
	check := func(known map[string]bool, field, entity, id string) {
		if complete && id != "" && !known[id] {
			flds = append(flds, core.FieldError{Field: field, Error: entity + " not found"})
		}
	}

	for i, st := range snap.Students {
		check(caseManagers, fieldPath("students", i, "caseManagerId"), "case manager", st.CaseManagerID.String)
	}
	for i, g := range snap.Goals {
		check(students, fieldPath("goals", i, "studentId"), "student", g.StudentID)
		check(goals, fieldPath("goals", i, "parentGoalId"), "parent goal", g.ParentGoalID.String)
	}
	for i, s := range snap.Sessions {
		check(students, fieldPath("sessions", i, "studentId"), "student", s.StudentID)
	}
	for i, e := range snap.Evaluations {
		check(students, fieldPath("evaluations", i, "studentId"), "student", e.StudentID)
	}
	for i, n := range snap.SOAPNotes {
		check(students, fieldPath("soapNotes", i, "studentId"), "student", n.StudentID)
		check(sessions, fieldPath("soapNotes", i, "sessionId"), "session", n.SessionID.String)
	}
	for i, r := range snap.ProgressReports {
		check(students, fieldPath("progressReports", i, "studentId"), "student", r.StudentID)
	}
	for i, it := range snap.DueDateItems {
		check(students, fieldPath("dueDateItems", i, "studentId"), "student", it.StudentID.String)
	}
	for i, c := range snap.Communications {
		check(students, fieldPath("communications", i, "studentId"), "student", c.StudentID.String)
	}
	for i, s := range snap.ScheduledSessions {
		for j, id := range s.StudentIDs {
			check(students, fieldPath("scheduledSessions", i, "studentIds")+"["+strconv.Itoa(j)+"]", "student", id)
		}
	}

	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func fieldPath(table string, i int, field string) string {
	return table + "[" + strconv.Itoa(i) + "]." + field
}
