package sqlxrepos

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/backup"
	"github.com/trezcool/caseload/core/evaluation"
	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/progressreport"
	"github.com/trezcool/caseload/core/schedule"
	"github.com/trezcool/caseload/core/school"
	"github.com/trezcool/caseload/core/session"
	"github.com/trezcool/caseload/core/student"
	"github.com/trezcool/caseload/core/user"
	"github.com/trezcool/caseload/storage/database/dbtest"
)

var (
	db  *sqlx.DB
	ctx = context.Background()
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "sqlxrepos")
	if err != nil {
		panic(err)
	}
	db, err = dbtest.Open(filepath.Join(dir, "caseload.db"))
	if err != nil {
		panic(err)
	}

	code := m.Run()

	_ = db.Close()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func createStudent(t *testing.T, name, school string, archived bool) student.Student {
	t.Helper()
	now := core.Now()
	st := student.Student{
		ID:                      core.NewID(),
		Name:                    name,
		Grade:                   "3",
		School:                  school,
		ProgressReportFrequency: student.FrequencyQuarterly,
		Archived:                archived,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	require.NoError(t, NewStudentRepository(db).Create(ctx, st))
	return st
}

func createGoal(t *testing.T, studentID, parentID string) goal.Goal {
	t.Helper()
	now := core.Now()
	g := goal.Goal{
		ID:           core.NewID(),
		StudentID:    studentID,
		Description:  "Produce /r/ in words",
		Status:       goal.StatusInProgress,
		ParentGoalID: null.NewString(parentID, parentID != ""),
		DateCreated:  core.Today(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewGoalRepository(db).Create(ctx, g))
	return g
}

func idsOf(n int, id func(i int) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = id(i)
	}
	return out
}

func TestStudentRepository(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewStudentRepository(db)

	ann := createStudent(t, "Ann", "Lincoln", false)
	bob := createStudent(t, "Bob", "Lincoln", true)
	cal := createStudent(t, "Cal", "Adams", false)

	tests := []struct {
		name   string
		filter student.QueryFilter
		want   []string
	}{
		{name: "hides archived by default", want: []string{ann.ID, cal.ID}},
		{name: "all", filter: student.QueryFilter{Archived: "all"}, want: []string{ann.ID, bob.ID, cal.ID}},
		{name: "archived only", filter: student.QueryFilter{Archived: "true"}, want: []string{bob.ID}},
		{name: "school", filter: student.QueryFilter{School: "Lincoln", Archived: "all"}, want: []string{ann.ID, bob.ID}},
		{name: "search", filter: student.QueryFilter{Search: "CA"}, want: []string{cal.ID}},
		{name: "ids", filter: student.QueryFilter{IDs: []string{ann.ID, bob.ID}, Archived: "all"}, want: []string{ann.ID, bob.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Query(ctx, tt.filter, core.DBOrdering{Field: "name", Ascending: true})
			require.NoError(t, err)
			assert.Equal(t, tt.want, idsOf(len(got), func(i int) string { return got[i].ID }))
		})
	}

	_, err := repo.Get(ctx, "missing")
	assert.Equal(t, student.ErrNotFound, err)

	ok, err := repo.Exists(ctx, ann.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := repo.Delete(ctx, ann.ID, bob.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStudentDeleteCascades(t *testing.T) {
	dbtest.ResetDB(t, db)

	st := createStudent(t, "Ann", "Lincoln", false)
	parent := createGoal(t, st.ID, "")
	createGoal(t, st.ID, parent.ID)

	_, err := NewStudentRepository(db).Delete(ctx, st.ID)
	require.NoError(t, err)

	goals, err := NewGoalRepository(db).Query(ctx, goal.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestGoalRepositoryParentFilter(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewGoalRepository(db)

	st := createStudent(t, "Ann", "Lincoln", false)
	parent := createGoal(t, st.ID, "")
	child := createGoal(t, st.ID, parent.ID)

	got, err := repo.Query(ctx, goal.QueryFilter{ParentGoalID: "null"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, parent.ID, got[0].ID)

	got, err = repo.Query(ctx, goal.QueryFilter{ParentGoalID: parent.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, child.ID, got[0].ID)
}

func TestSchoolRepositoryLunches(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewSchoolRepository(db)

	now := core.Now()
	newSchool := func(name string) school.School {
		s := school.School{ID: core.NewID(), Name: name, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repo.Create(ctx, s))
		return s
	}
	newLunch := func(schoolName string) school.Lunch {
		l := school.Lunch{ID: core.NewID(), School: schoolName, StartTime: "11:30", EndTime: "12:00", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repo.CreateLunch(ctx, l))
		return l
	}

	lincoln := newSchool("Lincoln")
	adams := newSchool("Adams")
	newLunch("Lincoln")
	newLunch("Adams")

	exists, err := repo.NameExists(ctx, "LINCOLN", "")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.NameExists(ctx, "lincoln", lincoln.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := repo.GetByName(ctx, "aDaMs")
	require.NoError(t, err)
	assert.Equal(t, adams.ID, found.ID)
	assert.Equal(t, "Adams", found.Name)
	_, err = repo.GetByName(ctx, "Nowhere")
	assert.Equal(t, school.ErrNotFound, err)

	// renaming carries the lunches along
	renamed := lincoln
	renamed.Name = "Lincoln Elementary"
	require.NoError(t, repo.Update(ctx, renamed, lincoln.Name))
	lunches, err := repo.QueryLunches(ctx, school.LunchFilter{School: "Lincoln Elementary"})
	require.NoError(t, err)
	assert.Len(t, lunches, 1)

	// deleting with a transfer target moves the lunches
	n, err := repo.Delete(ctx, "Lincoln Elementary", adams)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	lunches, err = repo.QueryLunches(ctx, school.LunchFilter{School: "Lincoln Elementary"})
	require.NoError(t, err)
	assert.Len(t, lunches, 2)

	// deleting without one drops them
	_, err = repo.Delete(ctx, "", renamed)
	require.NoError(t, err)
	lunches, err = repo.QueryLunches(ctx, school.LunchFilter{})
	require.NoError(t, err)
	assert.Empty(t, lunches)
}

func TestSessionRepositorySchoolFilter(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewSessionRepository(db)

	ann := createStudent(t, "Ann", "Lincoln", false)
	cal := createStudent(t, "Cal", "Adams", false)
	now := core.Now()
	for _, st := range []student.Student{ann, cal} {
		s := session.Session{ID: core.NewID(), StudentID: st.ID, Date: "2024-01-10", IsDirectServices: true, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repo.Create(ctx, s))
	}

	got, err := repo.Query(ctx, session.QueryFilter{School: "Adams"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cal.ID, got[0].StudentID)

	got, err = repo.Query(ctx, session.QueryFilter{DateRange: core.DateRange{StartDate: "2024-01-11"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluationRepositoryCompletedFilter(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewEvaluationRepository(db)

	st := createStudent(t, "Ann", "Lincoln", false)
	now := core.Now()
	done := evaluation.Evaluation{
		ID: core.NewID(), StudentID: st.ID, EvaluationType: "initial", DueDate: "2024-03-01",
		ReportCompleted: true, IEPCompleted: true, MeetingCompleted: true, CreatedAt: now, UpdatedAt: now,
	}
	partial := evaluation.Evaluation{
		ID: core.NewID(), StudentID: st.ID, EvaluationType: "triennial", DueDate: "2024-04-01",
		ReportCompleted: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, done))
	require.NoError(t, repo.Create(ctx, partial))

	tests := []struct {
		completed string
		want      []string
	}{
		{"", []string{done.ID, partial.ID}},
		{"true", []string{done.ID}},
		{"false", []string{partial.ID}},
	}
	for _, tt := range tests {
		t.Run("completed="+tt.completed, func(t *testing.T) {
			got, err := repo.Query(ctx, evaluation.QueryFilter{Completed: tt.completed})
			require.NoError(t, err)
			assert.Equal(t, tt.want, idsOf(len(got), func(i int) string { return got[i].ID }))
		})
	}
}

func TestProgressReportRepository(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewProgressReportRepository(db)

	ann := createStudent(t, "Ann", "Lincoln", false)
	cal := createStudent(t, "Cal", "Adams", false)
	now := core.Now()
	newReport := func(studentID, due, status string) progressreport.ProgressReport {
		return progressreport.ProgressReport{
			ID: core.NewID(), StudentID: studentID, ReportType: progressreport.TypeQuarterly,
			DueDate: due, Status: status, CreatedAt: now, UpdatedAt: now,
		}
	}
	past := newReport(ann.ID, "2024-01-01", progressreport.StatusPending)
	started := newReport(cal.ID, "2024-01-02", progressreport.StatusInProgress)
	completed := newReport(ann.ID, "2024-01-03", progressreport.StatusCompleted)
	future := newReport(cal.ID, "2024-06-01", progressreport.StatusPending)
	require.NoError(t, repo.Create(ctx, past, started, completed, future))

	got, err := repo.Query(ctx, progressreport.QueryFilter{School: "Adams"})
	require.NoError(t, err)
	assert.Equal(t, []string{started.ID, future.ID}, idsOf(len(got), func(i int) string { return got[i].ID }))

	n, err := repo.MarkOverdue(ctx, "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err = repo.Query(ctx, progressreport.QueryFilter{Statuses: []string{progressreport.StatusOverdue}})
	require.NoError(t, err)
	assert.Equal(t, []string{past.ID, started.ID}, idsOf(len(got), func(i int) string { return got[i].ID }))

	r, err := repo.Get(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, progressreport.StatusCompleted, r.Status)
}

func TestScheduleRepositoryStudentFilter(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewScheduleRepository(db)

	now := core.Now()
	group := schedule.ScheduledSession{
		ID: core.NewID(), StudentIDs: core.StringList{"s1", "s2"}, StartTime: "09:00", EndTime: "09:30",
		RecurrencePattern: "weekly", DayOfWeek: null.IntFrom(1), StartDate: "2024-01-01",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	solo := group
	solo.ID = core.NewID()
	solo.StudentIDs = core.StringList{"s10"}
	solo.IsActive = false
	require.NoError(t, repo.Create(ctx, group))
	require.NoError(t, repo.Create(ctx, solo))

	got, err := repo.Query(ctx, schedule.QueryFilter{StudentID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, group.ID, got[0].ID)
	assert.Equal(t, core.StringList{"s1", "s2"}, got[0].StudentIDs)

	got, err = repo.Query(ctx, schedule.QueryFilter{IsActive: "false"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, solo.ID, got[0].ID)
}

func TestUserRepository(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewUserRepository(db)

	now := core.Now()
	alice := user.User{ID: core.NewID(), Name: "Alice", Username: "alice", Email: "alice@test.io", IsActive: true, CreatedAt: now, UpdatedAt: now}
	// users without username or email don't collide on the unique indexes
	anon1 := user.User{ID: core.NewID(), Name: "Anon", Email: "anon1@test.io", IsActive: true, CreatedAt: now, UpdatedAt: now}
	anon2 := user.User{ID: core.NewID(), Name: "Anon", Username: "anon2", IsActive: true, CreatedAt: now, UpdatedAt: now}
	for _, u := range []user.User{alice, anon1, anon2} {
		require.NoError(t, repo.Create(ctx, u))
	}

	tests := []struct {
		name            string
		username, email string
		excludedID      string
		wantErr         error
	}{
		{name: "free", username: "bob", email: "bob@test.io"},
		{name: "username taken", username: "ALICE", wantErr: user.ErrUsernameExists},
		{name: "email taken", email: "Alice@Test.io", wantErr: user.ErrEmailExists},
		{name: "own record", username: "alice", email: "alice@test.io", excludedID: alice.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, repo.CheckUniqueness(ctx, tt.username, tt.email, tt.excludedID))
		})
	}

	got, err := repo.GetByUsernameOrEmail(ctx, "ALICE@test.io")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = repo.Get(ctx, anon2.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Email)
	assert.True(t, got.LastLogin.IsZero())

	_, err = repo.GetByUsernameOrEmail(ctx, "nobody")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestBackupRepositoryRoundTrip(t *testing.T) {
	dbtest.ResetDB(t, db)
	repo := NewBackupRepository(db)

	st := createStudent(t, "Ann", "Lincoln", false)
	parent := createGoal(t, st.ID, "")
	createGoal(t, st.ID, parent.ID)

	snap, err := repo.Export(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Students, 1)
	require.Len(t, snap.Goals, 2)

	// children listed before their parents still import
	snap.Goals[0], snap.Goals[1] = snap.Goals[1], snap.Goals[0]
	if !snap.Goals[0].ParentGoalID.Valid {
		snap.Goals[0], snap.Goals[1] = snap.Goals[1], snap.Goals[0]
	}
	require.NoError(t, repo.Import(ctx, snap, true /* replace */))

	again, err := repo.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, again.Goals, 2)

	// merging keeps rows absent from the snapshot
	other := createStudent(t, "Cal", "Adams", false)
	require.NoError(t, repo.Import(ctx, backup.Snapshot{Students: snap.Students}, false /* replace */))
	_, err = NewStudentRepository(db).Get(ctx, other.ID)
	assert.NoError(t, err)

	// replacing drops them
	require.NoError(t, repo.Import(ctx, backup.Snapshot{Students: snap.Students}, true /* replace */))
	_, err = NewStudentRepository(db).Get(ctx, other.ID)
	assert.Equal(t, student.ErrNotFound, err)
}

func TestParentsFirst(t *testing.T) {
	mk := func(id, parent string) goal.Goal {
		return goal.Goal{ID: id, ParentGoalID: null.NewString(parent, parent != "")}
	}
	goals := []goal.Goal{mk("c", "b"), mk("b", "a"), mk("a", ""), mk("x", "missing")}

	got := parentsFirst(goals)
	assert.Equal(t, []string{"a", "x", "b", "c"}, idsOf(len(got), func(i int) string { return got[i].ID }))
}
