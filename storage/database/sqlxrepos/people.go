package sqlxrepos

import (
	"context"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/casemanager"
	"github.com/trezcool/caseload/core/teacher"
)

var (
	teacherTable = newTable("teachers", teacher.ErrNotFound,
		[]core.DBOrdering{{Field: "name", Ascending: true}},
		"id", "name", "grade", "school", "phone_number", "email_address", "birthday", "notes",
		"created_at", "updated_at",
	)
	caseManagerTable = newTable("case_managers", casemanager.ErrNotFound,
		[]core.DBOrdering{{Field: "name", Ascending: true}},
		"id", "name", "role", "school", "phone_number", "email_address", "gender",
		"created_at", "updated_at",
	)
)

type teacherRepository struct {
	exec core.DBExecutor
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(exec core.DBExecutor) *teacherRepository {
	return &teacherRepository{exec: exec}
}

func (repo teacherRepository) Create(ctx context.Context, t teacher.Teacher) error {
	return teacherTable.insert(ctx, repo.exec, t)
}

func (repo teacherRepository) Query(ctx context.Context, filter teacher.QueryFilter, ordering ...core.DBOrdering) ([]teacher.Teacher, error) {
	w := new(where)
	w.search(filter.Search, "name", "email_address")
	w.eq("school", filter.School)
	w.eq("grade", filter.Grade)

	teachers := make([]teacher.Teacher, 0)
	if err := teacherTable.query(ctx, repo.exec, &teachers, w, ordering); err != nil {
		return nil, err
	}
	return teachers, nil
}

func (repo teacherRepository) Get(ctx context.Context, id string) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := teacherTable.get(ctx, repo.exec, &t, id)
	return t, err
}

func (repo teacherRepository) Update(ctx context.Context, t teacher.Teacher) error {
	return teacherTable.update(ctx, repo.exec, t)
}

func (repo teacherRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return teacherTable.delete(ctx, repo.exec, ids...)
}

type caseManagerRepository struct {
	exec core.DBExecutor
}

var _ casemanager.Repository = (*caseManagerRepository)(nil)

func NewCaseManagerRepository(exec core.DBExecutor) *caseManagerRepository {
	return &caseManagerRepository{exec: exec}
}

func (repo caseManagerRepository) Create(ctx context.Context, cm casemanager.CaseManager) error {
	return caseManagerTable.insert(ctx, repo.exec, cm)
}

func (repo caseManagerRepository) Query(ctx context.Context, filter casemanager.QueryFilter, ordering ...core.DBOrdering) ([]casemanager.CaseManager, error) {
	w := new(where)
	w.search(filter.Search, "name", "email_address")
	w.eq("school", filter.School)
	w.eq("role", filter.Role)

	cms := make([]casemanager.CaseManager, 0)
	if err := caseManagerTable.query(ctx, repo.exec, &cms, w, ordering); err != nil {
		return nil, err
	}
	return cms, nil
}

func (repo caseManagerRepository) Get(ctx context.Context, id string) (casemanager.CaseManager, error) {
	var cm casemanager.CaseManager
	err := caseManagerTable.get(ctx, repo.exec, &cm, id)
	return cm, err
}

func (repo caseManagerRepository) Update(ctx context.Context, cm casemanager.CaseManager) error {
	return caseManagerTable.update(ctx, repo.exec, cm)
}

// Delete unassigns their students through ON DELETE SET NULL.
func (repo caseManagerRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return caseManagerTable.delete(ctx, repo.exec, ids...)
}

func (repo caseManagerRepository) Exists(ctx context.Context, id string) (bool, error) {
	return caseManagerTable.exists(ctx, repo.exec, id)
}
