package echoapi

import (
	"github.com/trezcool/caseload/core/casemanager"
	"github.com/trezcool/caseload/core/teacher"
)

func registerPeopleAPI(g *routeGroup, deps ServerDeps) {
	registerCRUD(g, "/teachers", crud[teacher.Teacher, teacher.QueryFilter]{
		name:    "teacher",
		tag:     "Teachers",
		query:   deps.TeacherSvc.Query,
		get:     deps.TeacherSvc.Get,
		create:  deps.TeacherSvc.Create,
		update:  deps.TeacherSvc.Update,
		destroy: deps.TeacherSvc.Delete,
	})
	registerCRUD(g, "/case-managers", crud[casemanager.CaseManager, casemanager.QueryFilter]{
		name:    "case manager",
		tag:     "Case managers",
		query:   deps.CaseManagerSvc.Query,
		get:     deps.CaseManagerSvc.Get,
		create:  deps.CaseManagerSvc.Create,
		update:  deps.CaseManagerSvc.Update,
		destroy: deps.CaseManagerSvc.Delete,
	})
}
