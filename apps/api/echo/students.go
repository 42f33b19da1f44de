package echoapi

import (
	"github.com/trezcool/caseload/core/student"
)

func registerStudentAPI(g *routeGroup, deps ServerDeps) {
	svc := deps.StudentSvc
	registerCRUD(g, "/students", crud[student.Student, student.QueryFilter]{
		name:    "student",
		tag:     "Students",
		query:   svc.Query,
		get:     svc.Get,
		create:  svc.Create,
		update:  svc.Update,
		destroy: svc.Delete,
	})
}
