package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/caseload/core/school"
)

func registerSchoolAPI(g *routeGroup, deps ServerDeps) {
	svc := deps.SchoolSvc
	registerCRUD(g, "/schools", crud[school.School, school.QueryFilter]{
		name:    "school",
		tag:     "Schools",
		query:   svc.Query,
		get:     svc.Get,
		create:  svc.Create,
		update:  svc.Update,
		destroy: svc.DeleteByIDs,
		// ?transferTo=<school name> moves the lunches of the deleted school.
		remove: func(ctx echo.Context, s school.School) error {
			_, err := svc.Delete(reqCtx(ctx), ctx.QueryParam("transferTo"), s)
			return err
		},
	})
	registerCRUD(g, "/lunches", crud[school.Lunch, school.LunchFilter]{
		name:    "lunch",
		tag:     "Lunches",
		query:   svc.QueryLunches,
		get:     svc.GetLunch,
		create:  svc.CreateLunch,
		update:  svc.UpdateLunch,
		destroy: svc.DeleteLunches,
	})
}
