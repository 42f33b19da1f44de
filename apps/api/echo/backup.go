package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core/backup"
)

type backupApi struct {
	svc *backup.Service
}

func registerBackupAPI(g *routeGroup, deps ServerDeps) {
	api := backupApi{svc: deps.BackupSvc}
	g.GET("/backup", api.export, "Backup", "Export every table as JSON")
	g.POST("/backup/import", api.importSnapshot, "Backup", "Import a backup (?mode=merge|replace)")
}

func (api *backupApi) export(ctx echo.Context) error {
	snap, err := api.svc.Export(reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "exporting backup")
	}
	filename := fmt.Sprintf("caseload-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.JSON(http.StatusOK, snap)
}

func (api *backupApi) importSnapshot(ctx echo.Context) error {
	var snap backup.Snapshot
	if err := ctx.Bind(&snap); err != nil {
		return errors.Wrap(err, "binding to Snapshot")
	}
	result, err := api.svc.Import(reqCtx(ctx), snap, ctx.QueryParam("mode"))
	if err != nil {
		return errors.Wrap(err, "importing backup")
	}
	return ctx.JSON(http.StatusOK, result)
}
