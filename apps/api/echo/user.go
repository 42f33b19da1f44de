package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core/user"
)

var errCannotDeleteSelf = echo.NewHTTPError(http.StatusForbidden, "you cannot delete your own account")

type userApi struct {
	svc *user.Service
}

// registerUserAPI manages the accounts of the workspace; every route requires a token.
func registerUserAPI(g *routeGroup, authMw echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{svc: deps.UserSvc}

	ug := g.secure(authMw)
	ug.GET("/users", api.query, "Users", "List users")
	ug.POST("/users", api.create, "Users", "Register a user")
	ug.GET("/users/:id", api.retrieve, "Users", "Get a user")
	ug.PUT("/users/:id/password", api.setPassword, "Users", "Set the password of a user")
	ug.DELETE("/users/:id", api.destroy, "Users", "Delete a user")
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.Query(reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	usr, err := api.svc.Create(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.Get(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) setPassword(ctx echo.Context) error {
	usr, err := api.svc.Get(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting user")
	}
	var data user.SetPassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetPassword")
	}
	if usr, err = api.svc.SetPassword(reqCtx(ctx), usr, data); err != nil {
		return errors.Wrap(err, "setting password")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, err := api.svc.Get(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting user")
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID {
		return errCannotDeleteSelf
	}

	if _, err := api.svc.Delete(reqCtx(ctx), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}
