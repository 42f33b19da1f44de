package echoapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/caseload/core"
)

type route struct {
	Method  string
	Path    string
	Tag     string
	Summary string
	Secured bool
}

// routeGroup registers routes under a path prefix with a shared middleware chain.
// Middlewares are attached per route: echo sub-groups register catch-all routes for their middlewares.
type routeGroup struct {
	eg      *echo.Group
	server  *Server
	base    string
	prefix  string
	mw      []echo.MiddlewareFunc
	secured bool
}

func (g *routeGroup) group(prefix string, m ...echo.MiddlewareFunc) *routeGroup {
	mw := make([]echo.MiddlewareFunc, 0, len(g.mw)+len(m))
	mw = append(mw, g.mw...)
	mw = append(mw, m...)
	return &routeGroup{
		eg:      g.eg,
		server:  g.server,
		base:    g.base,
		prefix:  g.prefix + prefix,
		mw:      mw,
		secured: g.secured,
	}
}

// secure returns a sub-group whose routes go through the JWT middleware.
func (g *routeGroup) secure(jwt echo.MiddlewareFunc) *routeGroup {
	sg := g.group("", jwt)
	sg.secured = true
	return sg
}

func (g *routeGroup) add(method, path string, h echo.HandlerFunc, tag, summary string, m ...echo.MiddlewareFunc) {
	mw := make([]echo.MiddlewareFunc, 0, len(g.mw)+len(m))
	mw = append(mw, g.mw...)
	mw = append(mw, m...)
	g.eg.Add(method, g.prefix+path, h, mw...)
	g.server.routes = append(g.server.routes, route{
		Method:  method,
		Path:    g.base + g.prefix + path,
		Tag:     tag,
		Summary: summary,
		Secured: g.secured,
	})
}

func (g *routeGroup) GET(path string, h echo.HandlerFunc, tag, summary string, m ...echo.MiddlewareFunc) {
	g.add(http.MethodGet, path, h, tag, summary, m...)
}

func (g *routeGroup) POST(path string, h echo.HandlerFunc, tag, summary string, m ...echo.MiddlewareFunc) {
	g.add(http.MethodPost, path, h, tag, summary, m...)
}

func (g *routeGroup) PUT(path string, h echo.HandlerFunc, tag, summary string, m ...echo.MiddlewareFunc) {
	g.add(http.MethodPut, path, h, tag, summary, m...)
}

func (g *routeGroup) DELETE(path string, h echo.HandlerFunc, tag, summary string, m ...echo.MiddlewareFunc) {
	g.add(http.MethodDelete, path, h, tag, summary, m...)
}

// crud holds the service calls behind the REST endpoints of one resource.
// T is the resource and F its list filter.
type crud[T any, F any] struct {
	name    string // singular, for logs and docs
	tag     string
	newItem func() T // defaults to the zero value
	query   func(ctx context.Context, filter F, ordering ...core.DBOrdering) ([]T, error)
	get     func(ctx context.Context, id string) (T, error)
	create  func(ctx context.Context, item T) (T, error)
	update  func(ctx context.Context, orig, item T) (T, error)
	destroy func(ctx context.Context, ids ...string) (int64, error)
	// remove overrides the single item deletion.
	remove func(ctx echo.Context, item T) error
}

// registerCRUD registers list, create, retrieve, update, delete and bulk delete under `path`.
// Action routes must be registered before calling it so that they take precedence over `/:id`.
func registerCRUD[T any, F any](g *routeGroup, path string, c crud[T, F]) {
	g.GET(path, c.list, c.tag, "List "+c.plural())
	g.POST(path, c.createHandler, c.tag, "Create a "+c.name)
	g.DELETE(path, c.destroyMultiple, c.tag, "Delete many "+c.plural())
	g.GET(path+"/:id", c.retrieve, c.tag, "Get a "+c.name)
	g.PUT(path+"/:id", c.updateHandler, c.tag, "Update a "+c.name)
	g.DELETE(path+"/:id", c.destroy1, c.tag, "Delete a "+c.name)
}

func (c crud[T, F]) plural() string {
	return strmangle.Plural(c.name)
}

func (c crud[T, F]) list(ctx echo.Context) error {
	var filter F
	if err := bindQuery(ctx, &filter); err != nil {
		return errors.Wrap(err, "binding query params")
	}
	var ord Ordering
	ord.Bind(ctx, columnsOf[T]())

	items, err := c.query(reqCtx(ctx), filter, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying "+c.plural())
	}
	if items == nil {
		items = []T{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (c crud[T, F]) createHandler(ctx echo.Context) error {
	var item T
	if c.newItem != nil {
		item = c.newItem()
	}
	if err := ctx.Bind(&item); err != nil {
		return errors.Wrap(err, "binding "+c.name)
	}
	item, err := c.create(reqCtx(ctx), item)
	if err != nil {
		return errors.Wrap(err, "creating "+c.name)
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (c crud[T, F]) retrieve(ctx echo.Context) error {
	item, err := c.get(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting "+c.name)
	}
	return ctx.JSON(http.StatusOK, item)
}

// updateHandler merges the top-level keys of the body onto the stored item, so omitted fields keep their values.
func (c crud[T, F]) updateHandler(ctx echo.Context) error {
	orig, err := c.get(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting "+c.name)
	}
	item, err := mergeBody(ctx, orig)
	if err != nil {
		return err
	}
	item, err = c.update(reqCtx(ctx), orig, item)
	if err != nil {
		return errors.Wrap(err, "updating "+c.name)
	}
	return ctx.JSON(http.StatusOK, item)
}

// mergeBody returns a fresh T decoded from orig overlaid with the body's top-level keys.
// Lists and nested objects present in the body replace the stored ones whole.
func mergeBody[T any](ctx echo.Context, orig T) (T, error) {
	var item T
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return item, errors.Wrap(err, "reading request body")
	}

	fields := make(map[string]json.RawMessage)
	stored, err := json.Marshal(orig)
	if err != nil {
		return item, errors.Wrap(err, "encoding stored item")
	}
	if err = json.Unmarshal(stored, &fields); err != nil {
		return item, errors.Wrap(err, "decoding stored item")
	}

	if len(strings.TrimSpace(string(body))) > 0 {
		var patch map[string]json.RawMessage
		if err = json.Unmarshal(body, &patch); err != nil {
			return item, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}
		for k, v := range patch {
			fields[k] = v
		}
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return item, errors.Wrap(err, "encoding merged item")
	}
	if err = json.Unmarshal(merged, &item); err != nil {
		return item, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return item, nil
}

func (c crud[T, F]) destroy1(ctx echo.Context) error {
	item, err := c.get(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting "+c.name)
	}
	if c.remove != nil {
		err = c.remove(ctx, item)
	} else {
		_, err = c.destroy(reqCtx(ctx), ctx.Param("id"))
	}
	if err != nil {
		return errors.Wrap(err, "deleting "+c.name)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c crud[T, F]) destroyMultiple(ctx echo.Context) error {
	var data DestroyMultipleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	ids := core.CleanStrings(data.IDs)
	if len(ids) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "ids", Error: "ids must be a non-empty array"})
	}
	n, err := c.destroy(reqCtx(ctx), ids...)
	if err != nil {
		return errors.Wrap(err, "deleting "+c.plural())
	}
	return ctx.JSON(http.StatusOK, DestroyMultipleResponse{DeletedCount: n})
}

func reqCtx(ctx echo.Context) context.Context {
	return ctx.Request().Context()
}
