package echoapi

import (
	"reflect"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx/reflectx"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/caseload/core"
)

var (
	orderingParam = "ordering"

	jsonMapper  = reflectx.NewMapper("json")
	columnCache sync.Map // {reflect.Type: map[string]string}
)

// columnsOf maps the JSON field names of T to their `db` columns.
func columnsOf[T any]() map[string]string {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if cols, ok := columnCache.Load(typ); ok {
		return cols.(map[string]string)
	}

	cols := make(map[string]string)
	if typ.Kind() == reflect.Struct {
		for name, fi := range jsonMapper.TypeMap(typ).Names {
			col := strings.Split(fi.Field.Tag.Get("db"), ",")[0]
			if col == "" || col == "-" || strings.Contains(name, ".") {
				continue
			}
			cols[name] = col
		}
	}
	columnCache.Store(typ, cols)
	return cols
}

// Ordering holds the `?ordering=field,-field` sort; JSON field names are mapped to their columns
// and unknown fields are dropped.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, columns map[string]string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		col, ok := columns[field]
		if !ok {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{
			Field:     col,
			Ascending: !descending,
		})
	}
}

// DestroyMultipleRequest is the body of bulk deletions.
type DestroyMultipleRequest struct {
	IDs []string `json:"ids" query:"ids"`
}

type DestroyMultipleResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

func bindQuery(ctx echo.Context, dest interface{}) error {
	return (&echo.DefaultBinder{}).BindQueryParams(ctx, dest)
}
