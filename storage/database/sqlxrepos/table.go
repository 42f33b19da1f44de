// Package sqlxrepos implements the core repositories with sqlx.
// Queries are written with `?` placeholders and rebound for the engine in use.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

// table describes an entity table for the shared CRUD helpers.
type table struct {
	name     string
	columns  []string // first column is the primary key
	notFound error
	// ordering used when the caller gives none
	defaultOrdering []core.DBOrdering
}

func newTable(name string, notFound error, defaultOrdering []core.DBOrdering, columns ...string) table {
	return table{name: name, columns: columns, notFound: notFound, defaultOrdering: defaultOrdering}
}

func (t table) hasColumn(col string) bool {
	for _, c := range t.columns {
		if c == col {
			return true
		}
	}
	return false
}

func (t table) selectSQL() string {
	return "SELECT " + t.columnList("") + " FROM " + t.name
}

func (t table) columnList(prefix string) string {
	cols := make([]string, len(t.columns))
	for i, c := range t.columns {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

func (t table) insertSQL() string {
	return "INSERT INTO " + t.name + " (" + t.columnList("") + ") VALUES (" + t.columnList(":") + ")"
}

// updatableColumns excludes the primary key and created_at.
func (t table) updatableColumns() []string {
	cols := make([]string, 0, len(t.columns))
	for _, c := range t.columns[1:] {
		if c != "created_at" {
			cols = append(cols, c)
		}
	}
	return cols
}

func (t table) updateSQL() string {
	cols := t.updatableColumns()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = :" + c
	}
	return "UPDATE " + t.name + " SET " + strings.Join(sets, ", ") + " WHERE " + t.columns[0] + " = :" + t.columns[0]
}

// upsertSQL inserts or updates on primary key conflict; supported by SQLite >= 3.24 and PostgreSQL.
func (t table) upsertSQL() string {
	cols := t.updatableColumns()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = excluded." + c
	}
	return t.insertSQL() + " ON CONFLICT (" + t.columns[0] + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

// orderBy keeps the orderings on known columns, falling back on the table default.
func (t table) orderBy(ordering []core.DBOrdering) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if t.hasColumn(ord.Field) {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		for _, ord := range t.defaultOrdering {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// trapNoRowsErr maps sql "no rows" err to the table's not found error.
func (t table) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return t.notFound
	}
	return errors.Wrap(err, msg)
}

func (t table) insert(ctx context.Context, exec core.DBExecutor, rows ...interface{}) error {
	query := t.insertSQL()
	for _, row := range rows {
		if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
			return errors.Wrap(err, "inserting into "+t.name)
		}
	}
	return nil
}

func (t table) upsert(ctx context.Context, exec core.DBExecutor, rows ...interface{}) error {
	query := t.upsertSQL()
	for _, row := range rows {
		if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
			return errors.Wrap(err, "upserting into "+t.name)
		}
	}
	return nil
}

// update returns the table's not found error when no row matches.
func (t table) update(ctx context.Context, exec core.DBExecutor, row interface{}) error {
	res, err := sqlx.NamedExecContext(ctx, exec, t.updateSQL(), row)
	if err != nil {
		return errors.Wrap(err, "updating "+t.name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating "+t.name)
	}
	if n == 0 {
		return t.notFound
	}
	return nil
}

func (t table) get(ctx context.Context, exec core.DBExecutor, dest interface{}, id string) error {
	query := exec.Rebind(t.selectSQL() + " WHERE " + t.columns[0] + " = ?")
	if err := exec.GetContext(ctx, dest, query, id); err != nil {
		return t.trapNoRowsErr(err, "getting from "+t.name)
	}
	return nil
}

func (t table) exists(ctx context.Context, exec core.DBExecutor, id string) (bool, error) {
	var n int
	query := exec.Rebind("SELECT COUNT(*) FROM " + t.name + " WHERE " + t.columns[0] + " = ?")
	if err := exec.GetContext(ctx, &n, query, id); err != nil {
		return false, errors.Wrap(err, "checking "+t.name)
	}
	return n > 0, nil
}

// query selects the rows matching w into dest (a pointer to a slice).
func (t table) query(ctx context.Context, exec core.DBExecutor, dest interface{}, w *where, ordering []core.DBOrdering) error {
	var args []interface{}
	if w != nil {
		args = w.args
	}
	query, args, err := sqlx.In(t.selectSQL()+w.String()+t.orderBy(ordering), args...)
	if err != nil {
		return errors.Wrap(err, "building "+t.name+" query")
	}
	if err = exec.SelectContext(ctx, dest, exec.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "querying "+t.name)
	}
	return nil
}

func (t table) delete(ctx context.Context, exec core.DBExecutor, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM "+t.name+" WHERE "+t.columns[0]+" IN (?)", ids)
	if err != nil {
		return 0, errors.Wrap(err, "building "+t.name+" delete")
	}
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting from "+t.name)
	}
	return res.RowsAffected()
}

// deleteAll empties the table; used by backup imports in replace mode.
func (t table) deleteAll(ctx context.Context, exec core.DBExecutor) error {
	if _, err := exec.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
		return errors.Wrap(err, "emptying "+t.name)
	}
	return nil
}

// where accumulates AND-ed conditions with `?` placeholders.
// Slice arguments are expanded by sqlx.In.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

// eq adds `col = val` when val is not empty.
func (w *where) eq(col, val string) {
	if val != "" {
		w.add(col+" = ?", val)
	}
}

// in adds `col IN (values)` when values is not empty.
func (w *where) in(col string, values []string) {
	if len(values) > 0 {
		w.add(col+" IN (?)", values)
	}
}

// search adds a case-insensitive substring match on any of cols.
func (w *where) search(term string, cols ...string) {
	if term == "" {
		return
	}
	pattern := "%" + strings.ToLower(term) + "%"
	ors := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		ors[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = pattern
	}
	w.add("("+strings.Join(ors, " OR ")+")", args...)
}

func (w *where) dateRange(col string, dr core.DateRange) {
	if dr.StartDate != "" {
		w.add(col+" >= ?", dr.StartDate)
	}
	if dr.EndDate != "" {
		w.add(col+" <= ?", dr.EndDate)
	}
}

// boolean adds `col = value` for "true"/"false"; anything else is ignored.
func (w *where) boolean(col, value string) {
	switch strings.ToLower(value) {
	case "true", "1":
		w.add(col+" = ?", true)
	case "false", "0":
		w.add(col+" = ?", false)
	}
}

func (w *where) String() string {
	if w == nil || len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
