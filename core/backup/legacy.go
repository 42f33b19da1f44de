package backup

import (
	"context"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/casemanager"
	"github.com/trezcool/caseload/core/communication"
	"github.com/trezcool/caseload/core/duedate"
	"github.com/trezcool/caseload/core/evaluation"
	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/progressreport"
	"github.com/trezcool/caseload/core/schedule"
	"github.com/trezcool/caseload/core/school"
	"github.com/trezcool/caseload/core/session"
	"github.com/trezcool/caseload/core/soapnote"
	"github.com/trezcool/caseload/core/student"
	"github.com/trezcool/caseload/core/teacher"
	"github.com/trezcool/caseload/core/timesheet"
)

var ErrInvalidLegacyExport = core.NewValidationError(nil, core.FieldError{
	Field: "file",
	Error: "file is not a browser storage export",
})

var (
	timestampType  = reflect.TypeOf(core.Timestamp{})
	nullStringType = reflect.TypeOf(null.String{})
	nullIntType    = reflect.TypeOf(null.Int{})
	nullBoolType   = reflect.TypeOf(null.Bool{})
)

type legacyTable struct {
	name string // Snapshot JSON name
	typ  reflect.Type
}

// legacyTables are ordered so that referenced tables come first.
var legacyTables = []legacyTable{
	{"schools", reflect.TypeOf(school.School{})},
	{"lunches", reflect.TypeOf(school.Lunch{})},
	{"teachers", reflect.TypeOf(teacher.Teacher{})},
	{"caseManagers", reflect.TypeOf(casemanager.CaseManager{})},
	{"students", reflect.TypeOf(student.Student{})},
	{"goals", reflect.TypeOf(goal.Goal{})},
	{"sessions", reflect.TypeOf(session.Session{})},
	{"evaluations", reflect.TypeOf(evaluation.Evaluation{})},
	{"soapNotes", reflect.TypeOf(soapnote.SOAPNote{})},
	{"progressReports", reflect.TypeOf(progressreport.ProgressReport{})},
	{"dueDateItems", reflect.TypeOf(duedate.Item{})},
	{"communications", reflect.TypeOf(communication.Communication{})},
	{"scheduledSessions", reflect.TypeOf(schedule.ScheduledSession{})},
	{"timesheetNotes", reflect.TypeOf(timesheet.Note{})},
}

var legacyKeyAliases = map[string]string{
	"duedates":  "dueDateItems",
	"timesheet": "timesheetNotes",
	"schedules": "scheduledSessions",
	"soap":      "soapNotes",
}

// reference describes a field pointing at records of another table.
type reference struct {
	field    string
	tables   []string
	required bool // records with an unresolved required reference are dropped
}

var legacyReferences = map[string][]reference{
	"students":          {{field: "caseManagerId", tables: []string{"caseManagers"}}},
	"goals":             {{field: "studentId", tables: []string{"students"}, required: true}, {field: "parentGoalId", tables: []string{"goals"}}},
	"sessions":          {{field: "studentId", tables: []string{"students"}, required: true}, {field: "goalsTargeted", tables: []string{"goals"}}},
	"evaluations":       {{field: "studentId", tables: []string{"students"}, required: true}},
	"soapNotes":         {{field: "studentId", tables: []string{"students"}, required: true}, {field: "sessionId", tables: []string{"sessions"}}},
	"progressReports":   {{field: "studentId", tables: []string{"students"}, required: true}, {field: "goalIds", tables: []string{"goals"}}},
	"dueDateItems":      {{field: "studentId", tables: []string{"students"}}},
	"communications":    {{field: "studentId", tables: []string{"students"}}, {field: "contactId", tables: []string{"teachers", "caseManagers"}}},
	"scheduledSessions": {{field: "studentIds", tables: []string{"students"}, required: true}},
}

// legacyDefaults are applied to records missing the key.
var legacyDefaults = map[string]map[string]interface{}{
	"sessions":          {"isDirectServices": true},
	"scheduledSessions": {"isDirectServices": true, "isActive": true},
}

// LegacyReport summarizes a legacy conversion.
type LegacyReport struct {
	Converted   map[string]int `json:"converted"`
	Dropped     map[string]int `json:"dropped"`
	RemappedIDs int            `json:"remappedIds"`
	IgnoredKeys []string       `json:"ignoredKeys"`
}

type legacyConverter struct {
	records map[string][]map[string]interface{}
	ids     map[string]map[string]string // {table: {old id: new id}}
	report  LegacyReport
}

// ConvertLegacy converts a browser localStorage export into a Snapshot.
// Numeric or missing ids are replaced with new ids (references follow), ISO datetimes in date fields are truncated
// to dates, comma-separated strings in list fields are split and scalar types are coerced to the current schema.
func ConvertLegacy(data []byte) (Snapshot, LegacyReport, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, LegacyReport{}, ErrInvalidLegacyExport
	}

	conv := legacyConverter{
		records: make(map[string][]map[string]interface{}),
		ids:     make(map[string]map[string]string),
		report: LegacyReport{
			Converted:   make(map[string]int),
			Dropped:     make(map[string]int),
			IgnoredKeys: []string{},
		},
	}
	if err := conv.load(raw); err != nil {
		return Snapshot{}, LegacyReport{}, err
	}
	conv.assignIDs()
	conv.convert()

	out := make(map[string]interface{}, len(conv.records)+1)
	for table, recs := range conv.records {
		out[table] = recs
	}
	out["version"] = Version
	buf, err := json.Marshal(out)
	if err != nil {
		return Snapshot{}, LegacyReport{}, errors.Wrap(err, "encoding converted records")
	}
	var snap Snapshot
	if err := json.Unmarshal(buf, &snap); err != nil {
		return Snapshot{}, LegacyReport{}, errors.Wrap(err, "decoding converted records")
	}
	return snap, conv.report, nil
}

// ImportLegacy converts a browser storage export and imports it.
func (svc *Service) ImportLegacy(ctx context.Context, data []byte, mode string) (ImportResult, LegacyReport, error) {
	snap, report, err := ConvertLegacy(data)
	if err != nil {
		return ImportResult{}, LegacyReport{}, err
	}
	result, err := svc.Import(ctx, snap, mode)
	if err != nil {
		return ImportResult{}, LegacyReport{}, err
	}
	return result, report, nil
}

func normalizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	k := b.String()
	for _, prefix := range []string{"slp", "caseload"} {
		if strings.HasPrefix(k, prefix) && len(k) > len(prefix) {
			k = strings.TrimPrefix(k, prefix)
		}
	}
	return k
}

func tableForKey(key string) (string, bool) {
	k := normalizeKey(key)
	for _, t := range legacyTables {
		if strings.ToLower(t.name) == k {
			return t.name, true
		}
	}
	name, ok := legacyKeyAliases[k]
	return name, ok
}

func (conv *legacyConverter) load(raw map[string]interface{}) error {
	for key, val := range raw {
		table, ok := tableForKey(key)
		if !ok {
			conv.report.IgnoredKeys = append(conv.report.IgnoredKeys, key)
			continue
		}
		// localStorage values are strings holding JSON
		if s, ok := val.(string); ok {
			if err := json.Unmarshal([]byte(s), &val); err != nil {
				return ErrInvalidLegacyExport
			}
		}
		list, ok := val.([]interface{})
		if !ok {
			return ErrInvalidLegacyExport
		}
		for _, item := range list {
			if rec, ok := item.(map[string]interface{}); ok {
				conv.records[table] = append(conv.records[table], rec)
			} else {
				conv.report.Dropped[table]++
			}
		}
	}
	return nil
}

func (conv *legacyConverter) assignIDs() {
	for _, t := range legacyTables {
		ids := make(map[string]string, len(conv.records[t.name]))
		for _, rec := range conv.records[t.name] {
			old := scalarString(rec["id"])
			newID := old
			if !core.IsID(old) || ids[old] != "" {
				newID = core.NewID()
				conv.report.RemappedIDs++
			}
			if old != "" && ids[old] == "" {
				ids[old] = newID
			}
			ids[newID] = newID
			rec["id"] = newID
		}
		conv.ids[t.name] = ids
	}
}

func (conv *legacyConverter) resolve(tables []string, old string) (string, bool) {
	for _, t := range tables {
		if id, ok := conv.ids[t][old]; ok {
			return id, true
		}
	}
	return "", false
}

func (conv *legacyConverter) convert() {
	for _, t := range legacyTables {
		recs := conv.records[t.name]
		kept := make([]map[string]interface{}, 0, len(recs))
		for _, rec := range recs {
			for key, def := range legacyDefaults[t.name] {
				if _, ok := rec[key]; !ok {
					rec[key] = def
				}
			}
			coerceRecord(rec, t.typ)
			if !conv.remap(t.name, rec) {
				conv.report.Dropped[t.name]++
				continue
			}
			kept = append(kept, rec)
		}
		conv.records[t.name] = kept
		conv.report.Converted[t.name] = len(kept)
	}
}

// remap rewrites the references of rec; it returns false when a required reference cannot be resolved.
func (conv *legacyConverter) remap(table string, rec map[string]interface{}) bool {
	for _, ref := range legacyReferences[table] {
		switch val := rec[ref.field].(type) {
		case string:
			if id, ok := conv.resolve(ref.tables, val); ok {
				rec[ref.field] = id
			} else if ref.required {
				return false
			} else {
				rec[ref.field] = nil
			}
		case []interface{}:
			ids := make([]interface{}, 0, len(val))
			for _, item := range val {
				if id, ok := conv.resolve(ref.tables, scalarString(item)); ok {
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 && ref.required {
				return false
			}
			rec[ref.field] = ids
		case nil:
			if ref.required {
				return false
			}
		}
	}

	if table == "sessions" {
		if perfs, ok := rec["performanceData"].([]interface{}); ok {
			kept := make([]interface{}, 0, len(perfs))
			for _, p := range perfs {
				perf, ok := p.(map[string]interface{})
				if !ok {
					continue
				}
				if id, ok := conv.resolve([]string{"goals"}, scalarString(perf["goalId"])); ok {
					perf["goalId"] = id
					kept = append(kept, perf)
				}
			}
			rec["performanceData"] = kept
		}
	}
	return true
}

type jsonField struct {
	typ  reflect.Type
	tags map[string]bool // validate tags
}

func jsonFields(typ reflect.Type) map[string]jsonField {
	fields := make(map[string]jsonField, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		tags := make(map[string]bool)
		for _, tag := range strings.Split(f.Tag.Get("validate"), ",") {
			tags[strings.SplitN(tag, "=", 2)[0]] = true
		}
		fields[name] = jsonField{typ: f.Type, tags: tags}
	}
	return fields
}

// coerceRecord drops unknown keys of rec and converts its values to what typ decodes.
func coerceRecord(rec map[string]interface{}, typ reflect.Type) {
	fields := jsonFields(typ)
	for key, val := range rec {
		f, ok := fields[key]
		if !ok {
			delete(rec, key)
			continue
		}
		if v, keep := coerceValue(val, f); keep {
			rec[key] = v
		} else {
			delete(rec, key)
		}
	}
}

func coerceValue(val interface{}, f jsonField) (interface{}, bool) {
	typ := f.typ
	switch {
	case typ == timestampType:
		switch v := val.(type) {
		case float64:
			return time.UnixMilli(int64(v)).UTC().Format(time.RFC3339Nano), true
		case string:
			for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", core.DateLayout} {
				if t, err := time.Parse(layout, v); err == nil {
					return t.UTC().Format(time.RFC3339Nano), true
				}
			}
		}
		return nil, false

	case typ == nullStringType:
		if val == nil {
			return nil, true
		}
		s := formatField(scalarString(val), f)
		if s == "" {
			return nil, true
		}
		return s, true

	case typ == nullIntType:
		if n, ok := scalarFloat(val); ok {
			return int(n), true
		}
		return nil, true

	case typ == nullBoolType:
		if b, ok := scalarBool(val); ok {
			return b, true
		}
		return nil, true

	case typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.String:
		var items []string
		switch v := val.(type) {
		case string:
			items = strings.Split(v, ",")
		case []interface{}:
			for _, item := range v {
				items = append(items, scalarString(item))
			}
		}
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			if item = formatField(strings.TrimSpace(item), f); item != "" {
				out = append(out, item)
			}
		}
		return out, true

	case typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Struct:
		list, ok := val.([]interface{})
		if !ok {
			return []interface{}{}, true
		}
		out := make([]interface{}, 0, len(list))
		for _, item := range list {
			if rec, ok := item.(map[string]interface{}); ok {
				coerceRecord(rec, typ.Elem())
				out = append(out, rec)
			}
		}
		return out, true

	case typ.Kind() == reflect.Ptr && typ.Elem().Kind() == reflect.Float64:
		if n, ok := scalarFloat(val); ok {
			return n, true
		}
		return nil, true

	case typ.Kind() == reflect.String:
		return formatField(scalarString(val), f), true

	case typ.Kind() == reflect.Bool:
		b, _ := scalarBool(val)
		return b, true

	case typ.Kind() >= reflect.Int && typ.Kind() <= reflect.Int64:
		n, _ := scalarFloat(val)
		return int64(n), true

	case typ.Kind() == reflect.Float32 || typ.Kind() == reflect.Float64:
		n, _ := scalarFloat(val)
		return n, true
	}
	return val, true
}

// formatField normalizes dates and times of day according to the field's validation tags.
func formatField(s string, f jsonField) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	switch {
	case f.tags["date"]:
		if len(s) > len(core.DateLayout) && s[len(core.DateLayout)] == 'T' {
			return s[:len(core.DateLayout)]
		}
	case f.tags["timeofday"]:
		for _, layout := range []string{core.TimeOfDayLayout, "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(core.TimeOfDayLayout)
			}
		}
	}
	return s
}

func scalarString(val interface{}) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func scalarFloat(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		return n, err == nil
	}
	return 0, false
}

func scalarBool(val interface{}) (bool, bool) {
	switch v := val.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	return false, false
}
