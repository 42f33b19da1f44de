// Package export renders caseload records as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/caseload/core/goal"
	"github.com/trezcool/caseload/core/session"
	"github.com/trezcool/caseload/core/student"
)

const (
	SessionsSheet = "Sessions"
	XLSXMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var sessionHeaders = []interface{}{
	"Date", "Student", "School", "Start", "End", "Service", "Missed",
	"Goals targeted", "Activities", "Average accuracy (%)", "Notes", "Plan",
}

// SessionsXLSX writes one row per session to w.
// Student and goal names are resolved from the given records; unknown ids are written as is.
func SessionsXLSX(w io.Writer, sessions []session.Session, students []student.Student, goals []goal.Goal) error {
	studentByID := make(map[string]student.Student, len(students))
	for _, st := range students {
		studentByID[st.ID] = st
	}
	goalByID := make(map[string]string, len(goals))
	for _, g := range goals {
		goalByID[g.ID] = g.Description
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", SessionsSheet)

	if err := f.SetSheetRow(SessionsSheet, "A1", &sessionHeaders); err != nil {
		return errors.Wrap(err, "writing headers")
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	lastCol, _ := excelize.ColumnNumberToName(len(sessionHeaders))
	if err = f.SetCellStyle(SessionsSheet, "A1", lastCol+"1", style); err != nil {
		return errors.Wrap(err, "styling headers")
	}
	if err = f.SetColWidth(SessionsSheet, "A", lastCol, 18); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	for i, s := range sessions {
		st, ok := studentByID[s.StudentID]
		name := s.StudentID
		if ok {
			name = st.Name
		}
		service := "Direct"
		if !s.IsDirectServices {
			service = "Indirect"
		}
		missed := "No"
		if s.MissedSession {
			missed = "Yes"
		}

		targeted := make([]string, 0, len(s.GoalsTargeted))
		for _, id := range s.GoalsTargeted {
			if desc, ok := goalByID[id]; ok {
				targeted = append(targeted, desc)
			} else {
				targeted = append(targeted, id)
			}
		}

		var accuracy interface{} = ""
		if avg, ok := averageAccuracy(s.PerformanceData); ok {
			accuracy = avg
		}

		row := []interface{}{
			s.Date, name, st.School, s.StartTime, s.EndTime, service, missed,
			strings.Join(targeted, "; "), strings.Join(s.ActivitiesUsed, ", "), accuracy, s.Notes, s.Plan,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err = f.SetSheetRow(SessionsSheet, cell, &row); err != nil {
			return errors.Wrap(err, fmt.Sprintf("writing row %d", i+2))
		}
	}

	if _, err = f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

// averageAccuracy rounds the mean accuracy of the entries that have one to one decimal.
func averageAccuracy(data session.PerformanceList) (float64, bool) {
	var sum float64
	var n int
	for _, perf := range data {
		if acc, ok := perf.AccuracyValue(); ok {
			sum += acc
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	avg := sum / float64(n)
	return float64(int(avg*10+0.5)) / 10, true
}
