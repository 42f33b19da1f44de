package progressreport

import (
	"time"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/student"
)

const quartersPerYear = 4

// SchoolYear is an inclusive range of calendar days.
type SchoolYear struct {
	Start time.Time
	End   time.Time
}

func (sy SchoolYear) Contains(t time.Time) bool {
	return !t.Before(sy.Start) && !t.After(sy.End)
}

// SchoolYearOf returns the school year containing `day`, given the month/day a school year starts on.
// The school year ends the day before the next one starts.
func SchoolYearOf(day time.Time, startMonth time.Month, startDay int) SchoolYear {
	day = truncateDay(day)
	start := time.Date(day.Year(), startMonth, startDay, 0, 0, 0, 0, time.UTC)
	if day.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	return SchoolYear{Start: start, End: start.AddDate(1, 0, -1)}
}

// addMonths adds n months to t, clamping to the last day of the target month (Nov 30 + 3 months = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Plan returns the reports a student is due over the school year, without IDs.
// Archived students get none.
func Plan(st student.Student, sy SchoolYear) []ProgressReport {
	if st.Archived {
		return nil
	}

	var reports []ProgressReport
	newReport := func(typ string, due, periodStart, periodEnd time.Time) ProgressReport {
		return ProgressReport{
			StudentID:   st.ID,
			ReportType:  typ,
			DueDate:     core.FormatDate(due),
			PeriodStart: core.FormatDate(periodStart),
			PeriodEnd:   core.FormatDate(periodEnd),
			Status:      StatusPending,
		}
	}

	switch st.ProgressReportFrequency {
	case student.FrequencyAnnual:
		due := sy.End
		if st.IEPDueDate != "" {
			if iep, err := core.ParseDate(st.IEPDueDate); err == nil && sy.Contains(iep) {
				due = iep
			}
		}
		periodStart := due.AddDate(-1, 0, 1)
		if periodStart.Before(sy.Start) {
			periodStart = sy.Start
		}
		reports = append(reports, newReport(TypeAnnual, due, periodStart, due))
	default:
		periodStart := sy.Start
		for k := 1; k <= quartersPerYear; k++ {
			due := addMonths(sy.Start, 3*k)
			if due.After(sy.End) {
				due = sy.End
			}
			reports = append(reports, newReport(TypeQuarterly, due, periodStart, due))
			if due.Equal(sy.End) {
				break
			}
			periodStart = due.AddDate(0, 0, 1)
		}
	}
	return reports
}

// key identifies a report for duplicate detection.
func key(r ProgressReport) string {
	return r.StudentID + "|" + r.ReportType + "|" + r.DueDate
}

// isOverdue reports whether r should be flagged overdue on `today` (YYYY-MM-DD).
// Repository.MarkOverdue applies the same rule in SQL.
func isOverdue(r ProgressReport, today string) bool {
	if r.Status != StatusPending && r.Status != StatusInProgress {
		return false
	}
	return r.DueDate < today
}
