package schedule

import (
	"sort"
	"time"

	"github.com/trezcool/caseload/core"
)

// MaxOccurrenceRange bounds the number of days expanded at once.
const MaxOccurrenceRange = 366

// Expand returns the occurrences of the active schedules between from and to (inclusive), sorted by date then start time.
func Expand(schedules []ScheduledSession, from, to time.Time) []Occurrence {
	out := make([]Occurrence, 0)
	for _, s := range schedules {
		if !s.IsActive {
			continue
		}
		for _, day := range dates(s, from, to) {
			out = append(out, Occurrence{
				ScheduledSessionID: s.ID,
				Date:               core.FormatDate(day),
				StartTime:          s.StartTime,
				EndTime:            s.EndTime,
				StudentIDs:         s.StudentIDs,
				School:             s.School,
				IsDirectServices:   s.IsDirectServices,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// dates lists the days s happens on within [from, to], bounded by its own start/end dates.
func dates(s ScheduledSession, from, to time.Time) []time.Time {
	start, err := core.ParseDate(s.StartDate)
	if err != nil {
		return nil
	}
	if start.After(from) {
		from = start
	}
	if s.EndDate.Valid {
		if end, err := core.ParseDate(s.EndDate.String); err == nil && end.Before(to) {
			to = end
		}
	}
	if from.After(to) {
		return nil
	}

	excluded := make(map[string]bool, len(s.ExcludedDates))
	for _, d := range s.ExcludedDates {
		excluded[d] = true
	}
	keep := func(day time.Time) bool {
		return !excluded[core.FormatDate(day)]
	}

	var days []time.Time
	switch s.RecurrencePattern {
	case PatternWeekly:
		if !s.DayOfWeek.Valid {
			return nil
		}
		offset := (int(s.DayOfWeek.Int) - int(from.Weekday()) + 7) % 7
		for day := from.AddDate(0, 0, offset); !day.After(to); day = day.AddDate(0, 0, 7) {
			if keep(day) {
				days = append(days, day)
			}
		}
	case PatternDaily:
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday && keep(day) {
				days = append(days, day)
			}
		}
	case PatternSpecificDates:
		seen := make(map[string]bool, len(s.SpecificDates))
		for _, d := range s.SpecificDates {
			day, err := core.ParseDate(d)
			if err != nil || seen[d] || day.Before(from) || day.After(to) || !keep(day) {
				continue
			}
			seen[d] = true
			days = append(days, day)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	default:
		if !start.Before(from) && !start.After(to) && keep(start) {
			days = append(days, start)
		}
	}
	return days
}
