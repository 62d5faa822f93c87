package streak

import (
	"sort"
	"time"

	"github.com/habitboard-api/internal/domain"
)

// day collapses t to midnight UTC of its calendar date. All streak math works
// on whole days; the caller decides which location "today" is evaluated in.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(domain.EntryDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Compute aggregates a sparse date->count completion log into HabitStats.
// today is the current day in the habit owner's timezone; dates after today
// are ignored. Unparseable keys are skipped.
func Compute(habitID string, counts map[string]int, today time.Time) domain.HabitStats {
	st := domain.HabitStats{HabitID: habitID}
	td := day(today)

	dates := make([]time.Time, 0, len(counts))
	done := make(map[time.Time]bool, len(counts))
	for k := range counts {
		t, ok := parseDate(k)
		if !ok || t.After(td) {
			continue
		}
		dates = append(dates, t)
		done[t] = true
	}
	if len(dates) == 0 {
		return st
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	st.TotalDone = len(dates)
	st.FirstDate = dates[0].Format(domain.EntryDateLayout)
	st.LastDate = dates[len(dates)-1].Format(domain.EntryDateLayout)

	// Current streak: a run of consecutive days ending today, or ending
	// yesterday when today has not been logged yet.
	cursor := td
	if !done[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for done[cursor] {
		st.CurrentStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}

	run := 1
	st.LongestStreak = 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > st.LongestStreak {
			st.LongestStreak = run
		}
	}

	span := int(td.Sub(dates[0]).Hours()/24) + 1
	if span > 0 {
		st.CompletionRate = float64(st.TotalDone) / float64(span)
	}

	for _, t := range dates {
		st.ByWeekday[int(t.Weekday())]++
	}
	return st
}

// Month builds a heatmap covering exactly the days of the given month.
// today marks the is_today cell and is expected in the owner's timezone.
func Month(habitID string, year int, month time.Month, counts map[string]int, today time.Time) domain.MonthHeatmap {
	hm := domain.MonthHeatmap{HabitID: habitID, Year: year, Month: int(month)}
	td := day(today)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		key := d.Format(domain.EntryDateLayout)
		n := counts[key]
		hm.Days = append(hm.Days, domain.HeatmapDay{
			Date:    key,
			Done:    n > 0,
			Count:   n,
			IsToday: d.Equal(td),
		})
	}
	return hm
}

// MonthRange returns the first and last date keys of a month, for range queries.
func MonthRange(year int, month time.Month) (from, to string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(domain.EntryDateLayout), last.Format(domain.EntryDateLayout)
}
