// Package streak computes consecutive-day streaks and weekly aggregates
// from a child's daily log dates. All functions are pure: the reference
// day is always supplied by the caller, never read from the clock.
package streak

import (
	"math"
	"sort"
	"time"

	"cetele/internal/models"
)

// DateLayout is the calendar-date key format used throughout
const DateLayout = "2006-01-02"

// Current returns the length of the consecutive run of logged days ending
// at today. A missing log for today does not break the streak; the run is
// then counted from yesterday. Any earlier gap ends the count.
func Current(dates []string, today time.Time) int {
	logged := toSet(dates)
	day := truncate(today)

	count := 0
	for i := 0; ; i++ {
		if logged[day.Format(DateLayout)] {
			count++
		} else if i > 0 {
			break
		}
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// Longest returns the maximum run of calendar-consecutive logged days
// over the full history
func Longest(dates []string) int {
	days := toSorted(dates)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}

// WeekBounds returns the Monday and Sunday of the week containing day
func WeekBounds(day time.Time) (time.Time, time.Time) {
	day = truncate(day)
	// time.Weekday puts Sunday at 0; shift so Monday starts the week
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// WeekSummary aggregates one week of logs
type WeekSummary struct {
	DaysLogged        int `json:"days_logged"`
	QuranPages        int `json:"quran_pages"`
	BookPages         int `json:"book_pages"`
	DhikrTotal        int `json:"dhikr_total"`
	FarzPerformed     int `json:"farz_performed"`
	CompletionPercent int `json:"completion_percent"`
}

// Summarize sums the numeric fields of the given logs and computes the
// obligatory-prayer completion percentage. Zero logged days yields zero,
// never a division error. Callers pass logs already filtered to a window.
func Summarize(logs []*models.DailyLog) WeekSummary {
	var s WeekSummary
	s.DaysLogged = len(logs)

	for _, log := range logs {
		s.QuranPages += log.QuranPages
		s.BookPages += log.BookPages
		s.DhikrTotal += log.DhikrTotal()
		s.FarzPerformed += log.FarzCount()
	}

	if s.DaysLogged > 0 {
		s.CompletionPercent = int(math.Round(float64(s.FarzPerformed) / float64(s.DaysLogged*5) * 100))
	}
	return s
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toSet(dates []string) map[string]bool {
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

func toSorted(dates []string) []time.Time {
	seen := make(map[string]bool, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if seen[d] {
			continue
		}
		seen[d] = true
		t, err := time.ParseInLocation(DateLayout, d, time.UTC)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
