package streak

import (
	"testing"
	"time"

	"cetele/internal/models"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCurrent(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		today string
		want  int
	}{
		{
			name:  "three consecutive days ending today",
			dates: []string{"2026-03-02", "2026-03-03", "2026-03-04"},
			today: "2026-03-04",
			want:  3,
		},
		{
			name:  "today missing does not break streak",
			dates: []string{"2026-03-02", "2026-03-03"},
			today: "2026-03-04",
			want:  2,
		},
		{
			name:  "gap just before today resets to one",
			dates: []string{"2026-03-02", "2026-03-04"},
			today: "2026-03-04",
			want:  1,
		},
		{
			name:  "no logs",
			dates: nil,
			today: "2026-03-04",
			want:  0,
		},
		{
			name:  "only old logs",
			dates: []string{"2026-02-01", "2026-02-02"},
			today: "2026-03-04",
			want:  0,
		},
		{
			name:  "single log today",
			dates: []string{"2026-03-04"},
			today: "2026-03-04",
			want:  1,
		},
		{
			name:  "streak across month boundary",
			dates: []string{"2026-02-27", "2026-02-28", "2026-03-01"},
			today: "2026-03-01",
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Current(tt.dates, day(tt.today))
			if got != tt.want {
				t.Errorf("Current() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLongest(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{
			name:  "single run",
			dates: []string{"2026-03-02", "2026-03-03", "2026-03-04"},
			want:  3,
		},
		{
			name:  "longest run in the middle",
			dates: []string{"2026-01-01", "2026-02-01", "2026-02-02", "2026-02-03", "2026-02-04", "2026-03-01"},
			want:  4,
		},
		{
			name:  "unsorted input",
			dates: []string{"2026-03-04", "2026-03-02", "2026-03-03"},
			want:  3,
		},
		{
			name:  "duplicates collapse",
			dates: []string{"2026-03-02", "2026-03-02", "2026-03-03"},
			want:  2,
		},
		{
			name:  "empty",
			dates: nil,
			want:  0,
		},
		{
			name:  "all isolated days",
			dates: []string{"2026-03-01", "2026-03-03", "2026-03-05"},
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Longest(tt.dates)
			if got != tt.want {
				t.Errorf("Longest() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLongestAtLeastCurrent(t *testing.T) {
	dates := []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-07", "2026-03-08"}
	today := day("2026-03-08")

	current := Current(dates, today)
	longest := Longest(dates)
	if longest < current {
		t.Errorf("Longest() = %d less than Current() = %d", longest, current)
	}
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name       string
		day        string
		wantMonday string
		wantSunday string
	}{
		{
			name:       "midweek",
			day:        "2026-03-04", // a Wednesday
			wantMonday: "2026-03-02",
			wantSunday: "2026-03-08",
		},
		{
			name:       "monday maps to itself",
			day:        "2026-03-02",
			wantMonday: "2026-03-02",
			wantSunday: "2026-03-08",
		},
		{
			name:       "sunday belongs to the preceding monday",
			day:        "2026-03-08",
			wantMonday: "2026-03-02",
			wantSunday: "2026-03-08",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monday, sunday := WeekBounds(day(tt.day))
			if got := monday.Format(DateLayout); got != tt.wantMonday {
				t.Errorf("WeekBounds() monday = %s, want %s", got, tt.wantMonday)
			}
			if got := sunday.Format(DateLayout); got != tt.wantSunday {
				t.Errorf("WeekBounds() sunday = %s, want %s", got, tt.wantSunday)
			}
		})
	}
}

func logWithFarz(date string, farz int) *models.DailyLog {
	log := &models.DailyLog{LogDate: date}
	prayers := []*models.Prayer{&log.Fajr, &log.Dhuhr, &log.Asr, &log.Maghrib, &log.Isha}
	for i := 0; i < farz && i < 5; i++ {
		prayers[i].Farz = true
	}
	return log
}

func TestSummarize(t *testing.T) {
	t.Run("no days logged yields zero completion", func(t *testing.T) {
		s := Summarize(nil)
		if s.CompletionPercent != 0 {
			t.Errorf("CompletionPercent = %d, want 0", s.CompletionPercent)
		}
		if s.DaysLogged != 0 {
			t.Errorf("DaysLogged = %d, want 0", s.DaysLogged)
		}
	})

	t.Run("five days at three of five farz", func(t *testing.T) {
		var logs []*models.DailyLog
		for _, d := range []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"} {
			logs = append(logs, logWithFarz(d, 3))
		}

		s := Summarize(logs)
		if s.CompletionPercent != 60 {
			t.Errorf("CompletionPercent = %d, want 60", s.CompletionPercent)
		}
		if s.FarzPerformed != 15 {
			t.Errorf("FarzPerformed = %d, want 15", s.FarzPerformed)
		}
	})

	t.Run("sums numeric fields", func(t *testing.T) {
		logs := []*models.DailyLog{
			{LogDate: "2026-03-02", QuranPages: 3, BookPages: 10, DhikrSubhanAllah: 33, DhikrSalawat: 10},
			{LogDate: "2026-03-03", QuranPages: 2, BookPages: 5, DhikrAlhamdulillah: 33, DhikrOtherCount: 7},
		}

		s := Summarize(logs)
		if s.QuranPages != 5 {
			t.Errorf("QuranPages = %d, want 5", s.QuranPages)
		}
		if s.BookPages != 15 {
			t.Errorf("BookPages = %d, want 15", s.BookPages)
		}
		if s.DhikrTotal != 83 {
			t.Errorf("DhikrTotal = %d, want 83", s.DhikrTotal)
		}
	})

	t.Run("rounding to nearest integer", func(t *testing.T) {
		// 1 of 3 days fully prayed: 5/15 = 33.33 -> 33
		logs := []*models.DailyLog{
			logWithFarz("2026-03-02", 5),
			logWithFarz("2026-03-03", 0),
			logWithFarz("2026-03-04", 0),
		}
		if s := Summarize(logs); s.CompletionPercent != 33 {
			t.Errorf("CompletionPercent = %d, want 33", s.CompletionPercent)
		}
	})
}
