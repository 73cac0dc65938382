package models

import "time"

// Prayer records one daily prayer's three tracked aspects
type Prayer struct {
	Farz   bool `json:"farz"`
	Sunnah bool `json:"sunnah"`
	OnTime bool `json:"on_time"`
}

// DailyLog is one child's devotional record for one calendar date.
// At most one row exists per (child, date); writes upsert by that key.
type DailyLog struct {
	ID      int64  `json:"id"`
	ChildID int64  `json:"child_id"`
	LogDate string `json:"log_date"` // YYYY-MM-DD

	QuranPages int    `json:"quran_pages"`
	QuranSurah string `json:"quran_surah,omitempty"`
	QuranAyah  string `json:"quran_ayah,omitempty"`
	QuranNotes string `json:"quran_notes,omitempty"`

	BookTitle string `json:"book_title,omitempty"`
	BookPages int    `json:"book_pages"`

	Fajr    Prayer `json:"fajr"`
	Dhuhr   Prayer `json:"dhuhr"`
	Asr     Prayer `json:"asr"`
	Maghrib Prayer `json:"maghrib"`
	Isha    Prayer `json:"isha"`
	Witr    bool   `json:"witr"`
	Jumuah  bool   `json:"jumuah"`

	DhikrSubhanAllah   int    `json:"dhikr_subhan_allah"`
	DhikrAlhamdulillah int    `json:"dhikr_alhamdulillah"`
	DhikrAllahuAkbar   int    `json:"dhikr_allahu_akbar"`
	DhikrSalawat       int    `json:"dhikr_salawat"`
	DhikrOtherCount    int    `json:"dhikr_other_count"`
	DhikrOtherLabel    string `json:"dhikr_other_label,omitempty"`

	Memorization string `json:"memorization,omitempty"`
	ReviewText   string `json:"review,omitempty"`
	GoodDeed     string `json:"good_deed,omitempty"`
	Notes        string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Prayers returns the five daily prayers in canonical order
func (l *DailyLog) Prayers() []Prayer {
	return []Prayer{l.Fajr, l.Dhuhr, l.Asr, l.Maghrib, l.Isha}
}

// FarzCount counts obligatory prayers performed that day, out of five
func (l *DailyLog) FarzCount() int {
	count := 0
	for _, p := range l.Prayers() {
		if p.Farz {
			count++
		}
	}
	return count
}

// DhikrTotal sums all dhikr counters including the free-form one
func (l *DailyLog) DhikrTotal() int {
	return l.DhikrSubhanAllah + l.DhikrAlhamdulillah + l.DhikrAllahuAkbar +
		l.DhikrSalawat + l.DhikrOtherCount
}
