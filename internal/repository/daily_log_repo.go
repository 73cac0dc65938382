package repository

import (
	"database/sql"
	"fmt"

	"cetele/internal/database"
	"cetele/internal/models"
)

const dailyLogColumns = `id, child_id, log_date,
		quran_pages, quran_surah, quran_ayah, quran_notes,
		book_title, book_pages,
		fajr_farz, fajr_sunnah, fajr_on_time,
		dhuhr_farz, dhuhr_sunnah, dhuhr_on_time,
		asr_farz, asr_sunnah, asr_on_time,
		maghrib_farz, maghrib_sunnah, maghrib_on_time,
		isha_farz, isha_sunnah, isha_on_time,
		witr, jumuah,
		dhikr_subhan_allah, dhikr_alhamdulillah, dhikr_allahu_akbar, dhikr_salawat,
		dhikr_other_count, dhikr_other_label,
		memorization, review_text, good_deed, notes,
		created_at, updated_at`

// DailyLogRepository handles database operations for daily devotional logs
type DailyLogRepository struct {
	db database.DBTX
}

// NewDailyLogRepository creates a new daily log repository
func NewDailyLogRepository(db database.DBTX) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

// UpsertLog writes a child's log for one date, updating the existing row
// when one is present. The unique (child_id, log_date) index keeps the
// at-most-one-per-day invariant even under concurrent writes.
func (r *DailyLogRepository) UpsertLog(log *models.DailyLog) error {
	updateQuery := `
		UPDATE daily_logs SET
			quran_pages = ?, quran_surah = ?, quran_ayah = ?, quran_notes = ?,
			book_title = ?, book_pages = ?,
			fajr_farz = ?, fajr_sunnah = ?, fajr_on_time = ?,
			dhuhr_farz = ?, dhuhr_sunnah = ?, dhuhr_on_time = ?,
			asr_farz = ?, asr_sunnah = ?, asr_on_time = ?,
			maghrib_farz = ?, maghrib_sunnah = ?, maghrib_on_time = ?,
			isha_farz = ?, isha_sunnah = ?, isha_on_time = ?,
			witr = ?, jumuah = ?,
			dhikr_subhan_allah = ?, dhikr_alhamdulillah = ?, dhikr_allahu_akbar = ?, dhikr_salawat = ?,
			dhikr_other_count = ?, dhikr_other_label = ?,
			memorization = ?, review_text = ?, good_deed = ?, notes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE child_id = ? AND log_date = ?
	`
	args := logValues(log)
	args = append(args, log.ChildID, log.LogDate)

	result, err := r.db.Exec(updateQuery, args...)
	if err != nil {
		return fmt.Errorf("failed to update daily log: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows > 0 {
		return nil
	}

	insertQuery := `
		INSERT INTO daily_logs (
			child_id, log_date,
			quran_pages, quran_surah, quran_ayah, quran_notes,
			book_title, book_pages,
			fajr_farz, fajr_sunnah, fajr_on_time,
			dhuhr_farz, dhuhr_sunnah, dhuhr_on_time,
			asr_farz, asr_sunnah, asr_on_time,
			maghrib_farz, maghrib_sunnah, maghrib_on_time,
			isha_farz, isha_sunnah, isha_on_time,
			witr, jumuah,
			dhikr_subhan_allah, dhikr_alhamdulillah, dhikr_allahu_akbar, dhikr_salawat,
			dhikr_other_count, dhikr_other_label,
			memorization, review_text, good_deed, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	insertArgs := append([]interface{}{log.ChildID, log.LogDate}, logValues(log)...)

	id, err := r.db.ExecReturningID(insertQuery, insertArgs...)
	if err != nil {
		return fmt.Errorf("failed to insert daily log: %w", err)
	}
	log.ID = id
	return nil
}

// GetLog retrieves one child's log for one date
func (r *DailyLogRepository) GetLog(childID int64, date string) (*models.DailyLog, error) {
	query := "SELECT " + dailyLogColumns + " FROM daily_logs WHERE child_id = ? AND log_date = ?"
	log := &models.DailyLog{}
	err := scanLog(r.db.QueryRow(query, childID, date), log)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily log: %w", err)
	}
	return log, nil
}

// GetLogDates lists all dates a child has logged, ascending
func (r *DailyLogRepository) GetLogDates(childID int64) ([]string, error) {
	query := "SELECT log_date FROM daily_logs WHERE child_id = ? ORDER BY log_date"
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query log dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan log date: %w", err)
		}
		dates = append(dates, date)
	}

	return dates, rows.Err()
}

// GetLogsInRange lists a child's logs with from <= log_date <= to, ascending.
// Date-string comparison is safe because the key format sorts lexically.
func (r *DailyLogRepository) GetLogsInRange(childID int64, from, to string) ([]*models.DailyLog, error) {
	query := "SELECT " + dailyLogColumns + ` FROM daily_logs
		WHERE child_id = ? AND log_date >= ? AND log_date <= ?
		ORDER BY log_date`
	rows, err := r.db.Query(query, childID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DailyLog
	for rows.Next() {
		log := &models.DailyLog{}
		if err := scanLogRows(rows, log); err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// logValues returns the writable column values in declaration order
func logValues(log *models.DailyLog) []interface{} {
	return []interface{}{
		log.QuranPages, log.QuranSurah, log.QuranAyah, log.QuranNotes,
		log.BookTitle, log.BookPages,
		log.Fajr.Farz, log.Fajr.Sunnah, log.Fajr.OnTime,
		log.Dhuhr.Farz, log.Dhuhr.Sunnah, log.Dhuhr.OnTime,
		log.Asr.Farz, log.Asr.Sunnah, log.Asr.OnTime,
		log.Maghrib.Farz, log.Maghrib.Sunnah, log.Maghrib.OnTime,
		log.Isha.Farz, log.Isha.Sunnah, log.Isha.OnTime,
		log.Witr, log.Jumuah,
		log.DhikrSubhanAllah, log.DhikrAlhamdulillah, log.DhikrAllahuAkbar, log.DhikrSalawat,
		log.DhikrOtherCount, log.DhikrOtherLabel,
		log.Memorization, log.ReviewText, log.GoodDeed, log.Notes,
	}
}

func logFields(log *models.DailyLog) []interface{} {
	return []interface{}{
		&log.ID, &log.ChildID, &log.LogDate,
		&log.QuranPages, &log.QuranSurah, &log.QuranAyah, &log.QuranNotes,
		&log.BookTitle, &log.BookPages,
		&log.Fajr.Farz, &log.Fajr.Sunnah, &log.Fajr.OnTime,
		&log.Dhuhr.Farz, &log.Dhuhr.Sunnah, &log.Dhuhr.OnTime,
		&log.Asr.Farz, &log.Asr.Sunnah, &log.Asr.OnTime,
		&log.Maghrib.Farz, &log.Maghrib.Sunnah, &log.Maghrib.OnTime,
		&log.Isha.Farz, &log.Isha.Sunnah, &log.Isha.OnTime,
		&log.Witr, &log.Jumuah,
		&log.DhikrSubhanAllah, &log.DhikrAlhamdulillah, &log.DhikrAllahuAkbar, &log.DhikrSalawat,
		&log.DhikrOtherCount, &log.DhikrOtherLabel,
		&log.Memorization, &log.ReviewText, &log.GoodDeed, &log.Notes,
		&log.CreatedAt, &log.UpdatedAt,
	}
}

func scanLog(row *sql.Row, log *models.DailyLog) error {
	return row.Scan(logFields(log)...)
}

func scanLogRows(rows *sql.Rows, log *models.DailyLog) error {
	return rows.Scan(logFields(log)...)
}
