package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"cetele/internal/database"
)

// BackupData is the complete portable dump of one installation. Hashes
// are included verbatim so a restore preserves every credential.
type BackupData struct {
	Version     string             `json:"version"`
	ExportedAt  time.Time          `json:"exported_at"`
	Users       []UserBackup       `json:"users"`
	Credentials []CredentialBackup `json:"credentials"`
	Links       []LinkBackup       `json:"links"`
	Requests    []RequestBackup    `json:"requests"`
	Codes       []CodeBackup       `json:"codes"`
	Logs        []LogBackup        `json:"logs"`
}

type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	GroupClass    string    `json:"group_class"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CredentialBackup struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	PinHash   string    `json:"pin_hash"`
	CreatedAt time.Time `json:"created_at"`
}

type LinkBackup struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parent_id"`
	ChildID   int64     `json:"child_id"`
	CreatedAt time.Time `json:"created_at"`
}

type RequestBackup struct {
	ID         int64      `json:"id"`
	ParentID   int64      `json:"parent_id"`
	ChildCode  string     `json:"child_code"`
	Status     string     `json:"status"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

type CodeBackup struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	ChildUserID int64      `json:"child_user_id"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LogBackup flattens one daily log row. Column order matches the
// daily_logs table, not the API shape.
type LogBackup struct {
	ID      int64  `json:"id"`
	ChildID int64  `json:"child_id"`
	LogDate string `json:"log_date"`

	QuranPages int    `json:"quran_pages"`
	QuranSurah string `json:"quran_surah"`
	QuranAyah  string `json:"quran_ayah"`
	QuranNotes string `json:"quran_notes"`
	BookTitle  string `json:"book_title"`
	BookPages  int    `json:"book_pages"`

	Prayers [15]bool `json:"prayers"`
	Witr    bool     `json:"witr"`
	Jumuah  bool     `json:"jumuah"`

	DhikrSubhanAllah   int    `json:"dhikr_subhan_allah"`
	DhikrAlhamdulillah int    `json:"dhikr_alhamdulillah"`
	DhikrAllahuAkbar   int    `json:"dhikr_allahu_akbar"`
	DhikrSalawat       int    `json:"dhikr_salawat"`
	DhikrOtherCount    int    `json:"dhikr_other_count"`
	DhikrOtherLabel    string `json:"dhikr_other_label"`

	Memorization string `json:"memorization"`
	ReviewText   string `json:"review_text"`
	GoodDeed     string `json:"good_deed"`
	Notes        string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BackupService dumps and restores the database as portable JSON
type BackupService struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *logrus.Logger) *BackupService {
	return &BackupService{db: db, logger: logger}
}

// Export writes a complete backup to a file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	s.logger.WithField("path", outputPath).Info("database exported")
	return nil
}

// ExportToWriter dumps the database as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	steps := []struct {
		name string
		run  func(*BackupData) error
	}{
		{"users", s.exportUsers},
		{"credentials", s.exportCredentials},
		{"links", s.exportLinks},
		{"requests", s.exportRequests},
		{"codes", s.exportCodes},
		{"logs", s.exportLogs},
	}
	for _, step := range steps {
		if err := step.run(backup); err != nil {
			return fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"users": len(backup.Users),
		"logs":  len(backup.Logs),
		"codes": len(backup.Codes),
	}).Info("export complete")
	return nil
}

// Import restores a backup file into an empty database. Rows keep their
// original ids so cross-table references survive.
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup from a reader
func (s *BackupService) ImportFromReader(r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"version":     backup.Version,
		"exported_at": backup.ExportedAt,
	}).Info("starting import")

	if err := s.importUsers(backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importCredentials(backup.Credentials); err != nil {
		return fmt.Errorf("failed to import credentials: %w", err)
	}
	if err := s.importLinks(backup.Links); err != nil {
		return fmt.Errorf("failed to import links: %w", err)
	}
	if err := s.importRequests(backup.Requests); err != nil {
		return fmt.Errorf("failed to import requests: %w", err)
	}
	if err := s.importCodes(backup.Codes); err != nil {
		return fmt.Errorf("failed to import codes: %w", err)
	}
	if err := s.importLogs(backup.Logs); err != nil {
		return fmt.Errorf("failed to import logs: %w", err)
	}

	s.logger.Info("import complete")
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(password_hash, ''), first_name, last_name,
			role, status, group_class, oauth_provider, oauth_subject, created_at, updated_at
		FROM users ORDER BY id
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.Role, &u.Status, &u.GroupClass, &u.OAuthProvider, &u.OAuthSubject,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportCredentials(backup *BackupData) error {
	query := `SELECT user_id, username, pin_hash, created_at FROM child_auth ORDER BY user_id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c CredentialBackup
		if err := rows.Scan(&c.UserID, &c.Username, &c.PinHash, &c.CreatedAt); err != nil {
			return err
		}
		backup.Credentials = append(backup.Credentials, c)
	}
	return rows.Err()
}

func (s *BackupService) exportLinks(backup *BackupData) error {
	query := `SELECT id, parent_id, child_id, created_at FROM parent_child_links ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l LinkBackup
		if err := rows.Scan(&l.ID, &l.ParentID, &l.ChildID, &l.CreatedAt); err != nil {
			return err
		}
		backup.Links = append(backup.Links, l)
	}
	return rows.Err()
}

func (s *BackupService) exportRequests(backup *BackupData) error {
	query := `SELECT id, parent_id, child_code, status, reviewed_at, created_at FROM link_requests ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r RequestBackup
		var reviewedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.ParentID, &r.ChildCode, &r.Status, &reviewedAt, &r.CreatedAt); err != nil {
			return err
		}
		if reviewedAt.Valid {
			r.ReviewedAt = &reviewedAt.Time
		}
		backup.Requests = append(backup.Requests, r)
	}
	return rows.Err()
}

func (s *BackupService) exportCodes(backup *BackupData) error {
	query := `SELECT id, code, child_user_id, expires_at, used_at, created_at FROM activation_codes ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c CodeBackup
		var usedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Code, &c.ChildUserID, &c.ExpiresAt, &usedAt, &c.CreatedAt); err != nil {
			return err
		}
		if usedAt.Valid {
			c.UsedAt = &usedAt.Time
		}
		backup.Codes = append(backup.Codes, c)
	}
	return rows.Err()
}

func (s *BackupService) exportLogs(backup *BackupData) error {
	query := `
		SELECT id, child_id, log_date, quran_pages, quran_surah, quran_ayah, quran_notes,
			book_title, book_pages,
			fajr_farz, fajr_sunnah, fajr_on_time,
			dhuhr_farz, dhuhr_sunnah, dhuhr_on_time,
			asr_farz, asr_sunnah, asr_on_time,
			maghrib_farz, maghrib_sunnah, maghrib_on_time,
			isha_farz, isha_sunnah, isha_on_time,
			witr, jumuah,
			dhikr_subhan_allah, dhikr_alhamdulillah, dhikr_allahu_akbar, dhikr_salawat,
			dhikr_other_count, dhikr_other_label,
			memorization, review_text, good_deed, notes, created_at, updated_at
		FROM daily_logs ORDER BY id
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l LogBackup
		dest := []interface{}{&l.ID, &l.ChildID, &l.LogDate,
			&l.QuranPages, &l.QuranSurah, &l.QuranAyah, &l.QuranNotes,
			&l.BookTitle, &l.BookPages}
		for i := range l.Prayers {
			dest = append(dest, &l.Prayers[i])
		}
		dest = append(dest, &l.Witr, &l.Jumuah,
			&l.DhikrSubhanAllah, &l.DhikrAlhamdulillah, &l.DhikrAllahuAkbar, &l.DhikrSalawat,
			&l.DhikrOtherCount, &l.DhikrOtherLabel,
			&l.Memorization, &l.ReviewText, &l.GoodDeed, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		backup.Logs = append(backup.Logs, l)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(users []UserBackup) error {
	for _, u := range users {
		query := `
			INSERT INTO users (id, email, password_hash, first_name, last_name, role, status,
				group_class, oauth_provider, oauth_subject, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := s.db.Exec(query, u.ID, nullIfEmptyBackup(u.Email), nullIfEmptyBackup(u.PasswordHash),
			u.FirstName, u.LastName, u.Role, u.Status, u.GroupClass,
			u.OAuthProvider, u.OAuthSubject, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importCredentials(creds []CredentialBackup) error {
	for _, c := range creds {
		query := `INSERT INTO child_auth (user_id, username, pin_hash, created_at) VALUES (?, ?, ?, ?)`
		if _, err := s.db.Exec(query, c.UserID, c.Username, c.PinHash, c.CreatedAt); err != nil {
			return fmt.Errorf("credential %d: %w", c.UserID, err)
		}
	}
	return nil
}

func (s *BackupService) importLinks(links []LinkBackup) error {
	for _, l := range links {
		query := `INSERT INTO parent_child_links (id, parent_id, child_id, created_at) VALUES (?, ?, ?, ?)`
		if _, err := s.db.Exec(query, l.ID, l.ParentID, l.ChildID, l.CreatedAt); err != nil {
			return fmt.Errorf("link %d: %w", l.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importRequests(requests []RequestBackup) error {
	for _, r := range requests {
		var reviewedAt interface{}
		if r.ReviewedAt != nil {
			reviewedAt = *r.ReviewedAt
		}
		query := `
			INSERT INTO link_requests (id, parent_id, child_code, status, reviewed_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := s.db.Exec(query, r.ID, r.ParentID, r.ChildCode, r.Status, reviewedAt, r.CreatedAt); err != nil {
			return fmt.Errorf("request %d: %w", r.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importCodes(codes []CodeBackup) error {
	for _, c := range codes {
		var usedAt interface{}
		if c.UsedAt != nil {
			usedAt = *c.UsedAt
		}
		query := `
			INSERT INTO activation_codes (id, code, child_user_id, expires_at, used_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := s.db.Exec(query, c.ID, c.Code, c.ChildUserID, c.ExpiresAt, usedAt, c.CreatedAt); err != nil {
			return fmt.Errorf("code %d: %w", c.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importLogs(logs []LogBackup) error {
	query := `
		INSERT INTO daily_logs (id, child_id, log_date, quran_pages, quran_surah, quran_ayah, quran_notes,
			book_title, book_pages,
			fajr_farz, fajr_sunnah, fajr_on_time,
			dhuhr_farz, dhuhr_sunnah, dhuhr_on_time,
			asr_farz, asr_sunnah, asr_on_time,
			maghrib_farz, maghrib_sunnah, maghrib_on_time,
			isha_farz, isha_sunnah, isha_on_time,
			witr, jumuah,
			dhikr_subhan_allah, dhikr_alhamdulillah, dhikr_allahu_akbar, dhikr_salawat,
			dhikr_other_count, dhikr_other_label,
			memorization, review_text, good_deed, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, l := range logs {
		args := []interface{}{l.ID, l.ChildID, l.LogDate,
			l.QuranPages, l.QuranSurah, l.QuranAyah, l.QuranNotes,
			l.BookTitle, l.BookPages}
		for _, p := range l.Prayers {
			args = append(args, p)
		}
		args = append(args, l.Witr, l.Jumuah,
			l.DhikrSubhanAllah, l.DhikrAlhamdulillah, l.DhikrAllahuAkbar, l.DhikrSalawat,
			l.DhikrOtherCount, l.DhikrOtherLabel,
			l.Memorization, l.ReviewText, l.GoodDeed, l.Notes, l.CreatedAt, l.UpdatedAt)
		if _, err := s.db.Exec(query, args...); err != nil {
			return fmt.Errorf("log %d: %w", l.ID, err)
		}
	}
	return nil
}

func nullIfEmptyBackup(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
