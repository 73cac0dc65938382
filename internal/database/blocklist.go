package database

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const blocklistURL = "https://raw.githubusercontent.com/LDNOOBW/List-of-Dirty-Naughty-Obscene-and-Otherwise-Bad-Words/refs/heads/master/en"

// SeedUsernameBlocklist populates the username blocklist from the
// published word list. Fetched once; a populated table is left alone.
// Child usernames are checked against it at account creation.
func (db *DB) SeedUsernameBlocklist() (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM username_blocklist").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to check blocklist count: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(blocklistURL)
	if err != nil {
		return 0, fmt.Errorf("failed to download blocklist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bad status code from blocklist URL: %d", resp.StatusCode)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(db.Dialect.RewriteQuery("INSERT INTO username_blocklist (word) VALUES (?)"))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	added := 0
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		word := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if word == "" {
			continue
		}
		if _, err := stmt.Exec(word); err != nil {
			// Duplicates in the source list are skipped
			continue
		}
		added++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error reading blocklist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return added, nil
}

// IsBlockedUsername reports whether a candidate username contains a
// blocked word. The check is substring-based so embedding does not
// evade it.
func (db *DB) IsBlockedUsername(username string) (bool, error) {
	clean := strings.TrimSpace(strings.ToLower(username))
	if clean == "" {
		return false, nil
	}

	var count int
	query := "SELECT COUNT(*) FROM username_blocklist WHERE ? LIKE '%' || word || '%'"
	if db.Dialect.MigrationsSubdir() == "mysql" {
		query = "SELECT COUNT(*) FROM username_blocklist WHERE ? LIKE CONCAT('%', word, '%')"
	}
	if err := db.QueryRow(query, clean).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check username blocklist: %w", err)
	}
	return count > 0, nil
}
