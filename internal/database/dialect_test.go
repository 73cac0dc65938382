package database

import (
	"testing"
)

func TestDialectProperties(t *testing.T) {
	tests := []struct {
		name              string
		dialect           Dialect
		driverName        string
		migrationsSubdir  string
		supportsLastInsId bool
	}{
		{"sqlite", NewSQLiteDialect(), "sqlite3", "sqlite", true},
		{"postgres", NewPostgresDialect(), "postgres", "postgres", false},
		{"mysql", NewMySQLDialect(), "mysql", "mysql", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driverName {
				t.Errorf("DriverName() = %v, want %v", got, tt.driverName)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrationsSubdir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.migrationsSubdir)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.supportsLastInsId {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.supportsLastInsId)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "sqlite passes placeholders through",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT id FROM users WHERE email = ?",
			expected: "SELECT id FROM users WHERE email = ?",
		},
		{
			name:     "postgres single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT pin_hash FROM child_auth WHERE username = ?",
			expected: "SELECT pin_hash FROM child_auth WHERE username = $1",
		},
		{
			name:     "postgres numbers placeholders in order",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO parent_child_links (parent_id, child_id) VALUES (?, ?)",
			expected: "INSERT INTO parent_child_links (parent_id, child_id) VALUES ($1, $2)",
		},
		{
			name:     "mysql passes placeholders through",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET status = ?, updated_at = ? WHERE id = ?",
			expected: "UPDATE users SET status = ?, updated_at = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}
