package repository

import (
	"database/sql"
	"fmt"
	"time"

	"cetele/internal/database"
	"cetele/internal/models"
)

const userColumns = `id, COALESCE(email, ''), COALESCE(password_hash, ''), first_name, last_name, role, status,
		group_class, oauth_provider, oauth_subject, created_at, updated_at`

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *UserRepository) WithTx(tx *database.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

// CreateUser inserts a new user and returns it with its assigned ID
func (r *UserRepository) CreateUser(user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, role, status, group_class, oauth_provider, oauth_subject)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		nullIfEmpty(user.Email), nullIfEmpty(user.PasswordHash),
		user.FirstName, user.LastName, user.Role, user.Status,
		user.GroupClass, user.OAuthProvider, user.OAuthSubject,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRow(query, id))
}

// GetUserByEmail retrieves a user by email address, case-insensitively
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE LOWER(email) = LOWER(?)"
	return r.scanUser(r.db.QueryRow(query, email))
}

// GetUserByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE oauth_provider = ? AND oauth_subject = ?"
	return r.scanUser(r.db.QueryRow(query, provider, subject))
}

// GetAdminUser retrieves the admin account, if one exists
func (r *UserRepository) GetAdminUser() (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE role = ? ORDER BY id LIMIT 1"
	return r.scanUser(r.db.QueryRow(query, models.RoleAdmin))
}

// SetPassword updates a user's password hash
func (r *UserRepository) SetPassword(userID int64, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, passwordHash, userID); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	return nil
}

// SetStatus updates a user's account status
func (r *UserRepository) SetStatus(userID int64, status string) error {
	query := `
		UPDATE users
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, status, userID); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// SearchChildren lists child accounts, optionally filtering by a
// case-insensitive match on name or email
func (r *UserRepository) SearchChildren(search string) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE role = ?"
	args := []interface{}{models.RoleChild}

	if search != "" {
		query += ` AND (LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	query += " ORDER BY first_name, last_name"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.PasswordHash,
			&user.FirstName, &user.LastName, &user.Role, &user.Status,
			&user.GroupClass, &user.OAuthProvider, &user.OAuthSubject,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// DeleteUser deletes a user and all associated data
func (r *UserRepository) DeleteUser(id int64) error {
	query := "DELETE FROM users WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Role, &user.Status,
		&user.GroupClass, &user.OAuthProvider, &user.OAuthSubject,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
