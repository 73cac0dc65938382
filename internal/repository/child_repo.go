package repository

import (
	"database/sql"
	"fmt"
	"time"

	"cetele/internal/database"
	"cetele/internal/models"
)

// ChildRepository handles database operations for child credentials and
// parent-child links
type ChildRepository struct {
	db database.DBTX
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *ChildRepository) WithTx(tx *database.Tx) *ChildRepository {
	return &ChildRepository{db: tx}
}

// CreateCredential inserts a child's login credential.
// Username must already be normalized to lowercase by the caller.
func (r *ChildRepository) CreateCredential(cred *models.ChildCredential) error {
	query := `
		INSERT INTO child_auth (user_id, username, pin_hash)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.Exec(query, cred.UserID, cred.Username, cred.PinHash); err != nil {
		return fmt.Errorf("failed to create child credential: %w", err)
	}
	return nil
}

// GetCredentialByUsername retrieves a credential by its lowercase username
func (r *ChildRepository) GetCredentialByUsername(username string) (*models.ChildCredential, error) {
	query := `
		SELECT user_id, username, pin_hash, created_at
		FROM child_auth
		WHERE username = ?
	`
	cred := &models.ChildCredential{}
	err := r.db.QueryRow(query, username).Scan(
		&cred.UserID,
		&cred.Username,
		&cred.PinHash,
		&cred.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child credential: %w", err)
	}

	return cred, nil
}

// GetCredentialByUserID retrieves a credential by the owning user
func (r *ChildRepository) GetCredentialByUserID(userID int64) (*models.ChildCredential, error) {
	query := `
		SELECT user_id, username, pin_hash, created_at
		FROM child_auth
		WHERE user_id = ?
	`
	cred := &models.ChildCredential{}
	err := r.db.QueryRow(query, userID).Scan(
		&cred.UserID,
		&cred.Username,
		&cred.PinHash,
		&cred.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child credential: %w", err)
	}

	return cred, nil
}

// CreateLink ties a parent to a child
func (r *ChildRepository) CreateLink(parentID, childID int64) (*models.ParentChildLink, error) {
	query := `
		INSERT INTO parent_child_links (parent_id, child_id)
		VALUES (?, ?)
	`
	id, err := r.db.ExecReturningID(query, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return &models.ParentChildLink{
		ID:        id,
		ParentID:  parentID,
		ChildID:   childID,
		CreatedAt: time.Now(),
	}, nil
}

// LinkExists reports whether a parent is already linked to a child
func (r *ChildRepository) LinkExists(parentID, childID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM parent_child_links WHERE parent_id = ? AND child_id = ?"
	if err := r.db.QueryRow(query, parentID, childID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check link: %w", err)
	}
	return count > 0, nil
}

// GetChildrenForParent lists the child accounts a parent is linked to
func (r *ChildRepository) GetChildrenForParent(parentID int64) ([]models.User, error) {
	query := `
		SELECT u.id, COALESCE(u.email, ''), COALESCE(u.password_hash, ''), u.first_name, u.last_name,
			u.role, u.status, u.group_class, u.oauth_provider, u.oauth_subject, u.created_at, u.updated_at
		FROM users u
		INNER JOIN parent_child_links l ON l.child_id = u.id
		WHERE l.parent_id = ?
		ORDER BY u.first_name, u.last_name
	`
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.PasswordHash,
			&user.FirstName, &user.LastName, &user.Role, &user.Status,
			&user.GroupClass, &user.OAuthProvider, &user.OAuthSubject,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, user)
	}

	return children, rows.Err()
}
