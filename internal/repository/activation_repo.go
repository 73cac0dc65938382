package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cetele/internal/database"
	"cetele/internal/models"
)

// ActivationRepository handles database operations for one-time child
// activation codes
type ActivationRepository struct {
	db database.DBTX
}

// NewActivationRepository creates a new activation code repository
func NewActivationRepository(db database.DBTX) *ActivationRepository {
	return &ActivationRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *ActivationRepository) WithTx(tx *database.Tx) *ActivationRepository {
	return &ActivationRepository{db: tx}
}

// CreateCode inserts a new activation code for a child
func (r *ActivationRepository) CreateCode(code string, childUserID int64, expiresAt time.Time) (*models.ActivationCode, error) {
	query := `
		INSERT INTO activation_codes (code, child_user_id, expires_at)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, code, childUserID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create activation code: %w", err)
	}

	return &models.ActivationCode{
		ID:          id,
		Code:        code,
		ChildUserID: childUserID,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
	}, nil
}

// GetByCode retrieves an activation code by its code value
func (r *ActivationRepository) GetByCode(code string) (*models.ActivationCode, error) {
	query := `
		SELECT id, code, child_user_id, expires_at, used_at, created_at
		FROM activation_codes
		WHERE code = ?
	`
	ac := &models.ActivationCode{}
	err := r.db.QueryRow(query, code).Scan(
		&ac.ID,
		&ac.Code,
		&ac.ChildUserID,
		&ac.ExpiresAt,
		&ac.UsedAt,
		&ac.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activation code: %w", err)
	}

	return ac, nil
}

// MarkUsed marks a code as used. The used_at guard makes the transition
// one-way; zero rows affected means the code was already consumed.
func (r *ActivationRepository) MarkUsed(id int64) (bool, error) {
	query := `
		UPDATE activation_codes
		SET used_at = CURRENT_TIMESTAMP
		WHERE id = ? AND used_at IS NULL
	`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark code used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read mark result: %w", err)
	}
	return rows > 0, nil
}

// GetAllCodes lists activation codes with the child's name, most recent first
func (r *ActivationRepository) GetAllCodes() ([]models.ActivationCode, error) {
	query := `
		SELECT c.id, c.code, c.child_user_id, c.expires_at, c.used_at, c.created_at,
			u.first_name, u.last_name
		FROM activation_codes c
		INNER JOIN users u ON u.id = c.child_user_id
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activation codes: %w", err)
	}
	defer rows.Close()

	var codes []models.ActivationCode
	for rows.Next() {
		var ac models.ActivationCode
		var firstName, lastName string
		if err := rows.Scan(
			&ac.ID, &ac.Code, &ac.ChildUserID, &ac.ExpiresAt, &ac.UsedAt, &ac.CreatedAt,
			&firstName, &lastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activation code: %w", err)
		}
		ac.ChildName = strings.TrimSpace(firstName + " " + lastName)
		codes = append(codes, ac)
	}

	return codes, rows.Err()
}
