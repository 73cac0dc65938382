package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cetele/internal/database"
	"cetele/internal/models"
)

// LinkRequestRepository handles database operations for parent signup
// requests awaiting admin review
type LinkRequestRepository struct {
	db database.DBTX
}

// NewLinkRequestRepository creates a new link request repository
func NewLinkRequestRepository(db database.DBTX) *LinkRequestRepository {
	return &LinkRequestRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *LinkRequestRepository) WithTx(tx *database.Tx) *LinkRequestRepository {
	return &LinkRequestRepository{db: tx}
}

// CreateRequest inserts a pending request for a parent
func (r *LinkRequestRepository) CreateRequest(parentID int64, childCode string) (*models.LinkRequest, error) {
	query := `
		INSERT INTO link_requests (parent_id, child_code, status)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, parentID, childCode, models.RequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to create link request: %w", err)
	}

	return &models.LinkRequest{
		ID:        id,
		ParentID:  parentID,
		ChildCode: childCode,
		Status:    models.RequestPending,
		CreatedAt: time.Now(),
	}, nil
}

// GetRequest retrieves a request by ID
func (r *LinkRequestRepository) GetRequest(id int64) (*models.LinkRequest, error) {
	query := `
		SELECT id, parent_id, child_code, status, reviewed_at, created_at
		FROM link_requests
		WHERE id = ?
	`
	req := &models.LinkRequest{}
	err := r.db.QueryRow(query, id).Scan(
		&req.ID,
		&req.ParentID,
		&req.ChildCode,
		&req.Status,
		&req.ReviewedAt,
		&req.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link request: %w", err)
	}

	return req, nil
}

// GetLatestForParent returns a parent's most recent request
func (r *LinkRequestRepository) GetLatestForParent(parentID int64) (*models.LinkRequest, error) {
	query := `
		SELECT id, parent_id, child_code, status, reviewed_at, created_at
		FROM link_requests
		WHERE parent_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	req := &models.LinkRequest{}
	err := r.db.QueryRow(query, parentID).Scan(
		&req.ID,
		&req.ParentID,
		&req.ChildCode,
		&req.Status,
		&req.ReviewedAt,
		&req.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link request: %w", err)
	}

	return req, nil
}

// GetPendingRequests lists unreviewed requests with parent details
func (r *LinkRequestRepository) GetPendingRequests() ([]models.LinkRequest, error) {
	query := `
		SELECT r.id, r.parent_id, r.child_code, r.status, r.reviewed_at, r.created_at,
			COALESCE(u.email, ''), u.first_name, u.last_name
		FROM link_requests r
		INNER JOIN users u ON u.id = r.parent_id
		WHERE r.status = ?
		ORDER BY r.created_at
	`
	rows, err := r.db.Query(query, models.RequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query link requests: %w", err)
	}
	defer rows.Close()

	var requests []models.LinkRequest
	for rows.Next() {
		var req models.LinkRequest
		var firstName, lastName string
		if err := rows.Scan(
			&req.ID, &req.ParentID, &req.ChildCode, &req.Status,
			&req.ReviewedAt, &req.CreatedAt,
			&req.ParentEmail, &firstName, &lastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link request: %w", err)
		}
		req.ParentName = strings.TrimSpace(firstName + " " + lastName)
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// MarkReviewed moves a pending request to a terminal status. The status
// guard makes the transition one-way; zero rows affected means the
// request was already reviewed.
func (r *LinkRequestRepository) MarkReviewed(id int64, status string) (bool, error) {
	query := `
		UPDATE link_requests
		SET status = ?, reviewed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`
	result, err := r.db.Exec(query, status, id, models.RequestPending)
	if err != nil {
		return false, fmt.Errorf("failed to review link request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read review result: %w", err)
	}
	return rows > 0, nil
}
