package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"cetele/internal/database"
	"cetele/internal/models"
	"cetele/internal/repository"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrAlreadyReviewed = errors.New("request already reviewed")
	ErrChildNotFound   = errors.New("child not found")
)

// CodeState describes where an activation code is in its lifecycle
type CodeState string

const (
	CodeActive  CodeState = "active"
	CodeUsed    CodeState = "used"
	CodeExpired CodeState = "expired"
)

// CodeView pairs an activation code with its derived state for listings
type CodeView struct {
	models.ActivationCode
	State CodeState `json:"state"`
}

// AdminService covers the review queue and account administration
type AdminService struct {
	db             *database.DB
	userRepo       *repository.UserRepository
	childRepo      *repository.ChildRepository
	requestRepo    *repository.LinkRequestRepository
	activationRepo *repository.ActivationRepository
	emailService   *EmailService
	logger         *logrus.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	db *database.DB,
	userRepo *repository.UserRepository,
	childRepo *repository.ChildRepository,
	requestRepo *repository.LinkRequestRepository,
	activationRepo *repository.ActivationRepository,
	emailService *EmailService,
	logger *logrus.Logger,
) *AdminService {
	return &AdminService{
		db:             db,
		userRepo:       userRepo,
		childRepo:      childRepo,
		requestRepo:    requestRepo,
		activationRepo: activationRepo,
		emailService:   emailService,
		logger:         logger,
	}
}

// ListPendingRequests returns unreviewed parent signups, oldest first
func (s *AdminService) ListPendingRequests() ([]models.LinkRequest, error) {
	return s.requestRepo.GetPendingRequests()
}

// ApproveRequest approves a parent signup, activates the parent account,
// and optionally links the parent to an existing child. The approval
// email is best effort; a send failure never rolls back the decision.
func (s *AdminService) ApproveRequest(ctx context.Context, requestID, childID int64) error {
	request, err := s.requestRepo.GetRequest(requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return ErrRequestNotFound
	}
	if request.IsReviewed() {
		return ErrAlreadyReviewed
	}

	var child *models.User
	if childID != 0 {
		child, err = s.userRepo.GetUserByID(childID)
		if err != nil {
			return err
		}
		if child == nil || child.Role != models.RoleChild {
			return ErrChildNotFound
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reviewed, err := s.requestRepo.WithTx(tx).MarkReviewed(requestID, models.RequestApproved)
	if err != nil {
		return err
	}
	if !reviewed {
		return ErrAlreadyReviewed
	}

	if err := s.userRepo.WithTx(tx).SetStatus(request.ParentID, models.StatusActive); err != nil {
		return err
	}

	if child != nil {
		childTx := s.childRepo.WithTx(tx)
		linked, err := childTx.LinkExists(request.ParentID, child.ID)
		if err != nil {
			return err
		}
		if !linked {
			if _, err := childTx.CreateLink(request.ParentID, child.ID); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"parent_id":  request.ParentID,
	}).Info("parent request approved")

	parent, err := s.userRepo.GetUserByID(request.ParentID)
	if err != nil || parent == nil || parent.Email == "" {
		return nil
	}
	if err := s.emailService.SendApprovalEmail(ctx, parent.Email, parent.FullName()); err != nil {
		s.logger.WithError(err).Warn("failed to send approval email")
	}
	return nil
}

// RejectRequest marks a parent signup as rejected. The parent account
// stays pending and cannot sign in.
func (s *AdminService) RejectRequest(requestID int64) error {
	request, err := s.requestRepo.GetRequest(requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return ErrRequestNotFound
	}

	reviewed, err := s.requestRepo.MarkReviewed(requestID, models.RequestRejected)
	if err != nil {
		return err
	}
	if !reviewed {
		return ErrAlreadyReviewed
	}

	s.logger.WithField("request_id", requestID).Info("parent request rejected")
	return nil
}

// ListChildren returns child accounts, optionally filtered by a name or
// email search term
func (s *AdminService) ListChildren(search string) ([]models.User, error) {
	return s.userRepo.SearchChildren(search)
}

// ListCodes returns every activation code with its lifecycle state
func (s *AdminService) ListCodes() ([]CodeView, error) {
	codes, err := s.activationRepo.GetAllCodes()
	if err != nil {
		return nil, err
	}

	views := make([]CodeView, 0, len(codes))
	for _, code := range codes {
		state := CodeActive
		switch {
		case code.IsUsed():
			state = CodeUsed
		case code.IsExpired():
			state = CodeExpired
		}
		views = append(views, CodeView{ActivationCode: code, State: state})
	}
	return views, nil
}
