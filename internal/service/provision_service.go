package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cetele/internal/credentials"
	"cetele/internal/database"
	"cetele/internal/models"
	"cetele/internal/repository"
	"cetele/internal/security"
	"cetele/internal/validation"
)

var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrUsernameBlocked = errors.New("username not allowed")
	ErrPinMismatch     = errors.New("pin and confirmation do not match")
	ErrWrongStep       = errors.New("operation not allowed in current step")
	ErrCodeNotFound    = errors.New("activation code not found")
	ErrCodeUsed        = errors.New("activation code already used")
	ErrCodeExpired     = errors.New("activation code expired")
	ErrAccountMissing  = errors.New("account for activation code no longer exists")
)

// WizardStep enumerates the states of the child-creation wizard
type WizardStep int

const (
	StepInfo WizardStep = iota
	StepPin
	StepConfirmed
)

// ChildWizard is the state of one in-progress child creation. It is a
// plain value carried by the caller between steps; nothing is written
// to storage until Commit.
type ChildWizard struct {
	Step       WizardStep
	FirstName  string
	LastName   string
	Username   string
	GroupClass string
	pin        string
}

// ChildAccountResult carries the credentials shown exactly once after
// a successful commit
type ChildAccountResult struct {
	ChildID  int64  `json:"child_id"`
	Username string `json:"username"`
	Pin      string `json:"pin"`
}

// ProvisionService creates child accounts through both provisioning
// flows: the parent wizard and the admin activation-code path.
type ProvisionService struct {
	db             *database.DB
	userRepo       *repository.UserRepository
	childRepo      *repository.ChildRepository
	activationRepo *repository.ActivationRepository
	pinHasher      security.PinHasher
	emailService   *EmailService
	activationTTL  time.Duration
	logger         *logrus.Logger
}

// NewProvisionService creates a new provisioning service
func NewProvisionService(
	db *database.DB,
	userRepo *repository.UserRepository,
	childRepo *repository.ChildRepository,
	activationRepo *repository.ActivationRepository,
	pinHasher security.PinHasher,
	emailService *EmailService,
	activationTTL time.Duration,
	logger *logrus.Logger,
) *ProvisionService {
	return &ProvisionService{
		db:             db,
		userRepo:       userRepo,
		childRepo:      childRepo,
		activationRepo: activationRepo,
		pinHasher:      pinHasher,
		emailService:   emailService,
		activationTTL:  activationTTL,
		logger:         logger,
	}
}

// StartWizard begins a new child-creation wizard
func (s *ProvisionService) StartWizard() ChildWizard {
	return ChildWizard{Step: StepInfo}
}

// SubmitInfo validates the identity step and advances to the PIN step.
// A taken username keeps the wizard in the info step.
func (s *ProvisionService) SubmitInfo(w ChildWizard, firstName, lastName, username, groupClass string) (ChildWizard, error) {
	if w.Step != StepInfo {
		return w, ErrWrongStep
	}

	if err := validation.ValidateName(firstName); err != nil {
		return w, err
	}
	if err := validation.ValidateUsername(username); err != nil {
		return w, err
	}
	username = validation.NormalizeUsername(username)

	blocked, err := s.db.IsBlockedUsername(username)
	if err != nil {
		return w, fmt.Errorf("failed to check username blocklist: %w", err)
	}
	if blocked {
		return w, ErrUsernameBlocked
	}

	existing, err := s.childRepo.GetCredentialByUsername(username)
	if err != nil {
		return w, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return w, ErrUsernameTaken
	}

	w.FirstName = strings.TrimSpace(firstName)
	w.LastName = strings.TrimSpace(lastName)
	w.Username = username
	w.GroupClass = strings.TrimSpace(groupClass)
	w.Step = StepPin
	return w, nil
}

// SubmitPin validates the PIN step; mismatch or bad format re-prompts
// without advancing
func (s *ProvisionService) SubmitPin(w ChildWizard, pin, confirm string) (ChildWizard, error) {
	if w.Step != StepPin {
		return w, ErrWrongStep
	}

	if err := validation.ValidatePin(pin); err != nil {
		return w, err
	}
	if pin != confirm {
		return w, ErrPinMismatch
	}

	w.pin = pin
	w.Step = StepConfirmed
	return w, nil
}

// Commit writes a confirmed wizard to storage: identity, then the
// parent link, then the PIN credential, in that order, inside one
// transaction. The result carries the plaintext PIN for one-time
// display; it is never stored.
func (s *ProvisionService) Commit(w ChildWizard, parentID int64) (*ChildAccountResult, error) {
	if w.Step != StepConfirmed {
		return nil, ErrWrongStep
	}

	existing, err := s.childRepo.GetCredentialByUsername(w.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	pinHash, err := s.pinHasher.HashPin(w.pin)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pin: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	child, err := s.userRepo.WithTx(tx).CreateUser(&models.User{
		FirstName:  w.FirstName,
		LastName:   w.LastName,
		Role:       models.RoleChild,
		Status:     models.StatusActive,
		GroupClass: w.GroupClass,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	// Link before credential: the authorization edge must exist before
	// any login material does
	childTx := s.childRepo.WithTx(tx)
	if _, err := childTx.CreateLink(parentID, child.ID); err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	if err := childTx.CreateCredential(&models.ChildCredential{
		UserID:   child.ID,
		Username: w.Username,
		PinHash:  pinHash,
	}); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"child_id":  child.ID,
		"parent_id": parentID,
	}).Info("child account created")

	return &ChildAccountResult{
		ChildID:  child.ID,
		Username: w.Username,
		Pin:      w.pin,
	}, nil
}

// CreateChildWithCode creates a pending child identity plus a one-time
// activation code. The code is emailed when a contact address is given;
// a send failure is logged, not fatal.
func (s *ProvisionService) CreateChildWithCode(ctx context.Context, firstName, lastName, email, groupClass string) (*models.User, *models.ActivationCode, error) {
	if err := validation.ValidateName(firstName); err != nil {
		return nil, nil, err
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, nil, err
		}
		existing, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil {
			return nil, nil, ErrEmailTaken
		}
	}

	code, err := credentials.GenerateActivationCode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate code: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	child, err := s.userRepo.WithTx(tx).CreateUser(&models.User{
		Email:      email,
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Role:       models.RoleChild,
		Status:     models.StatusPending,
		GroupClass: strings.TrimSpace(groupClass),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create child: %w", err)
	}

	expiresAt := time.Now().Add(s.activationTTL)
	activation, err := s.activationRepo.WithTx(tx).CreateCode(code, child.ID, expiresAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create activation code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit: %w", err)
	}

	if email != "" {
		if err := s.emailService.SendActivationCodeEmail(ctx, email, child.FullName(), code, expiresAt); err != nil {
			s.logger.WithError(err).Warn("failed to send activation email")
		}
	}

	s.logger.WithField("child_id", child.ID).Info("child created with activation code")
	return child, activation, nil
}

// Activate redeems an activation code: sets the new password, consumes
// the code, and activates the account as one transaction. Validation
// order is fixed: existence, then used, then expiry, then identity.
func (s *ProvisionService) Activate(code, password, confirm string) (*models.User, error) {
	code = credentials.NormalizeCode(code)
	if code == "" {
		return nil, ErrCodeNotFound
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, validation.ValidationError{Field: "password", Message: "passwords do not match"}
	}

	activation, err := s.activationRepo.GetByCode(code)
	if err != nil {
		return nil, fmt.Errorf("failed to get activation code: %w", err)
	}
	if activation == nil {
		return nil, ErrCodeNotFound
	}
	if activation.IsUsed() {
		return nil, ErrCodeUsed
	}
	if activation.IsExpired() {
		return nil, ErrCodeExpired
	}

	child, err := s.userRepo.GetUserByID(activation.ChildUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil || child.Role != models.RoleChild {
		return nil, ErrAccountMissing
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Consuming the code first makes concurrent redemptions race on the
	// used_at guard; the loser sees zero rows and no other write lands
	consumed, err := s.activationRepo.WithTx(tx).MarkUsed(activation.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark code used: %w", err)
	}
	if !consumed {
		return nil, ErrCodeUsed
	}

	userTx := s.userRepo.WithTx(tx)
	if err := userTx.SetPassword(child.ID, passwordHash); err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}
	if err := userTx.SetStatus(child.ID, models.StatusActive); err != nil {
		return nil, fmt.Errorf("failed to activate account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	child.Status = models.StatusActive
	s.logger.WithField("child_id", child.ID).Info("child account activated")
	return child, nil
}
