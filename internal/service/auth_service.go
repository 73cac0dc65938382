package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cetele/internal/credentials"
	"cetele/internal/models"
	"cetele/internal/repository"
	"cetele/internal/security"
	"cetele/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountPending     = errors.New("account is awaiting activation")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthService handles authentication for all three actor kinds
type AuthService struct {
	userRepo        *repository.UserRepository
	childRepo       *repository.ChildRepository
	sessionRepo     *repository.SessionRepository
	requestRepo     *repository.LinkRequestRepository
	pinHasher       security.PinHasher
	adminToken      string
	sessionDuration time.Duration
	logger          *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo *repository.UserRepository,
	childRepo *repository.ChildRepository,
	sessionRepo *repository.SessionRepository,
	requestRepo *repository.LinkRequestRepository,
	pinHasher security.PinHasher,
	adminToken string,
	sessionDuration time.Duration,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		childRepo:       childRepo,
		sessionRepo:     sessionRepo,
		requestRepo:     requestRepo,
		pinHasher:       pinHasher,
		adminToken:      adminToken,
		sessionDuration: sessionDuration,
		logger:          logger,
	}
}

// Register creates a pending parent account and its link request.
// The optional child code is a free-text hint for the reviewing admin.
func (s *AuthService) Register(email, password, firstName, lastName, childCode string) (*models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(firstName); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(&models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         models.RoleParent,
		Status:       models.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := s.requestRepo.CreateRequest(user.ID, strings.TrimSpace(childCode)); err != nil {
		return nil, fmt.Errorf("failed to create link request: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("parent signup request created")
	return user, nil
}

// PasswordLogin authenticates an email+password credential. The role is
// re-read from the user row after verification; admin accounts cannot
// sign in through this path.
func (s *AuthService) PasswordLogin(email, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	if user.Role == models.RoleAdmin {
		return nil, nil, ErrInvalidCredentials
	}
	if user.Role == models.RoleChild && !user.IsActive() {
		return nil, nil, ErrAccountPending
	}

	session, err := s.createSession(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// ChildLogin authenticates a child by username and PIN. Unknown username
// and wrong PIN are deliberately indistinguishable to the caller.
func (s *AuthService) ChildLogin(username, pin string) (*models.Session, *models.User, error) {
	username = validation.NormalizeUsername(username)

	cred, err := s.childRepo.GetCredentialByUsername(username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get credential: %w", err)
	}
	if cred == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !s.pinHasher.CheckPin(pin, cred.PinHash) {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetUserByID(cred.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, nil, ErrAccountPending
	}

	session, err := s.createSession(user.ID, models.RoleChild)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// AdminLogin validates the shared admin token and opens an elevated
// session bound to the admin account
func (s *AuthService) AdminLogin(token string) (*models.Session, *models.User, error) {
	if s.adminToken == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		return nil, nil, ErrInvalidCredentials
	}

	admin, err := s.userRepo.GetAdminUser()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	if admin == nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createSession(admin.ID, models.RoleAdmin)
	if err != nil {
		return nil, nil, err
	}
	return session, admin, nil
}

// OAuthLogin authenticates or creates a parent via a federated provider.
// First sign-in behaves like Register: a pending account plus a link
// request awaiting admin review.
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existingUser, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if existingUser != nil {
			if existingUser.Role != models.RoleParent {
				return nil, nil, ErrInvalidCredentials
			}
			if existingUser.OAuthProvider != "" && existingUser.OAuthProvider != provider {
				return nil, nil, ErrEmailTaken
			}
			user = existingUser
		} else {
			firstName, lastName := splitName(name, email)
			// OAuth accounts keep a random password so the password
			// path stays closed until the user sets one
			randomPassword, err := credentials.GenerateTempPassword()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate password: %w", err)
			}
			passwordHash, err := security.HashPassword(randomPassword)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to hash password: %w", err)
			}

			user, err = s.userRepo.CreateUser(&models.User{
				Email:         email,
				PasswordHash:  passwordHash,
				FirstName:     firstName,
				LastName:      lastName,
				Role:          models.RoleParent,
				Status:        models.StatusPending,
				OAuthProvider: provider,
				OAuthSubject:  subject,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create oauth user: %w", err)
			}

			if _, err := s.requestRepo.CreateRequest(user.ID, ""); err != nil {
				return nil, nil, fmt.Errorf("failed to create link request: %w", err)
			}
			s.logger.WithField("user_id", user.ID).Info("parent signup request created via oauth")
		}
	}

	session, err := s.createSession(user.ID, models.RoleParent)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// ValidateSession checks a session and returns it with its user
func (s *AuthService) ValidateSession(sessionID string) (*models.Session, *models.User, error) {
	session, err := s.sessionRepo.GetSession(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.sessionRepo.DeleteSession(sessionID)
		return nil, nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrSessionNotFound
	}

	return session, user, nil
}

// GetSignupStatus returns a parent's most recent signup request, or nil
// when none exists. Pending parents see this instead of a dashboard.
func (s *AuthService) GetSignupStatus(parentID int64) (*models.LinkRequest, error) {
	return s.requestRepo.GetLatestForParent(parentID)
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.sessionRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.sessionRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

// EnsureAdminUser creates the admin account row if none exists yet.
// Called once at startup so admin sessions always have an identity.
func (s *AuthService) EnsureAdminUser() error {
	admin, err := s.userRepo.GetAdminUser()
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if admin != nil {
		return nil
	}

	_, err = s.userRepo.CreateUser(&models.User{
		FirstName: "Admin",
		Role:      models.RoleAdmin,
		Status:    models.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info("admin account created")
	return nil
}

func (s *AuthService) createSession(userID int64, role string) (*models.Session, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.sessionRepo.CreateSession(sessionID, userID, role, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func splitName(name, email string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return strings.Split(email, "@")[0], ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
