package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"cetele/internal/models"
	"cetele/internal/security"
	"cetele/internal/service"
)

// AuthHandler handles authentication endpoints for all three actor kinds
type AuthHandler struct {
	authService      *service.AuthService
	provisionService *service.ProvisionService
	oauthProviders   map[string]OAuthProvider
	oauthBaseURL     string
	logger           *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *service.AuthService,
	provisionService *service.ProvisionService,
	oauthProviders map[string]OAuthProvider,
	oauthBaseURL string,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		provisionService: provisionService,
		oauthProviders:   oauthProviders,
		oauthBaseURL:     oauthBaseURL,
		logger:           logger,
	}
}

type loginResponse struct {
	User          *models.User        `json:"user"`
	SignupRequest *models.LinkRequest `json:"signup_request,omitempty"`
}

// Login handles parent email+password sign-in. A pending parent still
// gets a session but the response carries the request status instead of
// anything the dashboard would show.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	session, user, err := h.authService.PasswordLogin(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	resp := loginResponse{User: user}
	if user.Role == models.RoleParent && !user.IsActive() {
		request, err := h.authService.GetSignupStatus(user.ID)
		if err != nil {
			respondServiceError(w, h.logger, err)
			return
		}
		resp.SignupRequest = request
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, resp)
}

// ChildLogin handles username+PIN sign-in
func (h *AuthHandler) ChildLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Pin      string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	session, user, err := h.authService.ChildLogin(req.Username, req.Pin)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, loginResponse{User: user})
}

// AdminLogin exchanges the admin token for an elevated session
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	session, user, err := h.authService.AdminLogin(req.Token)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, loginResponse{User: user})
}

// Register handles parent signup. The account stays pending until an
// admin approves the request, so no session is opened here.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		ChildCode string `json:"child_code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.FirstName, req.LastName, req.ChildCode)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, loginResponse{User: user})
}

// Activate redeems an activation code and sets the child's password.
// The child signs in afterwards through the normal login endpoint.
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code            string `json:"code"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.provisionService.Activate(req.Code, req.Password, req.PasswordConfirm)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{User: user})
}

// Logout invalidates the current session, if any
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		_ = h.authService.Logout(cookie.Value)
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	respondJSON(w, http.StatusNoContent, nil)
}
