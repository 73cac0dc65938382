package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"cetele/internal/service"
)

// AdminHandler serves the review queue and account administration
type AdminHandler struct {
	adminService     *service.AdminService
	provisionService *service.ProvisionService
	logger           *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	adminService *service.AdminService,
	provisionService *service.ProvisionService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		adminService:     adminService,
		provisionService: provisionService,
		logger:           logger,
	}
}

// ListRequests returns pending parent signups, oldest first
func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.adminService.ListPendingRequests()
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// ApproveRequest approves a signup, optionally linking the parent to an
// existing child
func (h *AdminHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var req struct {
		ChildID int64 `json:"child_id"`
	}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	if err := h.adminService.ApproveRequest(r.Context(), requestID, req.ChildID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// RejectRequest rejects a signup
func (h *AdminHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	if err := h.adminService.RejectRequest(requestID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// ListChildren lists child accounts, filtered by the optional search
// query parameter
func (h *AdminHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.adminService.ListChildren(r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, children)
}

// CreateChild creates a pending child with an activation code. The code
// is returned so the admin can pass it on when no email is on file.
func (h *AdminHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Email      string `json:"email"`
		GroupClass string `json:"group_class"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	child, code, err := h.provisionService.CreateChildWithCode(r.Context(), req.FirstName, req.LastName, req.Email, req.GroupClass)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"child": child,
		"code":  code,
	})
}

// ListCodes lists every activation code with its lifecycle state
func (h *AdminHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.adminService.ListCodes()
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, codes)
}
