package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"cetele/internal/service"
	"cetele/internal/streak"
)

// ParentHandler serves the parent-facing endpoints
type ParentHandler struct {
	authService      *service.AuthService
	provisionService *service.ProvisionService
	statsService     *service.StatsService
	logger           *logrus.Logger
}

// NewParentHandler creates a new parent handler
func NewParentHandler(
	authService *service.AuthService,
	provisionService *service.ProvisionService,
	statsService *service.StatsService,
	logger *logrus.Logger,
) *ParentHandler {
	return &ParentHandler{
		authService:      authService,
		provisionService: provisionService,
		statsService:     statsService,
		logger:           logger,
	}
}

// Dashboard returns the parent overview. A parent whose signup is still
// under review gets the request status instead of children.
func (h *ParentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if !user.IsActive() {
		request, err := h.authService.GetSignupStatus(user.ID)
		if err != nil {
			respondServiceError(w, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"status":         user.Status,
			"signup_request": request,
		})
		return
	}

	dashboard, err := h.statsService.GetParentDashboard(user.ID, time.Now())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// CreateChild runs the child account wizard in one request: info step,
// PIN step, then commit. The response is the only place the PIN appears
// in clear text.
func (h *ParentHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if !user.IsActive() {
		respondError(w, http.StatusForbidden, ErrForbidden)
		return
	}

	var req struct {
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Username   string `json:"username"`
		GroupClass string `json:"group_class"`
		Pin        string `json:"pin"`
		PinConfirm string `json:"pin_confirm"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	wizard := h.provisionService.StartWizard()
	wizard, err := h.provisionService.SubmitInfo(wizard, req.FirstName, req.LastName, req.Username, req.GroupClass)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	wizard, err = h.provisionService.SubmitPin(wizard, req.Pin, req.PinConfirm)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	result, err := h.provisionService.Commit(wizard, user.ID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// ChildWeek returns one linked child's week. The week parameter names
// any day inside the wanted week; it defaults to today.
func (h *ParentHandler) ChildWeek(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if !user.IsActive() {
		respondError(w, http.StatusForbidden, ErrForbidden)
		return
	}

	childID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid child id")
		return
	}

	weekDay := time.Now()
	if raw := r.URL.Query().Get("week"); raw != "" {
		weekDay, err = time.Parse(streak.DateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "week must be YYYY-MM-DD")
			return
		}
	}

	week, err := h.statsService.GetChildWeekForParent(user.ID, childID, weekDay)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, week)
}
