package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"cetele/internal/models"
	"cetele/internal/service"
)

// ChildHandler serves the child-facing endpoints
type ChildHandler struct {
	statsService *service.StatsService
	logger       *logrus.Logger
}

// NewChildHandler creates a new child handler
func NewChildHandler(statsService *service.StatsService, logger *logrus.Logger) *ChildHandler {
	return &ChildHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// Dashboard returns the child home view: streaks, this week's totals,
// and today's entry
func (h *ChildHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	dashboard, err := h.statsService.GetDashboard(user.ID, time.Now())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// GetLog returns the entry for one date. A day without an entry is an
// empty object rather than an error, so the client can render a blank
// checklist.
func (h *ChildHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	date := r.PathValue("date")

	log, err := h.statsService.GetLog(user.ID, date)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if log == nil {
		log = &models.DailyLog{ChildID: user.ID, LogDate: date}
	}

	respondJSON(w, http.StatusOK, log)
}

// PutLog upserts the entry for one date. The child and date come from
// the session and the URL; ids in the payload are ignored.
func (h *ChildHandler) PutLog(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	date := r.PathValue("date")

	var log models.DailyLog
	if !decodeJSON(w, r, &log) {
		return
	}

	saved, err := h.statsService.SaveLog(user.ID, date, &log)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, saved)
}

// History returns the completed days of one month for the calendar view
func (h *ChildHandler) History(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}

	history, err := h.statsService.GetMonthHistory(user.ID, month, time.Now())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}
