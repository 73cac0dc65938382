package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"cetele/internal/service"
	"cetele/internal/validation"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst. The caller should return
// immediately when ok == false; the error response is already written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		respondError(w, http.StatusBadRequest, ErrInvalidRequestBody)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, ErrInvalidRequestBody)
		return false
	}
	return true
}

// pathID extracts the {id} path value as an int64
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// respondServiceError maps service errors onto HTTP statuses. Anything
// unrecognized is an internal error; its cause is logged, never echoed.
func respondServiceError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	var validationErr validation.ValidationError
	if errors.As(err, &validationErr) {
		respondError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrAccountPending):
		respondError(w, http.StatusForbidden, "account is awaiting approval")
	case errors.Is(err, service.ErrPinMismatch),
		errors.Is(err, service.ErrUsernameBlocked):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCodeNotFound),
		errors.Is(err, service.ErrAccountMissing),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrChildNotFound),
		errors.Is(err, service.ErrNotLinked):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrCodeUsed),
		errors.Is(err, service.ErrAlreadyReviewed),
		errors.Is(err, service.ErrWrongStep):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCodeExpired):
		respondError(w, http.StatusGone, err.Error())
	default:
		logger.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, ErrInternalServerError)
	}
}
