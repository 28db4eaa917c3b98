// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ordersystem/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Internal error while handling request", zap.Error(err))
	} else {
		logger.Info("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	WriteJSON(w, status, body)
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: domain.KindValidation, Message: message})
}

func StatusFor(err error) int {
	status, _ := errorBody(err)
	return status
}

func errorBody(err error) (int, ErrorResponse) {
	var (
		notFound   *domain.NotFoundError
		transition *domain.InvalidStateTransitionError
		rule       *domain.BusinessRuleError
		validation *domain.ValidationError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorResponse{
			Error:   validation.Kind(),
			Message: validation.Error(),
			Details: map[string]string{"field": validation.Field},
		}
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorResponse{
			Error:   notFound.Kind(),
			Message: notFound.Error(),
			Details: map[string]string{"entity": notFound.Entity, "id": notFound.ID},
		}
	case errors.As(err, &transition):
		return http.StatusConflict, ErrorResponse{
			Error:   transition.Kind(),
			Message: transition.Error(),
			Details: map[string]string{
				"entity":         transition.Entity,
				"current_status": transition.Current,
				"target_status":  transition.Target,
			},
		}
	case errors.As(err, &rule):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   rule.Kind(),
			Message: rule.Message,
			Details: map[string]string{"rule": rule.Rule},
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		}
	}
}
