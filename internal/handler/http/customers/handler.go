package customers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ordersystem/internal/app/customers"
	"ordersystem/internal/handler/http/respond"
)

type CustomerHandler struct {
	service customers.CustomerService
	logger  *zap.Logger
}

func NewCustomerHandler(s customers.CustomerService, l *zap.Logger) *CustomerHandler {
	return &CustomerHandler{service: s, logger: l}
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customers.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateCustomer", zap.Error(err))
		respond.BadRequest(w, "Invalid request body")
		return
	}

	res, err := h.service.CreateCustomer(r.Context(), &req)
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, res)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (h *CustomerHandler) GetCustomerByEmail(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetCustomerByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}
