package orders

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ordersystem/internal/app/orders"
	"ordersystem/internal/handler/http/respond"
)

type OrderHandler struct {
	service orders.OrderService
	logger  *zap.Logger
}

func NewOrderHandler(s orders.OrderService, l *zap.Logger) *OrderHandler {
	return &OrderHandler{service: s, logger: l}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateOrder", zap.Error(err))
		respond.BadRequest(w, "Invalid request body")
		return
	}

	res, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, res)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) GetOrdersByCustomerID(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetOrdersByCustomerID(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) GetOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetOrdersByStatus(r.Context(), chi.URLParam(r, "status"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ConfirmOrder)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelOrder)
}

func (h *OrderHandler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ShipOrder)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*orders.OrderResponse, error)) {
	res, err := fn(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}
