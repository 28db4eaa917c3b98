package payments

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ordersystem/internal/app/payments"
	"ordersystem/internal/handler/http/respond"
)

type PaymentHandler struct {
	service payments.PaymentService
	logger  *zap.Logger
}

func NewPaymentHandler(s payments.PaymentService, l *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: s, logger: l}
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req payments.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreatePayment", zap.Error(err))
		respond.BadRequest(w, "Invalid request body")
		return
	}

	res, err := h.service.CreatePayment(r.Context(), &req)
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, res)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetPayment(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) GetPaymentsByOrderID(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetPaymentsByOrderID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) GetOrderPaymentSummary(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetOrderPaymentSummary(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.ApprovePayment)
}

func (h *PaymentHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.RejectPayment)
}

func (h *PaymentHandler) FailPayment(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.FailPayment)
}

func (h *PaymentHandler) changeStatus(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*payments.PaymentResponse, error)) {
	res, err := fn(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		respond.WriteError(w, h.logger, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}
