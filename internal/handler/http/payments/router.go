package payments

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ordersystem/internal/app/payments"
)

func RegisterRoutes(r chi.Router, s payments.PaymentService, l *zap.Logger) {
	handler := NewPaymentHandler(s, l.With(zap.String("component", "PaymentHTTPHandler")))

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", handler.CreatePayment)
		r.Get("/{paymentID}", handler.GetPayment)
		r.Post("/{paymentID}/approve", handler.ApprovePayment)
		r.Post("/{paymentID}/reject", handler.RejectPayment)
		r.Post("/{paymentID}/fail", handler.FailPayment)
		r.Get("/order/{orderID}", handler.GetPaymentsByOrderID)
		r.Get("/order/{orderID}/summary", handler.GetOrderPaymentSummary)
	})
}
