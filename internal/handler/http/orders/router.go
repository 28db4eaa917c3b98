package orders

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ordersystem/internal/app/orders"
)

func RegisterRoutes(r chi.Router, s orders.OrderService, l *zap.Logger) {
	handler := NewOrderHandler(s, l.With(zap.String("component", "OrderHTTPHandler")))

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/{orderID}", handler.GetOrder)
		r.Post("/{orderID}/confirm", handler.ConfirmOrder)
		r.Post("/{orderID}/cancel", handler.CancelOrder)
		r.Post("/{orderID}/ship", handler.ShipOrder)
		r.Get("/customer/{customerID}", handler.GetOrdersByCustomerID)
		r.Get("/status/{status}", handler.GetOrdersByStatus)
	})
}
