package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ordersystem/internal/app/customers"
	"ordersystem/internal/app/orders"
	"ordersystem/internal/app/payments"
	http_customers "ordersystem/internal/handler/http/customers"
	http_middleware "ordersystem/internal/handler/http/middleware"
	http_orders "ordersystem/internal/handler/http/orders"
	http_payments "ordersystem/internal/handler/http/payments"
	"ordersystem/internal/handler/http/respond"
)

type Services struct {
	Customers customers.CustomerService
	Orders    orders.OrderService
	Payments  payments.PaymentService
}

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(svc Services, opts Options, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(http_middleware.RequestLogger(logger.With(zap.String("component", "HTTP"))))
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		http_customers.RegisterRoutes(r, svc.Customers, logger)
		http_orders.RegisterRoutes(r, svc.Orders, logger)
		http_payments.RegisterRoutes(r, svc.Payments, logger)
	})

	return r
}
