package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"rentals/internal/auth"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type Handlers struct {
	Bookings       *UserBookingHandler
	Webhook        *StripeWebhookHandler
	PaymentMethods *PaymentMethodHandler
	Fleet          *FleetHandler
	Admin          *AdminHandler
	AdminAuth      *AdminAuthHandler
}

type RouterConfig struct {
	Auth           *auth.Middleware
	AllowedOrigins []string
	AccessLog      io.Writer
	Logger         *slog.Logger
	// Health reports whether dependencies are reachable; nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	user := func(f http.HandlerFunc) http.Handler { return cfg.Auth.RequireUser(f) }
	admin := func(f http.HandlerFunc) http.Handler { return cfg.Auth.RequireAdmin(f) }

	r := mux.NewRouter()

	r.HandleFunc("/healthz", healthz(cfg.Health)).Methods(http.MethodGet)

	// Public endpoints
	r.HandleFunc("/api/stripe/webhook", h.Webhook.HandleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/api/branches", h.Fleet.ListBranches).Methods(http.MethodGet)
	r.HandleFunc("/api/branches/{id}", h.Fleet.GetBranch).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles", h.Fleet.ListVehicles).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}", h.Fleet.GetVehicle).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}/availability", h.Bookings.CheckAvailability).Methods(http.MethodGet)

	// Customer endpoints (bearer token)
	r.Handle("/api/bookings", user(h.Bookings.CreateBooking)).Methods(http.MethodPost)
	r.Handle("/api/bookings", user(h.Bookings.ListBookings)).Methods(http.MethodGet)
	r.Handle("/api/bookings/payment-status/{sessionId}", user(h.Bookings.PaymentStatus)).Methods(http.MethodGet)
	r.Handle("/api/bookings/{id}", user(h.Bookings.GetBooking)).Methods(http.MethodGet)
	r.Handle("/api/bookings/{id}", user(h.Bookings.DeleteBooking)).Methods(http.MethodDelete)
	r.Handle("/api/bookings/{id}/update", user(h.Bookings.UpdateBooking)).Methods(http.MethodPut)
	r.Handle("/api/bookings/{id}/cancel", user(h.Bookings.CancelBooking)).Methods(http.MethodPut)
	r.Handle("/api/bookings/{id}/checkout", user(h.Bookings.InitiateCheckout)).Methods(http.MethodPost)

	r.Handle("/api/payment-methods", user(h.PaymentMethods.List)).Methods(http.MethodGet)
	r.Handle("/api/payment-methods", user(h.PaymentMethods.Save)).Methods(http.MethodPost)
	r.Handle("/api/payment-methods/{id}/default", user(h.PaymentMethods.SetDefault)).Methods(http.MethodPut)
	r.Handle("/api/payment-methods/{id}", user(h.PaymentMethods.Remove)).Methods(http.MethodDelete)

	// Admin endpoints
	r.HandleFunc("/admin/login", h.AdminAuth.Login).Methods(http.MethodPost)
	r.Handle("/admin/admins", admin(h.AdminAuth.CreateAdmin)).Methods(http.MethodPost)
	r.Handle("/admin/bookings", admin(h.Admin.ListBookings)).Methods(http.MethodGet)
	r.Handle("/admin/bookings/{id}/status", admin(h.Admin.SetBookingStatus)).Methods(http.MethodPut)
	r.Handle("/admin/branches", admin(h.Fleet.CreateBranch)).Methods(http.MethodPost)
	r.Handle("/admin/branches/{id}", admin(h.Fleet.UpdateBranch)).Methods(http.MethodPut)
	r.Handle("/admin/branches/{id}", admin(h.Fleet.DeleteBranch)).Methods(http.MethodDelete)
	r.Handle("/admin/vehicles", admin(h.Fleet.CreateVehicle)).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Route not found", Kind: "not_found"})
	})

	var handler http.Handler = r
	handler = handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)(handler)
	if cfg.AccessLog != nil {
		handler = handlers.LoggingHandler(cfg.AccessLog, handler)
	}
	return handler
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
