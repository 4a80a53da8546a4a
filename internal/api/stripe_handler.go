package api

import (
	"io"
	"log/slog"
	"net/http"

	"rentals/internal/service"
)

const maxWebhookBytes = int64(65536)

type StripeWebhookHandler struct {
	checkout *service.CheckoutService
	log      *slog.Logger
}

func NewStripeWebhookHandler(checkout *service.CheckoutService, log *slog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{checkout: checkout, log: log}
}

// HandleWebhook acknowledges verified events with 200 so Stripe stops
// retrying; processing failures return 5xx so it tries again.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.WarnContext(r.Context(), "Error reading webhook body", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if err := h.checkout.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
