package service

import (
	"context"

	"rentals/internal/entities"
)

// PaymentGateway is the slice of the payment provider this service relies on.
// StripeService is the production implementation.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req entities.CheckoutSessionRequest) (*entities.GatewaySession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*entities.GatewaySession, error)
	Refund(ctx context.Context, paymentIntentID string) error
	EnsureCustomer(ctx context.Context, existingCustomerID, email, name string) (string, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*entities.CardDetails, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// WebhookEvent is a verified gateway notification reduced to what reconciliation needs.
type WebhookEvent struct {
	ID              string
	Type            string
	Session         *entities.GatewaySession
	PaymentIntentID string
}

// Webhook event types handled by CheckoutService.
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncFailed    = "checkout.session.async_payment_failed"
	EventCheckoutExpired        = "checkout.session.expired"
	EventChargeRefunded         = "charge.refunded"
)
