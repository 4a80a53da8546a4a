package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentals/internal/entities"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentmethod"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
)

const bookingIDMetadataKey = "booking_id"

// StripeService talks to Stripe with its own key and backend instead of the
// package-level stripe.Key, so it can be built once in main and injected.
type StripeService struct {
	sessions       session.Client
	customers      customer.Client
	paymentMethods paymentmethod.Client
	refunds        refund.Client
	webhookSecret  string
}

func NewStripeService(secretKey, webhookSecret string) *StripeService {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeService{
		sessions:       session.Client{B: backend, Key: secretKey},
		customers:      customer.Client{B: backend, Key: secretKey},
		paymentMethods: paymentmethod.Client{B: backend, Key: secretKey},
		refunds:        refund.Client{B: backend, Key: secretKey},
		webhookSecret:  webhookSecret,
	}
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, req entities.CheckoutSessionRequest) (*entities.GatewaySession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.BookingID),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(bookingIDMetadataKey, req.BookingID)

	sess, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session for booking %s: %w", req.BookingID, err)
	}
	return toGatewaySession(sess), nil
}

func (s *StripeService) GetCheckoutSession(ctx context.Context, sessionID string) (*entities.GatewaySession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.sessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieving checkout session %s: %w", sessionID, err)
	}
	return toGatewaySession(sess), nil
}

func (s *StripeService) Refund(ctx context.Context, paymentIntentID string) error {
	if paymentIntentID == "" {
		return fmt.Errorf("no payment intent to refund")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	// Redelivered webhooks and retried cancels must not refund twice.
	params.SetIdempotencyKey("refund-" + paymentIntentID)
	if _, err := s.refunds.New(params); err != nil {
		return fmt.Errorf("refunding payment intent %s: %w", paymentIntentID, err)
	}
	return nil
}

// EnsureCustomer returns existingCustomerID when it still names a live
// customer, otherwise creates a new one.
func (s *StripeService) EnsureCustomer(ctx context.Context, existingCustomerID, email, name string) (string, error) {
	if existingCustomerID != "" {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		cust, err := s.customers.Get(existingCustomerID, params)
		if err == nil && cust != nil && !cust.Deleted {
			return cust.ID, nil
		}
		var stripeErr *stripe.Error
		if err != nil && !(errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing) {
			return "", fmt.Errorf("retrieving customer %s: %w", existingCustomerID, err)
		}
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	cust, err := s.customers.New(params)
	if err != nil {
		return "", fmt.Errorf("creating customer: %w", err)
	}
	return cust.ID, nil
}

func (s *StripeService) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*entities.CardDetails, error) {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	pm, err := s.paymentMethods.Attach(paymentMethodID, params)
	if err != nil {
		return nil, fmt.Errorf("attaching payment method %s to customer %s: %w", paymentMethodID, customerID, err)
	}

	details := &entities.CardDetails{PaymentMethodID: pm.ID}
	if pm.Card != nil {
		details.Brand = string(pm.Card.Brand)
		details.Last4 = pm.Card.Last4
		details.ExpMonth = int(pm.Card.ExpMonth)
		details.ExpYear = int(pm.Card.ExpYear)
		details.Country = pm.Card.Country
		details.Funding = string(pm.Card.Funding)
	}
	return details, nil
}

func (s *StripeService) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx
	if _, err := s.paymentMethods.Detach(paymentMethodID, params); err != nil {
		return fmt.Errorf("detaching payment method %s: %w", paymentMethodID, err)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the events
// reconciliation cares about. Other event types come back with only ID and Type.
func (s *StripeService) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncSucceeded, EventCheckoutAsyncFailed, EventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("parsing checkout.session: %w", err)
		}
		if sess.ID == "" {
			return nil, fmt.Errorf("no session ID in %s", out.Type)
		}
		out.Session = toGatewaySession(&sess)
	case EventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("parsing charge: %w", err)
		}
		if charge.PaymentIntent != nil {
			out.PaymentIntentID = charge.PaymentIntent.ID
		}
	}
	return out, nil
}

func toGatewaySession(sess *stripe.CheckoutSession) *entities.GatewaySession {
	gs := &entities.GatewaySession{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		Status:        string(sess.Status),
		BookingID:     sess.ClientReferenceID,
	}
	if gs.BookingID == "" && sess.Metadata != nil {
		gs.BookingID = sess.Metadata[bookingIDMetadataKey]
	}
	if sess.PaymentIntent != nil {
		gs.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.ExpiresAt > 0 {
		gs.ExpiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}
	return gs
}
