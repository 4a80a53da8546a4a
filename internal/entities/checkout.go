package entities

import (
	"time"

	"rentals/internal/db"
)

type CheckoutResponse struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}

type PaymentStatusResponse struct {
	PaymentStatus string      `json:"paymentStatus"`
	Booking       *db.Booking `json:"booking"`
}

// CheckoutSessionRequest is what the gateway needs to open a hosted checkout.
type CheckoutSessionRequest struct {
	BookingID     string
	Amount        int64
	Currency      string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Gateway session payment states.
const (
	SessionPaid              = "paid"
	SessionUnpaid            = "unpaid"
	SessionNoPaymentRequired = "no_payment_required"
)

// Gateway session lifecycle states.
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"
)

type GatewaySession struct {
	ID              string
	URL             string
	PaymentStatus   string
	Status          string
	PaymentIntentID string
	BookingID       string
	ExpiresAt       time.Time
}

type CardDetails struct {
	PaymentMethodID string
	Brand           string
	Last4           string
	ExpMonth        int
	ExpYear         int
	Country         string
	Funding         string
}

type SavePaymentMethodRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required,startswith=pm_"`
	MakeDefault     bool   `json:"makeDefault"`
}
