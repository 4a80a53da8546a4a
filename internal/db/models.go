package db

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusActive    = "active"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Vehicle struct {
	ID        string    `json:"id"`
	BranchID  string    `json:"branchId"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Plate     string    `json:"plate"`
	DailyRate int64     `json:"dailyRate"`
	Currency  string    `json:"currency"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"createdAt"`
}

type CustomerDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// VehicleSummary is the slice of a Vehicle shown alongside a booking.
type VehicleSummary struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Plate string `json:"plate"`
}

type Booking struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	VehicleID         string          `json:"vehicleId"`
	Vehicle           *VehicleSummary `json:"vehicle,omitempty"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           time.Time       `json:"endDate"`
	TotalDays         int             `json:"totalDays"`
	TotalAmount       int64           `json:"totalAmount"`
	Currency          string          `json:"currency"`
	PickupLocation    string          `json:"pickupLocation"`
	DropoffLocation   string          `json:"dropoffLocation"`
	SpecialRequests   string          `json:"specialRequests"`
	Customer          CustomerDetails `json:"customerDetails"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"paymentStatus"`
	CheckoutSessionID string          `json:"checkoutSessionId,omitempty"`
	PaymentIntentID   string          `json:"-"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Mutable reports whether the booking still accepts customer edits or cancellation.
func (b *Booking) Mutable() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

type PaymentMethod struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId"`
	StripeCustomerID      string    `json:"stripeCustomerId"`
	StripePaymentMethodID string    `json:"stripePaymentMethodId"`
	Brand                 string    `json:"brand"`
	Last4                 string    `json:"last4"`
	ExpMonth              int       `json:"expMonth"`
	ExpYear               int       `json:"expYear"`
	Country               string    `json:"country"`
	Funding               string    `json:"funding"`
	IsDefault             bool      `json:"isDefault"`
	CreatedAt             time.Time `json:"createdAt"`
}

type Admin struct {
	ID           int
	Email        string
	PasswordHash string
}
