package entities

// CreateBookingRequest is the client draft of a booking. Dates accept either
// YYYY-MM-DD or RFC 3339.
type CreateBookingRequest struct {
	VehicleID       string               `json:"vehicleId" validate:"required,uuid4"`
	StartDate       string               `json:"startDate" validate:"required"`
	EndDate         string               `json:"endDate" validate:"required"`
	PickupLocation  string               `json:"pickupLocation" validate:"required,max=200"`
	DropoffLocation string               `json:"dropoffLocation" validate:"required,max=200"`
	SpecialRequests string               `json:"specialRequests" validate:"max=1000"`
	CustomerDetails CustomerDetailsInput `json:"customerDetails"`
}

type CustomerDetailsInput struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,e164"`
}

// BookingPatch lists the only fields a customer may change after creation.
// Nil fields are left untouched.
type BookingPatch struct {
	PickupLocation  *string               `json:"pickupLocation,omitempty" validate:"omitempty,min=1,max=200"`
	DropoffLocation *string               `json:"dropoffLocation,omitempty" validate:"omitempty,min=1,max=200"`
	SpecialRequests *string               `json:"specialRequests,omitempty" validate:"omitempty,max=1000"`
	CustomerDetails *CustomerDetailsInput `json:"customerDetails,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p *BookingPatch) Empty() bool {
	return p.PickupLocation == nil && p.DropoffLocation == nil && p.SpecialRequests == nil && p.CustomerDetails == nil
}

type OperationalStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed"`
}
