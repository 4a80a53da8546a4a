package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"rentals/internal/db"
	"rentals/internal/entities"
	apperrors "rentals/internal/errors"
	"rentals/internal/validator"
)

var bookingStatuses = []string{
	db.BookingStatusPending,
	db.BookingStatusConfirmed,
	db.BookingStatusActive,
	db.BookingStatusCompleted,
	db.BookingStatusCancelled,
}

// operationalFrom lists the status each operational status may be entered from.
var operationalFrom = map[string]string{
	db.BookingStatusActive:    db.BookingStatusConfirmed,
	db.BookingStatusCompleted: db.BookingStatusActive,
}

type AdminService struct {
	bookings *BookingService
	validate *validator.Validator
	log      *slog.Logger
}

func NewAdminService(bookings *BookingService, validate *validator.Validator, log *slog.Logger) *AdminService {
	return &AdminService{bookings: bookings, validate: validate, log: log}
}

func (s *AdminService) ListAllBookings(ctx context.Context, status string) ([]db.Booking, error) {
	if status != "" && !slices.Contains(bookingStatuses, status) {
		return nil, apperrors.Validation("Unknown booking status", map[string]any{"status": status})
	}
	bookings, err := s.bookings.repo.ListAll(ctx, status)
	if err != nil {
		return nil, apperrors.Internal("Could not list bookings", err)
	}
	return bookings, nil
}

// SetOperationalStatus moves a booking along confirmed -> active -> completed.
func (s *AdminService) SetOperationalStatus(ctx context.Context, req entities.Requestor, id string, input *entities.OperationalStatusRequest) (*db.Booking, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	booking, err := loadOwnedBooking(ctx, s.bookings.repo, req, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == input.Status {
		return booking, nil
	}

	from := operationalFrom[input.Status]
	changed, err := s.bookings.repo.TransitionStatus(ctx, id, []string{from}, input.Status)
	if err != nil {
		return nil, apperrors.Internal("Could not update booking status", err)
	}
	if !changed {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking cannot move from %s to %s", booking.Status, input.Status))
	}

	s.log.InfoContext(ctx, "Booking status set by admin", "booking_id", id, "from", from, "to", input.Status, "admin", req.UserID)
	return loadOwnedBooking(ctx, s.bookings.repo, req, id)
}
