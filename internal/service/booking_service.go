package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rentals/internal/db"
	"rentals/internal/entities"
	apperrors "rentals/internal/errors"
	"rentals/internal/repository"
	"rentals/internal/utils"
	"rentals/internal/validator"

	"github.com/google/uuid"
)

type BookingService struct {
	repo     repository.BookingRepository
	fleet    repository.FleetRepository
	gateway  PaymentGateway
	notifier Notifier
	validate *validator.Validator
	log      *slog.Logger
	now      func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	fleet repository.FleetRepository,
	gateway PaymentGateway,
	notifier Notifier,
	validate *validator.Validator,
	log *slog.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		fleet:    fleet,
		gateway:  gateway,
		notifier: notifier,
		validate: validate,
		log:      log,
		now:      time.Now,
	}
}

// Create validates the draft, prices it against the vehicle's daily rate and
// stores it as pending/pending.
func (s *BookingService) Create(ctx context.Context, req entities.Requestor, draft *entities.CreateBookingRequest) (*db.Booking, error) {
	if err := validateStruct(s.validate, draft); err != nil {
		return nil, err
	}

	start, err := utils.ParseDate(draft.StartDate)
	if err != nil {
		return nil, apperrors.Validation("Invalid start date", map[string]any{"startDate": err.Error()})
	}
	end, err := utils.ParseDate(draft.EndDate)
	if err != nil {
		return nil, apperrors.Validation("Invalid end date", map[string]any{"endDate": err.Error()})
	}
	days, err := utils.TotalDays(start, end)
	if err != nil {
		return nil, apperrors.Validation("endDate must be after startDate", map[string]any{"endDate": err.Error()})
	}

	vehicle, err := s.fleet.GetVehicle(ctx, draft.VehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Vehicle", draft.VehicleID)
		}
		return nil, apperrors.Internal("Could not load vehicle", err)
	}
	if !vehicle.Available {
		return nil, apperrors.Conflict("Vehicle is not available for rent")
	}

	overlap, err := s.repo.HasOverlap(ctx, vehicle.ID, start, end, "")
	if err != nil {
		return nil, apperrors.Internal("Could not check availability", err)
	}
	if overlap {
		return nil, apperrors.Conflict("Vehicle is already booked for the selected dates")
	}

	now := s.now().UTC()
	booking := &db.Booking{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		VehicleID:       vehicle.ID,
		StartDate:       start,
		EndDate:         end,
		TotalDays:       days,
		TotalAmount:     vehicle.DailyRate * int64(days),
		Currency:        vehicle.Currency,
		PickupLocation:  draft.PickupLocation,
		DropoffLocation: draft.DropoffLocation,
		SpecialRequests: draft.SpecialRequests,
		Customer: db.CustomerDetails{
			Name:  draft.CustomerDetails.Name,
			Email: draft.CustomerDetails.Email,
			Phone: draft.CustomerDetails.Phone,
		},
		Status:        db.BookingStatusPending,
		PaymentStatus: db.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("Booking already exists")
		}
		return nil, apperrors.Internal("Could not create booking", err)
	}
	booking.Vehicle = &db.VehicleSummary{Make: vehicle.Make, Model: vehicle.Model, Year: vehicle.Year, Plate: vehicle.Plate}

	s.log.InfoContext(ctx, "Booking created",
		"booking_id", booking.ID, "vehicle_id", vehicle.ID, "total_days", days, "total_amount", booking.TotalAmount)
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, req entities.Requestor, id string) (*db.Booking, error) {
	return loadOwnedBooking(ctx, s.repo, req, id)
}

func (s *BookingService) List(ctx context.Context, req entities.Requestor) ([]db.Booking, error) {
	bookings, err := s.repo.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, apperrors.Internal("Could not list bookings", err)
	}
	return bookings, nil
}

// Update applies the allow-listed patch while the booking is pending or confirmed.
func (s *BookingService) Update(ctx context.Context, req entities.Requestor, id string, patch *entities.BookingPatch) (*db.Booking, error) {
	if patch == nil || patch.Empty() {
		return nil, apperrors.Validation("No updatable fields provided", nil)
	}
	if err := validateStruct(s.validate, patch); err != nil {
		return nil, err
	}

	booking, err := loadOwnedBooking(ctx, s.repo, req, id)
	if err != nil {
		return nil, err
	}
	if !booking.Mutable() {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking cannot be updated while %s", booking.Status))
	}

	if patch.PickupLocation != nil {
		booking.PickupLocation = *patch.PickupLocation
	}
	if patch.DropoffLocation != nil {
		booking.DropoffLocation = *patch.DropoffLocation
	}
	if patch.SpecialRequests != nil {
		booking.SpecialRequests = *patch.SpecialRequests
	}
	if patch.CustomerDetails != nil {
		booking.Customer = db.CustomerDetails{
			Name:  patch.CustomerDetails.Name,
			Email: patch.CustomerDetails.Email,
			Phone: patch.CustomerDetails.Phone,
		}
	}

	if err := s.repo.UpdateDetails(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Status moved on between the read and the guarded write.
			return nil, apperrors.Conflict("Booking can no longer be updated")
		}
		return nil, apperrors.Internal("Could not update booking", err)
	}
	return booking, nil
}

// Cancel moves a pending or confirmed booking to cancelled. A paid booking is
// refunded first; if the refund fails nothing changes. Cancelling an already
// cancelled booking returns it unchanged.
func (s *BookingService) Cancel(ctx context.Context, req entities.Requestor, id string) (*db.Booking, error) {
	booking, err := loadOwnedBooking(ctx, s.repo, req, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == db.BookingStatusCancelled {
		return booking, nil
	}
	if !booking.Mutable() {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking cannot be cancelled while %s", booking.Status))
	}

	var changed bool
	if booking.PaymentStatus == db.PaymentStatusPaid && booking.PaymentIntentID != "" {
		if err := s.gateway.Refund(ctx, booking.PaymentIntentID); err != nil {
			return nil, apperrors.Gateway("Refund could not be issued", err)
		}
		changed, err = s.repo.MarkRefunded(ctx, booking.ID)
	} else {
		if booking.PaymentStatus == db.PaymentStatusPaid {
			// Nothing to refund through the gateway; the payment stays on record.
			s.log.WarnContext(ctx, "Cancelling paid booking without payment intent", "booking_id", booking.ID)
		}
		changed, err = s.repo.TransitionStatus(ctx, booking.ID,
			[]string{db.BookingStatusPending, db.BookingStatusConfirmed}, db.BookingStatusCancelled)
	}
	if err != nil {
		return nil, apperrors.Internal("Could not cancel booking", err)
	}

	current, err := loadOwnedBooking(ctx, s.repo, req, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		if current.Status == db.BookingStatusCancelled {
			return current, nil
		}
		return nil, apperrors.Conflict(fmt.Sprintf("Booking cannot be cancelled while %s", current.Status))
	}

	s.log.InfoContext(ctx, "Booking cancelled", "booking_id", current.ID, "payment_status", current.PaymentStatus)
	s.notifier.BookingCancelled(ctx, *current)
	return current, nil
}

// Delete removes a booking that never went through or was already cancelled.
// Bookings that still hold a payment are kept.
func (s *BookingService) Delete(ctx context.Context, req entities.Requestor, id string) error {
	booking, err := loadOwnedBooking(ctx, s.repo, req, id)
	if err != nil {
		return err
	}
	if booking.Status != db.BookingStatusPending && booking.Status != db.BookingStatusCancelled {
		return apperrors.Conflict(fmt.Sprintf("Booking cannot be deleted while %s", booking.Status))
	}
	if booking.PaymentStatus == db.PaymentStatusPaid {
		return apperrors.Conflict("A booking with a recorded payment cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Booking", id)
		}
		return apperrors.Internal("Could not delete booking", err)
	}
	s.log.InfoContext(ctx, "Booking deleted", "booking_id", id)
	return nil
}

// CheckAvailability quotes a vehicle for a date range without reserving it.
func (s *BookingService) CheckAvailability(ctx context.Context, vehicleID, startDate, endDate string) (*entities.VehicleAvailability, error) {
	start, err := utils.ParseDate(startDate)
	if err != nil {
		return nil, apperrors.Validation("Invalid start date", map[string]any{"startDate": err.Error()})
	}
	end, err := utils.ParseDate(endDate)
	if err != nil {
		return nil, apperrors.Validation("Invalid end date", map[string]any{"endDate": err.Error()})
	}
	days, err := utils.TotalDays(start, end)
	if err != nil {
		return nil, apperrors.Validation("endDate must be after startDate", map[string]any{"endDate": err.Error()})
	}

	vehicle, err := s.fleet.GetVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Vehicle", vehicleID)
		}
		return nil, apperrors.Internal("Could not load vehicle", err)
	}

	overlap, err := s.repo.HasOverlap(ctx, vehicleID, start, end, "")
	if err != nil {
		return nil, apperrors.Internal("Could not check availability", err)
	}

	return &entities.VehicleAvailability{
		VehicleID:          vehicleID,
		RequestedStartDate: start,
		RequestedEndDate:   end,
		Available:          vehicle.Available && !overlap,
		TotalDays:          days,
		EstimatedAmount:    vehicle.DailyRate * int64(days),
		Currency:           vehicle.Currency,
	}, nil
}

// loadOwnedBooking hides bookings the requestor does not own behind NotFound.
func loadOwnedBooking(ctx context.Context, repo repository.BookingRepository, req entities.Requestor, id string) (*db.Booking, error) {
	booking, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Booking", id)
		}
		return nil, apperrors.Internal("Could not load booking", err)
	}
	if !req.Owns(booking.UserID) {
		return nil, apperrors.NotFound("Booking", id)
	}
	return booking, nil
}

func validateStruct(v *validator.Validator, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.FieldErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.Validation("Validation failed", fieldErrs.Details())
	}
	return apperrors.Validation(err.Error(), nil)
}
