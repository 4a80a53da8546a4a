package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"rentals/internal/db"
	"rentals/internal/entities"
	apperrors "rentals/internal/errors"
	"rentals/internal/repository"
)

// CheckoutService opens hosted checkout sessions for bookings and folds the
// gateway's view of those sessions back into booking state.
type CheckoutService struct {
	repo        repository.BookingRepository
	gateway     PaymentGateway
	notifier    Notifier
	log         *slog.Logger
	frontendURL string
}

func NewCheckoutService(repo repository.BookingRepository, gateway PaymentGateway, notifier Notifier, log *slog.Logger, frontendURL string) *CheckoutService {
	return &CheckoutService{
		repo:        repo,
		gateway:     gateway,
		notifier:    notifier,
		log:         log,
		frontendURL: frontendURL,
	}
}

func (s *CheckoutService) InitiateCheckout(ctx context.Context, req entities.Requestor, bookingID string) (*entities.CheckoutResponse, error) {
	booking, err := loadOwnedBooking(ctx, s.repo, req, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != db.BookingStatusPending || booking.PaymentStatus == db.PaymentStatusPaid {
		return nil, apperrors.Conflict("Booking is not awaiting payment")
	}

	// Hand back a still-open session instead of opening a second one.
	if booking.CheckoutSessionID != "" {
		existing, err := s.gateway.GetCheckoutSession(ctx, booking.CheckoutSessionID)
		if err == nil && existing.Status == entities.SessionOpen && existing.URL != "" {
			return &entities.CheckoutResponse{SessionID: existing.ID, RedirectURL: existing.URL}, nil
		}
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, entities.CheckoutSessionRequest{
		BookingID:     booking.ID,
		Amount:        booking.TotalAmount,
		Currency:      booking.Currency,
		Description:   checkoutDescription(booking),
		CustomerEmail: booking.Customer.Email,
		SuccessURL:    s.frontendURL + "/bookings/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.frontendURL + "/bookings/payment-cancelled?booking_id=" + url.QueryEscape(booking.ID),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Checkout session creation failed", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Gateway("Could not start checkout", err)
	}

	if err := s.repo.SetCheckoutSession(ctx, booking.ID, sess.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Conflict("Booking is not awaiting payment")
		}
		return nil, apperrors.Internal("Could not store checkout session", err)
	}

	s.log.InfoContext(ctx, "Checkout session created", "booking_id", booking.ID, "session_id", sess.ID)
	return &entities.CheckoutResponse{SessionID: sess.ID, RedirectURL: sess.URL}, nil
}

// ResolvePaymentStatus asks the gateway for the session state and applies it
// to the booking. Calling it repeatedly is safe.
func (s *CheckoutService) ResolvePaymentStatus(ctx context.Context, req entities.Requestor, sessionID string) (*entities.PaymentStatusResponse, error) {
	if sessionID == "" {
		return nil, apperrors.Validation("Session id is required", nil)
	}

	booking, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Checkout session", sessionID)
		}
		return nil, apperrors.Internal("Could not load booking", err)
	}
	if !req.Owns(booking.UserID) {
		return nil, apperrors.NotFound("Checkout session", sessionID)
	}

	sess, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Gateway("Could not retrieve payment status", err)
	}

	return s.apply(ctx, booking, sess)
}

// HandleWebhook verifies and applies a gateway event. A paid session whose
// booking no longer exists is refunded; other events for unknown sessions are
// acknowledged and ignored.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.log.WarnContext(ctx, "Rejected webhook", "error", err)
		return apperrors.Validation("Invalid webhook signature", nil)
	}
	log := s.log.With("event_id", event.ID, "event_type", event.Type)

	switch event.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncSucceeded:
		booking, err := s.repo.GetBySessionID(ctx, event.Session.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return s.refundOrphanedPayment(ctx, log, event.Session)
			}
			return apperrors.Internal("Could not load booking", err)
		}
		if _, err := s.apply(ctx, booking, event.Session); err != nil {
			return err
		}

	case EventCheckoutAsyncFailed, EventCheckoutExpired:
		changed, err := s.repo.MarkPaymentFailed(ctx, event.Session.ID)
		if err != nil {
			return apperrors.Internal("Could not record failed payment", err)
		}
		log.InfoContext(ctx, "Checkout session did not complete", "session_id", event.Session.ID, "changed", changed)

	case EventChargeRefunded:
		if event.PaymentIntentID == "" {
			return nil
		}
		booking, err := s.repo.GetByPaymentIntentID(ctx, event.PaymentIntentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.InfoContext(ctx, "Refund for unknown payment intent", "payment_intent_id", event.PaymentIntentID)
				return nil
			}
			return apperrors.Internal("Could not load booking", err)
		}
		changed, err := s.repo.MarkRefunded(ctx, booking.ID)
		if err != nil {
			return apperrors.Internal("Could not record refund", err)
		}
		if changed {
			booking.Status = db.BookingStatusCancelled
			booking.PaymentStatus = db.PaymentStatusRefunded
			log.InfoContext(ctx, "Booking refunded", "booking_id", booking.ID)
			s.notifier.BookingCancelled(ctx, *booking)
		}

	default:
		log.DebugContext(ctx, "Ignoring webhook event")
	}
	return nil
}

// apply moves the booking to match the session and reports the resulting
// payment state. A booking still pending payment reports unpaid; otherwise
// its own payment status is returned.
func (s *CheckoutService) apply(ctx context.Context, booking *db.Booking, sess *entities.GatewaySession) (*entities.PaymentStatusResponse, error) {
	switch {
	case sess.PaymentStatus == entities.SessionPaid || sess.PaymentStatus == entities.SessionNoPaymentRequired:
		changed, err := s.repo.MarkPaid(ctx, sess.ID, sess.PaymentIntentID)
		if err != nil {
			return nil, apperrors.Internal("Could not record payment", err)
		}
		current, err := s.reload(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		if changed {
			s.log.InfoContext(ctx, "Payment confirmed", "booking_id", current.ID, "session_id", sess.ID)
			if current.Status == db.BookingStatusCancelled {
				current = s.refundLatePayment(ctx, current)
			} else {
				s.notifier.BookingConfirmed(ctx, *current)
			}
		}
		return &entities.PaymentStatusResponse{PaymentStatus: db.PaymentStatusPaid, Booking: current}, nil

	case sess.Status == entities.SessionExpired:
		if _, err := s.repo.MarkPaymentFailed(ctx, sess.ID); err != nil {
			return nil, apperrors.Internal("Could not record failed payment", err)
		}
		current, err := s.reload(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		status := db.PaymentStatusFailed
		if current.PaymentStatus == db.PaymentStatusPaid {
			status = db.PaymentStatusPaid
		}
		return &entities.PaymentStatusResponse{PaymentStatus: status, Booking: current}, nil

	default:
		status := entities.SessionUnpaid
		if booking.PaymentStatus != db.PaymentStatusPending {
			status = booking.PaymentStatus
		}
		return &entities.PaymentStatusResponse{PaymentStatus: status, Booking: booking}, nil
	}
}

// refundLatePayment returns money captured for a booking cancelled while its
// checkout was still open. Failures are logged for manual follow-up.
func (s *CheckoutService) refundLatePayment(ctx context.Context, booking *db.Booking) *db.Booking {
	log := s.log.With("booking_id", booking.ID)
	if booking.PaymentIntentID == "" {
		log.WarnContext(ctx, "Payment received for cancelled booking without payment intent")
		return booking
	}
	if err := s.gateway.Refund(ctx, booking.PaymentIntentID); err != nil {
		log.ErrorContext(ctx, "Refund for cancelled booking failed", "error", err)
		return booking
	}
	if _, err := s.repo.MarkRefunded(ctx, booking.ID); err != nil {
		log.ErrorContext(ctx, "Could not record refund for cancelled booking", "error", err)
		return booking
	}
	log.InfoContext(ctx, "Refunded payment for cancelled booking")
	if current, err := s.reload(ctx, booking.ID); err == nil {
		return current
	}
	return booking
}

func (s *CheckoutService) reload(ctx context.Context, id string) (*db.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Could not load booking", err)
	}
	return booking, nil
}

// refundOrphanedPayment returns money captured by a session whose booking was
// removed, for example by the stale pending cleanup while checkout was open.
// A failed refund is reported so the gateway redelivers the event.
func (s *CheckoutService) refundOrphanedPayment(ctx context.Context, log *slog.Logger, sess *entities.GatewaySession) error {
	log = log.With("session_id", sess.ID)
	if sess.PaymentStatus != entities.SessionPaid || sess.PaymentIntentID == "" {
		log.InfoContext(ctx, "Webhook for unknown checkout session")
		return nil
	}
	if err := s.gateway.Refund(ctx, sess.PaymentIntentID); err != nil {
		log.ErrorContext(ctx, "Refund for unknown checkout session failed", "payment_intent_id", sess.PaymentIntentID, "error", err)
		return apperrors.Gateway("Could not refund payment for unknown booking", err)
	}
	log.WarnContext(ctx, "Refunded payment for unknown checkout session",
		"payment_intent_id", sess.PaymentIntentID, "booking_id", sess.BookingID)
	return nil
}

func checkoutDescription(b *db.Booking) string {
	name := "Vehicle rental"
	if b.Vehicle != nil {
		name = fmt.Sprintf("%s %s %d", b.Vehicle.Make, b.Vehicle.Model, b.Vehicle.Year)
	}
	return fmt.Sprintf("%s, %d day(s) from %s", name, b.TotalDays, b.StartDate.Format("2006-01-02"))
}
