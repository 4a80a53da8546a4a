package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"rentals/internal/db"

	"github.com/lib/pq"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *db.Booking) error
	GetByID(ctx context.Context, id string) (*db.Booking, error)
	GetBySessionID(ctx context.Context, sessionID string) (*db.Booking, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*db.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]db.Booking, error)
	ListAll(ctx context.Context, status string) ([]db.Booking, error)
	UpdateDetails(ctx context.Context, booking *db.Booking) error
	TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error)
	Delete(ctx context.Context, id string) error
	HasOverlap(ctx context.Context, vehicleID string, start, end time.Time, excludeID string) (bool, error)

	// Gateway bookkeeping, see stripe_repo.go.
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	MarkPaid(ctx context.Context, sessionID, paymentIntentID string) (bool, error)
	MarkPaymentFailed(ctx context.Context, sessionID string) (bool, error)
	MarkRefunded(ctx context.Context, id string) (bool, error)
}

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(conn *sql.DB) BookingRepository {
	return &bookingRepository{db: conn}
}

const bookingSelect = `
	SELECT
		b.id, b.user_id, b.vehicle_id, b.start_date, b.end_date, b.total_days, b.total_amount, b.currency,
		b.pickup_location, b.dropoff_location, b.special_requests,
		b.customer_name, b.customer_email, b.customer_phone,
		b.status, b.payment_status, COALESCE(b.checkout_session_id, ''), COALESCE(b.payment_intent_id, ''),
		b.created_at, b.updated_at,
		v.make, v.model, v.year, v.plate
	FROM bookings b
	JOIN vehicles v ON v.id = b.vehicle_id`

func scanBooking(row rowScanner) (*db.Booking, error) {
	var b db.Booking
	var v db.VehicleSummary
	err := row.Scan(
		&b.ID, &b.UserID, &b.VehicleID, &b.StartDate, &b.EndDate, &b.TotalDays, &b.TotalAmount, &b.Currency,
		&b.PickupLocation, &b.DropoffLocation, &b.SpecialRequests,
		&b.Customer.Name, &b.Customer.Email, &b.Customer.Phone,
		&b.Status, &b.PaymentStatus, &b.CheckoutSessionID, &b.PaymentIntentID,
		&b.CreatedAt, &b.UpdatedAt,
		&v.Make, &v.Model, &v.Year, &v.Plate,
	)
	if err != nil {
		return nil, err
	}
	b.Vehicle = &v
	return &b, nil
}

func (r *bookingRepository) getOne(ctx context.Context, where string, arg any) (*db.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+" WHERE "+where, arg))
	if err != nil {
		if err := mapReadError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return b, nil
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...any) ([]db.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()

	bookings := []db.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *db.Booking) error {
	query := `
		INSERT INTO bookings
		(id, user_id, vehicle_id, start_date, end_date, total_days, total_amount, currency,
		 pickup_location, dropoff_location, special_requests, customer_name, customer_email, customer_phone,
		 status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		b.ID,
		b.UserID,
		b.VehicleID,
		b.StartDate,
		b.EndDate,
		b.TotalDays,
		b.TotalAmount,
		b.Currency,
		b.PickupLocation,
		b.DropoffLocation,
		b.SpecialRequests,
		b.Customer.Name,
		b.Customer.Email,
		b.Customer.Phone,
		b.Status,
		b.PaymentStatus,
		b.CreatedAt,
		b.UpdatedAt,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", mapWriteError(err))
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*db.Booking, error) {
	return r.getOne(ctx, "b.id = $1", id)
}

func (r *bookingRepository) GetBySessionID(ctx context.Context, sessionID string) (*db.Booking, error) {
	return r.getOne(ctx, "b.checkout_session_id = $1", sessionID)
}

func (r *bookingRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*db.Booking, error) {
	return r.getOne(ctx, "b.payment_intent_id = $1", paymentIntentID)
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID string) ([]db.Booking, error) {
	return r.list(ctx, bookingSelect+" WHERE b.user_id = $1", userID)
}

// ListAll returns every booking, newest start first, optionally narrowed to one status.
func (r *bookingRepository) ListAll(ctx context.Context, status string) ([]db.Booking, error) {
	query := bookingSelect + " WHERE 1=1"
	args := []any{}
	idx := 1

	if status != "" {
		query += " AND b.status = $" + strconv.Itoa(idx)
		args = append(args, status)
		idx++
	}
	query += " ORDER BY b.start_date DESC"

	return r.list(ctx, query, args...)
}

func (r *bookingRepository) UpdateDetails(ctx context.Context, b *db.Booking) error {
	query := `
		UPDATE bookings
		SET
			pickup_location = $2,
			dropoff_location = $3,
			special_requests = $4,
			customer_name = $5,
			customer_email = $6,
			customer_phone = $7,
			updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		b.ID,
		b.PickupLocation,
		b.DropoffLocation,
		b.SpecialRequests,
		b.Customer.Name,
		b.Customer.Email,
		b.Customer.Phone,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if err := mapReadError(err); errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("error updating booking %s: %w", b.ID, err)
	}
	return nil
}

// TransitionStatus moves a booking to status `to` only while its current status
// is one of `from`. It reports whether a row changed.
func (r *bookingRepository) TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1 AND status = ANY($3)`
	result, err := r.db.ExecContext(ctx, query, id, to, pq.Array(from))
	if err != nil {
		return false, fmt.Errorf("error updating booking %s status: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		if err := mapWriteError(err); errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("error deleting booking %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasOverlap reports whether the vehicle holds a live booking intersecting [start, end).
func (r *bookingRepository) HasOverlap(ctx context.Context, vehicleID string, start, end time.Time, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE vehicle_id = $1
			  AND status <> 'cancelled'
			  AND start_date < $3
			  AND end_date > $2
			  AND ($4::text = '' OR id::text <> $4::text)
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, vehicleID, start, end, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking vehicle availability: %w", err)
	}
	return exists, nil
}
