package repository

import (
	"context"
	"fmt"
)

func (r *bookingRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	query := `
		UPDATE bookings
		SET checkout_session_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND payment_status <> 'paid'`
	result, err := r.db.ExecContext(ctx, query, id, sessionID)
	if err != nil {
		return fmt.Errorf("error storing checkout session for booking %s: %w", id, mapWriteError(err))
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

// MarkPaid records a successful payment for the session's booking and confirms
// it if still pending. Only the first call for a session changes the row; the
// returned flag tells the caller whether this call did.
func (r *bookingRepository) MarkPaid(ctx context.Context, sessionID, paymentIntentID string) (bool, error) {
	query := `
		UPDATE bookings
		SET
			payment_status = 'paid',
			status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
			payment_intent_id = NULLIF($2, ''),
			updated_at = NOW()
		WHERE checkout_session_id = $1 AND payment_status IN ('pending', 'failed')`
	return r.execChanged(ctx, "marking session "+sessionID+" paid", query, sessionID, paymentIntentID)
}

// MarkPaymentFailed flags an unpaid session's booking as failed. Booking status is untouched.
func (r *bookingRepository) MarkPaymentFailed(ctx context.Context, sessionID string) (bool, error) {
	query := `
		UPDATE bookings
		SET payment_status = 'failed', updated_at = NOW()
		WHERE checkout_session_id = $1 AND payment_status = 'pending'`
	return r.execChanged(ctx, "marking session "+sessionID+" failed", query, sessionID)
}

// MarkRefunded cancels a paid booking whose payment was returned.
func (r *bookingRepository) MarkRefunded(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', payment_status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'paid'`
	return r.execChanged(ctx, "refunding booking "+id, query, id)
}

func (r *bookingRepository) execChanged(ctx context.Context, op, query string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("error %s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n > 0, nil
}
