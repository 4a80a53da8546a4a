package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// ConfirmedBookingIDsStartedBy returns confirmed bookings whose rental period has begun.
func (r *JobRepository) ConfirmedBookingIDsStartedBy(ctx context.Context, now time.Time) ([]string, error) {
	return r.ids(ctx, `SELECT id FROM bookings WHERE status = 'confirmed' AND start_date <= $1`, now)
}

// ActiveBookingIDsEndedBefore returns active bookings whose rental period is over.
func (r *JobRepository) ActiveBookingIDsEndedBefore(ctx context.Context, now time.Time) ([]string, error) {
	return r.ids(ctx, `SELECT id FROM bookings WHERE status = 'active' AND end_date < $1`, now)
}

func (r *JobRepository) ids(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying booking ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// UpdateBookingStatuses moves the listed bookings from status `from` to `to`.
// Rows whose status changed in the meantime are skipped.
func (r *JobRepository) UpdateBookingStatuses(ctx context.Context, ids []string, from, to string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id::text = ANY($2) AND status = $3`
	result, err := r.DB.ExecContext(ctx, query, to, pq.Array(ids), from)
	if err != nil {
		return 0, fmt.Errorf("error updating booking statuses: %w", err)
	}
	return result.RowsAffected()
}

// DeleteStalePendingBookings removes unpaid pending bookings created before the cutoff.
func (r *JobRepository) DeleteStalePendingBookings(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM bookings WHERE status = 'pending' AND payment_status <> 'paid' AND created_at < $1`
	result, err := r.DB.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("error deleting stale pending bookings: %w", err)
	}
	return result.RowsAffected()
}
