package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rentals/internal/db"
)

// JobStore is the persistence the periodic jobs need; repository.JobRepository
// implements it.
type JobStore interface {
	ConfirmedBookingIDsStartedBy(ctx context.Context, now time.Time) ([]string, error)
	ActiveBookingIDsEndedBefore(ctx context.Context, now time.Time) ([]string, error)
	UpdateBookingStatuses(ctx context.Context, ids []string, from, to string) (int64, error)
	DeleteStalePendingBookings(ctx context.Context, before time.Time) (int64, error)
}

type JobService struct {
	repo       JobStore
	pendingTTL time.Duration
	log        *slog.Logger
	now        func() time.Time
}

func NewJobService(repo JobStore, pendingTTL time.Duration, log *slog.Logger) *JobService {
	return &JobService{repo: repo, pendingTTL: pendingTTL, log: log, now: time.Now}
}

// ActivateStartedBookings marks confirmed bookings whose start date has passed as active.
func (s *JobService) ActivateStartedBookings(ctx context.Context) (int64, error) {
	ids, err := s.repo.ConfirmedBookingIDsStartedBy(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to get started bookings: %w", err)
	}
	return s.move(ctx, ids, db.BookingStatusConfirmed, db.BookingStatusActive)
}

// CompleteFinishedBookings marks active bookings whose end date has passed as completed.
func (s *JobService) CompleteFinishedBookings(ctx context.Context) (int64, error) {
	ids, err := s.repo.ActiveBookingIDsEndedBefore(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to get finished bookings: %w", err)
	}
	return s.move(ctx, ids, db.BookingStatusActive, db.BookingStatusCompleted)
}

// ExpireStalePending deletes unpaid pending bookings older than the pending TTL.
func (s *JobService) ExpireStalePending(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.pendingTTL)
	n, err := s.repo.DeleteStalePendingBookings(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to delete stale pending bookings: %w", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "Cron job: deleted stale pending bookings", "count", n, "created_before", cutoff)
	}
	return n, nil
}

// RunAll runs every job once. A failing job does not stop the others.
func (s *JobService) RunAll(ctx context.Context) error {
	var errs []error
	if _, err := s.ActivateStartedBookings(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.CompleteFinishedBookings(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.ExpireStalePending(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *JobService) move(ctx context.Context, ids []string, from, to string) (int64, error) {
	if len(ids) == 0 {
		s.log.DebugContext(ctx, "Cron job: nothing to update", "from", from, "to", to)
		return 0, nil
	}
	n, err := s.repo.UpdateBookingStatuses(ctx, ids, from, to)
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to update booking statuses: %w", err)
	}
	s.log.InfoContext(ctx, "Cron job: updated bookings", "from", from, "to", to, "count", n)
	return n, nil
}
