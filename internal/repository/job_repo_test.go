package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"rentals/internal/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBookingStatusesSkipsEmpty(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	n, err := NewJobRepository(conn).UpdateBookingStatuses(context.Background(), nil, db.BookingStatusActive, db.BookingStatusCompleted)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveBookingIDsEndedBefore(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'active' AND end_date < $1")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b-1").AddRow("b-2"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1")).
		WithArgs(db.BookingStatusCompleted, sqlmock.AnyArg(), db.BookingStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewJobRepository(conn)
	ids, err := repo.ActiveBookingIDsEndedBefore(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-1", "b-2"}, ids)

	n, err := repo.UpdateBookingStatuses(context.Background(), ids, db.BookingStatusActive, db.BookingStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
