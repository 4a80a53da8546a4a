package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeByKind(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Validation("bad dates", nil), http.StatusBadRequest},
		{NotFound("Booking", "abc"), http.StatusNotFound},
		{Conflict("booking cannot be cancelled"), http.StatusConflict},
		{Gateway("stripe unavailable", errors.New("dial tcp")), http.StatusBadGateway},
		{Unauthorized("missing token"), http.StatusUnauthorized},
		{Forbidden("admins only"), http.StatusForbidden},
		{Internal("boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	cause := sql.ErrConnDone
	err := fmt.Errorf("loading booking: %w", Internal("Failed to load booking", cause))

	assert.Equal(t, KindInternal, KindOf(err))
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.True(t, Is(Conflict("x"), KindConflict))
	assert.False(t, Is(nil, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("Booking", "42")
	assert.Equal(t, "Booking '42' not found", err.Error())
}
