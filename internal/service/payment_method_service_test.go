package service

import (
	"context"
	"errors"
	"testing"

	"rentals/internal/db"
	"rentals/internal/entities"
	apperrors "rentals/internal/errors"
	"rentals/internal/repository"
	"rentals/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentMethodRepo struct {
	methods []db.PaymentMethod
}

func (r *fakePaymentMethodRepo) Create(_ context.Context, pm *db.PaymentMethod) error {
	for i := range r.methods {
		if r.methods[i].StripePaymentMethodID == pm.StripePaymentMethodID {
			return repository.ErrDuplicate
		}
		if pm.IsDefault && r.methods[i].UserID == pm.UserID {
			r.methods[i].IsDefault = false
		}
	}
	r.methods = append(r.methods, *pm)
	return nil
}

func (r *fakePaymentMethodRepo) ListByUser(_ context.Context, userID string) ([]db.PaymentMethod, error) {
	out := []db.PaymentMethod{}
	for _, pm := range r.methods {
		if pm.UserID == userID {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (r *fakePaymentMethodRepo) GetByID(_ context.Context, id string) (*db.PaymentMethod, error) {
	for _, pm := range r.methods {
		if pm.ID == id {
			return &pm, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePaymentMethodRepo) CustomerIDForUser(_ context.Context, userID string) (string, error) {
	for _, pm := range r.methods {
		if pm.UserID == userID {
			return pm.StripeCustomerID, nil
		}
	}
	return "", nil
}

func (r *fakePaymentMethodRepo) SetDefault(_ context.Context, userID, id string) error {
	found := false
	for i := range r.methods {
		if r.methods[i].ID == id && r.methods[i].UserID == userID {
			found = true
		}
	}
	if !found {
		return repository.ErrNotFound
	}
	for i := range r.methods {
		if r.methods[i].UserID == userID {
			r.methods[i].IsDefault = r.methods[i].ID == id
		}
	}
	return nil
}

func (r *fakePaymentMethodRepo) Delete(_ context.Context, userID, id string) error {
	for i, pm := range r.methods {
		if pm.ID == id && pm.UserID == userID {
			r.methods = append(r.methods[:i], r.methods[i+1:]...)
			if pm.IsDefault {
				for j := len(r.methods) - 1; j >= 0; j-- {
					if r.methods[j].UserID == userID {
						r.methods[j].IsDefault = true
						break
					}
				}
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func defaults(methods []db.PaymentMethod) []string {
	var ids []string
	for _, pm := range methods {
		if pm.IsDefault {
			ids = append(ids, pm.StripePaymentMethodID)
		}
	}
	return ids
}

func TestPaymentMethodDefaults(t *testing.T) {
	repo := &fakePaymentMethodRepo{}
	gateway := newFakeGateway()
	svc := NewPaymentMethodService(repo, gateway, validator.New(), discardLogger())
	ctx := context.Background()

	first, err := svc.Save(ctx, owner, &entities.SavePaymentMethodRequest{PaymentMethodID: "pm_1"})
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "4242", first.Last4)

	second, err := svc.Save(ctx, owner, &entities.SavePaymentMethodRequest{PaymentMethodID: "pm_2"})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
	assert.Equal(t, first.StripeCustomerID, second.StripeCustomerID)
	assert.Equal(t, 1, gateway.customers)

	require.NoError(t, svc.SetDefault(ctx, owner, second.ID))
	methods, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"pm_2"}, defaults(methods))

	require.NoError(t, svc.Remove(ctx, owner, second.ID))
	methods, err = svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"pm_1"}, defaults(methods))
	assert.Equal(t, []string{"pm_2"}, gateway.detached)
}

func TestSavePaymentMethodValidation(t *testing.T) {
	svc := NewPaymentMethodService(&fakePaymentMethodRepo{}, newFakeGateway(), validator.New(), discardLogger())

	_, err := svc.Save(context.Background(), owner, &entities.SavePaymentMethodRequest{PaymentMethodID: "card_1"})

	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestSavePaymentMethodGatewayFailure(t *testing.T) {
	repo := &fakePaymentMethodRepo{}
	gateway := newFakeGateway()
	gateway.failAttach = errors.New("card declined")
	svc := NewPaymentMethodService(repo, gateway, validator.New(), discardLogger())

	_, err := svc.Save(context.Background(), owner, &entities.SavePaymentMethodRequest{PaymentMethodID: "pm_1"})

	assert.True(t, apperrors.Is(err, apperrors.KindGateway))
	assert.Empty(t, repo.methods)
}

func TestRemoveOtherUsersPaymentMethod(t *testing.T) {
	repo := &fakePaymentMethodRepo{methods: []db.PaymentMethod{{ID: "m-1", UserID: owner.UserID, StripePaymentMethodID: "pm_1"}}}
	gateway := newFakeGateway()
	svc := NewPaymentMethodService(repo, gateway, validator.New(), discardLogger())

	err := svc.Remove(context.Background(), stranger, "m-1")

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Empty(t, gateway.detached)
	assert.Len(t, repo.methods, 1)
}
