package service

import (
	"context"
	"errors"
	"log/slog"

	"rentals/internal/db"
	"rentals/internal/entities"
	apperrors "rentals/internal/errors"
	"rentals/internal/repository"
	"rentals/internal/validator"

	"github.com/google/uuid"
)

type PaymentMethodService struct {
	repo     repository.PaymentMethodRepository
	gateway  PaymentGateway
	validate *validator.Validator
	log      *slog.Logger
}

func NewPaymentMethodService(repo repository.PaymentMethodRepository, gateway PaymentGateway, validate *validator.Validator, log *slog.Logger) *PaymentMethodService {
	return &PaymentMethodService{repo: repo, gateway: gateway, validate: validate, log: log}
}

// Save attaches a tokenised card to the user's gateway customer and stores
// its display attributes. The user's first card becomes the default.
func (s *PaymentMethodService) Save(ctx context.Context, req entities.Requestor, input *entities.SavePaymentMethodRequest) (*db.PaymentMethod, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, apperrors.Internal("Could not list payment methods", err)
	}
	for _, pm := range existing {
		if pm.StripePaymentMethodID == input.PaymentMethodID {
			return nil, apperrors.Conflict("Payment method is already saved")
		}
	}

	knownCustomer, err := s.repo.CustomerIDForUser(ctx, req.UserID)
	if err != nil {
		return nil, apperrors.Internal("Could not look up customer", err)
	}
	customerID, err := s.gateway.EnsureCustomer(ctx, knownCustomer, req.Email, req.UserID)
	if err != nil {
		return nil, apperrors.Gateway("Could not create payment customer", err)
	}

	card, err := s.gateway.AttachPaymentMethod(ctx, input.PaymentMethodID, customerID)
	if err != nil {
		return nil, apperrors.Gateway("Could not attach payment method", err)
	}

	pm := &db.PaymentMethod{
		ID:                    uuid.NewString(),
		UserID:                req.UserID,
		StripeCustomerID:      customerID,
		StripePaymentMethodID: card.PaymentMethodID,
		Brand:                 card.Brand,
		Last4:                 card.Last4,
		ExpMonth:              card.ExpMonth,
		ExpYear:               card.ExpYear,
		Country:               card.Country,
		Funding:               card.Funding,
		IsDefault:             input.MakeDefault || len(existing) == 0,
	}
	if err := s.repo.Create(ctx, pm); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("Payment method is already saved")
		}
		return nil, apperrors.Internal("Could not save payment method", err)
	}

	s.log.InfoContext(ctx, "Payment method saved", "payment_method_id", pm.ID, "brand", pm.Brand, "default", pm.IsDefault)
	return pm, nil
}

func (s *PaymentMethodService) List(ctx context.Context, req entities.Requestor) ([]db.PaymentMethod, error) {
	methods, err := s.repo.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, apperrors.Internal("Could not list payment methods", err)
	}
	return methods, nil
}

func (s *PaymentMethodService) SetDefault(ctx context.Context, req entities.Requestor, id string) error {
	if err := s.repo.SetDefault(ctx, req.UserID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Payment method", id)
		}
		return apperrors.Internal("Could not set default payment method", err)
	}
	return nil
}

// Remove detaches the card at the gateway before deleting it locally.
func (s *PaymentMethodService) Remove(ctx context.Context, req entities.Requestor, id string) error {
	pm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Payment method", id)
		}
		return apperrors.Internal("Could not load payment method", err)
	}
	if pm.UserID != req.UserID {
		return apperrors.NotFound("Payment method", id)
	}

	if err := s.gateway.DetachPaymentMethod(ctx, pm.StripePaymentMethodID); err != nil {
		return apperrors.Gateway("Could not detach payment method", err)
	}
	if err := s.repo.Delete(ctx, req.UserID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Payment method", id)
		}
		return apperrors.Internal("Could not delete payment method", err)
	}
	s.log.InfoContext(ctx, "Payment method removed", "payment_method_id", id)
	return nil
}
