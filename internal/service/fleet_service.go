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

// FleetService manages branches and the vehicles they rent out.
type FleetService struct {
	repo     repository.FleetRepository
	validate *validator.Validator
	currency string
	log      *slog.Logger
}

func NewFleetService(repo repository.FleetRepository, validate *validator.Validator, currency string, log *slog.Logger) *FleetService {
	return &FleetService{repo: repo, validate: validate, currency: currency, log: log}
}

func (s *FleetService) ListBranches(ctx context.Context) ([]db.Branch, error) {
	branches, err := s.repo.ListBranches(ctx)
	if err != nil {
		return nil, apperrors.Internal("Could not list branches", err)
	}
	return branches, nil
}

func (s *FleetService) GetBranch(ctx context.Context, id string) (*db.Branch, error) {
	branch, err := s.repo.GetBranch(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Branch", id, "Could not load branch")
	}
	return branch, nil
}

func (s *FleetService) CreateBranch(ctx context.Context, input *entities.BranchRequest) (*db.Branch, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	branch := &db.Branch{
		ID:      uuid.NewString(),
		Name:    input.Name,
		Address: input.Address,
		City:    input.City,
		Phone:   input.Phone,
		Email:   input.Email,
	}
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A branch with that name already exists")
		}
		return nil, apperrors.Internal("Could not create branch", err)
	}
	s.log.InfoContext(ctx, "Branch created", "branch_id", branch.ID)
	return branch, nil
}

func (s *FleetService) UpdateBranch(ctx context.Context, id string, input *entities.BranchRequest) (*db.Branch, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	branch := &db.Branch{
		ID:      id,
		Name:    input.Name,
		Address: input.Address,
		City:    input.City,
		Phone:   input.Phone,
		Email:   input.Email,
	}
	if err := s.repo.UpdateBranch(ctx, branch); err != nil {
		return nil, notFoundOr(err, "Branch", id, "Could not update branch")
	}
	return branch, nil
}

func (s *FleetService) DeleteBranch(ctx context.Context, id string) error {
	if err := s.repo.DeleteBranch(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return apperrors.Conflict("Branch still has vehicles assigned")
		}
		return notFoundOr(err, "Branch", id, "Could not delete branch")
	}
	s.log.InfoContext(ctx, "Branch deleted", "branch_id", id)
	return nil
}

func (s *FleetService) ListVehicles(ctx context.Context, branchID string) ([]db.Vehicle, error) {
	vehicles, err := s.repo.ListVehicles(ctx, branchID)
	if err != nil {
		return nil, apperrors.Internal("Could not list vehicles", err)
	}
	return vehicles, nil
}

func (s *FleetService) GetVehicle(ctx context.Context, id string) (*db.Vehicle, error) {
	vehicle, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Vehicle", id, "Could not load vehicle")
	}
	return vehicle, nil
}

// CreateVehicle adds a rentable vehicle to an existing branch, priced in the
// service currency.
func (s *FleetService) CreateVehicle(ctx context.Context, input *entities.VehicleRequest) (*db.Vehicle, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBranch(ctx, input.BranchID); err != nil {
		return nil, notFoundOr(err, "Branch", input.BranchID, "Could not load branch")
	}

	vehicle := &db.Vehicle{
		ID:        uuid.NewString(),
		BranchID:  input.BranchID,
		Make:      input.Make,
		Model:     input.Model,
		Year:      input.Year,
		Plate:     input.Plate,
		DailyRate: input.DailyRate,
		Currency:  s.currency,
		Available: true,
	}
	if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A vehicle with that plate already exists")
		}
		return nil, apperrors.Internal("Could not create vehicle", err)
	}
	s.log.InfoContext(ctx, "Vehicle created", "vehicle_id", vehicle.ID, "branch_id", vehicle.BranchID)
	return vehicle, nil
}

func notFoundOr(err error, resource, id, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, id)
	}
	return apperrors.Internal(message, err)
}
