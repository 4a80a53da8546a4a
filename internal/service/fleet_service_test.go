package service

import (
	"context"
	"testing"

	"rentals/internal/entities"
	apperrors "rentals/internal/errors"
	"rentals/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFleetBranchAndVehicle(t *testing.T) {
	repo := newFakeFleetRepo()
	svc := NewFleetService(repo, validator.New(), "eur", discardLogger())
	ctx := context.Background()

	branch, err := svc.CreateBranch(ctx, &entities.BranchRequest{Name: "Airport", Address: "Terminal 1", City: "Lisbon"})
	require.NoError(t, err)

	vehicle, err := svc.CreateVehicle(ctx, &entities.VehicleRequest{
		BranchID: branch.ID, Make: "Renault", Model: "Clio", Year: 2023, Plate: "AA-00-BB", DailyRate: 3900,
	})
	require.NoError(t, err)
	assert.Equal(t, "eur", vehicle.Currency)
	assert.True(t, vehicle.Available)

	vehicles, err := svc.ListVehicles(ctx, branch.ID)
	require.NoError(t, err)
	assert.Len(t, vehicles, 1)

	_, err = svc.CreateVehicle(ctx, &entities.VehicleRequest{
		BranchID: branch.ID, Make: "Renault", Model: "Clio", Year: 2023, Plate: "AA-00-BB", DailyRate: 3900,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestFleetNotFound(t *testing.T) {
	svc := NewFleetService(newFakeFleetRepo(), validator.New(), "usd", discardLogger())

	_, err := svc.GetBranch(context.Background(), "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	assert.True(t, apperrors.Is(svc.DeleteBranch(context.Background(), "missing"), apperrors.KindNotFound))

	_, err = svc.CreateVehicle(context.Background(), &entities.VehicleRequest{
		BranchID: testVehicleID, Make: "Fiat", Model: "500", Year: 2020, Plate: "X", DailyRate: 100,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestDeleteBranchWithVehiclesConflicts(t *testing.T) {
	repo := newFakeFleetRepo()
	svc := NewFleetService(repo, validator.New(), "usd", discardLogger())
	ctx := context.Background()

	branch, err := svc.CreateBranch(ctx, &entities.BranchRequest{Name: "Harbour", Address: "Pier 3", City: "Porto"})
	require.NoError(t, err)
	_, err = svc.CreateVehicle(ctx, &entities.VehicleRequest{
		BranchID: branch.ID, Make: "Seat", Model: "Ibiza", Year: 2022, Plate: "PT-11-22", DailyRate: 3500,
	})
	require.NoError(t, err)

	err = svc.DeleteBranch(ctx, branch.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	_, err = svc.GetBranch(ctx, branch.ID)
	assert.NoError(t, err)
}
