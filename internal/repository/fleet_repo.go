package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rentals/internal/db"
)

type FleetRepository interface {
	ListBranches(ctx context.Context) ([]db.Branch, error)
	GetBranch(ctx context.Context, id string) (*db.Branch, error)
	CreateBranch(ctx context.Context, branch *db.Branch) error
	UpdateBranch(ctx context.Context, branch *db.Branch) error
	DeleteBranch(ctx context.Context, id string) error

	ListVehicles(ctx context.Context, branchID string) ([]db.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*db.Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle *db.Vehicle) error
}

type fleetRepository struct {
	db *sql.DB
}

func NewFleetRepository(conn *sql.DB) FleetRepository {
	return &fleetRepository{db: conn}
}

const branchSelect = `SELECT id, name, address, city, phone, email, created_at, updated_at FROM branches`

func scanBranch(row rowScanner) (*db.Branch, error) {
	var b db.Branch
	if err := row.Scan(&b.ID, &b.Name, &b.Address, &b.City, &b.Phone, &b.Email, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *fleetRepository) ListBranches(ctx context.Context) ([]db.Branch, error) {
	rows, err := r.db.QueryContext(ctx, branchSelect+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("error listing branches: %w", err)
	}
	defer rows.Close()

	branches := []db.Branch{}
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning branch: %w", err)
		}
		branches = append(branches, *b)
	}
	return branches, rows.Err()
}

func (r *fleetRepository) GetBranch(ctx context.Context, id string) (*db.Branch, error) {
	b, err := scanBranch(r.db.QueryRowContext(ctx, branchSelect+" WHERE id = $1", id))
	if err != nil {
		if err := mapReadError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error querying branch %s: %w", id, err)
	}
	return b, nil
}

func (r *fleetRepository) CreateBranch(ctx context.Context, b *db.Branch) error {
	query := `
		INSERT INTO branches (id, name, address, city, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, b.ID, b.Name, b.Address, b.City, b.Phone, b.Email).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting branch: %w", mapWriteError(err))
	}
	return nil
}

func (r *fleetRepository) UpdateBranch(ctx context.Context, b *db.Branch) error {
	query := `
		UPDATE branches
		SET name = $2, address = $3, city = $4, phone = $5, email = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, b.ID, b.Name, b.Address, b.City, b.Phone, b.Email).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err := mapReadError(err); errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("error updating branch %s: %w", b.ID, err)
	}
	return nil
}

func (r *fleetRepository) DeleteBranch(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting branch %s: %w", id, mapWriteError(err))
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

const vehicleSelect = `SELECT id, branch_id, make, model, year, plate, daily_rate, currency, available, created_at FROM vehicles`

func scanVehicle(row rowScanner) (*db.Vehicle, error) {
	var v db.Vehicle
	err := row.Scan(&v.ID, &v.BranchID, &v.Make, &v.Model, &v.Year, &v.Plate, &v.DailyRate, &v.Currency, &v.Available, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVehicles lists the fleet, optionally for a single branch.
func (r *fleetRepository) ListVehicles(ctx context.Context, branchID string) ([]db.Vehicle, error) {
	query := vehicleSelect
	args := []any{}
	if branchID != "" {
		query += " WHERE branch_id = $1"
		args = append(args, branchID)
	}
	query += " ORDER BY make, model, year DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if err := mapReadError(err); errors.Is(err, ErrNotFound) {
			return []db.Vehicle{}, nil
		}
		return nil, fmt.Errorf("error listing vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []db.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func (r *fleetRepository) GetVehicle(ctx context.Context, id string) (*db.Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRowContext(ctx, vehicleSelect+" WHERE id = $1", id))
	if err != nil {
		if err := mapReadError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error querying vehicle %s: %w", id, err)
	}
	return v, nil
}

func (r *fleetRepository) CreateVehicle(ctx context.Context, v *db.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, branch_id, make, model, year, plate, daily_rate, currency, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		v.ID, v.BranchID, v.Make, v.Model, v.Year, v.Plate, v.DailyRate, v.Currency, v.Available,
	).Scan(&v.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting vehicle: %w", mapWriteError(err))
	}
	return nil
}
