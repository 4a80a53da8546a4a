package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rentals/internal/db"
)

type PaymentMethodRepository interface {
	Create(ctx context.Context, pm *db.PaymentMethod) error
	ListByUser(ctx context.Context, userID string) ([]db.PaymentMethod, error)
	GetByID(ctx context.Context, id string) (*db.PaymentMethod, error)
	CustomerIDForUser(ctx context.Context, userID string) (string, error)
	SetDefault(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
}

type paymentMethodRepository struct {
	db *sql.DB
}

func NewPaymentMethodRepository(conn *sql.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: conn}
}

const paymentMethodSelect = `
	SELECT id, user_id, stripe_customer_id, stripe_payment_method_id, brand, last4,
		exp_month, exp_year, country, funding, is_default, created_at
	FROM payment_methods`

func scanPaymentMethod(row rowScanner) (*db.PaymentMethod, error) {
	var pm db.PaymentMethod
	err := row.Scan(&pm.ID, &pm.UserID, &pm.StripeCustomerID, &pm.StripePaymentMethodID, &pm.Brand, &pm.Last4,
		&pm.ExpMonth, &pm.ExpYear, &pm.Country, &pm.Funding, &pm.IsDefault, &pm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// Create inserts the method. When pm.IsDefault is set, the user's other
// methods lose the flag in the same transaction.
func (r *paymentMethodRepository) Create(ctx context.Context, pm *db.PaymentMethod) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if pm.IsDefault {
			if _, err := tx.ExecContext(ctx, `UPDATE payment_methods SET is_default = FALSE WHERE user_id = $1`, pm.UserID); err != nil {
				return fmt.Errorf("error clearing default payment method: %w", err)
			}
		}
		query := `
			INSERT INTO payment_methods
			(id, user_id, stripe_customer_id, stripe_payment_method_id, brand, last4, exp_month, exp_year, country, funding, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at`
		err := tx.QueryRowContext(ctx, query,
			pm.ID, pm.UserID, pm.StripeCustomerID, pm.StripePaymentMethodID, pm.Brand, pm.Last4,
			pm.ExpMonth, pm.ExpYear, pm.Country, pm.Funding, pm.IsDefault,
		).Scan(&pm.CreatedAt)
		if err != nil {
			return fmt.Errorf("error inserting payment method: %w", mapWriteError(err))
		}
		return nil
	})
}

func (r *paymentMethodRepository) ListByUser(ctx context.Context, userID string) ([]db.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx, paymentMethodSelect+" WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("error listing payment methods: %w", err)
	}
	defer rows.Close()

	methods := []db.PaymentMethod{}
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning payment method: %w", err)
		}
		methods = append(methods, *pm)
	}
	return methods, rows.Err()
}

func (r *paymentMethodRepository) GetByID(ctx context.Context, id string) (*db.PaymentMethod, error) {
	pm, err := scanPaymentMethod(r.db.QueryRowContext(ctx, paymentMethodSelect+" WHERE id = $1", id))
	if err != nil {
		if err := mapReadError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error querying payment method %s: %w", id, err)
	}
	return pm, nil
}

// CustomerIDForUser returns the gateway customer already linked to the user, or "".
func (r *paymentMethodRepository) CustomerIDForUser(ctx context.Context, userID string) (string, error) {
	var customerID string
	err := r.db.QueryRowContext(ctx,
		`SELECT stripe_customer_id FROM payment_methods WHERE user_id = $1 ORDER BY created_at LIMIT 1`, userID,
	).Scan(&customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("error querying customer for user %s: %w", userID, err)
	}
	return customerID, nil
}

// SetDefault makes id the user's only default payment method.
func (r *paymentMethodRepository) SetDefault(ctx context.Context, userID, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE payment_methods SET is_default = FALSE WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("error clearing default payment method: %w", err)
		}
		result, err := tx.ExecContext(ctx, `UPDATE payment_methods SET is_default = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("error setting default payment method: %w", mapWriteError(err))
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("error reading affected rows: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Delete removes the method. If it was the default, the user's newest
// remaining method is promoted.
func (r *paymentMethodRepository) Delete(ctx context.Context, userID, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var wasDefault bool
		err := tx.QueryRowContext(ctx,
			`DELETE FROM payment_methods WHERE id = $1 AND user_id = $2 RETURNING is_default`, id, userID,
		).Scan(&wasDefault)
		if err != nil {
			if err := mapReadError(err); errors.Is(err, ErrNotFound) {
				return err
			}
			return fmt.Errorf("error deleting payment method %s: %w", id, err)
		}
		if !wasDefault {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE payment_methods SET is_default = TRUE
			WHERE id = (SELECT id FROM payment_methods WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1)`, userID)
		if err != nil {
			return fmt.Errorf("error promoting default payment method: %w", err)
		}
		return nil
	})
}

func (r *paymentMethodRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
