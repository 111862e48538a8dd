package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// CustomerRepository handles customer data operations
type CustomerRepository struct {
	BaseRepository
	logger *slog.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sqlx.DB, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{
		BaseRepository: BaseRepository{db: db},
		logger:         logger,
	}
}

// Create creates a new customer. The shipping mark, when present, is
// written here and never again; Update deliberately omits the column.
func (r *CustomerRepository) Create(ctx context.Context, customer *Customer) error {
	query := `
		INSERT INTO customers (
			id, full_name, country, region, shipping_mark, is_active,
			created_at, updated_at
		) VALUES (
			:id, :full_name, :country, :region, :shipping_mark, :is_active,
			:created_at, :updated_at
		)`

	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()

	_, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		r.logger.Error("Failed to create customer", "customer_id", customer.ID, "error", err)
		return fmt.Errorf("failed to create customer: %w", err)
	}

	r.logger.Info("Customer created", "customer_id", customer.ID, "name", customer.FullName)
	return nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	query := `
		SELECT * FROM customers
		WHERE id = $1 AND deleted_at IS NULL`

	var customer Customer
	err := r.db.GetContext(ctx, &customer, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get customer by ID", "customer_id", id, "error", err)
		return nil, fmt.Errorf("failed to get customer by ID: %w", err)
	}

	return &customer, nil
}

// Update updates customer profile fields. The shipping mark is
// immutable after assignment and is never part of this statement.
func (r *CustomerRepository) Update(ctx context.Context, customer *Customer) error {
	query := `
		UPDATE customers SET
			full_name = :full_name,
			country = :country,
			region = :region,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	customer.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		r.logger.Error("Failed to update customer", "customer_id", customer.ID, "error", err)
		return fmt.Errorf("failed to update customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Customer updated", "customer_id", customer.ID)
	return nil
}

// Delete soft-deletes a customer
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE customers SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete customer", "customer_id", id, "error", err)
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Customer deleted", "customer_id", id)
	return nil
}

var customerFilterColumns = map[string]bool{
	"country":   true,
	"region":    true,
	"is_active": true,
}

var customerSortColumns = map[string]bool{
	"full_name":  true,
	"country":    true,
	"region":     true,
	"created_at": true,
}

// List retrieves customers matching the filter with a total count
func (r *CustomerRepository) List(ctx context.Context, filter Filter) ([]*Customer, int, error) {
	whereClause, args, argIndex := buildWhereClause(filter, customerFilterColumns, "created_at")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers %s", whereClause)
	var total int
	err := r.db.GetContext(ctx, &total, countQuery, args...)
	if err != nil {
		r.logger.Error("Failed to count customers", "error", err)
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	orderClause := buildOrderClause(filter, customerSortColumns, "created_at")
	limitClause := buildLimitClause(filter, &argIndex, &args)

	dataQuery := fmt.Sprintf(`
		SELECT * FROM customers %s %s %s`,
		whereClause, orderClause, limitClause)

	var customers []*Customer
	err = r.db.SelectContext(ctx, &customers, dataQuery, args...)
	if err != nil {
		r.logger.Error("Failed to list customers", "error", err)
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, total, nil
}

// ListMarks retrieves every assigned shipping mark. The resolver uses
// this as its collision set; its scope must match the unique index on
// shipping_mark, which is global, or the assigner's retry loop can
// regenerate a colliding candidate forever.
func (r *CustomerRepository) ListMarks(ctx context.Context) ([]string, error) {
	query := `
		SELECT shipping_mark FROM customers
		WHERE shipping_mark IS NOT NULL AND deleted_at IS NULL`

	var marks []string
	err := r.db.SelectContext(ctx, &marks, query)
	if err != nil {
		r.logger.Error("Failed to list shipping marks", "error", err)
		return nil, fmt.Errorf("failed to list shipping marks: %w", err)
	}

	return marks, nil
}
