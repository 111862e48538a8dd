package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ItemRepository handles cargo item data operations
type ItemRepository struct {
	BaseRepository
	logger *slog.Logger
}

// NewItemRepository creates a new cargo item repository
func NewItemRepository(db *sqlx.DB, logger *slog.Logger) *ItemRepository {
	return &ItemRepository{
		BaseRepository: BaseRepository{db: db},
		logger:         logger,
	}
}

// Create creates a new cargo item
func (r *ItemRepository) Create(ctx context.Context, item *CargoItem) error {
	query := `
		INSERT INTO cargo_items (
			id, container_id, client_id, tracking_id, item_description,
			quantity, weight, cbm, unit_value, total_value, status,
			created_at, updated_at
		) VALUES (
			:id, :container_id, :client_id, :tracking_id, :item_description,
			:quantity, :weight, :cbm, :unit_value, :total_value, :status,
			:created_at, :updated_at
		)`

	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	_, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		r.logger.Error("Failed to create cargo item", "item_id", item.ID, "tracking_id", item.TrackingID, "error", err)
		return fmt.Errorf("failed to create cargo item: %w", err)
	}

	r.logger.Info("Cargo item created", "item_id", item.ID, "tracking_id", item.TrackingID)
	return nil
}

// CreateBatch inserts a set of items inside a single transaction.
// Used by the spreadsheet importer; all-or-nothing.
func (r *ItemRepository) CreateBatch(ctx context.Context, items []*CargoItem) error {
	query := `
		INSERT INTO cargo_items (
			id, container_id, client_id, tracking_id, item_description,
			quantity, weight, cbm, unit_value, total_value, status,
			created_at, updated_at
		) VALUES (
			:id, :container_id, :client_id, :tracking_id, :item_description,
			:quantity, :weight, :cbm, :unit_value, :total_value, :status,
			:created_at, :updated_at
		)`

	err := r.Transaction(func(tx *sqlx.Tx) error {
		for _, item := range items {
			item.CreatedAt = time.Now()
			item.UpdatedAt = time.Now()
			if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
				return fmt.Errorf("failed to insert item %s: %w", item.TrackingID, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to batch-create cargo items", "count", len(items), "error", err)
		return err
	}

	r.logger.Info("Cargo items imported", "count", len(items))
	return nil
}

// GetByID retrieves a cargo item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*CargoItem, error) {
	query := `
		SELECT * FROM cargo_items
		WHERE id = $1 AND deleted_at IS NULL`

	var item CargoItem
	err := r.db.GetContext(ctx, &item, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get cargo item", "item_id", id, "error", err)
		return nil, fmt.Errorf("failed to get cargo item: %w", err)
	}

	return &item, nil
}

// Update updates a cargo item
func (r *ItemRepository) Update(ctx context.Context, item *CargoItem) error {
	query := `
		UPDATE cargo_items SET
			container_id = :container_id,
			client_id = :client_id,
			tracking_id = :tracking_id,
			item_description = :item_description,
			quantity = :quantity,
			weight = :weight,
			cbm = :cbm,
			unit_value = :unit_value,
			total_value = :total_value,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	item.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		r.logger.Error("Failed to update cargo item", "item_id", item.ID, "error", err)
		return fmt.Errorf("failed to update cargo item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Cargo item updated", "item_id", item.ID)
	return nil
}

// UpdateStatus records an operator-initiated item status transition,
// independent of the owning container's status.
func (r *ItemRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE cargo_items SET status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update cargo item status", "item_id", id, "error", err)
		return fmt.Errorf("failed to update cargo item status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Cargo item status updated", "item_id", id, "status", status)
	return nil
}

// Delete soft-deletes a cargo item
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE cargo_items SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete cargo item", "item_id", id, "error", err)
		return fmt.Errorf("failed to delete cargo item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Cargo item deleted", "item_id", id)
	return nil
}

var itemFilterColumns = map[string]bool{
	"container_id": true,
	"client_id":    true,
	"status":       true,
}

var itemSortColumns = map[string]bool{
	"tracking_id": true,
	"status":      true,
	"created_at":  true,
}

// List retrieves cargo items matching the filter with a total count
func (r *ItemRepository) List(ctx context.Context, filter Filter) ([]*CargoItem, int, error) {
	whereClause, args, argIndex := buildWhereClause(filter, itemFilterColumns, "created_at")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM cargo_items %s", whereClause)
	var total int
	err := r.db.GetContext(ctx, &total, countQuery, args...)
	if err != nil {
		r.logger.Error("Failed to count cargo items", "error", err)
		return nil, 0, fmt.Errorf("failed to count cargo items: %w", err)
	}

	orderClause := buildOrderClause(filter, itemSortColumns, "created_at")
	limitClause := buildLimitClause(filter, &argIndex, &args)

	dataQuery := fmt.Sprintf(`
		SELECT * FROM cargo_items %s %s %s`,
		whereClause, orderClause, limitClause)

	var items []*CargoItem
	err = r.db.SelectContext(ctx, &items, dataQuery, args...)
	if err != nil {
		r.logger.Error("Failed to list cargo items", "error", err)
		return nil, 0, fmt.Errorf("failed to list cargo items: %w", err)
	}

	return items, total, nil
}

// ListByContainer retrieves all items loaded in a container
func (r *ItemRepository) ListByContainer(ctx context.Context, containerID string) ([]*CargoItem, error) {
	query := `
		SELECT * FROM cargo_items
		WHERE container_id = $1 AND deleted_at IS NULL
		ORDER BY tracking_id ASC`

	var items []*CargoItem
	err := r.db.SelectContext(ctx, &items, query, containerID)
	if err != nil {
		r.logger.Error("Failed to list items by container", "container_id", containerID, "error", err)
		return nil, fmt.Errorf("failed to list items by container: %w", err)
	}

	return items, nil
}

// ListByClient retrieves all items owned by a customer
func (r *ItemRepository) ListByClient(ctx context.Context, clientID string) ([]*CargoItem, error) {
	query := `
		SELECT * FROM cargo_items
		WHERE client_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	var items []*CargoItem
	err := r.db.SelectContext(ctx, &items, query, clientID)
	if err != nil {
		r.logger.Error("Failed to list items by client", "client_id", clientID, "error", err)
		return nil, fmt.Errorf("failed to list items by client: %w", err)
	}

	return items, nil
}
