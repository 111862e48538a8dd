package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ContainerRepository handles cargo container data operations
type ContainerRepository struct {
	BaseRepository
	logger *slog.Logger
}

// NewContainerRepository creates a new container repository
func NewContainerRepository(db *sqlx.DB, logger *slog.Logger) *ContainerRepository {
	return &ContainerRepository{
		BaseRepository: BaseRepository{db: db},
		logger:         logger,
	}
}

// Create creates a new cargo container
func (r *ContainerRepository) Create(ctx context.Context, container *CargoContainer) error {
	query := `
		INSERT INTO cargo_containers (
			container_id, cargo_type, route, load_date, eta, actual_arrival,
			status, weight, cbm, rates, stay_days, delay_days, total_clients,
			created_at, updated_at
		) VALUES (
			:container_id, :cargo_type, :route, :load_date, :eta, :actual_arrival,
			:status, :weight, :cbm, :rates, :stay_days, :delay_days, :total_clients,
			:created_at, :updated_at
		)`

	container.CreatedAt = time.Now()
	container.UpdatedAt = time.Now()

	_, err := r.db.NamedExecContext(ctx, query, container)
	if err != nil {
		r.logger.Error("Failed to create container", "container_id", container.ContainerID, "error", err)
		return fmt.Errorf("failed to create container: %w", err)
	}

	r.logger.Info("Container created", "container_id", container.ContainerID, "cargo_type", container.CargoType)
	return nil
}

// GetByID retrieves a container by its business key
func (r *ContainerRepository) GetByID(ctx context.Context, containerID string) (*CargoContainer, error) {
	query := `
		SELECT * FROM cargo_containers
		WHERE container_id = $1 AND deleted_at IS NULL`

	var container CargoContainer
	err := r.db.GetContext(ctx, &container, query, containerID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get container", "container_id", containerID, "error", err)
		return nil, fmt.Errorf("failed to get container: %w", err)
	}

	return &container, nil
}

// Update updates a container's mutable fields. Status changes go
// through UpdateStatus so operator transitions stay auditable.
func (r *ContainerRepository) Update(ctx context.Context, container *CargoContainer) error {
	query := `
		UPDATE cargo_containers SET
			cargo_type = :cargo_type,
			route = :route,
			load_date = :load_date,
			eta = :eta,
			actual_arrival = :actual_arrival,
			weight = :weight,
			cbm = :cbm,
			rates = :rates,
			stay_days = :stay_days,
			delay_days = :delay_days,
			total_clients = :total_clients,
			updated_at = :updated_at
		WHERE container_id = :container_id AND deleted_at IS NULL`

	container.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, container)
	if err != nil {
		r.logger.Error("Failed to update container", "container_id", container.ContainerID, "error", err)
		return fmt.Errorf("failed to update container: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Container updated", "container_id", container.ContainerID)
	return nil
}

// UpdateStatus records an operator-initiated status transition
func (r *ContainerRepository) UpdateStatus(ctx context.Context, containerID, status string) error {
	query := `
		UPDATE cargo_containers SET status = $2, updated_at = NOW()
		WHERE container_id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, containerID, status)
	if err != nil {
		r.logger.Error("Failed to update container status", "container_id", containerID, "error", err)
		return fmt.Errorf("failed to update container status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Container status updated", "container_id", containerID, "status", status)
	return nil
}

// Delete soft-deletes a container
func (r *ContainerRepository) Delete(ctx context.Context, containerID string) error {
	query := `
		UPDATE cargo_containers SET deleted_at = NOW(), updated_at = NOW()
		WHERE container_id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, containerID)
	if err != nil {
		r.logger.Error("Failed to delete container", "container_id", containerID, "error", err)
		return fmt.Errorf("failed to delete container: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Container deleted", "container_id", containerID)
	return nil
}

var containerFilterColumns = map[string]bool{
	"cargo_type": true,
	"status":     true,
	"route":      true,
}

var containerSortColumns = map[string]bool{
	"container_id": true,
	"load_date":    true,
	"eta":          true,
	"status":       true,
	"created_at":   true,
}

// List retrieves containers matching the filter with a total count
func (r *ContainerRepository) List(ctx context.Context, filter Filter) ([]*CargoContainer, int, error) {
	whereClause, args, argIndex := buildWhereClause(filter, containerFilterColumns, "eta")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM cargo_containers %s", whereClause)
	var total int
	err := r.db.GetContext(ctx, &total, countQuery, args...)
	if err != nil {
		r.logger.Error("Failed to count containers", "error", err)
		return nil, 0, fmt.Errorf("failed to count containers: %w", err)
	}

	orderClause := buildOrderClause(filter, containerSortColumns, "created_at")
	limitClause := buildLimitClause(filter, &argIndex, &args)

	dataQuery := fmt.Sprintf(`
		SELECT * FROM cargo_containers %s %s %s`,
		whereClause, orderClause, limitClause)

	var containers []*CargoContainer
	err = r.db.SelectContext(ctx, &containers, dataQuery, args...)
	if err != nil {
		r.logger.Error("Failed to list containers", "error", err)
		return nil, 0, fmt.Errorf("failed to list containers: %w", err)
	}

	return containers, total, nil
}

// ListAll retrieves every live container for dashboard aggregation
func (r *ContainerRepository) ListAll(ctx context.Context) ([]*CargoContainer, error) {
	query := `
		SELECT * FROM cargo_containers
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC`

	var containers []*CargoContainer
	err := r.db.SelectContext(ctx, &containers, query)
	if err != nil {
		r.logger.Error("Failed to list all containers", "error", err)
		return nil, fmt.Errorf("failed to list all containers: %w", err)
	}

	return containers, nil
}

// ListByStatus retrieves containers by status
func (r *ContainerRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*CargoContainer, error) {
	query := `
		SELECT * FROM cargo_containers
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY eta ASC
		LIMIT $2`

	var containers []*CargoContainer
	err := r.db.SelectContext(ctx, &containers, query, status, limit)
	if err != nil {
		r.logger.Error("Failed to list containers by status", "status", status, "error", err)
		return nil, fmt.Errorf("failed to list containers by status: %w", err)
	}

	return containers, nil
}
