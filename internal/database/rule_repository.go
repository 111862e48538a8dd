package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// RuleRepository handles shipping-mark rule data operations
type RuleRepository struct {
	BaseRepository
	logger *slog.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sqlx.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{
		BaseRepository: BaseRepository{db: db},
		logger:         logger,
	}
}

// Create creates a new shipping-mark rule
func (r *RuleRepository) Create(ctx context.Context, rule *ShippingMarkRule) error {
	query := `
		INSERT INTO shipping_mark_rules (
			id, rule_name, description, country, region, prefix_value,
			format_template, priority, is_active, is_default,
			created_at, updated_at
		) VALUES (
			:id, :rule_name, :description, :country, :region, :prefix_value,
			:format_template, :priority, :is_active, :is_default,
			:created_at, :updated_at
		)`

	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	_, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		r.logger.Error("Failed to create shipping-mark rule", "rule_id", rule.ID, "error", err)
		return fmt.Errorf("failed to create shipping-mark rule: %w", err)
	}

	r.logger.Info("Shipping-mark rule created", "rule_id", rule.ID, "name", rule.RuleName)
	return nil
}

// GetByID retrieves a rule by ID
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*ShippingMarkRule, error) {
	query := `
		SELECT * FROM shipping_mark_rules
		WHERE id = $1 AND deleted_at IS NULL`

	var rule ShippingMarkRule
	err := r.db.GetContext(ctx, &rule, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get rule by ID", "rule_id", id, "error", err)
		return nil, fmt.Errorf("failed to get rule by ID: %w", err)
	}

	return &rule, nil
}

// Update updates an existing rule
func (r *RuleRepository) Update(ctx context.Context, rule *ShippingMarkRule) error {
	query := `
		UPDATE shipping_mark_rules SET
			rule_name = :rule_name,
			description = :description,
			country = :country,
			region = :region,
			prefix_value = :prefix_value,
			format_template = :format_template,
			priority = :priority,
			is_active = :is_active,
			is_default = :is_default,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	rule.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		r.logger.Error("Failed to update rule", "rule_id", rule.ID, "error", err)
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Shipping-mark rule updated", "rule_id", rule.ID)
	return nil
}

// Delete soft-deletes a rule
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE shipping_mark_rules SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete rule", "rule_id", id, "error", err)
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Shipping-mark rule deleted", "rule_id", id)
	return nil
}

var ruleFilterColumns = map[string]bool{
	"country":    true,
	"is_active":  true,
	"is_default": true,
}

var ruleSortColumns = map[string]bool{
	"country":    true,
	"priority":   true,
	"rule_name":  true,
	"created_at": true,
}

// List retrieves rules matching the filter with a total count
func (r *RuleRepository) List(ctx context.Context, filter Filter) ([]*ShippingMarkRule, int, error) {
	whereClause, args, argIndex := buildWhereClause(filter, ruleFilterColumns, "created_at")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM shipping_mark_rules %s", whereClause)
	var total int
	err := r.db.GetContext(ctx, &total, countQuery, args...)
	if err != nil {
		r.logger.Error("Failed to count rules", "error", err)
		return nil, 0, fmt.Errorf("failed to count rules: %w", err)
	}

	orderClause := buildOrderClause(filter, ruleSortColumns, "priority")
	limitClause := buildLimitClause(filter, &argIndex, &args)

	dataQuery := fmt.Sprintf(`
		SELECT * FROM shipping_mark_rules %s %s %s`,
		whereClause, orderClause, limitClause)

	var rules []*ShippingMarkRule
	err = r.db.SelectContext(ctx, &rules, dataQuery, args...)
	if err != nil {
		r.logger.Error("Failed to list rules", "error", err)
		return nil, 0, fmt.Errorf("failed to list rules: %w", err)
	}

	return rules, total, nil
}

// ListActiveByCountry retrieves the active rule set for a country,
// ordered the way the resolver resolves ties.
func (r *RuleRepository) ListActiveByCountry(ctx context.Context, country string) ([]*ShippingMarkRule, error) {
	query := `
		SELECT * FROM shipping_mark_rules
		WHERE country = $1 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY priority ASC, id ASC`

	var rules []*ShippingMarkRule
	err := r.db.SelectContext(ctx, &rules, query, country)
	if err != nil {
		r.logger.Error("Failed to list active rules", "country", country, "error", err)
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}

	return rules, nil
}
