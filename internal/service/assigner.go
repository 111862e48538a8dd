// Package service orchestrates mark resolution with persistence. The
// resolver itself is pure; this layer owns the read-resolve-insert
// cycle and the retry on uniqueness races.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/seatrack/cargo-backend/internal/database"
	"github.com/seatrack/cargo-backend/internal/shipmark"
)

// CustomerStore is the persistence surface the assigner needs.
type CustomerStore interface {
	Create(ctx context.Context, customer *database.Customer) error

	// ListMarks returns the full assigned-mark set. Marks are unique
	// across all countries, so the collision snapshot must be global
	// too; a narrower snapshot could miss the very mark the insert
	// keeps losing to.
	ListMarks(ctx context.Context) ([]string, error)
}

// RuleStore provides the active rule set per country.
type RuleStore interface {
	ListActiveByCountry(ctx context.Context, country string) ([]*database.ShippingMarkRule, error)
}

// MarkAssigner creates customers with a freshly resolved shipping
// mark. Two concurrent creations can race on the same mark snapshot;
// the database unique index is the backstop and the assigner retries
// resolution with a refreshed snapshot on a violation.
type MarkAssigner struct {
	customers   CustomerStore
	rules       RuleStore
	logger      *slog.Logger
	maxAttempts int
}

// NewMarkAssigner creates a new mark assigner
func NewMarkAssigner(customers CustomerStore, rules RuleStore, logger *slog.Logger, maxAttempts int) *MarkAssigner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &MarkAssigner{
		customers:   customers,
		rules:       rules,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// AssignAndCreate resolves a unique shipping mark for the customer and
// persists the record. The mark is assigned exactly once here; updates
// elsewhere never touch it. Returns *shipmark.NoApplicableRuleError
// when the country has no applicable rule, and
// *shipmark.UniquenessConflictError when every attempt lost the race.
func (a *MarkAssigner) AssignAndCreate(ctx context.Context, customer *database.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}

	rules, err := a.rules.ListActiveByCountry(ctx, customer.Country)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	var lastMark string
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		marks, err := a.customers.ListMarks(ctx)
		if err != nil {
			return fmt.Errorf("failed to load existing marks: %w", err)
		}

		existing := make(map[string]struct{}, len(marks))
		for _, mark := range marks {
			existing[mark] = struct{}{}
		}

		mark, err := shipmark.Resolve(shipmark.Request{
			CustomerName:  customer.FullName,
			Country:       customer.Country,
			Region:        customer.Region,
			Rules:         rules,
			ExistingMarks: existing,
		})
		if err != nil {
			return err
		}
		lastMark = mark
		customer.ShippingMark = &mark

		err = a.customers.Create(ctx, customer)
		if err == nil {
			a.logger.Info("Shipping mark assigned",
				"customer_id", customer.ID,
				"mark", mark,
				"attempt", attempt)
			return nil
		}
		if !database.IsUniqueViolation(err, "") {
			return err
		}

		a.logger.Warn("Shipping mark lost uniqueness race, retrying",
			"customer_id", customer.ID,
			"mark", mark,
			"attempt", attempt)
	}

	return &shipmark.UniquenessConflictError{Mark: lastMark}
}
