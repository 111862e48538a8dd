package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/seatrack/cargo-backend/internal/config"
)

// Connect establishes a database connection
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// RunMigrations runs database migrations
func RunMigrations(cfg config.DatabaseConfig) error {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation, optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// Base repository struct with common functionality
type BaseRepository struct {
	db *sqlx.DB
}

// Transaction executes a function within a database transaction
func (r *BaseRepository) Transaction(fn func(*sqlx.Tx) error) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}

// Common audit fields
type AuditFields struct {
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Customer represents a client of the shipping agency. The shipping
// mark is assigned exactly once at creation and never updated.
type Customer struct {
	ID           string  `db:"id" json:"id"`
	FullName     string  `db:"full_name" json:"full_name"`
	Country      string  `db:"country" json:"country"`
	Region       string  `db:"region" json:"region"`
	ShippingMark *string `db:"shipping_mark" json:"shipping_mark,omitempty"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	AuditFields
}

// ShippingMarkRule maps a country/region pair to a mark prefix and
// generation template. At most one active default rule per country.
type ShippingMarkRule struct {
	ID             string  `db:"id" json:"id"`
	RuleName       string  `db:"rule_name" json:"rule_name"`
	Description    string  `db:"description" json:"description"`
	Country        string  `db:"country" json:"country"`
	Region         *string `db:"region" json:"region,omitempty"`
	PrefixValue    string  `db:"prefix_value" json:"prefix_value"`
	FormatTemplate string  `db:"format_template" json:"format_template"`
	Priority       int     `db:"priority" json:"priority"`
	IsActive       bool    `db:"is_active" json:"is_active"`
	IsDefault      bool    `db:"is_default" json:"is_default"`
	AuditFields
}

// CargoContainer represents a sea or air container. ContainerID is
// the operator-supplied business key, not a generated id.
type CargoContainer struct {
	ContainerID   string     `db:"container_id" json:"container_id"`
	CargoType     string     `db:"cargo_type" json:"cargo_type"`
	Route         string     `db:"route" json:"route"`
	LoadDate      *time.Time `db:"load_date" json:"load_date,omitempty"`
	ETA           *time.Time `db:"eta" json:"eta,omitempty"`
	ActualArrival *time.Time `db:"actual_arrival" json:"actual_arrival,omitempty"`
	Status        string     `db:"status" json:"status"`
	Weight        float64    `db:"weight" json:"weight"`
	CBM           float64    `db:"cbm" json:"cbm"`
	Rates         float64    `db:"rates" json:"rates"`
	StayDays      int        `db:"stay_days" json:"stay_days"`
	DelayDays     int        `db:"delay_days" json:"delay_days"`
	TotalClients  int        `db:"total_clients" json:"total_clients"`
	AuditFields
}

// CargoItem represents a single consignment inside a container. Its
// status is independent of the container's status.
type CargoItem struct {
	ID              string  `db:"id" json:"id"`
	ContainerID     string  `db:"container_id" json:"container"`
	ClientID        string  `db:"client_id" json:"client"`
	TrackingID      string  `db:"tracking_id" json:"tracking_id"`
	ItemDescription string  `db:"item_description" json:"item_description"`
	Quantity        int     `db:"quantity" json:"quantity"`
	Weight          float64 `db:"weight" json:"weight"`
	CBM             float64 `db:"cbm" json:"cbm"`
	UnitValue       float64 `db:"unit_value" json:"unit_value"`
	TotalValue      float64 `db:"total_value" json:"total_value"`
	Status          string  `db:"status" json:"status"`
	AuditFields
}

// Filter represents common filtering options for list queries
type Filter struct {
	Limit     int               `json:"limit,omitempty"`
	Offset    int               `json:"offset,omitempty"`
	SortBy    string            `json:"sort_by,omitempty"`
	SortOrder string            `json:"sort_order,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
	DateFrom  *time.Time        `json:"date_from,omitempty"`
	DateTo    *time.Time        `json:"date_to,omitempty"`
}
