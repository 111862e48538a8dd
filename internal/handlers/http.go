package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/seatrack/cargo-backend/internal/cargo"
	"github.com/seatrack/cargo-backend/internal/config"
	"github.com/seatrack/cargo-backend/internal/database"
	"github.com/seatrack/cargo-backend/internal/importer"
)

// CustomerStore is the customer persistence surface used by handlers
type CustomerStore interface {
	GetByID(ctx context.Context, id string) (*database.Customer, error)
	Update(ctx context.Context, customer *database.Customer) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter database.Filter) ([]*database.Customer, int, error)
}

// MarkAssigner creates a customer with a resolved shipping mark
type MarkAssigner interface {
	AssignAndCreate(ctx context.Context, customer *database.Customer) error
}

// RuleStore is the shipping-mark rule persistence surface
type RuleStore interface {
	Create(ctx context.Context, rule *database.ShippingMarkRule) error
	GetByID(ctx context.Context, id string) (*database.ShippingMarkRule, error)
	Update(ctx context.Context, rule *database.ShippingMarkRule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter database.Filter) ([]*database.ShippingMarkRule, int, error)
	ListActiveByCountry(ctx context.Context, country string) ([]*database.ShippingMarkRule, error)
}

// ContainerStore is the cargo container persistence surface
type ContainerStore interface {
	Create(ctx context.Context, container *database.CargoContainer) error
	GetByID(ctx context.Context, containerID string) (*database.CargoContainer, error)
	Update(ctx context.Context, container *database.CargoContainer) error
	UpdateStatus(ctx context.Context, containerID, status string) error
	Delete(ctx context.Context, containerID string) error
	List(ctx context.Context, filter database.Filter) ([]*database.CargoContainer, int, error)
	ListAll(ctx context.Context) ([]*database.CargoContainer, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]*database.CargoContainer, error)
}

// ItemStore is the cargo item persistence surface
type ItemStore interface {
	Create(ctx context.Context, item *database.CargoItem) error
	CreateBatch(ctx context.Context, items []*database.CargoItem) error
	GetByID(ctx context.Context, id string) (*database.CargoItem, error)
	Update(ctx context.Context, item *database.CargoItem) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter database.Filter) ([]*database.CargoItem, int, error)
	ListByContainer(ctx context.Context, containerID string) ([]*database.CargoItem, error)
	ListByClient(ctx context.Context, clientID string) ([]*database.CargoItem, error)
}

// StatsCache caches dashboard aggregates
type StatsCache interface {
	GetJSON(ctx context.Context, key string, v interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{})
	Invalidate(ctx context.Context, keys ...string)
}

// MetricsRecorder records domain metrics
type MetricsRecorder interface {
	RecordMarkResolved()
	RecordResolutionConflict()
	RecordResolutionFailure()
	RecordItemsImported(n int)
	RecordStatsCache(hit bool)
	SetContainerCounts(counts cargo.StatusCounts)
}

const statsCacheKey = "dashboard:stats"

// HTTPHandler handles HTTP requests for the cargo back-office
type HTTPHandler struct {
	config     *config.Config
	logger     *slog.Logger
	customers  CustomerStore
	assigner   MarkAssigner
	rules      RuleStore
	containers ContainerStore
	items      ItemStore
	imp        *importer.ItemImporter
	cache      StatsCache
	metrics    MetricsRecorder
	validate   *validator.Validate
	startedAt  time.Time

	// now is swappable for tests
	now func() time.Time
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(
	cfg *config.Config,
	logger *slog.Logger,
	customers CustomerStore,
	assigner MarkAssigner,
	rules RuleStore,
	containers ContainerStore,
	items ItemStore,
	imp *importer.ItemImporter,
	statsCache StatsCache,
	metricsRecorder MetricsRecorder,
) *HTTPHandler {
	return &HTTPHandler{
		config:     cfg,
		logger:     logger,
		customers:  customers,
		assigner:   assigner,
		rules:      rules,
		containers: containers,
		items:      items,
		imp:        imp,
		cache:      statsCache,
		metrics:    metricsRecorder,
		validate:   validator.New(),
		startedAt:  time.Now(),
		now:        time.Now,
	}
}

// RegisterRoutes registers HTTP routes
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	// Health and status endpoints
	router.HandleFunc("/health", h.handleHealth).Methods("GET")
	router.HandleFunc("/status", h.handleStatus).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Customer endpoints
	api.HandleFunc("/customers", h.handleCreateCustomer).Methods("POST")
	api.HandleFunc("/customers", h.handleListCustomers).Methods("GET")
	api.HandleFunc("/customers/{id}", h.handleGetCustomer).Methods("GET")
	api.HandleFunc("/customers/{id}", h.handleUpdateCustomer).Methods("PUT")
	api.HandleFunc("/customers/{id}", h.handleDeleteCustomer).Methods("DELETE")
	api.HandleFunc("/customers/{id}/items", h.handleListCustomerItems).Methods("GET")

	// Shipping-mark rule endpoints
	api.HandleFunc("/shipping-mark-rules", h.handleCreateRule).Methods("POST")
	api.HandleFunc("/shipping-mark-rules", h.handleListRules).Methods("GET")
	api.HandleFunc("/shipping-mark-rules/{id}", h.handleGetRule).Methods("GET")
	api.HandleFunc("/shipping-mark-rules/{id}", h.handleUpdateRule).Methods("PUT")
	api.HandleFunc("/shipping-mark-rules/{id}", h.handleDeleteRule).Methods("DELETE")

	// Container endpoints
	api.HandleFunc("/containers", h.handleCreateContainer).Methods("POST")
	api.HandleFunc("/containers", h.handleListContainers).Methods("GET")
	api.HandleFunc("/containers/{id}", h.handleGetContainer).Methods("GET")
	api.HandleFunc("/containers/{id}", h.handleUpdateContainer).Methods("PUT")
	api.HandleFunc("/containers/{id}", h.handleDeleteContainer).Methods("DELETE")
	api.HandleFunc("/containers/{id}/status", h.handleContainerStatus).Methods("PUT")
	api.HandleFunc("/containers/{id}/items", h.handleListContainerItems).Methods("GET")
	api.HandleFunc("/containers/{id}/items/export", h.handleExportItems).Methods("GET")

	// Cargo item endpoints
	api.HandleFunc("/cargo-items", h.handleCreateItem).Methods("POST")
	api.HandleFunc("/cargo-items", h.handleListItems).Methods("GET")
	api.HandleFunc("/cargo-items/import", h.handleImportItems).Methods("POST")
	api.HandleFunc("/cargo-items/{id}", h.handleGetItem).Methods("GET")
	api.HandleFunc("/cargo-items/{id}", h.handleUpdateItem).Methods("PUT")
	api.HandleFunc("/cargo-items/{id}", h.handleDeleteItem).Methods("DELETE")
	api.HandleFunc("/cargo-items/{id}/status", h.handleItemStatus).Methods("PUT")

	// Dashboard endpoints
	api.HandleFunc("/dashboard/stats", h.handleDashboardStats).Methods("GET")
	api.HandleFunc("/dashboard/demurrage", h.handleDashboardDemurrage).Methods("GET")
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   h.now().UTC(),
	})
}

func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":     "cargo-backend",
		"environment": h.config.Environment,
		"uptime":      time.Since(h.startedAt).String(),
	})
}

// Response helpers

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// listResponse is the standard paginated list envelope
type listResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// parseFilter extracts common list parameters from the query string.
// Column filters are whitelisted per repository.
func parseFilter(r *http.Request, filterKeys ...string) database.Filter {
	q := r.URL.Query()

	filter := database.Filter{
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Filters:   make(map[string]string),
	}

	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = offset
	}

	for _, key := range filterKeys {
		if value := q.Get(key); value != "" {
			filter.Filters[key] = value
		}
	}

	return filter
}
