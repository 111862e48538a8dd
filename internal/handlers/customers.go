package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/seatrack/cargo-backend/internal/database"
	"github.com/seatrack/cargo-backend/internal/shipmark"
)

type createCustomerRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Country  string `json:"country" validate:"required"`
	Region   string `json:"region"`
	IsActive *bool  `json:"is_active"`
}

type updateCustomerRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Country  string `json:"country" validate:"required"`
	Region   string `json:"region"`
	IsActive *bool  `json:"is_active"`
}

// handleCreateCustomer creates a customer and assigns its shipping
// mark in one operation. A missing rule configuration blocks creation.
func (h *HTTPHandler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	customer := &database.Customer{
		FullName: req.FullName,
		Country:  req.Country,
		Region:   req.Region,
		IsActive: active,
	}

	err := h.assigner.AssignAndCreate(r.Context(), customer)
	if err != nil {
		var noRule *shipmark.NoApplicableRuleError
		var conflict *shipmark.UniquenessConflictError
		switch {
		case errors.As(err, &noRule):
			h.metrics.RecordResolutionFailure()
			h.writeError(w, http.StatusUnprocessableEntity, noRule.Error())
		case errors.As(err, &conflict):
			h.metrics.RecordResolutionConflict()
			h.writeError(w, http.StatusConflict, conflict.Error())
		default:
			h.logger.Error("Failed to create customer", "error", err)
			h.writeError(w, http.StatusInternalServerError, "Failed to create customer")
		}
		return
	}

	h.metrics.RecordMarkResolved()
	h.writeJSON(w, http.StatusCreated, customer)
}

func (h *HTTPHandler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r, "country", "region", "is_active")

	customers, total, err := h.customers.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load customers")
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{Data: customers, Total: total})
}

func (h *HTTPHandler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	customer, err := h.customers.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Customer not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load customer")
		return
	}

	h.writeJSON(w, http.StatusOK, customer)
}

// handleUpdateCustomer updates profile fields. The shipping mark is
// immutable and silently ignored if sent.
func (h *HTTPHandler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Customer not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load customer")
		return
	}

	customer.FullName = req.FullName
	customer.Country = req.Country
	customer.Region = req.Region
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	if err := h.customers.Update(r.Context(), customer); err != nil {
		h.logger.Error("Failed to update customer", "customer_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	h.writeJSON(w, http.StatusOK, customer)
}

func (h *HTTPHandler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.customers.Delete(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Customer not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to delete customer")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *HTTPHandler) handleListCustomerItems(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	items, err := h.items.ListByClient(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load customer items")
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{Data: items, Total: len(items)})
}
