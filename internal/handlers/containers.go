package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/seatrack/cargo-backend/internal/cargo"
	"github.com/seatrack/cargo-backend/internal/database"
)

type containerRequest struct {
	ContainerID   string     `json:"container_id" validate:"required"`
	CargoType     string     `json:"cargo_type" validate:"required,oneof=sea air"`
	Route         string     `json:"route"`
	LoadDate      *time.Time `json:"load_date,omitempty"`
	ETA           *time.Time `json:"eta,omitempty"`
	ActualArrival *time.Time `json:"actual_arrival,omitempty"`
	Status        string     `json:"status"`
	Weight        float64    `json:"weight" validate:"gte=0"`
	CBM           float64    `json:"cbm" validate:"gte=0"`
	Rates         float64    `json:"rates" validate:"gte=0"`
	StayDays      int        `json:"stay_days" validate:"gte=0"`
	DelayDays     int        `json:"delay_days" validate:"gte=0"`
	TotalClients  int        `json:"total_clients" validate:"gte=0"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *HTTPHandler) handleCreateContainer(w http.ResponseWriter, r *http.Request) {
	var req containerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = cargo.StatusPending
	}
	if !cargo.ValidContainerStatus(status) {
		h.writeError(w, http.StatusBadRequest, "Unknown container status: "+status)
		return
	}

	container := &database.CargoContainer{
		ContainerID:   req.ContainerID,
		CargoType:     req.CargoType,
		Route:         req.Route,
		LoadDate:      req.LoadDate,
		ETA:           req.ETA,
		ActualArrival: req.ActualArrival,
		Status:        status,
		Weight:        req.Weight,
		CBM:           req.CBM,
		Rates:         req.Rates,
		StayDays:      req.StayDays,
		DelayDays:     req.DelayDays,
		TotalClients:  req.TotalClients,
	}

	if err := h.containers.Create(r.Context(), container); err != nil {
		if database.IsUniqueViolation(err, "") {
			h.writeError(w, http.StatusConflict, "Container already exists: "+req.ContainerID)
			return
		}
		h.logger.Error("Failed to create container", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create container")
		return
	}

	h.cache.Invalidate(r.Context(), statsCacheKey)
	h.writeJSON(w, http.StatusCreated, h.augment(container))
}

func (h *HTTPHandler) handleListContainers(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r, "cargo_type", "status", "route")

	containers, total, err := h.containers.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load containers")
		return
	}

	views := cargo.AugmentAll(containers, h.now(), h.config.Cargo.DemurrageThresholdDays)
	h.writeJSON(w, http.StatusOK, listResponse{Data: views, Total: total})
}

func (h *HTTPHandler) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	container, err := h.containers.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Container not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load container")
		return
	}

	h.writeJSON(w, http.StatusOK, h.augment(container))
}

func (h *HTTPHandler) handleUpdateContainer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req containerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ContainerID = id
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status != "" {
		h.writeError(w, http.StatusBadRequest, "Status cannot be changed here; use PUT /containers/{id}/status")
		return
	}

	container, err := h.containers.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Container not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load container")
		return
	}

	container.CargoType = req.CargoType
	container.Route = req.Route
	container.LoadDate = req.LoadDate
	container.ETA = req.ETA
	container.ActualArrival = req.ActualArrival
	container.Weight = req.Weight
	container.CBM = req.CBM
	container.Rates = req.Rates
	container.StayDays = req.StayDays
	container.DelayDays = req.DelayDays
	container.TotalClients = req.TotalClients

	if err := h.containers.Update(r.Context(), container); err != nil {
		h.logger.Error("Failed to update container", "container_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to update container")
		return
	}

	h.cache.Invalidate(r.Context(), statsCacheKey)
	h.writeJSON(w, http.StatusOK, h.augment(container))
}

// handleContainerStatus applies an operator-initiated status
// transition. Any known status may follow any other; delivered is not
// terminal.
func (h *HTTPHandler) handleContainerStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !cargo.ValidContainerStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "Unknown container status: "+req.Status)
		return
	}

	err := h.containers.UpdateStatus(r.Context(), id, req.Status)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Container not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to update container status")
		return
	}

	h.cache.Invalidate(r.Context(), statsCacheKey)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": req.Status})
}

func (h *HTTPHandler) handleDeleteContainer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.containers.Delete(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Container not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to delete container")
		return
	}

	h.cache.Invalidate(r.Context(), statsCacheKey)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *HTTPHandler) handleListContainerItems(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	items, err := h.items.ListByContainer(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load container items")
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{Data: items, Total: len(items)})
}

func (h *HTTPHandler) augment(container *database.CargoContainer) cargo.ContainerView {
	return cargo.Augment(container, h.now(), h.config.Cargo.DemurrageThresholdDays)
}
