package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/seatrack/cargo-backend/internal/cargo"
	"github.com/seatrack/cargo-backend/internal/database"
	"github.com/seatrack/cargo-backend/internal/importer"
)

// maxImportSize bounds uploaded workbook size (8 MiB).
const maxImportSize = 8 << 20

type itemRequest struct {
	ContainerID     string  `json:"container" validate:"required"`
	ClientID        string  `json:"client" validate:"required"`
	TrackingID      string  `json:"tracking_id" validate:"required"`
	ItemDescription string  `json:"item_description"`
	Quantity        int     `json:"quantity" validate:"gt=0"`
	Weight          float64 `json:"weight" validate:"gte=0"`
	CBM             float64 `json:"cbm" validate:"gte=0"`
	UnitValue       float64 `json:"unit_value" validate:"gte=0"`
	TotalValue      float64 `json:"total_value" validate:"gte=0"`
	Status          string  `json:"status"`
}

func (h *HTTPHandler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
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
		status = cargo.ItemStatusPending
	}
	if !cargo.ValidItemStatus(status) {
		h.writeError(w, http.StatusBadRequest, "Unknown item status: "+status)
		return
	}

	totalValue := req.TotalValue
	if totalValue == 0 {
		totalValue = float64(req.Quantity) * req.UnitValue
	}

	item := &database.CargoItem{
		ID:              uuid.New().String(),
		ContainerID:     req.ContainerID,
		ClientID:        req.ClientID,
		TrackingID:      req.TrackingID,
		ItemDescription: req.ItemDescription,
		Quantity:        req.Quantity,
		Weight:          req.Weight,
		CBM:             req.CBM,
		UnitValue:       req.UnitValue,
		TotalValue:      totalValue,
		Status:          status,
	}

	if err := h.items.Create(r.Context(), item); err != nil {
		if database.IsUniqueViolation(err, "") {
			h.writeError(w, http.StatusConflict, "Tracking ID already exists: "+req.TrackingID)
			return
		}
		h.logger.Error("Failed to create cargo item", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create cargo item")
		return
	}

	h.writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) handleListItems(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r, "container_id", "client_id", "status")

	items, total, err := h.items.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load cargo items")
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{Data: items, Total: total})
}

func (h *HTTPHandler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := h.items.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Cargo item not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load cargo item")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.items.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Cargo item not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load cargo item")
		return
	}

	item.ContainerID = req.ContainerID
	item.ClientID = req.ClientID
	item.TrackingID = req.TrackingID
	item.ItemDescription = req.ItemDescription
	item.Quantity = req.Quantity
	item.Weight = req.Weight
	item.CBM = req.CBM
	item.UnitValue = req.UnitValue
	item.TotalValue = req.TotalValue
	if item.TotalValue == 0 {
		item.TotalValue = float64(req.Quantity) * req.UnitValue
	}

	if err := h.items.Update(r.Context(), item); err != nil {
		if database.IsUniqueViolation(err, "") {
			h.writeError(w, http.StatusConflict, "Tracking ID already exists: "+req.TrackingID)
			return
		}
		h.logger.Error("Failed to update cargo item", "item_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to update cargo item")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// handleItemStatus applies an operator-initiated item transition,
// independent of the owning container's state.
func (h *HTTPHandler) handleItemStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !cargo.ValidItemStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "Unknown item status: "+req.Status)
		return
	}

	err := h.items.UpdateStatus(r.Context(), id, req.Status)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Cargo item not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to update item status")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": req.Status})
}

func (h *HTTPHandler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.items.Delete(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Cargo item not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to delete cargo item")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleImportItems accepts an xlsx upload and batch-creates the valid
// rows. Per-row failures are reported back, not fatal.
func (h *HTTPHandler) handleImportItems(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Missing upload field \"file\"")
		return
	}
	defer file.Close()

	items, rowErrors, err := h.imp.ParseWorkbook(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(items) > 0 {
		if err := h.items.CreateBatch(r.Context(), items); err != nil {
			if database.IsUniqueViolation(err, "") {
				h.writeError(w, http.StatusConflict, "Import contains tracking IDs that already exist")
				return
			}
			h.logger.Error("Failed to import cargo items", "error", err)
			h.writeError(w, http.StatusInternalServerError, "Failed to import cargo items")
			return
		}
		h.metrics.RecordItemsImported(len(items))
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": len(items),
		"rejected": len(rowErrors),
		"errors":   rowErrors,
	})
}

// handleExportItems streams a container's items as an xlsx workbook.
func (h *HTTPHandler) handleExportItems(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	items, err := h.items.ListByContainer(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load container items")
		return
	}

	workbook, err := importer.BuildWorkbook(items)
	if err != nil {
		h.logger.Error("Failed to build export workbook", "container_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}
	defer workbook.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"-items.xlsx"))
	if err := workbook.Write(w); err != nil {
		h.logger.Error("Failed to stream export workbook", "container_id", id, "error", err)
	}
}
