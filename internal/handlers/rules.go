package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/seatrack/cargo-backend/internal/database"
	"github.com/seatrack/cargo-backend/internal/shipmark"
)

type ruleRequest struct {
	RuleName       string  `json:"rule_name" validate:"required"`
	Description    string  `json:"description"`
	Country        string  `json:"country" validate:"required"`
	Region         *string `json:"region,omitempty"`
	PrefixValue    string  `json:"prefix_value" validate:"required,min=1,max=3,alphanum"`
	FormatTemplate string  `json:"format_template"`
	Priority       int     `json:"priority" validate:"gte=0"`
	IsActive       *bool   `json:"is_active"`
	IsDefault      bool    `json:"is_default"`
}

func (h *HTTPHandler) ruleFromRequest(req ruleRequest) *database.ShippingMarkRule {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	template := req.FormatTemplate
	if template == "" {
		template = "{prefix}{space}{name}"
	}
	return &database.ShippingMarkRule{
		RuleName:       req.RuleName,
		Description:    req.Description,
		Country:        req.Country,
		Region:         req.Region,
		PrefixValue:    req.PrefixValue,
		FormatTemplate: template,
		Priority:       req.Priority,
		IsActive:       active,
		IsDefault:      req.IsDefault,
	}
}

// checkRuleAmbiguity validates a rule against the country's active
// set. Exact priority duplicates are rejected; shadowing at other
// priorities is legal but logged.
func (h *HTTPHandler) checkRuleAmbiguity(r *http.Request, rule *database.ShippingMarkRule) error {
	existing, err := h.rules.ListActiveByCountry(r.Context(), rule.Country)
	if err != nil {
		return err
	}

	warnings, err := shipmark.ValidateNewRule(rule, existing)
	for _, warning := range warnings {
		h.logger.Warn("Shipping-mark rule shadows an existing rule",
			"rule_name", rule.RuleName, "detail", warning)
	}
	return err
}

func (h *HTTPHandler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule := h.ruleFromRequest(req)
	rule.ID = uuid.New().String()

	if err := h.checkRuleAmbiguity(r, rule); err != nil {
		var priorityErr *shipmark.InvalidRulePriorityError
		if errors.As(err, &priorityErr) {
			h.writeError(w, http.StatusConflict, priorityErr.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to validate rule")
		return
	}

	if err := h.rules.Create(r.Context(), rule); err != nil {
		// The partial unique indexes back the validation against
		// racing rule writes.
		if database.IsUniqueViolation(err, "") {
			h.writeError(w, http.StatusConflict, "A conflicting rule already exists")
			return
		}
		h.logger.Error("Failed to create rule", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create rule")
		return
	}

	h.writeJSON(w, http.StatusCreated, rule)
}

func (h *HTTPHandler) handleListRules(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r, "country", "is_active", "is_default")

	rules, total, err := h.rules.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load rules")
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{Data: rules, Total: total})
}

func (h *HTTPHandler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rule, err := h.rules.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Rule not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load rule")
		return
	}

	h.writeJSON(w, http.StatusOK, rule)
}

func (h *HTTPHandler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.rules.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Rule not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load rule")
		return
	}

	rule := h.ruleFromRequest(req)
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt

	if err := h.checkRuleAmbiguity(r, rule); err != nil {
		var priorityErr *shipmark.InvalidRulePriorityError
		if errors.As(err, &priorityErr) {
			h.writeError(w, http.StatusConflict, priorityErr.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to validate rule")
		return
	}

	if err := h.rules.Update(r.Context(), rule); err != nil {
		if database.IsUniqueViolation(err, "") {
			h.writeError(w, http.StatusConflict, "A conflicting rule already exists")
			return
		}
		h.logger.Error("Failed to update rule", "rule_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to update rule")
		return
	}

	h.writeJSON(w, http.StatusOK, rule)
}

func (h *HTTPHandler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.rules.Delete(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Rule not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to delete rule")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
