package handler

import (
	"encoding/json"
	"net/http"

	"laundro/internal/settings/service"
	apperrors "laundro/pkg/errors"
	httputil "laundro/pkg/http"
	"laundro/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type SettingsHandler struct {
	service service.SettingsService
	log     *logger.Logger
}

func NewSettingsHandler(service service.SettingsService, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		log:     log,
	}
}

func (h *SettingsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/settings", h.Get)
	router.PATCH("/api/v1/settings/machines/:id", h.SetMachineEnabled)
	router.PATCH("/api/v1/settings/past-slots", h.SetBlockPastSlots)
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, settings); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

type machineToggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *SettingsHandler) SetMachineEnabled(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req machineToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetMachineEnabled", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	settings, err := h.service.SetMachineEnabled(r.Context(), ps.ByName("id"), req.Enabled)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetMachineEnabled", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, settings); err != nil {
		h.log.Error("failed to write success response", "handler", "SetMachineEnabled", "operation", "WriteSuccess", "error", err)
	}
}

type pastSlotsRequest struct {
	BlockPastSlots bool `json:"block_past_slots"`
}

func (h *SettingsHandler) SetBlockPastSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req pastSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetBlockPastSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	settings, err := h.service.SetBlockPastSlots(r.Context(), req.BlockPastSlots)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetBlockPastSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, settings); err != nil {
		h.log.Error("failed to write success response", "handler", "SetBlockPastSlots", "operation", "WriteSuccess", "error", err)
	}
}
