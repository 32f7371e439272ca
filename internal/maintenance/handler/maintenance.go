package handler

import (
	"encoding/json"
	"net/http"

	"laundro/internal/maintenance/service"
	apperrors "laundro/pkg/errors"
	httputil "laundro/pkg/http"
	"laundro/pkg/logger"
	"laundro/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type MaintenanceHandler struct {
	service service.MaintenanceService
	log     *logger.Logger
}

func NewMaintenanceHandler(service service.MaintenanceService, log *logger.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		service: service,
		log:     log,
	}
}

func (h *MaintenanceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/maintenance", h.Create)
	router.GET("/api/v1/maintenance", h.ListByDate)
	router.DELETE("/api/v1/maintenance/:id", h.Delete)
}

func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var interval model.MaintenanceInterval
	if err := json.NewDecoder(r.Body).Decode(&interval); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &interval); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, interval); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *MaintenanceHandler) ListByDate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	intervals, err := h.service.GetByDate(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByDate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, intervals); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByDate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}
