package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/order-reconciler/internal/api/dto"
	"github.com/eshaffer321/order-reconciler/internal/application/service"
	"github.com/eshaffer321/order-reconciler/internal/domain/reconciler"
)

// ReconcileHandler runs reconciliations submitted over HTTP.
type ReconcileHandler struct {
	service *service.ReconcileService
	logger  *slog.Logger
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(svc *service.ReconcileService, logger *slog.Logger) *ReconcileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileHandler{service: svc, logger: logger}
}

// Reconcile handles POST /api/reconcile. Records are taken from the body only;
// file paths are a CLI concern.
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	cfg := req.Config.Apply(h.service.Config())
	out, err := h.service.Run(c.Request.Context(), service.Request{
		Orders:            req.Orders,
		Entries:           req.Entries,
		Config:            &cfg,
		DryRun:            req.DryRun,
		ExcludeReconciled: req.ExcludeReconciled,
	})
	switch {
	case err == nil:
	case errors.Is(err, reconciler.ErrInvalidConfig):
		WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	case errors.Is(err, service.ErrNoInput):
		WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	case errors.Is(err, service.ErrRunInProgress):
		WriteError(c, http.StatusConflict, dto.ConflictError(err.Error()))
		return
	default:
		h.logger.Error("reconciliation request failed", "error", err)
		WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	status := http.StatusOK
	if out.RunID != "" {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewReconcileResponse(out))
}
