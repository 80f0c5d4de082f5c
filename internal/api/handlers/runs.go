package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/order-reconciler/internal/api/dto"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/storage"
)

// RunsHandler handles run history requests.
type RunsHandler struct {
	repo   storage.Repository
	logger *slog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository, logger *slog.Logger) *RunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunsHandler{repo: repo, logger: logger}
}

// List handles GET /api/runs - returns recent runs, newest first.
func (h *RunsHandler) List(c *gin.Context) {
	limit := ParseIntParam(c, "limit", dto.DefaultRunListParams().Limit)
	if limit <= 0 {
		WriteError(c, http.StatusBadRequest, dto.BadRequestError("limit must be positive"))
		return
	}

	runs, err := h.repo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, dto.NewRunResponse(run))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/runs/:id - returns a run and its matches.
func (h *RunsHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		WriteError(c, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.repo.GetRun(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(c, http.StatusNotFound, dto.NotFoundError("run"))
		return
	}
	if err != nil {
		h.logger.Error("failed to get run", "run_id", id, "error", err)
		WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	matches, err := h.repo.GetMatches(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get matches", "run_id", id, "error", err)
		WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.RunDetailResponse{
		RunResponse: dto.NewRunResponse(*run),
		Matches:     dto.NewMatchResponses(matches),
	})
}
