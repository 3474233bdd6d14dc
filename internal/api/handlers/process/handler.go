package process

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"photoflow/internal/api/respond"
	"photoflow/internal/model"
	"photoflow/internal/service/editor"
)

// service defines the interface for processing operations.
type service interface {
	ProcessImage(ctx context.Context, owner string, imageID uuid.UUID, ops []model.Operation, export model.Export, thumbnail bool) (*model.Result, error)
	ProcessBatch(ctx context.Context, owner string, imageIDs []uuid.UUID, ops []model.Operation, export model.Export, thumbnail bool) ([]editor.BatchItem, error)
	SubmitJob(ctx context.Context, owner string, imageID uuid.UUID, ops []model.Operation, priority model.Priority, export model.Export, thumbnail bool) (model.Job, error)
	Job(ctx context.Context, id uuid.UUID) (model.Job, error)
	Jobs(ctx context.Context, limit int) ([]model.Job, error)
}

// Handler provides HTTP handlers for processing endpoints.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// ProcessRequest is the body of the synchronous processing endpoint.
type ProcessRequest struct {
	Owner      string            `json:"owner"`
	ImageID    uuid.UUID         `json:"image_id"`
	Operations []model.Operation `json:"operations"`
	Export     model.Export      `json:"export"`
	Thumbnail  bool              `json:"thumbnail"`
}

// BatchRequest is the body of the batch processing endpoint.
type BatchRequest struct {
	Owner      string            `json:"owner"`
	ImageIDs   []uuid.UUID       `json:"image_ids"`
	Operations []model.Operation `json:"operations"`
	Export     model.Export      `json:"export"`
	Thumbnail  bool              `json:"thumbnail"`
}

// JobRequest is the body of the queued processing endpoint.
type JobRequest struct {
	Owner      string            `json:"owner"`
	ImageID    uuid.UUID         `json:"image_id"`
	Operations []model.Operation `json:"operations"`
	Priority   string            `json:"priority"`
	Export     model.Export      `json:"export"`
	Thumbnail  bool              `json:"thumbnail"`
}

// Process runs the operation pipeline synchronously and returns the result
// record.
func (h *Handler) Process(c *ginext.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}

	result, err := h.service.ProcessImage(c.Request.Context(), req.Owner, req.ImageID, req.Operations, req.Export, req.Thumbnail)
	if err != nil {
		zlog.Logger.Err(err).Str("image_id", req.ImageID.String()).Msg("failed to process image")
		respond.Err(c, err)
		return
	}

	respond.OK(c, result)
}

// ProcessBatch applies one operation list to several images. Individual
// failures are reported per item; the endpoint itself succeeds.
func (h *Handler) ProcessBatch(c *ginext.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}

	items, err := h.service.ProcessBatch(c.Request.Context(), req.Owner, req.ImageIDs, req.Operations, req.Export, req.Thumbnail)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to process batch")
		respond.Err(c, err)
		return
	}

	respond.OK(c, items)
}

// SubmitJob enqueues background processing with a priority tier and returns
// the pending job record.
func (h *Handler) SubmitJob(c *ginext.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}

	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, err)
		return
	}

	j, err := h.service.SubmitJob(c.Request.Context(), req.Owner, req.ImageID, req.Operations, priority, req.Export, req.Thumbnail)
	if err != nil {
		zlog.Logger.Err(err).Str("image_id", req.ImageID.String()).Msg("failed to submit job")
		respond.Err(c, err)
		return
	}

	respond.Accepted(c, j)
}

// GetJob returns the durable record for a job, including progress and the
// result once completed.
func (h *Handler) GetJob(c *ginext.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return
	}

	j, err := h.service.Job(c.Request.Context(), id)
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.OK(c, j)
}

// ListJobs returns the most recent jobs, newest first.
func (h *Handler) ListJobs(c *ginext.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	jobs, err := h.service.Jobs(c.Request.Context(), limit)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to list jobs")
		respond.Err(c, err)
		return
	}

	respond.OK(c, jobs)
}
