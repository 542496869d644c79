package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetablePreviewResponse, error)
	Commit(ctx context.Context, req dto.CommitTimetableRequest, actorID string) (*dto.CommitTimetableResponse, error)
	Enqueue(ctx context.Context, req dto.EnqueueTimetableRequest, actorID string) (*dto.TimetableJobResponse, error)
	JobStatus(ctx context.Context, runID string) (*dto.TimetableJobResponse, error)
	ListEntries(ctx context.Context, query dto.TimetableEntriesQuery) ([]models.ScheduleEntryDetail, *models.Pagination, error)
	Export(ctx context.Context, query dto.TimetableExportQuery) (*service.TimetableFile, error)
}

type exportResolver interface {
	Resolve(token string) (*service.TimetableDownload, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service timetableService
	exports exportResolver
}

// NewTimetableHandler constructs the handler. exports may be nil when published
// downloads are disabled.
func NewTimetableHandler(svc *service.TimetableService, exports *service.ExportService) *TimetableHandler {
	h := &TimetableHandler{service: svc}
	if exports != nil {
		h.exports = exports
	}
	return h
}

// Generate godoc
// @Summary Generate a semester timetable preview
// @Description Runs the generator without persisting anything. The returned runId can be committed until the preview expires.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation window"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "mode", "preview")
	middleware.SetMeta(c, "shortfalls", len(result.Shortfalls))
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Commit godoc
// @Summary Persist a generated timetable
// @Description Atomically replaces the term's schedule entries with a stored preview.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.CommitTimetableRequest true "Commit payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/commit [post]
func (h *TimetableHandler) Commit(c *gin.Context) {
	var req dto.CommitTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid commit payload"))
		return
	}
	result, err := h.service.Commit(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Enqueue godoc
// @Summary Generate and commit a timetable in the background
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.EnqueueTimetableRequest true "Job payload"
// @Success 202 {object} response.Envelope
// @Router /timetables/jobs [post]
func (h *TimetableHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}
	result, err := h.service.Enqueue(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}

// JobStatus godoc
// @Summary Get background timetable run status
// @Tags Timetables
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/jobs/{id} [get]
func (h *TimetableHandler) JobStatus(c *gin.Context) {
	result, err := h.service.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListEntries godoc
// @Summary List persisted schedule entries
// @Tags Timetables
// @Produce json
// @Param termId query string true "Term ID"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Param week query int false "Week number"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetables/entries [get]
func (h *TimetableHandler) ListEntries(c *gin.Context) {
	var query dto.TimetableEntriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	entries, pagination, err := h.service.ListEntries(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Export godoc
// @Summary Export persisted schedule entries
// @Tags Timetables
// @Produce octet-stream
// @Param termId query string true "Term ID"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Param week query int false "Week number"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /timetables/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.TimetableExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// DownloadExport godoc
// @Summary Download a published timetable export
// @Description Serves the CSV published by a completed background run. The token is the last segment of the run's exportUrl.
// @Tags Timetables
// @Produce text/csv
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /timetables/exports/{token} [get]
func (h *TimetableHandler) DownloadExport(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export not available"))
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.exports.Resolve(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck
	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	response.AttachmentFromReader(c, download.Filename, "text/csv", info.Size(), download.File)
}
