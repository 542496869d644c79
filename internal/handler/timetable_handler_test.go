package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	generateReq dto.GenerateTimetableRequest
	commitReq   dto.CommitTimetableRequest
	enqueueReq  dto.EnqueueTimetableRequest
	entriesReq  dto.TimetableEntriesQuery
	exportReq   dto.TimetableExportQuery
	actor       string
	err         error
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetablePreviewResponse, error) {
	m.generateReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.TimetablePreviewResponse{
		RunID:      "run-1",
		TermID:     req.TermID,
		Entries:    []scheduler.ScheduleEntry{{ID: "e1", ClassID: "c1"}},
		Shortfalls: []scheduler.Shortfall{{ClassID: "c1", Missing: 2}},
	}, nil
}

func (m *timetableServiceMock) Commit(ctx context.Context, req dto.CommitTimetableRequest, actorID string) (*dto.CommitTimetableResponse, error) {
	m.commitReq = req
	m.actor = actorID
	if m.err != nil {
		return nil, m.err
	}
	return &dto.CommitTimetableResponse{RunID: req.RunID, Inserted: 8}, nil
}

func (m *timetableServiceMock) Enqueue(ctx context.Context, req dto.EnqueueTimetableRequest, actorID string) (*dto.TimetableJobResponse, error) {
	m.enqueueReq = req
	m.actor = actorID
	return &dto.TimetableJobResponse{RunID: "run-2", TermID: req.TermID, Status: models.RunStatusQueued}, nil
}

func (m *timetableServiceMock) JobStatus(ctx context.Context, runID string) (*dto.TimetableJobResponse, error) {
	if runID != "run-2" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
	}
	return &dto.TimetableJobResponse{RunID: runID, Status: models.RunStatusCompleted}, nil
}

func (m *timetableServiceMock) ListEntries(ctx context.Context, query dto.TimetableEntriesQuery) ([]models.ScheduleEntryDetail, *models.Pagination, error) {
	m.entriesReq = query
	return []models.ScheduleEntryDetail{{ClassName: "10A1"}}, &models.Pagination{Page: 1, PageSize: 100, TotalCount: 1}, nil
}

func (m *timetableServiceMock) Export(ctx context.Context, query dto.TimetableExportQuery) (*service.TimetableFile, error) {
	m.exportReq = query
	return &service.TimetableFile{Filename: "timetable_term-1.csv", ContentType: "text/csv", Data: []byte("Week\n1\n")}, nil
}

type exportResolverMock struct {
	path string
}

func (m *exportResolverMock) Resolve(token string) (*service.TimetableDownload, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export link invalid or expired")
	}
	f, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	return &service.TimetableDownload{File: f, Filename: filepath.Base(m.path)}, nil
}

func timetableRouter(h *TimetableHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
		c.Next()
	})
	router.POST("/timetables/generate", h.Generate)
	router.POST("/timetables/commit", h.Commit)
	router.POST("/timetables/jobs", h.Enqueue)
	router.GET("/timetables/jobs/:id", h.JobStatus)
	router.GET("/timetables/entries", h.ListEntries)
	router.GET("/timetables/export", h.Export)
	router.GET("/timetables/exports/:token", h.DownloadExport)
	return router
}

func doJSON(router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestTimetableHandlerGenerate(t *testing.T) {
	svc := &timetableServiceMock{}
	router := timetableRouter(&TimetableHandler{service: svc})

	w := doJSON(router, http.MethodPost, "/timetables/generate", []byte(`{"termId":"term-1","weekCount":2,"paceWeekly":true}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", svc.generateReq.TermID)
	assert.Equal(t, 2, svc.generateReq.WeekCount)
	assert.True(t, svc.generateReq.PaceWeekly)

	var body struct {
		Data dto.TimetablePreviewResponse `json:"data"`
		Meta map[string]interface{}       `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.Data.RunID)
	assert.Equal(t, "preview", body.Meta["mode"])
	assert.EqualValues(t, 1, body.Meta["shortfalls"])
}

func TestTimetableHandlerGenerateErrors(t *testing.T) {
	router := timetableRouter(&TimetableHandler{service: &timetableServiceMock{}})
	w := doJSON(router, http.MethodPost, "/timetables/generate", []byte(`{"termId":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	router = timetableRouter(&TimetableHandler{service: &timetableServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "term not found")}})
	w = doJSON(router, http.MethodPost, "/timetables/generate", []byte(`{"termId":"missing"}`))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "term not found")
}

func TestTimetableHandlerCommit(t *testing.T) {
	svc := &timetableServiceMock{}
	router := timetableRouter(&TimetableHandler{service: svc})

	w := doJSON(router, http.MethodPost, "/timetables/commit", []byte(`{"runId":"run-1","withAttendance":true,"rejectOnShortfall":true}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin-1", svc.actor)
	assert.True(t, svc.commitReq.WithAttendance)
	assert.True(t, svc.commitReq.RejectOnShortfall)

	svc.err = appErrors.Clone(appErrors.ErrShortfall, "timetable leaves 1 class-subject pair(s) short of the curriculum")
	w = doJSON(router, http.MethodPost, "/timetables/commit", []byte(`{"runId":"run-1","rejectOnShortfall":true}`))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "SCHEDULE_SHORTFALL")
}

func TestTimetableHandlerJobs(t *testing.T) {
	svc := &timetableServiceMock{}
	router := timetableRouter(&TimetableHandler{service: svc})

	w := doJSON(router, http.MethodPost, "/timetables/jobs", []byte(`{"termId":"term-1","withAttendance":true}`))
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "term-1", svc.enqueueReq.TermID)
	assert.True(t, svc.enqueueReq.WithAttendance)

	w = doJSON(router, http.MethodGet, "/timetables/jobs/run-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "COMPLETED")

	w = doJSON(router, http.MethodGet, "/timetables/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerListEntries(t *testing.T) {
	svc := &timetableServiceMock{}
	router := timetableRouter(&TimetableHandler{service: svc})

	w := doJSON(router, http.MethodGet, "/timetables/entries?termId=term-1&classId=c1&week=3&page=2&pageSize=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.TimetableEntriesQuery{TermID: "term-1", ClassID: "c1", Week: 3, Page: 2, PageSize: 50}, svc.entriesReq)
	assert.Contains(t, w.Body.String(), `"total_count":1`)

	w = doJSON(router, http.MethodGet, "/timetables/entries?termId=term-1&week=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerExport(t *testing.T) {
	svc := &timetableServiceMock{}
	router := timetableRouter(&TimetableHandler{service: svc})

	w := doJSON(router, http.MethodGet, "/timetables/export?termId=term-1&format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", svc.exportReq.Format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable_term-1.csv")
	assert.Equal(t, "Week\n1\n", w.Body.String())
}

func TestTimetableHandlerDownloadExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timetable_term-1.csv")
	require.NoError(t, os.WriteFile(path, []byte("Week,Date\n1,2025-09-01\n"), 0o600))

	router := timetableRouter(&TimetableHandler{service: &timetableServiceMock{}, exports: &exportResolverMock{path: path}})
	w := doJSON(router, http.MethodGet, "/timetables/exports/good", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Week,Date\n1,2025-09-01\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable_term-1.csv")

	w = doJSON(router, http.MethodGet, "/timetables/exports/bad", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	router = timetableRouter(&TimetableHandler{service: &timetableServiceMock{}})
	w = doJSON(router, http.MethodGet, "/timetables/exports/good", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableRoutesRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: &timetableServiceMock{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})
		c.Next()
	})
	router.POST("/timetables/commit", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), h.Commit)

	w := doJSON(router, http.MethodPost, "/timetables/commit", []byte(`{"runId":"run-1"}`))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
