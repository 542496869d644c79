package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// TimetableJobType labels queue jobs produced by Enqueue.
const TimetableJobType = "timetable.generate"

const pgForeignKeyViolation = "23503"

type timetableTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type timetableClassReader interface {
	ListByAcademicYear(ctx context.Context, academicYear string) ([]models.Class, error)
}

type timetableSubjectReader interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type timetableTeacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type timetableClassroomReader interface {
	List(ctx context.Context) ([]models.Classroom, error)
}

type timetableSlotReader interface {
	List(ctx context.Context) ([]models.SlotTemplate, error)
}

type timetableCurriculumReader interface {
	List(ctx context.Context) ([]models.CurriculumRequirement, error)
}

type scheduleEntryStore interface {
	DeleteByTerm(ctx context.Context, exec sqlx.ExtContext, termID, academicYear string) (int64, error)
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error
	List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, int, error)
}

type attendancePlaceholderStore interface {
	DeletePendingByTerm(ctx context.Context, exec sqlx.ExtContext, termID, academicYear string) error
	CreatePlaceholders(ctx context.Context, exec sqlx.ExtContext, termID string, entryIDs []string) (int64, error)
}

type timetableRunStore interface {
	Create(ctx context.Context, run *models.TimetableRun) error
	FindByID(ctx context.Context, id string) (*models.TimetableRun, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.RunStatus, meta types.JSONText, errorMessage *string) error
	ListUnfinished(ctx context.Context, limit int) ([]models.TimetableRun, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// TimetableRepositories groups the stores the timetable service reads and writes.
type TimetableRepositories struct {
	Terms      timetableTermReader
	Classes    timetableClassReader
	Subjects   timetableSubjectReader
	Teachers   timetableTeacherReader
	Classrooms timetableClassroomReader
	Slots      timetableSlotReader
	Curriculum timetableCurriculumReader
	Entries    scheduleEntryStore
	Attendance attendancePlaceholderStore
	Runs       timetableRunStore
}

// TimetableConfig governs generation behaviour.
type TimetableConfig struct {
	PreviewTTL            time.Duration
	GenerationTimeout     time.Duration
	DefaultWeeklyCapacity int
	IDNamespace           uuid.UUID
}

// TimetableService loads semester snapshots, runs the generator and persists results.
type TimetableService struct {
	repos     TimetableRepositories
	tx        txProvider
	queue     jobDispatcher
	previews  previewStore
	exports   *ExportService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig
	now       func() time.Time
}

// NewTimetableService wires the timetable use cases. Previews go to Redis through
// cache when it is enabled and stay in process otherwise.
func NewTimetableService(
	repos TimetableRepositories,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	exports *ExportService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PreviewTTL <= 0 {
		cfg.PreviewTTL = 30 * time.Minute
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 2 * time.Minute
	}
	if cfg.DefaultWeeklyCapacity <= 0 {
		cfg.DefaultWeeklyCapacity = 20
	}
	return &TimetableService{
		repos:     repos,
		tx:        tx,
		previews:  newPreviewStore(cache, cfg.PreviewTTL),
		exports:   exports,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// UseQueue attaches the worker pool that executes enqueued runs.
func (s *TimetableService) UseQueue(queue jobDispatcher) {
	s.queue = queue
}

// Generate performs a dry run and stores the preview for a later Commit.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetablePreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	preview, err := s.generate(ctx, req, "preview")
	if err != nil {
		return nil, err
	}
	if err := s.previews.Save(ctx, *preview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable preview")
	}
	s.logger.Info("timetable preview generated",
		zap.String("run_id", preview.RunID),
		zap.String("term_id", preview.TermID),
		zap.Int("entries", len(preview.Result.Entries)),
		zap.Int("warnings", len(preview.Result.Warnings)))

	return &dto.TimetablePreviewResponse{
		RunID:          preview.RunID,
		TermID:         preview.TermID,
		SemesterNumber: preview.Number,
		AcademicYear:   preview.AcademicYear,
		GeneratedAt:    preview.GeneratedAt,
		ExpiresAt:      preview.GeneratedAt.Add(s.cfg.PreviewTTL),
		Entries:        preview.Result.Entries,
		Warnings:       preview.Result.Warnings,
		Shortfalls:     preview.Result.Shortfalls,
		Stats:          preview.Result.Stats,
	}, nil
}

// Commit replaces the term's persisted entries with a stored preview.
func (s *TimetableService) Commit(ctx context.Context, req dto.CommitTimetableRequest, actorID string) (*dto.CommitTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable commit payload")
	}
	preview, ok, err := s.previews.Get(ctx, req.RunID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable preview")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable preview not found or expired")
	}
	if req.RejectOnShortfall {
		if err := shortfallError(preview.Result); err != nil {
			return nil, err
		}
	}

	resp, err := s.persist(ctx, preview, req.WithAttendance, nil)
	if err != nil {
		return nil, err
	}
	if err := s.previews.Delete(ctx, preview.RunID); err != nil {
		s.logger.Warn("failed to drop committed preview", zap.String("run_id", preview.RunID), zap.Error(err))
	}
	s.logger.Info("timetable committed",
		zap.String("run_id", preview.RunID),
		zap.String("term_id", preview.TermID),
		zap.String("actor_id", actorID),
		zap.Int64("deleted", resp.Deleted),
		zap.Int("inserted", resp.Inserted),
		zap.Int64("attendance_created", resp.AttendanceCreated))
	return resp, nil
}

// Enqueue records a run and hands it to the worker pool.
func (s *TimetableService) Enqueue(ctx context.Context, req dto.EnqueueTimetableRequest, actorID string) (*dto.TimetableJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable job payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "timetable worker pool unavailable")
	}
	if _, err := s.findTerm(ctx, req.TermID); err != nil {
		return nil, err
	}

	run := &models.TimetableRun{
		TermID:    req.TermID,
		Params:    runParams(req),
		Status:    models.RunStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repos.Runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable run")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: TimetableJobType}); err != nil {
		msg := "failed to enqueue run"
		if updateErr := s.repos.Runs.UpdateStatus(ctx, nil, run.ID, models.RunStatusFailed, nil, &msg); updateErr != nil {
			s.logger.Warn("failed to mark run failed", zap.String("run_id", run.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue timetable run")
	}
	return jobResponse(run), nil
}

// JobStatus returns the state of a background run.
func (s *TimetableService) JobStatus(ctx context.Context, runID string) (*dto.TimetableJobResponse, error) {
	run, err := s.repos.Runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable run")
	}
	return jobResponse(run), nil
}

// RecoverPendingJobs requeues runs left unfinished by a previous process.
func (s *TimetableService) RecoverPendingJobs(ctx context.Context) {
	if s.queue == nil {
		return
	}
	pending, err := s.repos.Runs.ListUnfinished(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover timetable runs", "error", err)
		return
	}
	for _, run := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: TimetableJobType}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue timetable run", "run_id", run.ID, "error", err)
		}
	}
}

// HandleJob executes a queued run: generate, persist and publish an export.
// Client errors are marked permanent so the queue does not retry them.
func (s *TimetableService) HandleJob(ctx context.Context, job jobs.Job) error {
	run, err := s.repos.Runs.FindByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jobs.Permanent(err)
		}
		return err
	}
	if run.Status == models.RunStatusCompleted || run.Status == models.RunStatusFailed {
		return nil
	}
	if err := s.repos.Runs.UpdateStatus(ctx, nil, run.ID, models.RunStatusRunning, nil, nil); err != nil {
		return err
	}

	req := generateRequest(run.Params)
	if err := s.validator.Struct(req); err != nil {
		return jobs.Permanent(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stored run parameters"))
	}
	preview, err := s.generate(ctx, req, "job")
	if err != nil {
		return classifyJobError(err)
	}
	preview.RunID = run.ID
	if run.Params.RejectOnShortfall {
		if err := shortfallError(preview.Result); err != nil {
			return jobs.Permanent(err)
		}
	}

	var meta types.JSONText
	resp, err := s.persist(ctx, preview, run.Params.WithAttendance, func(tx *sqlx.Tx, resp *dto.CommitTimetableResponse) error {
		var metaErr error
		meta, metaErr = runMeta(preview.Result, resp, nil)
		if metaErr != nil {
			return metaErr
		}
		return s.repos.Runs.UpdateStatus(ctx, tx, run.ID, models.RunStatusCompleted, meta, nil)
	})
	if err != nil {
		return classifyJobError(err)
	}

	if s.exports != nil && resp.Inserted > 0 {
		published, pubErr := s.exports.Publish(ctx, run.ID, run.TermID)
		if pubErr != nil {
			s.logger.Warn("failed to publish timetable export", zap.String("run_id", run.ID), zap.Error(pubErr))
		} else if meta, err = runMeta(preview.Result, resp, published); err == nil {
			if err := s.repos.Runs.UpdateStatus(ctx, nil, run.ID, models.RunStatusCompleted, meta, nil); err != nil {
				s.logger.Warn("failed to record export link", zap.String("run_id", run.ID), zap.Error(err))
			}
		}
	}

	s.logger.Info("timetable run completed",
		zap.String("run_id", run.ID),
		zap.String("term_id", run.TermID),
		zap.Int("inserted", resp.Inserted),
		zap.Int("warnings", len(resp.Warnings)))
	return nil
}

// FailJob marks a run failed once the queue gives up on it.
func (s *TimetableService) FailJob(job jobs.Job, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	msg := appErrors.FromError(err).Message
	if msg == appErrors.ErrInternal.Message {
		msg = err.Error()
	}
	if updateErr := s.repos.Runs.UpdateStatus(ctx, nil, job.ID, models.RunStatusFailed, nil, &msg); updateErr != nil {
		s.logger.Warn("failed to mark run failed", zap.String("run_id", job.ID), zap.Error(updateErr))
	}
}

// ListEntries returns persisted entries with display names.
func (s *TimetableService) ListEntries(ctx context.Context, query dto.TimetableEntriesQuery) ([]models.ScheduleEntryDetail, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable entries query")
	}
	filter := models.ScheduleEntryFilter{
		TermID:    query.TermID,
		ClassID:   query.ClassID,
		TeacherID: query.TeacherID,
		Week:      query.Week,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	entries, total, err := s.repos.Entries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	return entries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Export renders persisted entries as CSV (default) or PDF.
func (s *TimetableService) Export(ctx context.Context, query dto.TimetableExportQuery) (*TimetableFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable export query")
	}
	if s.exports == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "timetable exporter unavailable")
	}
	format := query.Format
	if format == "" {
		format = ExportFormatCSV
	}
	file, err := s.exports.Render(ctx, models.ScheduleEntryFilter{
		TermID:    query.TermID,
		ClassID:   query.ClassID,
		TeacherID: query.TeacherID,
		Week:      query.Week,
	}, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export timetable")
	}
	return file, nil
}

func (s *TimetableService) generate(ctx context.Context, req dto.GenerateTimetableRequest, mode string) (*timetablePreview, error) {
	snapshot, err := s.loadSnapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	start := time.Now()
	result, err := scheduler.Generate(runCtx, snapshot, scheduler.Options{
		AcademicYear: snapshot.Window.AcademicYear,
		PaceWeekly:   req.PaceWeekly,
		IDNamespace:  s.cfg.IDNamespace,
		Logger:       s.logger.Named("scheduler"),
	})
	if err != nil {
		s.metrics.RecordGenerationFailure(appErrors.FromError(err).Code)
		s.logger.Warn("timetable generation failed", zap.String("term_id", req.TermID), zap.String("mode", mode), zap.Error(err))
		return nil, err
	}

	missing := 0
	for _, shortfall := range result.Shortfalls {
		missing += shortfall.Missing
	}
	s.metrics.ObserveGeneration(mode, time.Since(start), len(result.Entries), missing, result.Stats.FallbackAssignments)

	return &timetablePreview{
		RunID:        uuid.NewString(),
		TermID:       snapshot.Window.ID,
		AcademicYear: snapshot.Window.AcademicYear,
		Number:       snapshot.Window.Number,
		GeneratedAt:  s.now().UTC(),
		Result:       result,
	}, nil
}

func (s *TimetableService) findTerm(ctx context.Context, termID string) (*models.Term, error) {
	term, err := s.repos.Terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

func (s *TimetableService) loadSnapshot(ctx context.Context, req dto.GenerateTimetableRequest) (scheduler.Snapshot, error) {
	term, err := s.findTerm(ctx, req.TermID)
	if err != nil {
		return scheduler.Snapshot{}, err
	}
	window, err := buildWindow(term, req)
	if err != nil {
		return scheduler.Snapshot{}, err
	}

	classes, err := s.repos.Classes.ListByAcademicYear(ctx, window.AcademicYear)
	if err != nil {
		return scheduler.Snapshot{}, loadError(err, "classes")
	}
	subjects, err := s.repos.Subjects.List(ctx)
	if err != nil {
		return scheduler.Snapshot{}, loadError(err, "subjects")
	}
	teachers, err := s.repos.Teachers.ListActive(ctx)
	if err != nil {
		return scheduler.Snapshot{}, loadError(err, "teachers")
	}
	classrooms, err := s.repos.Classrooms.List(ctx)
	if err != nil {
		return scheduler.Snapshot{}, loadError(err, "classrooms")
	}
	slots, err := s.repos.Slots.List(ctx)
	if err != nil {
		return scheduler.Snapshot{}, loadError(err, "slot templates")
	}
	curriculum, err := s.repos.Curriculum.List(ctx)
	if err != nil {
		return scheduler.Snapshot{}, loadError(err, "curriculum requirements")
	}

	snapshot := scheduler.Snapshot{
		Window:     window,
		Classes:    make([]scheduler.Class, 0, len(classes)),
		Subjects:   make([]scheduler.Subject, 0, len(subjects)),
		Curriculum: make([]scheduler.CurriculumRequirement, 0, len(curriculum)),
		Teachers:   make([]scheduler.Teacher, 0, len(teachers)),
		Classrooms: make([]scheduler.Classroom, 0, len(classrooms)),
		Slots:      make([]scheduler.SlotTemplate, 0, len(slots)),
	}
	for _, c := range classes {
		snapshot.Classes = append(snapshot.Classes, scheduler.Class{
			ID:           c.ID,
			Name:         c.Name,
			Grade:        c.Grade,
			AcademicYear: c.AcademicYear,
			BatchID:      stringValue(c.BatchID),
		})
	}
	for _, subject := range subjects {
		snapshot.Subjects = append(snapshot.Subjects, scheduler.Subject{
			ID:       subject.ID,
			Name:     subject.Name,
			Category: stringValue(subject.Category),
		})
	}
	for _, req := range curriculum {
		snapshot.Curriculum = append(snapshot.Curriculum, scheduler.CurriculumRequirement{
			GradeOrCurriculumID: req.Grade,
			SubjectID:           req.SubjectID,
			SessionsPerWeek:     req.SessionsPerWeek,
		})
	}
	for _, t := range teachers {
		capacity := s.cfg.DefaultWeeklyCapacity
		if t.WeeklyCapacity != nil {
			capacity = *t.WeeklyCapacity
		}
		snapshot.Teachers = append(snapshot.Teachers, scheduler.Teacher{
			ID:             t.ID,
			Name:           t.FullName,
			Specialty:      stringValue(t.Expertise),
			WeeklyCapacity: capacity,
		})
	}
	for _, room := range classrooms {
		snapshot.Classrooms = append(snapshot.Classrooms, scheduler.Classroom{ID: room.ID, Name: room.Name, Capacity: room.Capacity})
	}
	for _, slot := range slots {
		weekday := scheduler.ParseWeekday(slot.DayOfWeek)
		if weekday == 0 {
			return scheduler.Snapshot{}, appErrors.Wrap(scheduler.ErrInvalidSlot, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				fmt.Sprintf("slot template %s has unrecognised day %q", slot.ID, slot.DayOfWeek))
		}
		snapshot.Slots = append(snapshot.Slots, scheduler.SlotTemplate{
			ID:        slot.ID,
			Weekday:   weekday,
			Period:    slot.Period,
			StartTime: stringValue(slot.StartTime),
			EndTime:   stringValue(slot.EndTime),
		})
	}
	return snapshot, nil
}

// persist atomically replaces the preview's term entries. finish runs inside the
// transaction after the entries are written.
func (s *TimetableService) persist(ctx context.Context, preview *timetablePreview, withAttendance bool, finish func(*sqlx.Tx, *dto.CommitTimetableResponse) error) (resp *dto.CommitTimetableResponse, err error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	resp = &dto.CommitTimetableResponse{
		RunID:    preview.RunID,
		TermID:   preview.TermID,
		Warnings: preview.Result.Warnings,
	}

	if err = s.repos.Attendance.DeletePendingByTerm(ctx, tx, preview.TermID, preview.AcademicYear); err != nil {
		err = persistError(err, "failed to clear pending attendance")
		return nil, err
	}
	if resp.Deleted, err = s.repos.Entries.DeleteByTerm(ctx, tx, preview.TermID, preview.AcademicYear); err != nil {
		err = persistError(err, "failed to delete previous schedule entries")
		return nil, err
	}

	rows := entryModels(preview)
	if err = s.repos.Entries.InsertBatch(ctx, tx, rows); err != nil {
		err = persistError(err, "failed to insert schedule entries")
		return nil, err
	}
	resp.Inserted = len(rows)

	if withAttendance && len(rows) > 0 {
		ids := make([]string, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		if resp.AttendanceCreated, err = s.repos.Attendance.CreatePlaceholders(ctx, tx, preview.TermID, ids); err != nil {
			err = persistError(err, "failed to create attendance placeholders")
			return nil, err
		}
	}

	if finish != nil {
		if err = finish(tx, resp); err != nil {
			err = persistError(err, "failed to finalise timetable run")
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return nil, err
	}
	return resp, nil
}

func buildWindow(term *models.Term, req dto.GenerateTimetableRequest) (scheduler.SemesterWindow, error) {
	window := scheduler.SemesterWindow{
		ID:           term.ID,
		Number:       term.Number,
		StartDate:    term.StartDate,
		WeekCount:    term.WeekCount,
		AcademicYear: term.AcademicYear,
	}
	if term.EndDate != nil {
		window.EndDate = *term.EndDate
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate, "startDate")
		if err != nil {
			return window, err
		}
		window.StartDate = start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate, "endDate")
		if err != nil {
			return window, err
		}
		window.EndDate = end
		// An explicit end date without a week count derives the weeks from the dates.
		window.WeekCount = 0
	}
	if req.WeekCount > 0 {
		window.WeekCount = req.WeekCount
	}
	if req.AcademicYear != "" {
		window.AcademicYear = req.AcademicYear
	}
	return window, nil
}

func parseDate(raw, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("%s must use YYYY-MM-DD", field))
	}
	return t, nil
}

func entryModels(preview *timetablePreview) []models.ScheduleEntry {
	runID := preview.RunID
	rows := make([]models.ScheduleEntry, 0, len(preview.Result.Entries))
	for _, e := range preview.Result.Entries {
		rows = append(rows, models.ScheduleEntry{
			ID:               e.ID,
			TermID:           e.SemesterID,
			SemesterNumber:   e.SemesterNumber,
			RunID:            &runID,
			ClassID:          e.ClassID,
			SubjectID:        e.SubjectID,
			TeacherID:        e.TeacherID,
			ClassroomID:      e.ClassroomID,
			SlotTemplateID:   e.SlotTemplateID,
			WeekNumber:       e.WeekNumber,
			SessionDate:      e.SessionDate,
			SessionWeekLabel: e.SessionWeekLabel,
			Topic:            e.Topic,
			DayOfWeek:        e.Weekday,
			Period:           e.Period,
			StartTime:        e.StartTime,
			EndTime:          e.EndTime,
		})
	}
	return rows
}

func runParams(req dto.EnqueueTimetableRequest) models.RunParams {
	return models.RunParams{
		TermID:            req.TermID,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		WeekCount:         req.WeekCount,
		AcademicYear:      req.AcademicYear,
		PaceWeekly:        req.PaceWeekly,
		WithAttendance:    req.WithAttendance,
		RejectOnShortfall: req.RejectOnShortfall,
	}
}

func generateRequest(params models.RunParams) dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		TermID:       params.TermID,
		StartDate:    params.StartDate,
		EndDate:      params.EndDate,
		WeekCount:    params.WeekCount,
		AcademicYear: params.AcademicYear,
		PaceWeekly:   params.PaceWeekly,
	}
}

func jobResponse(run *models.TimetableRun) *dto.TimetableJobResponse {
	return &dto.TimetableJobResponse{
		RunID:      run.ID,
		TermID:     run.TermID,
		Status:     run.Status,
		Params:     run.Params,
		Meta:       run.Meta,
		Error:      run.ErrorMessage,
		CreatedAt:  run.CreatedAt,
		FinishedAt: run.FinishedAt,
	}
}

func runMeta(result *scheduler.Result, resp *dto.CommitTimetableResponse, published *ExportResult) (types.JSONText, error) {
	payload := map[string]any{
		"entries":           resp.Inserted,
		"deleted":           resp.Deleted,
		"attendanceCreated": resp.AttendanceCreated,
		"warnings":          result.Warnings,
		"shortfalls":        result.Shortfalls,
		"stats":             result.Stats,
	}
	if published != nil {
		payload["exportUrl"] = published.URL
		payload["exportExpiresAt"] = published.ExpiresAt
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode run meta: %w", err)
	}
	return types.JSONText(data), nil
}

func shortfallError(result *scheduler.Result) error {
	if len(result.Shortfalls) == 0 {
		return nil
	}
	return appErrors.Clone(appErrors.ErrShortfall,
		fmt.Sprintf("timetable leaves %d class-subject pair(s) short of the curriculum", len(result.Shortfalls)))
}

func loadError(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}

// persistError maps a foreign key violation (recorded attendance still pointing at
// an entry) to a conflict.
func persistError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			"recorded attendance still references entries of this term")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func classifyJobError(err error) error {
	status := appErrors.FromError(err).Status
	if status >= 400 && status < 500 {
		return jobs.Permanent(err)
	}
	return err
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
