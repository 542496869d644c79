package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

const exportPageSize = 500

var timetableHeaders = []string{"Week", "Date", "Day", "Period", "Time", "Class", "Subject", "Teacher", "Room", "Topic"}

type scheduleEntryLister interface {
	List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// TimetableFile is a rendered export returned inline.
type TimetableFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportResult captures a published export and its signed download link.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	ExpiresAt    time.Time
}

// TimetableDownload is an opened published export.
type TimetableDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// ExportService renders persisted timetables and publishes them behind signed links.
type ExportService struct {
	entries scheduleEntryLister
	storage fileStorage
	signer  *storage.SignedURLSigner
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. storage and signer may be nil, in
// which case only inline rendering is available.
func NewExportService(entries scheduleEntryLister, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		entries: entries,
		storage: storage,
		signer:  signer,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Render builds the timetable dataset for filter and encodes it in format.
func (s *ExportService) Render(ctx context.Context, filter models.ScheduleEntryFilter, format string) (*TimetableFile, error) {
	dataset, err := s.buildDataset(ctx, filter)
	if err != nil {
		return nil, err
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Timetable "+filter.TermID)
		contentType = "application/pdf"
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}
	return &TimetableFile{
		Filename:    s.buildFilename(filter, format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

// Publish stores a CSV of the term's timetable and returns a signed download link.
func (s *ExportService) Publish(ctx context.Context, runID, termID string) (*ExportResult, error) {
	if s.storage == nil || s.signer == nil {
		return nil, fmt.Errorf("export storage not configured")
	}
	file, err := s.Render(ctx, models.ScheduleEntryFilter{TermID: termID}, ExportFormatCSV)
	if err != nil {
		return nil, err
	}
	relPath, err := s.storage.Save(file.Filename, file.Data)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(runID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/timetables/exports/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}

// Resolve validates a download token and opens the file it points to.
func (s *ExportService) Resolve(token string) (*TimetableDownload, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not available")
	}
	download, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link invalid or expired")
	}
	file, err := s.storage.Open(download.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	name := download.Path
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return &TimetableDownload{File: file, Filename: name, ExpiresAt: download.ExpiresAt}, nil
}

// Cleanup removes published files older than ttl (the configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup purges expired published files every interval until ctx is done.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.storage == nil {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.Cleanup(0)
				if err != nil {
					s.logger.Sugar().Warnw("export cleanup failed", "error", err)
					continue
				}
				if len(deleted) > 0 {
					s.logger.Sugar().Infow("expired exports removed", "count", len(deleted))
				}
			}
		}
	}()
}

func (s *ExportService) buildDataset(ctx context.Context, filter models.ScheduleEntryFilter) (export.Dataset, error) {
	dataset := export.Dataset{Headers: timetableHeaders}
	filter.PageSize = exportPageSize
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.entries.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, err
		}
		for _, entry := range batch {
			dataset.Rows = append(dataset.Rows, timetableRow(entry))
		}
		if len(batch) == 0 || len(dataset.Rows) >= total {
			break
		}
	}
	return dataset, nil
}

func timetableRow(entry models.ScheduleEntryDetail) map[string]string {
	timeRange := ""
	if entry.StartTime != "" || entry.EndTime != "" {
		timeRange = entry.StartTime + "-" + entry.EndTime
	}
	return map[string]string{
		"Week":    strconv.Itoa(entry.WeekNumber),
		"Date":    entry.SessionDate.Format("2006-01-02"),
		"Day":     scheduler.WeekdayName(entry.DayOfWeek),
		"Period":  strconv.Itoa(entry.Period),
		"Time":    timeRange,
		"Class":   entry.ClassName,
		"Subject": entry.SubjectName,
		"Teacher": entry.TeacherName,
		"Room":    entry.ClassroomName,
		"Topic":   entry.Topic,
	}
}

func (s *ExportService) buildFilename(filter models.ScheduleEntryFilter, format string) string {
	parts := []string{"timetable", sanitizeFilename(filter.TermID)}
	if filter.ClassID != "" {
		parts = append(parts, sanitizeFilename(filter.ClassID))
	}
	if filter.TeacherID != "" {
		parts = append(parts, "teacher-"+sanitizeFilename(filter.TeacherID))
	}
	if filter.Week > 0 {
		parts = append(parts, "w"+strconv.Itoa(filter.Week))
	}
	parts = append(parts, s.now().UTC().Format("20060102_150405"))
	return strings.Join(parts, "_") + "." + format
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
