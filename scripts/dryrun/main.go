package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

var entryHeaders = []string{"Week", "Date", "Day", "Period", "Class", "Subject", "Teacher", "Room", "Topic"}

func main() {
	var (
		snapshotPath string
		outputPath   string
		format       string
		namespace    string
		paceWeekly   bool
		verbose      bool
		timeout      time.Duration
	)

	flag.StringVar(&snapshotPath, "snapshot", "", "Path to a JSON snapshot (window, classes, subjects, curriculum, teachers, classrooms, slots)")
	flag.StringVar(&outputPath, "out", "", "Write entries to this file instead of stdout")
	flag.StringVar(&format, "format", "json", "Output format: json or csv")
	flag.StringVar(&namespace, "namespace", "", "UUID namespace for entry ids")
	flag.BoolVar(&paceWeekly, "pace-weekly", false, "Cap each subject at its weekly quota")
	flag.BoolVar(&verbose, "verbose", false, "Log generalist fallbacks and shortfalls")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Generation timeout")
	flag.Parse()

	if snapshotPath == "" {
		log.Fatal("-snapshot is required")
	}

	snapshot, err := loadSnapshot(snapshotPath)
	if err != nil {
		log.Fatalf("failed to load snapshot: %v", err)
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("failed to init logger: %v", err)
		}
		defer logger.Sync() //nolint:errcheck
	}

	opts := scheduler.Options{PaceWeekly: paceWeekly, Logger: logger}
	if namespace != "" {
		id, err := uuid.Parse(namespace)
		if err != nil {
			log.Fatalf("invalid -namespace: %v", err)
		}
		opts.IDNamespace = id
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	result, err := scheduler.Generate(ctx, snapshot, opts)
	if err != nil {
		log.Fatalf("generation failed: %v", err)
	}

	out := io.Writer(os.Stdout)
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			log.Fatalf("failed to create output: %v", err)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	if err := writeResult(out, format, snapshot, result); err != nil {
		log.Fatalf("failed to write result: %v", err)
	}

	fmt.Fprintf(os.Stderr, "weeks=%d slots=%d skipped=%d entries=%d fallbacks=%d shortfalls=%d\n",
		result.Stats.TotalWeeks, result.Stats.TotalSlots, result.Stats.SlotsSkipped,
		len(result.Entries), result.Stats.FallbackAssignments, len(result.Shortfalls))
	for _, warning := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}
	if len(result.Shortfalls) > 0 {
		os.Exit(2)
	}
}

func loadSnapshot(path string) (scheduler.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scheduler.Snapshot{}, err
	}
	var snapshot scheduler.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return snapshot, nil
}

func writeResult(w io.Writer, format string, snapshot scheduler.Snapshot, result *scheduler.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "csv":
		return export.NewCSVExporter().Write(w, entryDataset(snapshot, result.Entries))
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func entryDataset(snapshot scheduler.Snapshot, entries []scheduler.ScheduleEntry) export.Dataset {
	classes := make(map[string]string, len(snapshot.Classes))
	for _, c := range snapshot.Classes {
		classes[c.ID] = c.Name
	}
	subjects := make(map[string]string, len(snapshot.Subjects))
	for _, s := range snapshot.Subjects {
		subjects[s.ID] = s.Name
	}
	teachers := make(map[string]string, len(snapshot.Teachers))
	for _, t := range snapshot.Teachers {
		teachers[t.ID] = t.Name
	}
	rooms := make(map[string]string, len(snapshot.Classrooms))
	for _, r := range snapshot.Classrooms {
		rooms[r.ID] = r.Name
	}

	dataset := export.Dataset{Headers: entryHeaders, Rows: make([]map[string]string, 0, len(entries))}
	for _, e := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Week":    strconv.Itoa(e.WeekNumber),
			"Date":    e.SessionDate.Format("2006-01-02"),
			"Day":     scheduler.WeekdayName(e.Weekday),
			"Period":  strconv.Itoa(e.Period),
			"Class":   classes[e.ClassID],
			"Subject": subjects[e.SubjectID],
			"Teacher": teachers[e.TeacherID],
			"Room":    rooms[e.ClassroomID],
			"Topic":   e.Topic,
		})
	}
	return dataset
}
