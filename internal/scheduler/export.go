package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/exporters"
)

// HighlightSource provides the current highlight document.
type HighlightSource interface {
	Load() entities.HighlightDocument
}

// ExportConfig selects when and where highlights are exported.
type ExportConfig struct {
	Enabled  bool
	Dir      string
	Schedule string // Cron format: "0 * * * *" = hourly
}

// ExportStatus describes the most recent export run.
type ExportStatus struct {
	LastRun  time.Time
	Result   exporters.ExportResult
	Err      error
	Duration time.Duration
}

// ExportScheduler periodically writes highlights into a vault directory.
type ExportScheduler struct {
	config     ExportConfig
	highlights HighlightSource
	books      exporters.BookSource
	exporter   *exporters.VaultExporter

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	runMu      sync.Mutex
	isRunning  bool
	lastStatus *ExportStatus
}

// NewExportScheduler creates a new scheduler instance
func NewExportScheduler(cfg ExportConfig, highlights HighlightSource, books exporters.BookSource) *ExportScheduler {
	return &ExportScheduler{
		config:     cfg,
		highlights: highlights,
		books:      books,
		exporter:   exporters.NewVaultExporter(cfg.Dir),
		cron:       cron.New(cron.WithParser(cronParser)),
	}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks that schedule is a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Start begins the scheduler if export is enabled. It stops when ctx is done.
func (s *ExportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		slog.Info("export scheduler: disabled")
		return nil
	}

	if s.config.Dir == "" {
		slog.Warn("export scheduler: export directory not configured, skipping")
		return nil
	}

	if err := ValidateCronSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runExport()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	slog.Info("export scheduler: started",
		"schedule", s.config.Schedule,
		"dir", s.config.Dir,
		"next_run", s.cron.Entry(entryID).Next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running export.
func (s *ExportScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	stopped := s.cron.Stop()
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	// A running export records its status under mu, so wait after unlocking
	<-stopped.Done()

	slog.Info("export scheduler: stopped")
}

// RunNow performs an export synchronously and returns its status.
func (s *ExportScheduler) RunNow() ExportStatus {
	return s.runExport()
}

// IsRunning returns whether the scheduler is active
func (s *ExportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next export will occur
func (s *ExportScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// LastStatus returns the outcome of the latest run, or nil before the first.
func (s *ExportScheduler) LastStatus() *ExportStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastStatus == nil {
		return nil
	}
	status := *s.lastStatus
	return &status
}

// runExport performs the actual export. Runs never overlap.
func (s *ExportScheduler) runExport() ExportStatus {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	result, err := s.exporter.Export(s.highlights.Load(), s.books)
	status := ExportStatus{
		LastRun:  start,
		Result:   result,
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		slog.Error("export: failed", "dir", s.config.Dir, "error", err)
	} else {
		slog.Info("export: finished",
			"books", result.BooksProcessed,
			"highlights", result.HighlightsProcessed,
			"failed", result.BooksFailed,
			"duration", status.Duration.Round(time.Millisecond))
	}

	s.mu.Lock()
	s.lastStatus = &status
	s.mu.Unlock()

	return status
}
