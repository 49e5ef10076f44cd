package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

// ReportScheduler runs a previous-day activity report on a cron schedule.
type ReportScheduler struct {
	service  ports.ReportService
	cron     *cron.Cron
	location *time.Location
	logger   *slog.Logger
}

// NewReportScheduler creates a scheduler. utcOffsetMinutes defines which
// calendar day counts as "yesterday" for the scheduled window.
func NewReportScheduler(service ports.ReportService, utcOffsetMinutes int, logger *slog.Logger) *ReportScheduler {
	location := time.FixedZone("display", utcOffsetMinutes*60)
	return &ReportScheduler{
		service:  service,
		cron:     cron.New(cron.WithLocation(location)),
		location: location,
		logger:   logger.With("component", "report_scheduler"),
	}
}

// Start registers the schedule and starts the cron loop. An empty schedule
// leaves the scheduler idle.
func (s *ReportScheduler) Start(schedule string) error {
	if schedule == "" {
		s.logger.Info("no report schedule configured, scheduler idle")
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, s.runPreviousDay); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("report scheduler started", "schedule", schedule)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *ReportScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runPreviousDay generates the report for yesterday's full calendar day in
// the display timezone.
func (s *ReportScheduler) runPreviousDay() {
	now := time.Now().In(s.location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	window := domain.Window{
		Start: dayStart.AddDate(0, 0, -1),
		End:   dayStart.Add(-time.Nanosecond),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	report, err := s.service.GenerateActivityReport(ctx, window)
	if err != nil {
		s.logger.Error("scheduled report failed",
			"window_start", window.Start,
			"window_end", window.End,
			"error", err,
		)
		return
	}
	s.logger.Info("scheduled report finished",
		"run_id", report.RunID,
		"agents_reported", len(report.Records),
	)
}
