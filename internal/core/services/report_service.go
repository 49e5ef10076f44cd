package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-metrics-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-metrics-backend/internal/infrastructure/logging"
	"github.com/lorrc/helpdesk-metrics-backend/internal/infrastructure/metrics"
)

// maxWindowSpan caps the report window so one run cannot drain the remote
// quota for hours.
const maxWindowSpan = 92 * 24 * time.Hour

// defaultRetainedRuns bounds the in-memory report history when the
// configuration leaves it unset.
const defaultRetainedRuns = 10

// ReportService runs the acquisition, augmentation and aggregation pipeline
// and retains the most recent finished reports in memory.
type ReportService struct {
	gateway  ports.HelpdeskGateway
	loader   ports.ConversationLoader
	engine   *ActivityEngine
	progress ports.ProgressSink
	logger   *slog.Logger
	metrics  *metrics.Acquisition

	retainedRuns int

	mu      sync.RWMutex
	reports []*domain.ActivityReport
}

var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates the report service. progress may be nil when no
// live progress consumer exists.
func NewReportService(
	gateway ports.HelpdeskGateway,
	loader ports.ConversationLoader,
	engine *ActivityEngine,
	progress ports.ProgressSink,
	retainedRuns int,
	logger *slog.Logger,
	m *metrics.Acquisition,
) *ReportService {
	if retainedRuns < 1 {
		retainedRuns = defaultRetainedRuns
	}
	return &ReportService{
		gateway:      gateway,
		loader:       loader,
		engine:       engine,
		progress:     progress,
		retainedRuns: retainedRuns,
		logger:       logger.With("component", "report_service"),
		metrics:      m,
	}
}

// GenerateActivityReport runs the full pipeline for the window: agents and
// groups, the window's tickets, their conversation threads, then the
// aggregation engine. The result is retained and returned.
func (s *ReportService) GenerateActivityReport(ctx context.Context, window domain.Window) (*domain.ActivityReport, error) {
	if !window.IsValid() {
		return nil, apperrors.ErrInvalidWindow
	}
	if window.End.Sub(window.Start) > maxWindowSpan {
		return nil, apperrors.ErrWindowTooLarge
	}

	runID := uuid.New()
	ctx = logging.WithRunID(ctx, runID.String())
	started := time.Now()

	s.logger.InfoContext(ctx, "report generation started",
		"window_start", window.Start,
		"window_end", window.End,
	)

	agents, err := s.gateway.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	s.publish(runID, "agents", len(agents), len(agents))

	groups, err := s.gateway.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	s.publish(runID, "groups", len(groups), len(groups))

	tickets, err := s.gateway.TicketsUpdatedBetween(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	s.publish(runID, "tickets", len(tickets), len(tickets))

	err = s.loader.AttachConversations(ctx, tickets, func(done, total int) {
		s.publish(runID, "conversations", done, total)
	})
	if err != nil {
		return nil, fmt.Errorf("attach conversations: %w", err)
	}

	report := &domain.ActivityReport{
		RunID:       runID,
		Window:      window,
		GeneratedAt: time.Now().UTC(),
		Records:     s.engine.Aggregate(tickets, agents, groups, window),
	}
	s.retain(report)

	elapsed := time.Since(started)
	s.metrics.ObserveReportDuration(elapsed.Seconds())
	s.logger.InfoContext(ctx, "report generation finished",
		"tickets", len(tickets),
		"agents_reported", len(report.Records),
		"elapsed", elapsed,
	)
	return report, nil
}

// LatestReport returns the most recently generated report, or nil.
func (s *ReportService) LatestReport() *domain.ActivityReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.reports) == 0 {
		return nil
	}
	return s.reports[len(s.reports)-1]
}

// GetReport returns a retained report by run id, or nil.
func (s *ReportService) GetReport(runID uuid.UUID) *domain.ActivityReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.RunID == runID {
			return r
		}
	}
	return nil
}

// ActiveTickets returns the current snapshot of tickets in the requested
// statuses, optionally restricted to groups.
func (s *ReportService) ActiveTickets(ctx context.Context, params ports.ActiveTicketsParams) ([]*domain.Ticket, error) {
	return s.gateway.ActiveTickets(ctx, params.Statuses, params.GroupIDs)
}

// CategorizeTicket writes a local category annotation back to the remote
// ticket.
func (s *ReportService) CategorizeTicket(ctx context.Context, ticketID int64, category string) error {
	if ticketID <= 0 {
		return apperrors.ErrTicketIDRequired
	}
	if strings.TrimSpace(category) == "" {
		return apperrors.ErrCategoryRequired
	}
	return s.gateway.UpdateTicketCategory(ctx, ticketID, category)
}

func (s *ReportService) publish(runID uuid.UUID, stage string, done, total int) {
	if s.progress == nil {
		return
	}
	s.progress.ReportProgress(domain.ProgressEvent{
		RunID: runID,
		Stage: stage,
		Done:  done,
		Total: total,
		At:    time.Now().UTC(),
	})
}

func (s *ReportService) retain(report *domain.ActivityReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	if len(s.reports) > s.retainedRuns {
		s.reports = s.reports[len(s.reports)-s.retainedRuns:]
	}
}
