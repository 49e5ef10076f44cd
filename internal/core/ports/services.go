package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
)

// ProgressFunc receives incremental completion counts for one stage.
type ProgressFunc func(done, total int)

// ConversationLoader attaches conversation threads to a ticket set without
// exceeding the shared request quota, reusing still-valid cache entries.
type ConversationLoader interface {
	AttachConversations(ctx context.Context, tickets []*domain.Ticket, progress ProgressFunc) error
}

// ProgressSink receives progress events of running report generations.
type ProgressSink interface {
	ReportProgress(event domain.ProgressEvent)
}

// ActiveTicketsParams filters the active-ticket snapshot query.
type ActiveTicketsParams struct {
	Statuses []domain.TicketStatus
	GroupIDs []int64
}

// ReportService generates per-agent activity reports.
type ReportService interface {
	// GenerateActivityReport runs the full acquisition, augmentation and
	// aggregation pipeline for the window.
	GenerateActivityReport(ctx context.Context, window domain.Window) (*domain.ActivityReport, error)

	// LatestReport returns the most recently generated report, or nil.
	LatestReport() *domain.ActivityReport

	// GetReport returns a retained report by run id, or nil.
	GetReport(runID uuid.UUID) *domain.ActivityReport

	// ActiveTickets returns the current active-ticket snapshot.
	ActiveTickets(ctx context.Context, params ActiveTicketsParams) ([]*domain.Ticket, error)

	// CategorizeTicket applies a local category annotation to a ticket.
	CategorizeTicket(ctx context.Context, ticketID int64, category string) error
}
