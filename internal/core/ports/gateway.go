package ports

import (
	"context"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
)

// HelpdeskGateway is the acquisition-side port to the remote ticketing API.
// Implementations own rate limiting, retries and pagination; callers see
// fully drained, typed collections.
type HelpdeskGateway interface {
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	ListGroups(ctx context.Context) ([]domain.Group, error)
	ListTicketFields(ctx context.Context) ([]domain.TicketField, error)

	// ListConversations returns the full message thread of one ticket.
	ListConversations(ctx context.Context, ticketID int64) ([]domain.Conversation, error)

	// UpdateTicketCategory writes the local category annotation back to
	// the remote ticket's custom fields.
	UpdateTicketCategory(ctx context.Context, ticketID int64, category string) error

	// TicketsUpdatedBetween returns every ticket whose updated_at falls
	// inside the window. When the primary list endpoint is not available
	// on the remote plan, a bounded search fallback is used.
	TicketsUpdatedBetween(ctx context.Context, window domain.Window) ([]*domain.Ticket, error)

	// ActiveTickets returns tickets currently in one of the given
	// statuses, optionally restricted to the given groups, de-duplicated
	// by ticket id.
	ActiveTickets(ctx context.Context, statuses []domain.TicketStatus, groupIDs []int64) ([]*domain.Ticket, error)
}
