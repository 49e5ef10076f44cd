package freshdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-metrics-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

const (
	agentsPath        = "/api/v2/agents"
	groupsPath        = "/api/v2/groups"
	ticketFieldsPath  = "/api/v2/ticket_fields"
	ticketsPath       = "/api/v2/tickets"
	searchTicketsPath = "/api/v2/search/tickets"

	// maxFallbackPages bounds the search fallback for the updated-window
	// query: search requests are more expensive against the shared quota
	// than plain list pages.
	maxFallbackPages = 5
)

// Gateway implements ports.HelpdeskGateway against the remote REST API.
type Gateway struct {
	client *Client
	logger *slog.Logger
}

var _ ports.HelpdeskGateway = (*Gateway)(nil)

// NewGateway creates a gateway on top of the given client.
func NewGateway(client *Client, logger *slog.Logger) *Gateway {
	return &Gateway{
		client: client,
		logger: logger.With("component", "helpdesk_gateway"),
	}
}

// ListAgents returns all agents of the helpdesk account.
func (g *Gateway) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	dtos, err := fetchAllPages[agentDTO](ctx, g.client, agentsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	agents := make([]domain.Agent, len(dtos))
	for i, dto := range dtos {
		agents[i] = dto.toDomain()
	}
	return agents, nil
}

// ListGroups returns all agent groups.
func (g *Gateway) ListGroups(ctx context.Context) ([]domain.Group, error) {
	dtos, err := fetchAllPages[groupDTO](ctx, g.client, groupsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := make([]domain.Group, len(dtos))
	for i, dto := range dtos {
		groups[i] = dto.toDomain()
	}
	return groups, nil
}

// ListTicketFields returns the ticket form's field definitions.
func (g *Gateway) ListTicketFields(ctx context.Context) ([]domain.TicketField, error) {
	body, err := g.client.get(ctx, ticketFieldsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list ticket fields: %w", err)
	}
	var dtos []ticketFieldDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("decode ticket fields: %w", err)
	}
	fields := make([]domain.TicketField, len(dtos))
	for i, dto := range dtos {
		fields[i] = dto.toDomain()
	}
	return fields, nil
}

// ListConversations returns the full message thread of one ticket.
func (g *Gateway) ListConversations(ctx context.Context, ticketID int64) ([]domain.Conversation, error) {
	path := fmt.Sprintf("%s/%d/conversations", ticketsPath, ticketID)
	dtos, err := fetchAllPages[conversationDTO](ctx, g.client, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list conversations for ticket %d: %w", ticketID, err)
	}
	conversations := make([]domain.Conversation, len(dtos))
	for i, dto := range dtos {
		conversations[i] = dto.toDomain()
		if conversations[i].TicketID == 0 {
			conversations[i].TicketID = ticketID
		}
	}
	return conversations, nil
}

// UpdateTicketCategory writes the local category annotation to the remote
// ticket's custom fields.
func (g *Gateway) UpdateTicketCategory(ctx context.Context, ticketID int64, category string) error {
	payload := map[string]any{
		"custom_fields": map[string]any{
			"category": category,
		},
	}
	path := fmt.Sprintf("%s/%d", ticketsPath, ticketID)
	if _, err := g.client.put(ctx, path, payload); err != nil {
		return fmt.Errorf("update ticket %d category: %w", ticketID, err)
	}
	return nil
}

// TicketsUpdatedBetween returns every ticket whose updated_at falls inside
// the window. The remote list endpoint only supports a lower bound, so the
// upper bound is applied locally. When the endpoint is rejected outright
// (a plan or permission limitation surfacing as 403 or 400) a bounded
// search query takes over.
func (g *Gateway) TicketsUpdatedBetween(ctx context.Context, window domain.Window) ([]*domain.Ticket, error) {
	query := url.Values{}
	query.Set("updated_since", window.Start.UTC().Format(time.RFC3339))
	query.Set("order_by", "updated_at")
	query.Set("order_type", "asc")

	dtos, err := fetchAllPages[ticketDTO](ctx, g.client, ticketsPath, query)
	if err != nil {
		if apiErr, ok := apperrors.AsAPIError(err); ok &&
			(apiErr.StatusCode == 403 || apiErr.StatusCode == 400) {
			g.logger.Warn("ticket list endpoint rejected, falling back to search",
				"status", apiErr.StatusCode,
			)
			return g.searchTicketsUpdatedBetween(ctx, window)
		}
		return nil, fmt.Errorf("tickets updated since %s: %w", window.Start, err)
	}

	return filterByUpdatedAt(ticketsToDomain(dtos), window), nil
}

// searchTicketsUpdatedBetween is the fallback path for accounts whose plan
// does not expose the filtered list endpoint.
func (g *Gateway) searchTicketsUpdatedBetween(ctx context.Context, window domain.Window) ([]*domain.Ticket, error) {
	// The search grammar only supports whole-day comparisons.
	day := window.Start.UTC().AddDate(0, 0, -1).Format("2006-01-02")
	query := fmt.Sprintf("updated_at:>'%s'", day)

	dtos, _, err := searchAllPages[ticketDTO](ctx, g.client, searchTicketsPath, query, maxFallbackPages)
	if err != nil {
		return nil, fmt.Errorf("search tickets updated since %s: %w", window.Start, err)
	}
	return filterByUpdatedAt(ticketsToDomain(dtos), window), nil
}

// ActiveTickets returns tickets currently in one of the given statuses,
// optionally restricted to the given groups. The search grammar cannot
// express "any of these groups" efficiently in one query, so one search is
// issued per group, run concurrently under the shared scheduler, and the
// results are merged de-duplicated by ticket id.
func (g *Gateway) ActiveTickets(ctx context.Context, statuses []domain.TicketStatus, groupIDs []int64) ([]*domain.Ticket, error) {
	if len(statuses) == 0 {
		statuses = []domain.TicketStatus{domain.StatusOpen, domain.StatusPending}
	}
	clause := statusClause(statuses)

	if len(groupIDs) == 0 {
		dtos, _, err := searchAllPages[ticketDTO](ctx, g.client, searchTicketsPath, clause, maxSearchPages)
		if err != nil {
			return nil, fmt.Errorf("search active tickets: %w", err)
		}
		return dedupeTickets(ticketsToDomain(dtos)), nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		tickets []*domain.Ticket
	)
	for _, groupID := range groupIDs {
		wg.Add(1)
		go func(groupID int64) {
			defer wg.Done()
			query := fmt.Sprintf("%s AND group_id:%d", clause, groupID)
			dtos, _, err := searchAllPages[ticketDTO](ctx, g.client, searchTicketsPath, query, maxSearchPages)
			if err != nil {
				// One group's failure reduces completeness, it
				// does not abort the snapshot.
				g.logger.Warn("active-ticket search failed for group",
					"group_id", groupID,
					"error", err,
				)
				return
			}
			mu.Lock()
			tickets = append(tickets, ticketsToDomain(dtos)...)
			mu.Unlock()
		}(groupID)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dedupeTickets(tickets), nil
}

func statusClause(statuses []domain.TicketStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = fmt.Sprintf("status:%d", int(s))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func filterByUpdatedAt(tickets []*domain.Ticket, window domain.Window) []*domain.Ticket {
	filtered := make([]*domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if window.Contains(t.UpdatedAt) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// dedupeTickets drops duplicate ids, keeping the first occurrence, and
// returns the result in id order for stable output.
func dedupeTickets(tickets []*domain.Ticket) []*domain.Ticket {
	seen := make(map[int64]struct{}, len(tickets))
	unique := make([]*domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		unique = append(unique, t)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].ID < unique[j].ID })
	return unique
}
