package freshdesk

import (
	"time"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
)

// Wire shapes of the remote API. Kept separate from the domain types so
// remote field renames stay contained in this package.

type agentDTO struct {
	ID      int64 `json:"id"`
	Contact struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"contact"`
}

func (d agentDTO) toDomain() domain.Agent {
	return domain.Agent{
		ID:    d.ID,
		Name:  d.Contact.Name,
		Email: d.Contact.Email,
	}
}

type groupDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (d groupDTO) toDomain() domain.Group {
	return domain.Group{ID: d.ID, Name: d.Name}
}

type ticketFieldDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

func (d ticketFieldDTO) toDomain() domain.TicketField {
	return domain.TicketField{ID: d.ID, Name: d.Name, Label: d.Label, Type: d.Type}
}

type ticketStatsDTO struct {
	ReopenedAt *time.Time `json:"reopened_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
	ClosedAt   *time.Time `json:"closed_at"`
}

type ticketDTO struct {
	ID          int64           `json:"id"`
	RequesterID int64           `json:"requester_id"`
	ResponderID *int64          `json:"responder_id"`
	GroupID     *int64          `json:"group_id"`
	Subject     string          `json:"subject"`
	Description string          `json:"description_text"`
	Status      int             `json:"status"`
	Priority    int             `json:"priority"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Stats       *ticketStatsDTO `json:"stats"`
}

func (d ticketDTO) toDomain() *domain.Ticket {
	t := &domain.Ticket{
		ID:          d.ID,
		RequesterID: d.RequesterID,
		ResponderID: d.ResponderID,
		GroupID:     d.GroupID,
		Subject:     d.Subject,
		Description: d.Description,
		Status:      domain.TicketStatus(d.Status),
		Priority:    domain.TicketPriority(d.Priority),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Stats != nil {
		t.Stats = &domain.TicketStats{
			ReopenedAt: d.Stats.ReopenedAt,
			ResolvedAt: d.Stats.ResolvedAt,
			ClosedAt:   d.Stats.ClosedAt,
		}
	}
	return t
}

type conversationDTO struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	UserID    int64     `json:"user_id"`
	Body      string    `json:"body_text"`
	Private   bool      `json:"private"`
	Source    int       `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func (d conversationDTO) toDomain() domain.Conversation {
	return domain.Conversation{
		ID:        d.ID,
		TicketID:  d.TicketID,
		UserID:    d.UserID,
		Body:      d.Body,
		Private:   d.Private,
		Source:    domain.ConversationSource(d.Source),
		CreatedAt: d.CreatedAt,
	}
}

func ticketsToDomain(dtos []ticketDTO) []*domain.Ticket {
	tickets := make([]*domain.Ticket, len(dtos))
	for i, dto := range dtos {
		tickets[i] = dto.toDomain()
	}
	return tickets
}
