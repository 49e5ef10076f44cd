package domain

import (
	"time"
)

// TicketStatus is the remote helpdesk API's numeric status enum.
type TicketStatus int

const (
	StatusOpen     TicketStatus = 2
	StatusPending  TicketStatus = 3
	StatusResolved TicketStatus = 4
	StatusClosed   TicketStatus = 5
)

// IsTerminal reports whether the status marks a finished ticket.
func (s TicketStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// TicketPriority follows the remote API's 1 (low) to 4 (urgent) scale.
type TicketPriority int

const (
	PriorityLow    TicketPriority = 1
	PriorityMedium TicketPriority = 2
	PriorityHigh   TicketPriority = 3
	PriorityUrgent TicketPriority = 4
)

// TicketStats is the optional lifecycle block attached to a ticket.
type TicketStats struct {
	ReopenedAt *time.Time `json:"reopenedAt,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
}

// Ticket is a helpdesk ticket as acquired from the remote API.
// It is immutable from this system's perspective except for the locally
// applied Category annotation and the attached conversation thread.
type Ticket struct {
	ID          int64          `json:"id"`
	RequesterID int64          `json:"requesterId"`
	ResponderID *int64         `json:"responderId,omitempty"`
	GroupID     *int64         `json:"groupId,omitempty"`
	Subject     string         `json:"subject"`
	Description string         `json:"description,omitempty"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Stats       *TicketStats   `json:"stats,omitempty"`

	// Category is a local annotation written back to the remote ticket's
	// custom fields; never supplied by the remote list endpoints.
	Category string `json:"category,omitempty"`

	// Conversations is filled in by the batch augmentor.
	Conversations []Conversation `json:"conversations,omitempty"`
}

// ClosureTime returns the instant this ticket is considered closed:
// closed_at when present, else resolved_at, else updated_at.
func (t *Ticket) ClosureTime() time.Time {
	if t.Stats != nil {
		if t.Stats.ClosedAt != nil {
			return *t.Stats.ClosedAt
		}
		if t.Stats.ResolvedAt != nil {
			return *t.Stats.ResolvedAt
		}
	}
	return t.UpdatedAt
}

// ConversationSource is the remote API's numeric channel code.
type ConversationSource int

// Conversation is one entry of a ticket's message thread, append-only and
// ordered by creation time on the remote side. UserID is zero when the
// remote API omits the author (requester-side messages).
type Conversation struct {
	ID        int64              `json:"id"`
	TicketID  int64              `json:"ticketId"`
	UserID    int64              `json:"userId"`
	Body      string             `json:"body"`
	Private   bool               `json:"private"`
	Source    ConversationSource `json:"source"`
	CreatedAt time.Time          `json:"createdAt"`
}

// TicketField describes one configurable field of the remote ticket form.
type TicketField struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}
