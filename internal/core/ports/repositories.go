package ports

import (
	"context"
	"time"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
)

// CachedThread is one cached conversation thread. TicketUpdatedAt records
// the ticket's updated_at at the moment the thread was fetched; the entry
// is stale once the ticket has changed since.
type CachedThread struct {
	TicketUpdatedAt time.Time             `json:"ticketUpdatedAt"`
	Conversations   []domain.Conversation `json:"conversations"`
}

// ThreadCache stores conversation threads keyed by ticket id. A lost update
// under concurrent writers to the same key is acceptable: the value is a
// pure function of ticket id and updated_at and is recomputed on miss.
type ThreadCache interface {
	// Get returns the cached thread, or (nil, nil) on a miss.
	Get(ctx context.Context, ticketID int64) (*CachedThread, error)
	Put(ctx context.Context, ticketID int64, thread *CachedThread) error
	Ping(ctx context.Context) error
}
