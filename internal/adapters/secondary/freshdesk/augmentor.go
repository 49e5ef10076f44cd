package freshdesk

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-metrics-backend/internal/infrastructure/metrics"
)

// augmentorBatchSize is how many tickets are augmented concurrently before
// the next batch starts; actual request concurrency stays bounded by the
// shared scheduler underneath.
const augmentorBatchSize = 50

// threadFetcher is the slice of the gateway the augmentor needs.
type threadFetcher interface {
	ListConversations(ctx context.Context, ticketID int64) ([]domain.Conversation, error)
}

// Augmentor attaches conversation threads to tickets in bounded batches,
// reusing cache entries that are still valid for the ticket's current
// updated_at.
type Augmentor struct {
	fetcher threadFetcher
	cache   ports.ThreadCache
	logger  *slog.Logger
	metrics *metrics.Acquisition
}

var _ ports.ConversationLoader = (*Augmentor)(nil)

// NewAugmentor creates an augmentor. cache may be nil to disable caching.
func NewAugmentor(fetcher threadFetcher, cache ports.ThreadCache, logger *slog.Logger, m *metrics.Acquisition) *Augmentor {
	return &Augmentor{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger.With("component", "thread_augmentor"),
		metrics: m,
	}
}

// AttachConversations fills in the Conversations of every ticket. Tickets
// are processed in fixed-size batches; each batch is awaited before the
// next starts and progress is reported after each one. A single ticket's
// fetch failure degrades to an empty thread rather than aborting the batch.
func (a *Augmentor) AttachConversations(ctx context.Context, tickets []*domain.Ticket, progress ports.ProgressFunc) error {
	total := len(tickets)
	done := 0

	for start := 0; start < total; start += augmentorBatchSize {
		end := start + augmentorBatchSize
		if end > total {
			end = total
		}
		batch := tickets[start:end]

		var wg sync.WaitGroup
		for _, ticket := range batch {
			wg.Add(1)
			go func(t *domain.Ticket) {
				defer wg.Done()
				t.Conversations = a.loadThread(ctx, t)
			}(ticket)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return err
		}

		done += len(batch)
		if progress != nil {
			progress(done, total)
		}
	}
	return nil
}

// loadThread returns the ticket's conversations from cache when the entry
// is at least as fresh as the ticket's updated_at, and from the network
// otherwise. Failures degrade to an empty thread and are never cached.
func (a *Augmentor) loadThread(ctx context.Context, t *domain.Ticket) []domain.Conversation {
	if a.cache != nil {
		cached, err := a.cache.Get(ctx, t.ID)
		switch {
		case err != nil:
			a.logger.Warn("thread cache read failed",
				"ticket_id", t.ID,
				"error", err,
			)
		case cached != nil && !cached.TicketUpdatedAt.Before(t.UpdatedAt):
			a.metrics.RecordCacheLookup(true)
			return cached.Conversations
		}
	}
	a.metrics.RecordCacheLookup(false)

	conversations, err := a.fetcher.ListConversations(ctx, t.ID)
	if err != nil {
		a.logger.Warn("thread fetch failed, continuing with empty thread",
			"ticket_id", t.ID,
			"error", err,
		)
		return nil
	}

	if a.cache != nil {
		entry := &ports.CachedThread{
			TicketUpdatedAt: t.UpdatedAt,
			Conversations:   conversations,
		}
		if err := a.cache.Put(ctx, t.ID, entry); err != nil {
			a.logger.Warn("thread cache write failed",
				"ticket_id", t.ID,
				"error", err,
			)
		}
	}
	return conversations
}
