package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

// ThreadCacheRepository is the Postgres-backed thread cache, for
// deployments that want cache entries durable across restarts without a
// separate Redis.
type ThreadCacheRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ThreadCache = (*ThreadCacheRepository)(nil)

// NewThreadCacheRepository creates a thread cache on an existing pool.
func NewThreadCacheRepository(pool *pgxpool.Pool) *ThreadCacheRepository {
	return &ThreadCacheRepository{pool: pool}
}

// Get returns the cached thread, or (nil, nil) on a miss.
func (r *ThreadCacheRepository) Get(ctx context.Context, ticketID int64) (*ports.CachedThread, error) {
	const query = `
		SELECT ticket_updated_at, conversations
		FROM helpdesk_thread_cache
		WHERE ticket_id = $1`

	var (
		thread ports.CachedThread
		raw    []byte
	)
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(&thread.TicketUpdatedAt, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached thread %d: %w", ticketID, err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &thread.Conversations); err != nil {
			return nil, fmt.Errorf("decode cached thread %d: %w", ticketID, err)
		}
	}
	return &thread, nil
}

// Put upserts the thread for the ticket.
func (r *ThreadCacheRepository) Put(ctx context.Context, ticketID int64, thread *ports.CachedThread) error {
	conversations := thread.Conversations
	if conversations == nil {
		conversations = []domain.Conversation{}
	}
	raw, err := json.Marshal(conversations)
	if err != nil {
		return fmt.Errorf("encode thread %d: %w", ticketID, err)
	}

	const query = `
		INSERT INTO helpdesk_thread_cache (ticket_id, ticket_updated_at, conversations, cached_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (ticket_id) DO UPDATE
		SET ticket_updated_at = EXCLUDED.ticket_updated_at,
		    conversations = EXCLUDED.conversations,
		    cached_at = EXCLUDED.cached_at`

	if _, err := r.pool.Exec(ctx, query, ticketID, thread.TicketUpdatedAt, raw); err != nil {
		return fmt.Errorf("store cached thread %d: %w", ticketID, err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *ThreadCacheRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
