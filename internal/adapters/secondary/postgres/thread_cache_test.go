package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

func truncateThreadCache(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), "TRUNCATE helpdesk_thread_cache")
	require.NoError(t, err)
}

func TestThreadCacheRepository_GetMiss(t *testing.T) {
	truncateThreadCache(t)
	repo := NewThreadCacheRepository(testPool)

	thread, err := repo.Get(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, thread)
}

func TestThreadCacheRepository_PutGetRoundTrip(t *testing.T) {
	truncateThreadCache(t)
	repo := NewThreadCacheRepository(testPool)
	ctx := context.Background()

	updatedAt := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	entry := &ports.CachedThread{
		TicketUpdatedAt: updatedAt,
		Conversations: []domain.Conversation{
			{ID: 1, TicketID: 10, UserID: 2, Body: "working on it", Private: true, CreatedAt: updatedAt},
			{ID: 2, TicketID: 10, Body: "thanks", CreatedAt: updatedAt.Add(time.Minute)},
		},
	}
	require.NoError(t, repo.Put(ctx, 10, entry))

	got, err := repo.Get(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.TicketUpdatedAt.Equal(updatedAt))
	assert.Equal(t, entry.Conversations, got.Conversations)
}

func TestThreadCacheRepository_PutUpserts(t *testing.T) {
	truncateThreadCache(t)
	repo := NewThreadCacheRepository(testPool)
	ctx := context.Background()

	first := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, 10, &ports.CachedThread{
		TicketUpdatedAt: first,
		Conversations:   []domain.Conversation{{ID: 1, TicketID: 10, Body: "old"}},
	}))

	second := first.Add(2 * time.Hour)
	require.NoError(t, repo.Put(ctx, 10, &ports.CachedThread{
		TicketUpdatedAt: second,
		Conversations:   []domain.Conversation{{ID: 2, TicketID: 10, Body: "new"}},
	}))

	got, err := repo.Get(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.TicketUpdatedAt.Equal(second))
	require.Len(t, got.Conversations, 1)
	assert.Equal(t, "new", got.Conversations[0].Body)
}

func TestThreadCacheRepository_EmptyThread(t *testing.T) {
	truncateThreadCache(t)
	repo := NewThreadCacheRepository(testPool)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, 11, &ports.CachedThread{
		TicketUpdatedAt: time.Now().UTC(),
	}))

	got, err := repo.Get(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Conversations)
}

func TestThreadCacheRepository_Ping(t *testing.T) {
	repo := NewThreadCacheRepository(testPool)
	assert.NoError(t, repo.Ping(context.Background()))
}
