package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
)

func TestTicketStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.StatusOpen.IsTerminal())
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.True(t, domain.StatusResolved.IsTerminal())
	assert.True(t, domain.StatusClosed.IsTerminal())
}

func TestTicket_ClosureTime(t *testing.T) {
	updated := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	resolved := updated.Add(-2 * time.Hour)
	closed := updated.Add(-time.Hour)

	t.Run("prefers closed_at", func(t *testing.T) {
		ticket := &domain.Ticket{
			UpdatedAt: updated,
			Stats:     &domain.TicketStats{ResolvedAt: &resolved, ClosedAt: &closed},
		}
		assert.Equal(t, closed, ticket.ClosureTime())
	})

	t.Run("falls back to resolved_at", func(t *testing.T) {
		ticket := &domain.Ticket{
			UpdatedAt: updated,
			Stats:     &domain.TicketStats{ResolvedAt: &resolved},
		}
		assert.Equal(t, resolved, ticket.ClosureTime())
	})

	t.Run("falls back to updated_at", func(t *testing.T) {
		assert.Equal(t, updated, (&domain.Ticket{UpdatedAt: updated}).ClosureTime())
		assert.Equal(t, updated, (&domain.Ticket{UpdatedAt: updated, Stats: &domain.TicketStats{}}).ClosureTime())
	})
}

func TestCleanGroupName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Billing Team", "Billing"},
		{"Billing Support", "Billing"},
		{"Escalations queue", "Escalations"},
		{"Tier 2 Support Team", "Tier 2"},
		{"  Networking  ", "Networking"},
		{"", "Other"},
		{"Unknown", "Other"},
		{"unknown", "Other"},
		{"Support Team", "Support"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CleanGroupName(tt.raw))
		})
	}
}
