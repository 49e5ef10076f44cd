package services_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(offsetMinutes int) *services.ActivityEngine {
	return services.NewActivityEngine(services.DefaultEffortWeights(), offsetMinutes, testLogger())
}

var (
	testWindow = domain.Window{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 7, 23, 59, 59, 0, time.UTC),
	}
	testAgents = []domain.Agent{
		{ID: 1, Name: "Ada"},
		{ID: 2, Name: "Grace"},
	}
	testGroups = []domain.Group{
		{ID: 7, Name: "Billing Team"},
		{ID: 8, Name: "Escalations"},
	}
)

func ptr[T any](v T) *T { return &v }

func conv(ticketID, userID int64, body string, private bool, at time.Time) domain.Conversation {
	return domain.Conversation{
		TicketID:  ticketID,
		UserID:    userID,
		Body:      body,
		Private:   private,
		CreatedAt: at,
	}
}

func TestActivityEngine_ClosedTicketWithActivity(t *testing.T) {
	at := testWindow.Start.Add(24 * time.Hour)
	closedAt := at.Add(2 * time.Hour)

	ticket := &domain.Ticket{
		ID:          100,
		ResponderID: ptr[int64](1),
		GroupID:     ptr[int64](7),
		Status:      domain.StatusClosed,
		UpdatedAt:   closedAt,
		Stats:       &domain.TicketStats{ClosedAt: &closedAt},
		Conversations: []domain.Conversation{
			conv(100, 1, strings.Repeat("a", 80), false, at),
			conv(100, 1, "Marked as spam", true, at.Add(time.Minute)),
		},
	}

	records := newEngine(0).Aggregate([]*domain.Ticket{ticket}, testAgents, testGroups, testWindow)
	require.Len(t, records, 1)

	r := records[0]
	assert.EqualValues(t, 1, r.AgentID)
	assert.Equal(t, "Ada", r.AgentName)
	assert.Equal(t, 1, r.TicketCount)
	assert.Equal(t, 1, r.Responses, "the long public reply")
	assert.Equal(t, 1, r.Actions, "the spam note")
	assert.Equal(t, 1, r.Closed)

	// Long reply 5-7, spam note 1-2, closure 1-2.
	assert.Equal(t, domain.MinuteRange{Min: 7, Max: 11}, r.Minutes)
	assert.InDelta(t, 100.0, r.ActivityShare, 0.001)
}

func TestActivityEngine_AutoClosedTicketEarnsNoCredit(t *testing.T) {
	closedAt := testWindow.Start.Add(24 * time.Hour)

	// Responder is assigned but never spoke on the ticket in the window:
	// the closure was driven by automation.
	ticket := &domain.Ticket{
		ID:          200,
		ResponderID: ptr[int64](2),
		Status:      domain.StatusClosed,
		UpdatedAt:   closedAt,
		Stats:       &domain.TicketStats{ClosedAt: &closedAt},
	}

	records := newEngine(0).Aggregate([]*domain.Ticket{ticket}, testAgents, testGroups, testWindow)
	assert.Empty(t, records, "an untouched closure must not surface the agent at all")
}

func TestActivityEngine_SystemMessagesSkipped(t *testing.T) {
	at := testWindow.Start.Add(time.Hour)
	ticket := &domain.Ticket{
		ID:     300,
		Status: domain.StatusOpen,
		Conversations: []domain.Conversation{
			conv(300, 1, "The System closed this ticket automatically", false, at),
			conv(300, 1, "ticket moved by SYSTEM rule", true, at),
		},
	}

	records := newEngine(0).Aggregate([]*domain.Ticket{ticket}, testAgents, testGroups, testWindow)
	assert.Empty(t, records)
}

func TestActivityEngine_UnknownAuthorsSkipped(t *testing.T) {
	at := testWindow.Start.Add(time.Hour)
	ticket := &domain.Ticket{
		ID:     301,
		Status: domain.StatusOpen,
		Conversations: []domain.Conversation{
			conv(301, 0, "customer message", false, at),
			conv(301, 999, "former employee", false, at),
		},
	}

	records := newEngine(0).Aggregate([]*domain.Ticket{ticket}, testAgents, testGroups, testWindow)
	assert.Empty(t, records)
}

func TestActivityEngine_ConversationsOutsideWindowSkipped(t *testing.T) {
	ticket := &domain.Ticket{
		ID:     302,
		Status: domain.StatusOpen,
		Conversations: []domain.Conversation{
			conv(302, 1, "too early", false, testWindow.Start.Add(-time.Second)),
			conv(302, 1, "too late", false, testWindow.End.Add(time.Second)),
		},
	}

	records := newEngine(0).Aggregate([]*domain.Ticket{ticket}, testAgents, testGroups, testWindow)
	assert.Empty(t, records)
}

func TestActivityEngine_TicketTouchedOnce(t *testing.T) {
	at := testWindow.Start.Add(time.Hour)
	ticket := &domain.Ticket{
		ID:     400,
		Status: domain.StatusOpen,
		Conversations: []domain.Conversation{
			conv(400, 1, "first reply", false, at),
			conv(400, 1, "second reply", false, at.Add(time.Hour)),
			conv(400, 1, "note to self", true, at.Add(2*time.Hour)),
		},
	}

	records := newEngine(0).Aggregate([]*domain.Ticket{ticket}, testAgents, testGroups, testWindow)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].TicketCount, "three conversations on one ticket count one touched ticket")
	assert.Equal(t, 2, records[0].Responses)
	assert.Equal(t, 1, records[0].Actions)
}

func TestActivityEngine_DayBucketingUsesDisplayOffset(t *testing.T) {
	// 23:30 UTC on March 2nd is already March 3rd at UTC+1.
	at := time.Date(2025, 3, 2, 23, 30, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:     500,
		Status: domain.StatusOpen,
		Conversations: []domain.Conversation{
			conv(500, 1, "late shift reply", false, at),
		},
	}

	records := newEngine(60).Aggregate([]*domain.Ticket{ticket}, testAgents, testGroups, testWindow)
	require.Len(t, records, 1)
	require.Contains(t, records[0].Days, "2025-03-03")
	assert.NotContains(t, records[0].Days, "2025-03-02")
}

func TestActivityEngine_MinuteConstraintApplied(t *testing.T) {
	at := testWindow.Start.Add(time.Hour)

	// Two spam notes accumulate 2-4; the constraint tightens max to
	// ceil(1.5*2) = 3.
	ticket := &domain.Ticket{
		ID:     600,
		Status: domain.StatusOpen,
		Conversations: []domain.Conversation{
			conv(600, 1, "marked as spam", true, at),
			conv(600, 1, "marked as spam", true, at.Add(time.Minute)),
		},
	}

	records := newEngine(0).Aggregate([]*domain.Ticket{ticket}, testAgents, testGroups, testWindow)
	require.Len(t, records, 1)
	assert.Equal(t, domain.MinuteRange{Min: 2, Max: 3}, records[0].Minutes)
}

func TestActivityEngine_GroupBreakdown(t *testing.T) {
	at := testWindow.Start.Add(time.Hour)
	closedAt := at.Add(time.Hour)

	tickets := []*domain.Ticket{
		{
			ID: 700, GroupID: ptr[int64](7), ResponderID: ptr[int64](1),
			Status: domain.StatusClosed, UpdatedAt: closedAt,
			Stats:         &domain.TicketStats{ClosedAt: &closedAt},
			Conversations: []domain.Conversation{conv(700, 1, "done", false, at)},
		},
		{
			ID: 701, GroupID: ptr[int64](7), Status: domain.StatusOpen,
			Conversations: []domain.Conversation{conv(701, 1, "looking", false, at)},
		},
		{
			ID: 702, GroupID: ptr[int64](8), Status: domain.StatusOpen,
			Conversations: []domain.Conversation{conv(702, 1, "escalating", false, at)},
		},
		{
			ID: 703, Status: domain.StatusOpen,
			Conversations: []domain.Conversation{conv(703, 1, "groupless", false, at)},
		},
	}

	records := newEngine(0).Aggregate(tickets, testAgents, testGroups, testWindow)
	require.Len(t, records, 1)

	groups := records[0].Groups
	require.Len(t, groups, 3)

	// Sorted by worked descending; suffix-cleaned names.
	assert.Equal(t, "Billing", groups[0].Group)
	assert.Equal(t, 2, groups[0].Worked)
	assert.Equal(t, 1, groups[0].Closed)
	assert.InDelta(t, 50.0, groups[0].Percent, 0.001)

	rest := []string{groups[1].Group, groups[2].Group}
	assert.ElementsMatch(t, []string{"Escalations", "Other"}, rest)
}

func TestActivityEngine_ShareAndOrdering(t *testing.T) {
	at := testWindow.Start.Add(time.Hour)

	tickets := []*domain.Ticket{
		{ID: 800, Status: domain.StatusOpen, Conversations: []domain.Conversation{
			conv(800, 1, "reply", false, at),
		}},
		{ID: 801, Status: domain.StatusOpen, Conversations: []domain.Conversation{
			conv(801, 1, "reply", false, at),
			conv(801, 2, "reply", false, at),
		}},
		{ID: 802, Status: domain.StatusOpen, Conversations: []domain.Conversation{
			conv(802, 1, "reply", false, at),
		}},
	}

	records := newEngine(0).Aggregate(tickets, testAgents, testGroups, testWindow)
	require.Len(t, records, 2)

	assert.Equal(t, "Ada", records[0].AgentName, "most touched tickets first")
	assert.Equal(t, 3, records[0].TicketCount)
	assert.Equal(t, 1, records[1].TicketCount)
	assert.InDelta(t, 75.0, records[0].ActivityShare, 0.001)
	assert.InDelta(t, 25.0, records[1].ActivityShare, 0.001)
}

func TestActivityEngine_EmptyInput(t *testing.T) {
	records := newEngine(0).Aggregate(nil, testAgents, testGroups, testWindow)
	assert.Empty(t, records)

	records = newEngine(0).Aggregate(nil, nil, nil, testWindow)
	assert.Empty(t, records)
}
