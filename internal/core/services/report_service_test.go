package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-metrics-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/services"
)

func newReportService(gateway *mocks.MockHelpdeskGateway, loader *mocks.MockConversationLoader, sink ports.ProgressSink) *services.ReportService {
	engine := services.NewActivityEngine(services.DefaultEffortWeights(), 0, testLogger())
	return services.NewReportService(gateway, loader, engine, sink, 3, testLogger(), nil)
}

func TestReportService_GenerateActivityReport(t *testing.T) {
	ctx := context.Background()
	window := domain.Window{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	at := window.Start.Add(time.Hour)

	t.Run("success", func(t *testing.T) {
		gateway := mocks.NewMockHelpdeskGateway()
		loader := mocks.NewMockConversationLoader()
		svc := newReportService(gateway, loader, nil)

		tickets := []*domain.Ticket{{ID: 1, Status: domain.StatusOpen, UpdatedAt: at}}

		gateway.On("ListAgents", mock.Anything).Return([]domain.Agent{{ID: 1, Name: "Ada"}}, nil)
		gateway.On("ListGroups", mock.Anything).Return([]domain.Group{{ID: 7, Name: "Billing"}}, nil)
		gateway.On("TicketsUpdatedBetween", mock.Anything, window).Return(tickets, nil)
		loader.On("AttachConversations", mock.Anything, tickets, mock.Anything).
			Run(func(args mock.Arguments) {
				// The loader fills threads in place.
				ts := args.Get(1).([]*domain.Ticket)
				ts[0].Conversations = []domain.Conversation{{
					TicketID: 1, UserID: 1, Body: "on it", CreatedAt: at,
				}}
			}).
			Return(nil)

		report, err := svc.GenerateActivityReport(ctx, window)

		require.NoError(t, err)
		require.NotNil(t, report)
		assert.NotEqual(t, uuid.Nil, report.RunID)
		assert.Equal(t, window, report.Window)
		require.Len(t, report.Records, 1)
		assert.Equal(t, "Ada", report.Records[0].AgentName)

		assert.Same(t, report, svc.LatestReport())
		assert.Same(t, report, svc.GetReport(report.RunID))

		gateway.AssertExpectations(t)
		loader.AssertExpectations(t)
	})

	t.Run("invalid window", func(t *testing.T) {
		svc := newReportService(mocks.NewMockHelpdeskGateway(), mocks.NewMockConversationLoader(), nil)

		_, err := svc.GenerateActivityReport(ctx, domain.Window{Start: window.End, End: window.Start})
		assert.ErrorIs(t, err, apperrors.ErrInvalidWindow)
	})

	t.Run("window too large", func(t *testing.T) {
		svc := newReportService(mocks.NewMockHelpdeskGateway(), mocks.NewMockConversationLoader(), nil)

		_, err := svc.GenerateActivityReport(ctx, domain.Window{
			Start: window.Start,
			End:   window.Start.AddDate(1, 0, 0),
		})
		assert.ErrorIs(t, err, apperrors.ErrWindowTooLarge)
	})

	t.Run("gateway error propagates", func(t *testing.T) {
		gateway := mocks.NewMockHelpdeskGateway()
		loader := mocks.NewMockConversationLoader()
		svc := newReportService(gateway, loader, nil)

		gateway.On("ListAgents", mock.Anything).Return(nil, assert.AnError)

		_, err := svc.GenerateActivityReport(ctx, window)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, svc.LatestReport(), "a failed run must not be retained")
	})

	t.Run("progress events forwarded", func(t *testing.T) {
		gateway := mocks.NewMockHelpdeskGateway()
		loader := mocks.NewMockConversationLoader()
		sink := mocks.NewMockProgressSink()
		svc := newReportService(gateway, loader, sink)

		tickets := []*domain.Ticket{{ID: 1, Status: domain.StatusOpen, UpdatedAt: at}}

		gateway.On("ListAgents", mock.Anything).Return([]domain.Agent{}, nil)
		gateway.On("ListGroups", mock.Anything).Return([]domain.Group{}, nil)
		gateway.On("TicketsUpdatedBetween", mock.Anything, window).Return(tickets, nil)
		loader.On("AttachConversations", mock.Anything, tickets, mock.Anything).
			Run(func(args mock.Arguments) {
				progress := args.Get(2).(ports.ProgressFunc)
				progress(1, 1)
			}).
			Return(nil)

		var stages []string
		sink.On("ReportProgress", mock.Anything).Run(func(args mock.Arguments) {
			stages = append(stages, args.Get(0).(domain.ProgressEvent).Stage)
		})

		_, err := svc.GenerateActivityReport(ctx, window)
		require.NoError(t, err)
		assert.Equal(t, []string{"agents", "groups", "tickets", "conversations"}, stages)
	})
}

func TestReportService_Retention(t *testing.T) {
	ctx := context.Background()
	gateway := mocks.NewMockHelpdeskGateway()
	loader := mocks.NewMockConversationLoader()
	svc := newReportService(gateway, loader, nil)

	gateway.On("ListAgents", mock.Anything).Return([]domain.Agent{}, nil)
	gateway.On("ListGroups", mock.Anything).Return([]domain.Group{}, nil)
	gateway.On("TicketsUpdatedBetween", mock.Anything, mock.Anything).Return([]*domain.Ticket{}, nil)
	loader.On("AttachConversations", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	window := domain.Window{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	var first *domain.ActivityReport
	for i := 0; i < 4; i++ {
		report, err := svc.GenerateActivityReport(ctx, window)
		require.NoError(t, err)
		if i == 0 {
			first = report
		}
	}

	// Retention is 3: the oldest run has been evicted.
	assert.Nil(t, svc.GetReport(first.RunID))
	assert.NotNil(t, svc.LatestReport())
}

func TestReportService_ActiveTickets(t *testing.T) {
	ctx := context.Background()
	gateway := mocks.NewMockHelpdeskGateway()
	svc := newReportService(gateway, mocks.NewMockConversationLoader(), nil)

	params := ports.ActiveTicketsParams{
		Statuses: []domain.TicketStatus{domain.StatusOpen},
		GroupIDs: []int64{7},
	}
	want := []*domain.Ticket{{ID: 1}}
	gateway.On("ActiveTickets", mock.Anything, params.Statuses, params.GroupIDs).Return(want, nil)

	got, err := svc.ActiveTickets(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	gateway.AssertExpectations(t)
}

func TestReportService_CategorizeTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		gateway := mocks.NewMockHelpdeskGateway()
		svc := newReportService(gateway, mocks.NewMockConversationLoader(), nil)

		gateway.On("UpdateTicketCategory", mock.Anything, int64(42), "billing").Return(nil)
		require.NoError(t, svc.CategorizeTicket(ctx, 42, "billing"))
		gateway.AssertExpectations(t)
	})

	t.Run("requires ticket id", func(t *testing.T) {
		svc := newReportService(mocks.NewMockHelpdeskGateway(), mocks.NewMockConversationLoader(), nil)
		assert.ErrorIs(t, svc.CategorizeTicket(ctx, 0, "billing"), apperrors.ErrTicketIDRequired)
	})

	t.Run("requires category", func(t *testing.T) {
		svc := newReportService(mocks.NewMockHelpdeskGateway(), mocks.NewMockConversationLoader(), nil)
		assert.ErrorIs(t, svc.CategorizeTicket(ctx, 42, "   "), apperrors.ErrCategoryRequired)
	})
}
