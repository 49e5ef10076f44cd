package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

// MockHelpdeskGateway is a mock implementation of ports.HelpdeskGateway
type MockHelpdeskGateway struct {
	mock.Mock
}

func NewMockHelpdeskGateway() *MockHelpdeskGateway {
	return &MockHelpdeskGateway{}
}

func (m *MockHelpdeskGateway) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Agent), args.Error(1)
}

func (m *MockHelpdeskGateway) ListGroups(ctx context.Context) ([]domain.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Group), args.Error(1)
}

func (m *MockHelpdeskGateway) ListTicketFields(ctx context.Context) ([]domain.TicketField, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketField), args.Error(1)
}

func (m *MockHelpdeskGateway) ListConversations(ctx context.Context, ticketID int64) ([]domain.Conversation, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Conversation), args.Error(1)
}

func (m *MockHelpdeskGateway) UpdateTicketCategory(ctx context.Context, ticketID int64, category string) error {
	args := m.Called(ctx, ticketID, category)
	return args.Error(0)
}

func (m *MockHelpdeskGateway) TicketsUpdatedBetween(ctx context.Context, window domain.Window) ([]*domain.Ticket, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockHelpdeskGateway) ActiveTickets(ctx context.Context, statuses []domain.TicketStatus, groupIDs []int64) ([]*domain.Ticket, error) {
	args := m.Called(ctx, statuses, groupIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

// MockThreadCache is a mock implementation of ports.ThreadCache
type MockThreadCache struct {
	mock.Mock
}

func NewMockThreadCache() *MockThreadCache {
	return &MockThreadCache{}
}

func (m *MockThreadCache) Get(ctx context.Context, ticketID int64) (*ports.CachedThread, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.CachedThread), args.Error(1)
}

func (m *MockThreadCache) Put(ctx context.Context, ticketID int64, thread *ports.CachedThread) error {
	args := m.Called(ctx, ticketID, thread)
	return args.Error(0)
}

func (m *MockThreadCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockConversationLoader is a mock implementation of ports.ConversationLoader
type MockConversationLoader struct {
	mock.Mock
}

func NewMockConversationLoader() *MockConversationLoader {
	return &MockConversationLoader{}
}

func (m *MockConversationLoader) AttachConversations(ctx context.Context, tickets []*domain.Ticket, progress ports.ProgressFunc) error {
	args := m.Called(ctx, tickets, progress)
	return args.Error(0)
}

// MockProgressSink is a mock implementation of ports.ProgressSink
type MockProgressSink struct {
	mock.Mock
}

func NewMockProgressSink() *MockProgressSink {
	return &MockProgressSink{}
}

func (m *MockProgressSink) ReportProgress(event domain.ProgressEvent) {
	m.Called(event)
}

// MockReportService is a mock implementation of ports.ReportService
type MockReportService struct {
	mock.Mock
}

func NewMockReportService() *MockReportService {
	return &MockReportService{}
}

func (m *MockReportService) GenerateActivityReport(ctx context.Context, window domain.Window) (*domain.ActivityReport, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActivityReport), args.Error(1)
}

func (m *MockReportService) LatestReport() *domain.ActivityReport {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.ActivityReport)
}

func (m *MockReportService) GetReport(runID uuid.UUID) *domain.ActivityReport {
	args := m.Called(runID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.ActivityReport)
}

func (m *MockReportService) ActiveTickets(ctx context.Context, params ports.ActiveTicketsParams) ([]*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockReportService) CategorizeTicket(ctx context.Context, ticketID int64, category string) error {
	args := m.Called(ctx, ticketID, category)
	return args.Error(0)
}
