package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/pantrycoach/backend/internal/service"
)

// MockAssistantService is a mock implementation of IAssistantService
type MockAssistantService struct {
	mock.Mock
}

var _ service.IAssistantService = (*MockAssistantService)(nil)

func (m *MockAssistantService) Turn(ctx context.Context, userID uuid.UUID, text string, conversationID *string) (*service.TurnResult, error) {
	args := m.Called(ctx, userID, text, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TurnResult), args.Error(1)
}

// MockTranscriptArchiver is a mock implementation of ITranscriptArchiver
type MockTranscriptArchiver struct {
	mock.Mock
}

var _ service.ITranscriptArchiver = (*MockTranscriptArchiver)(nil)

func (m *MockTranscriptArchiver) Export(ctx context.Context, userID, conversationID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID, conversationID)
	return args.String(0), args.Error(1)
}
