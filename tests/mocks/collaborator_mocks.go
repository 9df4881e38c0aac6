package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wildtrack/ornitela-ingest/internal/models"
	"github.com/wildtrack/ornitela-ingest/pkg/identity"
)

// MockSender is a mock implementation of the delivery Sender interface.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendBatch(ctx context.Context, events []models.NormalizedEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockLocker is a mock implementation of the file lock collaborator.
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, scopeID, fileName string) (bool, error) {
	args := m.Called(ctx, scopeID, fileName)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, scopeID, fileName string) (bool, error) {
	args := m.Called(ctx, scopeID, fileName)
	return args.Bool(0), args.Error(1)
}

// MockStateStore is a mock implementation of the state store collaborator.
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Get(ctx context.Context, scopeID string) (models.FileProcessingState, error) {
	args := m.Called(ctx, scopeID)
	return args.Get(0).(models.FileProcessingState), args.Error(1)
}

func (m *MockStateStore) Set(ctx context.Context, scopeID string, state models.FileProcessingState) error {
	args := m.Called(ctx, scopeID, state)
	return args.Error(0)
}

// MockIntegrationInfo is a mock implementation of IntegrationInfoInterface.
type MockIntegrationInfo struct {
	mock.Mock
}

func (m *MockIntegrationInfo) LoadIntegrationInfo() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockIntegrationInfo) GetIntegrationID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIntegrationInfo) GetIntegration() *identity.Integration {
	args := m.Called()
	return args.Get(0).(*identity.Integration)
}
