package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marcusv/decksched/internal/models"
)

// MockReviewLogRepository is a mock implementation of repository.ReviewLogRepository
type MockReviewLogRepository struct {
	mock.Mock
}

func (m *MockReviewLogRepository) Record(ctx context.Context, entry models.ReviewLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
