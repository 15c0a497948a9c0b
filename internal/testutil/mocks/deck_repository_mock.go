package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marcusv/decksched/internal/models"
)

// MockDeckRepository is a mock implementation of repository.DeckRepository
type MockDeckRepository struct {
	mock.Mock
}

func (m *MockDeckRepository) Get(ctx context.Context, id int64) (*models.Deck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deck), args.Error(1)
}

func (m *MockDeckRepository) All(ctx context.Context) ([]models.Deck, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deck), args.Error(1)
}

func (m *MockDeckRepository) Create(ctx context.Context, deck *models.Deck) (int64, error) {
	args := m.Called(ctx, deck)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDeckRepository) Save(ctx context.Context, deck *models.Deck) error {
	args := m.Called(ctx, deck)
	return args.Error(0)
}

func (m *MockDeckRepository) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeckRepository) Active(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockDeckRepository) Select(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeckRepository) Parents(ctx context.Context, id int64) ([]models.Deck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deck), args.Error(1)
}

func (m *MockDeckRepository) Children(ctx context.Context, id int64) (map[string]int64, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockDeckRepository) ConfigFor(ctx context.Context, deckID int64) (*models.DeckConfig, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeckConfig), args.Error(1)
}

func (m *MockDeckRepository) SaveConfig(ctx context.Context, cfg *models.DeckConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}
