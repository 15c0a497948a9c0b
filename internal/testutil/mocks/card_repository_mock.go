package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marcusv/decksched/internal/models"
)

// MockCardRepository is a mock implementation of repository.CardRepository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardRepository) Insert(ctx context.Context, card *models.Card) (int64, error) {
	args := m.Called(ctx, card)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCardRepository) Update(ctx context.Context, card *models.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) CardIDs(ctx context.Context, q models.CardQuery) ([]int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCardRepository) Count(ctx context.Context, q models.CardQuery) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *MockCardRepository) LearnQueue(ctx context.Context, deckIDs []int64, cutoff int64, limit int) ([]models.LearnQueueEntry, error) {
	args := m.Called(ctx, deckIDs, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LearnQueueEntry), args.Error(1)
}

func (m *MockCardRepository) LearnStepCount(ctx context.Context, deckIDs []int64, cutoff int64, limit int) (int, error) {
	args := m.Called(ctx, deckIDs, cutoff, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockCardRepository) Siblings(ctx context.Context, noteID, exceptCardID int64, today int64) ([]models.SiblingRef, error) {
	args := m.Called(ctx, noteID, exceptCardID, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SiblingRef), args.Error(1)
}

func (m *MockCardRepository) NoteCardIDs(ctx context.Context, noteID int64) ([]int64, error) {
	args := m.Called(ctx, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCardRepository) SetQueue(ctx context.Context, ids []int64, queue models.CardQueue) error {
	args := m.Called(ctx, ids, queue)
	return args.Error(0)
}

func (m *MockCardRepository) RestoreBuried(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCardRepository) FilteredCardIDs(ctx context.Context, deckID int64) ([]int64, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}
