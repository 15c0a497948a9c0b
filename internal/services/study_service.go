package services

import (
	"context"
	"sync"
	"time"

	"github.com/marcusv/decksched/internal/errors"
	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository"
	"github.com/marcusv/decksched/internal/scheduler"
)

// StudyService handles review-session business logic
type StudyService interface {
	NextCard(ctx context.Context) (*models.Card, [3]int, error)
	Answer(ctx context.Context, cardID int64, grade models.Grade, took time.Duration) error
	Counts(ctx context.Context) ([3]int, error)
	Reset(ctx context.Context) error

	Suspend(ctx context.Context, ids []int64) error
	Unsuspend(ctx context.Context, ids []int64) error
	Bury(ctx context.Context, ids []int64) error
	BuryNote(ctx context.Context, noteID int64) error
	UnburyAll(ctx context.Context) error
	Forget(ctx context.Context, ids []int64) error
	Reposition(ctx context.Context, start int64, ids []int64) error

	RebuildFiltered(ctx context.Context, deckID int64, cardIDs []int64) (int, error)
	EmptyFiltered(ctx context.Context, deckID int64) error
}

type studyService struct {
	// the scheduler is not safe for concurrent use; the mutex is shared
	// with the deck service so every scheduler entry point is serialized
	mu    *sync.Mutex
	sched *scheduler.Scheduler
	cards repository.CardRepository
}

// NewStudyService creates a new StudyService
func NewStudyService(mu *sync.Mutex, sched *scheduler.Scheduler, cards repository.CardRepository) StudyService {
	return &studyService{mu: mu, sched: sched, cards: cards}
}

func (s *studyService) NextCard(ctx context.Context) (*models.Card, [3]int, error) {
	log := logger.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.sched.PopCard(ctx)
	if err != nil {
		log.Error("failed to pop next card: %v", err)
		return nil, [3]int{}, errors.NewInternalError(err)
	}
	counts := s.sched.Counts()
	if card == nil {
		log.Debug("no cards left for today")
	}
	return card, counts, nil
}

func (s *studyService) Answer(ctx context.Context, cardID int64, grade models.Grade, took time.Duration) error {
	log := logger.FromContext(ctx)
	log.Debug("answering card: id=%d, grade=%s", cardID, grade)

	if !grade.Valid() {
		return errors.NewValidationError("grade", "must be between 1 and 4")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		log.Error("failed to get card: %v", err)
		return errors.NewInternalError(err)
	}
	if card == nil {
		return errors.NewNotFoundError("card", cardID)
	}
	if err := s.sched.AnswerCard(ctx, card, grade, took); err != nil {
		log.Error("failed to answer card: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *studyService) Counts(ctx context.Context) ([3]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.Counts(), nil
}

func (s *studyService) Reset(ctx context.Context) error {
	log := logger.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sched.Reset(ctx); err != nil {
		log.Error("failed to reset scheduler: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *studyService) Suspend(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(ctx, s.sched.SuspendCards(ctx, ids...))
}

func (s *studyService) Unsuspend(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(ctx, s.sched.UnsuspendCards(ctx, ids...))
}

func (s *studyService) Bury(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(ctx, s.sched.BuryCards(ctx, true, ids...))
}

func (s *studyService) BuryNote(ctx context.Context, noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(ctx, s.sched.BuryNote(ctx, noteID))
}

func (s *studyService) UnburyAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(ctx, s.sched.UnburyAll(ctx))
}

func (s *studyService) Forget(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(ctx, s.sched.ForgetCards(ctx, ids...))
}

func (s *studyService) Reposition(ctx context.Context, start int64, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(ctx, s.sched.RepositionCards(ctx, start, ids...))
}

func (s *studyService) RebuildFiltered(ctx context.Context, deckID int64, cardIDs []int64) (int, error) {
	log := logger.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	moved, err := s.sched.RebuildFiltered(ctx, deckID, cardIDs)
	if err != nil {
		log.Error("failed to rebuild filtered deck %d: %v", deckID, err)
		return 0, errors.NewInternalError(err)
	}
	return moved, nil
}

func (s *studyService) EmptyFiltered(ctx context.Context, deckID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(ctx, s.sched.EmptyFiltered(ctx, deckID))
}

// wrap converts raw scheduler errors to internal errors while passing
// through ones that already carry a status.
func (s *studyService) wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	logger.FromContext(ctx).Error("scheduler operation failed: %v", err)
	return errors.NewInternalError(err)
}
