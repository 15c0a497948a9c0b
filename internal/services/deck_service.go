package services

import (
	"context"
	"strings"
	"sync"

	"github.com/marcusv/decksched/internal/errors"
	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository"
	"github.com/marcusv/decksched/internal/scheduler"
)

// DeckService handles deck hierarchy business logic
type DeckService interface {
	Tree(ctx context.Context) ([]*models.DueTreeNode, error)
	List(ctx context.Context) ([]models.DeckDueRow, error)
	Get(ctx context.Context, id int64) (*models.Deck, error)
	Create(ctx context.Context, name string, dynamic bool) (*models.Deck, error)
	Select(ctx context.Context, id int64) error
	Config(ctx context.Context, deckID int64) (*models.DeckConfig, error)
	SaveConfig(ctx context.Context, cfg *models.DeckConfig) error
}

type deckService struct {
	mu    *sync.Mutex
	sched *scheduler.Scheduler
	decks repository.DeckRepository
}

// NewDeckService creates a new DeckService. The mutex is shared with the
// study service so deck edits and queue fills never interleave.
func NewDeckService(mu *sync.Mutex, sched *scheduler.Scheduler, decks repository.DeckRepository) DeckService {
	return &deckService{mu: mu, sched: sched, decks: decks}
}

func (s *deckService) Tree(ctx context.Context) ([]*models.DueTreeNode, error) {
	log := logger.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.sched.DueTree(ctx)
	if err != nil {
		log.Error("failed to build due tree: %v", err)
		return nil, wrapErr(err)
	}
	return tree, nil
}

func (s *deckService) List(ctx context.Context) ([]models.DeckDueRow, error) {
	log := logger.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sched.DeckDueList(ctx)
	if err != nil {
		log.Error("failed to list deck due counts: %v", err)
		return nil, wrapErr(err)
	}
	return rows, nil
}

func (s *deckService) Get(ctx context.Context, id int64) (*models.Deck, error) {
	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func (s *deckService) Create(ctx context.Context, name string, dynamic bool) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "must not be empty")
	}
	if strings.HasPrefix(name, models.NameSeparator) || strings.HasSuffix(name, models.NameSeparator) {
		return nil, errors.NewValidationError("name", "must not start or end with the separator")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.decks.All(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	byName := make(map[string]*models.Deck, len(existing))
	for i := range existing {
		byName[existing[i].Name] = &existing[i]
	}
	if d, ok := byName[name]; ok {
		log.Debug("deck %q already exists: id=%d", name, d.ID)
		return d, nil
	}

	// create missing ancestors so limits and the tree stay coherent
	segs := strings.Split(name, models.NameSeparator)
	for i := 1; i < len(segs); i++ {
		parent := strings.Join(segs[:i], models.NameSeparator)
		if _, ok := byName[parent]; ok {
			continue
		}
		p := &models.Deck{Name: parent, ConfigID: 1, Resched: true}
		id, err := s.decks.Create(ctx, p)
		if err != nil {
			log.Error("failed to create parent deck %q: %v", parent, err)
			return nil, wrapErr(err)
		}
		p.ID = id
		byName[parent] = p
	}

	deck := &models.Deck{Name: name, Dynamic: dynamic, Resched: true}
	if !dynamic {
		deck.ConfigID = 1
	}
	id, err := s.decks.Create(ctx, deck)
	if err != nil {
		log.Error("failed to create deck %q: %v", name, err)
		return nil, wrapErr(err)
	}
	deck.ID = id
	log.Info("deck created: id=%d, name=%q, dynamic=%v", id, name, dynamic)
	return deck, nil
}

func (s *deckService) Select(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.decks.Select(ctx, id); err != nil {
		return wrapErr(err)
	}
	// selection changes the active deck set; queues rebuild on next pop
	return wrapErr(s.sched.Reset(ctx))
}

func (s *deckService) Config(ctx context.Context, deckID int64) (*models.DeckConfig, error) {
	cfg, err := s.decks.ConfigFor(ctx, deckID)
	if err != nil {
		return nil, wrapErr(err)
	}
	return cfg, nil
}

func (s *deckService) SaveConfig(ctx context.Context, cfg *models.DeckConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return wrapErr(s.decks.SaveConfig(ctx, cfg))
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	return errors.NewInternalError(err)
}
