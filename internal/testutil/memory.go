package testutil

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/marcusv/decksched/internal/errors"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository"
)

// MemStore is an in-memory stand-in for the SQLite repositories, used by
// scheduler tests that would otherwise need a database per case. It is
// seeded with the default configuration and a selected "Default" deck,
// mirroring a freshly bootstrapped collection.
type MemStore struct {
	mu sync.Mutex

	cards   map[int64]*models.Card
	decks   map[int64]*models.Deck
	configs map[int64]*models.DeckConfig
	logs    []models.ReviewLog

	nextCardID int64
	nextDeckID int64
	nextConfID int64
}

func NewMemStore() *MemStore {
	s := &MemStore{
		cards:      make(map[int64]*models.Card),
		decks:      make(map[int64]*models.Deck),
		configs:    make(map[int64]*models.DeckConfig),
		nextCardID: 1,
		nextDeckID: 1,
		nextConfID: 1,
	}
	cfg := models.DefaultDeckConfig()
	cfg.ID = 1
	s.configs[1] = cfg
	s.nextConfID = 2
	s.decks[1] = &models.Deck{ID: 1, Name: "Default", ConfigID: 1, Resched: true, Selected: true}
	s.nextDeckID = 2
	return s
}

// AddDeck stores a deck, assigning an id when missing, and returns it.
func (s *MemStore) AddDeck(deck models.Deck) *models.Deck {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deck.ID == 0 {
		deck.ID = s.nextDeckID
		s.nextDeckID++
	} else if deck.ID >= s.nextDeckID {
		s.nextDeckID = deck.ID + 1
	}
	if deck.ConfigID == 0 && !deck.Dynamic {
		deck.ConfigID = 1
	}
	d := deck
	s.decks[d.ID] = &d
	return &d
}

// AddConfig stores a deck configuration, assigning an id when missing.
func (s *MemStore) AddConfig(cfg models.DeckConfig) *models.DeckConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.ID == 0 {
		cfg.ID = s.nextConfID
		s.nextConfID++
	} else if cfg.ID >= s.nextConfID {
		s.nextConfID = cfg.ID + 1
	}
	c := cfg
	s.configs[c.ID] = &c
	return &c
}

// AddCard stores a card, assigning an id when missing, and returns it.
func (s *MemStore) AddCard(card models.Card) *models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if card.ID == 0 {
		card.ID = s.nextCardID
		s.nextCardID++
	} else if card.ID >= s.nextCardID {
		s.nextCardID = card.ID + 1
	}
	if card.NoteID == 0 {
		card.NoteID = card.ID
	}
	if card.DeckID == 0 {
		card.DeckID = 1
	}
	c := card
	s.cards[c.ID] = &c
	return &c
}

// Card returns a copy of a stored card for assertions.
func (s *MemStore) Card(id int64) *models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Logs returns a copy of the recorded review log.
func (s *MemStore) Logs() []models.ReviewLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ReviewLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// Cards exposes the store as a CardRepository.
func (s *MemStore) Cards() repository.CardRepository { return memCardRepo{s} }

// Decks exposes the store as a DeckRepository.
func (s *MemStore) Decks() repository.DeckRepository { return memDeckRepo{s} }

// Revlog exposes the store as a ReviewLogRepository.
func (s *MemStore) Revlog() repository.ReviewLogRepository { return memRevlogRepo{s} }

// memCardRepo and memDeckRepo exist because both interfaces name their
// lookup Get; the store keeps GetCard and GetDeck apart.
type memCardRepo struct{ *MemStore }

func (r memCardRepo) Get(ctx context.Context, id int64) (*models.Card, error) {
	return r.GetCard(ctx, id)
}

type memDeckRepo struct{ *MemStore }

func (r memDeckRepo) Get(ctx context.Context, id int64) (*models.Deck, error) {
	return r.GetDeck(ctx, id)
}

type memRevlogRepo struct{ *MemStore }

// --- CardRepository ---

func (s *MemStore) GetCard(_ context.Context, id int64) (*models.Card, error) {
	return s.Card(id), nil
}

func (s *MemStore) Insert(_ context.Context, card *models.Card) (int64, error) {
	return s.AddCard(*card).ID, nil
}

func (s *MemStore) Update(_ context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *card
	s.cards[c.ID] = &c
	return nil
}

func (s *MemStore) matchQuery(q models.CardQuery) []*models.Card {
	var out []*models.Card
	for _, c := range s.cards {
		if len(q.DeckIDs) > 0 && !containsID(q.DeckIDs, c.DeckID) {
			continue
		}
		if q.Queue != nil && c.Queue != *q.Queue {
			continue
		}
		if q.DueAtMost != nil && c.Due > *q.DueAtMost {
			continue
		}
		if q.DueBelow != nil && c.Due >= *q.DueBelow {
			continue
		}
		out = append(out, c)
	}
	// sorting by (due, id) regardless of the requested order keeps tests
	// deterministic; the scheduler shuffles where randomness matters
	sort.Slice(out, func(i, j int) bool {
		if out[i].Due != out[j].Due {
			return out[i].Due < out[j].Due
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (s *MemStore) CardIDs(_ context.Context, q models.CardQuery) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, c := range s.matchQuery(q) {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (s *MemStore) Count(_ context.Context, q models.CardQuery) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matchQuery(q)), nil
}

func (s *MemStore) LearnQueue(_ context.Context, deckIDs []int64, cutoff int64, limit int) ([]models.LearnQueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := models.CardQuery{
		DeckIDs:  deckIDs,
		Queue:    models.QueueFilter(models.QueueLearning),
		DueBelow: models.DueLimit(cutoff),
		Limit:    limit,
	}
	var entries []models.LearnQueueEntry
	for _, c := range s.matchQuery(q) {
		entries = append(entries, models.LearnQueueEntry{Due: c.Due, ID: c.ID})
	}
	return entries, nil
}

func (s *MemStore) LearnStepCount(_ context.Context, deckIDs []int64, cutoff int64, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := models.CardQuery{
		DeckIDs:  deckIDs,
		Queue:    models.QueueFilter(models.QueueLearning),
		DueBelow: models.DueLimit(cutoff),
		Limit:    limit,
	}
	total := 0
	for _, c := range s.matchQuery(q) {
		total += c.Left / 1000
	}
	return total, nil
}

func (s *MemStore) Siblings(_ context.Context, noteID, exceptCardID int64, today int64) ([]models.SiblingRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []models.SiblingRef
	for _, c := range s.cards {
		if c.NoteID != noteID || c.ID == exceptCardID {
			continue
		}
		if c.Queue == models.QueueNew || (c.Queue == models.QueueReview && c.Due <= today) {
			refs = append(refs, models.SiblingRef{ID: c.ID, Queue: c.Queue})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (s *MemStore) NoteCardIDs(_ context.Context, noteID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, c := range s.cards {
		if c.NoteID == noteID && c.Queue >= 0 {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemStore) SetQueue(_ context.Context, ids []int64, queue models.CardQueue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if c, ok := s.cards[id]; ok {
			c.Queue = queue
		}
	}
	return nil
}

func (s *MemStore) RestoreBuried(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.Queue != models.QueueUserBuried && c.Queue != models.QueueSchedBuried {
			continue
		}
		switch c.Type {
		case models.CardTypeLearning:
			if c.Due > 1_000_000_000 {
				c.Queue = models.QueueLearning
			} else {
				c.Queue = models.QueueDayLearning
			}
		default:
			c.Queue = models.CardQueue(c.Type)
		}
	}
	return nil
}

func (s *MemStore) FilteredCardIDs(_ context.Context, deckID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type pair struct{ due, id int64 }
	var pairs []pair
	for _, c := range s.cards {
		if c.DeckID == deckID && c.OriginalDeckID != 0 {
			pairs = append(pairs, pair{c.Due, c.ID})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].due != pairs[j].due {
			return pairs[i].due < pairs[j].due
		}
		return pairs[i].id < pairs[j].id
	})
	ids := make([]int64, 0, len(pairs))
	for _, p := range pairs {
		ids = append(ids, p.id)
	}
	return ids, nil
}

// --- DeckRepository ---

func (s *MemStore) GetDeck(_ context.Context, id int64) (*models.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decks[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *MemStore) All(_ context.Context) ([]models.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Deck
	for _, d := range s.decks {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) Create(_ context.Context, deck *models.Deck) (int64, error) {
	return s.AddDeck(*deck).ID, nil
}

func (s *MemStore) Save(_ context.Context, deck *models.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *deck
	s.decks[d.ID] = &d
	return nil
}

func (s *MemStore) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.decks, id)
	return nil
}

func (s *MemStore) Active(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var selected *models.Deck
	for _, d := range s.decks {
		if d.Selected {
			selected = d
			break
		}
	}
	if selected == nil {
		return nil, nil
	}
	type pair struct {
		name string
		id   int64
	}
	pairs := []pair{{selected.Name, selected.ID}}
	for _, d := range s.decks {
		if selected.IsParentOf(d) {
			pairs = append(pairs, pair{d.Name, d.ID})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	ids := make([]int64, 0, len(pairs))
	for _, p := range pairs {
		ids = append(ids, p.id)
	}
	return ids, nil
}

func (s *MemStore) Select(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[id]; !ok {
		return apperrors.NewNotFoundError("deck", id)
	}
	for _, d := range s.decks {
		d.Selected = d.ID == id
	}
	return nil
}

func (s *MemStore) Parents(_ context.Context, id int64) ([]models.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck, ok := s.decks[id]
	if !ok {
		return nil, nil
	}
	var parents []models.Deck
	for _, d := range s.decks {
		if d.IsParentOf(deck) {
			parents = append(parents, *d)
		}
	}
	sort.Slice(parents, func(i, j int) bool {
		return len(parents[i].PathSegments()) < len(parents[j].PathSegments())
	})
	return parents, nil
}

func (s *MemStore) Children(_ context.Context, id int64) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck, ok := s.decks[id]
	if !ok {
		return nil, nil
	}
	children := make(map[string]int64)
	for _, d := range s.decks {
		if deck.IsParentOf(d) {
			children[d.Name] = d.ID
		}
	}
	return children, nil
}

func (s *MemStore) ConfigFor(_ context.Context, deckID int64) (*models.DeckConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck, ok := s.decks[deckID]
	if !ok {
		return nil, apperrors.NewNotFoundError("deck", deckID)
	}
	cfg, ok := s.configs[deck.ConfigID]
	if !ok {
		return nil, apperrors.NewConfigError("deck references a missing configuration", nil)
	}
	cp := *cfg
	return &cp, nil
}

func (s *MemStore) SaveConfig(_ context.Context, cfg *models.DeckConfig) error {
	s.AddConfig(*cfg)
	return nil
}

// --- ReviewLogRepository ---

func (s *MemStore) Record(_ context.Context, entry models.ReviewLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, entry)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
