// Package scheduler decides which card to present next and how a graded
// answer moves a card through the learning state machine. It owns no
// storage: cards, decks and review logs are reached through the narrow
// repository interfaces, and all queue state lives in one session value
// rebuilt by Reset.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository"
)

// ErrCardNotFound is returned when a queued card id no longer resolves to
// a stored card.
var ErrCardNotFound = errors.New("card not found")

const (
	// queueBatchLimit caps how many ids one refill pulls per deck.
	defaultQueueLimit = 50
	// reportLimit caps counting queries and serves as the "unlimited"
	// per-day cap of filtered decks.
	reportLimit = 1000
	// defaultCollapseSeconds is how far ahead of now the final learning
	// fallback may reach, so a session ends with the almost-due steps
	// instead of stalling.
	defaultCollapseSeconds = 1200

	minFactor       = 1300
	lapseFactorDrop = 200
)

// factorAdjust maps Hard/Good/Easy review answers to an ease delta in
// permyriad.
var factorAdjust = map[models.Grade]int{
	models.GradeHard: -150,
	models.GradeGood: 0,
	models.GradeEasy: 150,
}

// lrnEntry is one element of the sub-day learning queue.
type lrnEntry struct {
	due int64
	id  int64
}

// session bundles every piece of transient queue state. Reset rebuilds it
// from storage; nothing in it survives a day rollover.
type session struct {
	newCount int
	lrnCount int
	revCount int

	newQueue    []int64
	lrnQueue    []lrnEntry
	lrnDayQueue []int64
	revQueue    []int64

	// deck rotation cursors for per-deck refills
	newDecks    []int64
	lrnDayDecks []int64
	revDecks    []int64

	newCardModulus int
	reps           int
}

// Scheduler is the spaced-repetition core. It is not safe for concurrent
// use; callers serialize access (one mutex around the instance is enough).
type Scheduler struct {
	cards repository.CardRepository
	decks repository.DeckRepository
	logs  repository.ReviewLogRepository
	log   *logger.Logger

	clock Clock
	// crt is the collection creation timestamp, anchored at the 04:00
	// rollover boundary.
	crt int64

	spread       models.NewSpread
	queueLimit   int
	collapseTime int64
	buryOnAnswer bool
	onLeech      func(*models.Card)

	today     int
	dayCutoff int64

	haveQueues bool
	rng        *rand.Rand
	sess       session
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithNewSpread sets how new cards interleave with reviews.
func WithNewSpread(spread models.NewSpread) Option {
	return func(s *Scheduler) { s.spread = spread }
}

// WithQueueLimit caps the per-deck batch size of queue refills.
func WithQueueLimit(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.queueLimit = n
		}
	}
}

// WithCollapseTime sets the learn-ahead window in seconds.
func WithCollapseTime(seconds int64) Option {
	return func(s *Scheduler) {
		if seconds >= 0 {
			s.collapseTime = seconds
		}
	}
}

// WithLeechHandler registers a callback invoked when a card crosses the
// leech threshold, regardless of the configured leech action.
func WithLeechHandler(fn func(*models.Card)) Option {
	return func(s *Scheduler) { s.onLeech = fn }
}

// WithBuryOnAnswer toggles sibling burying when a card is answered.
func WithBuryOnAnswer(enabled bool) Option {
	return func(s *Scheduler) { s.buryOnAnswer = enabled }
}

// WithLogger overrides the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a Scheduler for a collection created at crt. Reset must be
// called before the first PopCard.
func New(crt int64, cards repository.CardRepository, decks repository.DeckRepository, logs repository.ReviewLogRepository, opts ...Option) *Scheduler {
	s := &Scheduler{
		cards:        cards,
		decks:        decks,
		logs:         logs,
		log:          logger.Default().WithPrefix("scheduler"),
		clock:        SystemClock(),
		crt:          crt,
		spread:       models.NewSpreadDistribute,
		queueLimit:   defaultQueueLimit,
		collapseTime: defaultCollapseSeconds,
		buryOnAnswer: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updateCutoff()
	s.rng = rand.New(rand.NewSource(int64(s.today)))
	return s
}

// Today returns the current scheduling day number.
func (s *Scheduler) Today() int { return s.today }

// DayCutoff returns the unix timestamp ending the current scheduling day.
func (s *Scheduler) DayCutoff() int64 { return s.dayCutoff }

// Reset rebuilds all counts and queues from the current time and deck
// state. It is cheap enough to call at every day rollover or after bulk
// card edits.
func (s *Scheduler) Reset(ctx context.Context) error {
	s.updateCutoff()
	s.rng = rand.New(rand.NewSource(int64(s.today)))

	if err := s.resetLearning(ctx); err != nil {
		return err
	}
	if err := s.resetReview(ctx); err != nil {
		return err
	}
	if err := s.resetNew(ctx); err != nil {
		return err
	}
	s.haveQueues = true
	s.log.Debug("reset: today=%d cutoff=%d counts=[%d %d %d]",
		s.today, s.dayCutoff, s.sess.newCount, s.sess.lrnCount, s.sess.revCount)
	return nil
}

// Counts returns the outstanding [new, learn, review] counts. The learn
// count is measured in remaining step units, not cards.
func (s *Scheduler) Counts() [3]int {
	return [3]int{s.sess.newCount, s.sess.lrnCount, s.sess.revCount}
}

// Reps returns the number of cards popped this session.
func (s *Scheduler) Reps() int { return s.sess.reps }

// PopCard returns the next card to review, or (nil, nil) when nothing is
// left for today. The card is removed from its in-memory queue only;
// storage is untouched until AnswerCard.
func (s *Scheduler) PopCard(ctx context.Context) (*models.Card, error) {
	if err := s.checkDay(ctx); err != nil {
		return nil, err
	}
	if !s.haveQueues {
		if err := s.Reset(ctx); err != nil {
			return nil, err
		}
	}
	card, err := s.nextCard(ctx)
	if err != nil {
		return nil, err
	}
	if card != nil {
		s.sess.reps++
	}
	return card, nil
}

// nextCard implements the pop policy: a due learning card always wins,
// then a new card when it is its turn, then review, day learning, any
// remaining new card, and finally a learning card within the collapse
// window.
func (s *Scheduler) nextCard(ctx context.Context) (*models.Card, error) {
	if c, err := s.getLearnCard(ctx, false); err != nil || c != nil {
		return c, err
	}
	if s.timeForNewCard() {
		if c, err := s.getNewCard(ctx); err != nil || c != nil {
			return c, err
		}
	}
	if c, err := s.getReviewCard(ctx); err != nil || c != nil {
		return c, err
	}
	if c, err := s.getLearnDayCard(ctx); err != nil || c != nil {
		return c, err
	}
	if c, err := s.getNewCard(ctx); err != nil || c != nil {
		return c, err
	}
	return s.getLearnCard(ctx, true)
}

// fetch loads a popped card id, surfacing ErrCardNotFound for stale ids.
func (s *Scheduler) fetch(ctx context.Context, id int64) (*models.Card, error) {
	card, err := s.cards.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: id=%d", ErrCardNotFound, id)
	}
	return card, nil
}

// activeDecks returns the active deck list, erroring when empty-selection
// would make every queue permanently empty.
func (s *Scheduler) activeDecks(ctx context.Context) ([]int64, error) {
	ids, err := s.decks.Active(ctx)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
