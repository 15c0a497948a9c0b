package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/testutil"
)

// testBase is day zero of every scheduler test collection: well past the
// 04:00 rollover so "today" is stable for the whole test.
var testBase = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func testNow(days int) time.Time {
	return testBase.AddDate(0, 0, days)
}

// newTestScheduler pins the clock days after collection creation and
// disables interval fuzzing so answers are deterministic.
func newTestScheduler(store *testutil.MemStore, days int, opts ...Option) *Scheduler {
	cfg := *models.DefaultDeckConfig()
	cfg.ID = 1
	cfg.Review.Fuzz = false
	store.AddConfig(cfg)

	crt := CreationAnchor(testBase)
	all := append([]Option{WithClock(FixedClock(testNow(days)))}, opts...)
	return New(crt, store.Cards(), store.Decks(), store.Revlog(), all...)
}

// stepClock is a settable clock for rollover tests.
type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time { return c.t }

func TestReset_CountsNewCards(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	store.AddCard(models.Card{Due: 1})
	store.AddCard(models.Card{Due: 2})
	store.AddCard(models.Card{Due: 3})
	sched := newTestScheduler(store, 0)

	require.NoError(t, sched.Reset(ctx))
	assert.Equal(t, [3]int{3, 0, 0}, sched.Counts())

	// a second reset must not double-count anything
	require.NoError(t, sched.Reset(ctx))
	assert.Equal(t, [3]int{3, 0, 0}, sched.Counts())
}

func TestPopCard_NewCardsComeInDueOrder(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	c3 := store.AddCard(models.Card{Due: 3})
	c1 := store.AddCard(models.Card{Due: 1})
	c2 := store.AddCard(models.Card{Due: 2})
	sched := newTestScheduler(store, 0)

	var got []int64
	for i := 0; i < 3; i++ {
		card, err := sched.PopCard(ctx)
		require.NoError(t, err)
		require.NotNil(t, card, "expected a card on pop %d", i)
		got = append(got, card.ID)
	}
	assert.Equal(t, []int64{c1.ID, c2.ID, c3.ID}, got)

	card, err := sched.PopCard(ctx)
	require.NoError(t, err)
	assert.Nil(t, card, "queue should be empty after three pops")
	assert.Equal(t, [3]int{0, 0, 0}, sched.Counts())
}

func TestPopCard_HonorsNewPerDayLimit(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	for i := 1; i <= 5; i++ {
		store.AddCard(models.Card{Due: int64(i)})
	}
	sched := newTestScheduler(store, 0)

	cfg := *models.DefaultDeckConfig()
	cfg.ID = 1
	cfg.New.PerDay = 2
	cfg.Review.Fuzz = false
	store.AddConfig(cfg)

	require.NoError(t, sched.Reset(ctx))
	assert.Equal(t, [3]int{2, 0, 0}, sched.Counts())

	for i := 0; i < 2; i++ {
		card, err := sched.PopCard(ctx)
		require.NoError(t, err)
		require.NotNil(t, card)
	}
	card, err := sched.PopCard(ctx)
	require.NoError(t, err)
	assert.Nil(t, card, "per-day limit should stop the third card")
}

func TestPopCard_ReviewDueTodayOnly(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	due := store.AddCard(models.Card{
		Type: models.CardTypeReview, Queue: models.QueueReview, Due: 5, Interval: 10, Factor: 2500,
	})
	store.AddCard(models.Card{
		Type: models.CardTypeReview, Queue: models.QueueReview, Due: 11, Interval: 10, Factor: 2500,
	})
	sched := newTestScheduler(store, 10)

	require.NoError(t, sched.Reset(ctx))
	assert.Equal(t, [3]int{0, 0, 1}, sched.Counts())

	card, err := sched.PopCard(ctx)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, due.ID, card.ID)

	card, err = sched.PopCard(ctx)
	require.NoError(t, err)
	assert.Nil(t, card, "tomorrow's review must not be served today")
}

func TestPopCard_DueLearningCardWinsOverNew(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	now := testNow(0).Unix()
	store.AddCard(models.Card{Due: 1})
	lrn := store.AddCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: now - 60, Left: 1001,
	})
	sched := newTestScheduler(store, 0)

	card, err := sched.PopCard(ctx)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, lrn.ID, card.ID, "a due learning step outranks new cards")
}

func TestPopCard_LearnAheadOnlyWhenNothingElseLeft(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	now := testNow(0).Unix()
	fresh := store.AddCard(models.Card{Due: 1})
	ahead := store.AddCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: now + 600, Left: 1001,
	})
	sched := newTestScheduler(store, 0)

	card, err := sched.PopCard(ctx)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, fresh.ID, card.ID, "a not-yet-due step must wait while other work remains")

	card, err = sched.PopCard(ctx)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, ahead.ID, card.ID, "collapse serves the almost-due step at session end")
}

func TestPopCard_DayLearningDueToday(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	c := store.AddCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueDayLearning, Due: 10, Left: 1,
	})
	sched := newTestScheduler(store, 10)

	require.NoError(t, sched.Reset(ctx))
	assert.Equal(t, [3]int{0, 1, 0}, sched.Counts())

	card, err := sched.PopCard(ctx)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, c.ID, card.ID)
}

func TestCounts_LearnCountIsInStepUnits(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	now := testNow(0).Unix()
	store.AddCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: now - 30, Left: 2002,
	})
	sched := newTestScheduler(store, 0)

	require.NoError(t, sched.Reset(ctx))
	assert.Equal(t, 2, sched.Counts()[1], "two remaining steps count as two, not one card")
}

func TestPopCard_OnlySelectedDeckIsStudied(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	other := store.AddDeck(models.Deck{Name: "Other", Resched: true})
	hidden := store.AddCard(models.Card{DeckID: other.ID, Due: 1})
	sched := newTestScheduler(store, 0)

	require.NoError(t, sched.Reset(ctx))
	assert.Equal(t, [3]int{0, 0, 0}, sched.Counts())

	require.NoError(t, store.Decks().Select(ctx, other.ID))
	require.NoError(t, sched.Reset(ctx))

	card, err := sched.PopCard(ctx)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, hidden.ID, card.ID)
}

func TestPopCard_RebuildsQueuesAfterDayRollover(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	cfg := *models.DefaultDeckConfig()
	cfg.ID = 1
	cfg.Review.Fuzz = false
	store.AddConfig(cfg)
	store.AddCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueDayLearning, Due: 1, Left: 1,
	})

	clock := &stepClock{t: testNow(0)}
	crt := CreationAnchor(testBase)
	sched := New(crt, store.Cards(), store.Decks(), store.Revlog(), WithClock(clock))

	require.NoError(t, sched.Reset(ctx))
	card, err := sched.PopCard(ctx)
	require.NoError(t, err)
	assert.Nil(t, card, "nothing is due on day zero")

	clock.t = testNow(1)
	card, err = sched.PopCard(ctx)
	require.NoError(t, err)
	require.NotNil(t, card, "the rollover should surface the day-learning card")
	assert.Equal(t, 1, sched.Today())
}
