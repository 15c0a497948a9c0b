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

func popCard(t *testing.T, sched *Scheduler) *models.Card {
	t.Helper()
	card, err := sched.PopCard(context.Background())
	require.NoError(t, err)
	require.NotNil(t, card, "expected a card to be due")
	return card
}

func TestAnswerCard_NewCardEntersLearning(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	c := store.AddCard(models.Card{Due: 1})
	sched := newTestScheduler(store, 10)
	now := testNow(10).Unix()

	card := popCard(t, sched)
	require.NoError(t, sched.AnswerCard(ctx, card, models.GradeGood, 3*time.Second))

	got := store.Card(c.ID)
	assert.Equal(t, models.CardTypeLearning, got.Type)
	assert.Equal(t, models.QueueLearning, got.Queue)
	assert.Equal(t, 1001, got.Left, "one step left, still doable today")
	assert.Equal(t, now+600, got.Due, "good advances to the ten-minute step")
	assert.Equal(t, 1, got.Reps)
	assert.Equal(t, [3]int{0, 1, 0}, sched.Counts())

	logs := store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, c.ID, logs[0].CardID)
	assert.Equal(t, models.GradeGood, logs[0].Grade)
	assert.Equal(t, models.ReviewKindLearn, logs[0].Kind)
	assert.Equal(t, -600, logs[0].Interval)
	assert.Equal(t, -60, logs[0].LastInterval)

	deck, err := store.GetDeck(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, deck.NewToday.CountFor(sched.Today()))
}

func TestAnswerCard_AgainRestartsLearningSteps(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	now := testNow(10).Unix()
	c := store.AddCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: now - 30, Left: 1001,
	})
	sched := newTestScheduler(store, 10)

	card := popCard(t, sched)
	require.NoError(t, sched.AnswerCard(ctx, card, models.GradeAgain, time.Second))

	got := store.Card(c.ID)
	assert.Equal(t, models.QueueLearning, got.Queue)
	assert.Equal(t, 2002, got.Left, "failing goes back to the full step list")
	assert.Equal(t, now+60, got.Due, "back on the one-minute step")
	assert.Equal(t, [3]int{0, 2, 0}, sched.Counts())
}

func TestAnswerCard_GoodOnLastStepGraduates(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	now := testNow(10).Unix()
	c := store.AddCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: now - 30, Left: 1001,
	})
	sched := newTestScheduler(store, 10)

	card := popCard(t, sched)
	require.NoError(t, sched.AnswerCard(ctx, card, models.GradeGood, time.Second))

	got := store.Card(c.ID)
	assert.Equal(t, models.CardTypeReview, got.Type)
	assert.Equal(t, models.QueueReview, got.Queue)
	assert.Equal(t, 1, got.Interval)
	assert.Equal(t, int64(11), got.Due)
	assert.Equal(t, 2500, got.Factor, "graduation sets the initial ease")
}

func TestAnswerCard_EasyGraduatesImmediately(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	c := store.AddCard(models.Card{Due: 1})
	sched := newTestScheduler(store, 10)

	card := popCard(t, sched)
	require.NoError(t, sched.AnswerCard(ctx, card, models.GradeEasy, time.Second))

	got := store.Card(c.ID)
	assert.Equal(t, models.CardTypeReview, got.Type)
	assert.Equal(t, models.QueueReview, got.Queue)
	assert.Equal(t, 4, got.Interval, "easy uses the second graduating interval")
	assert.Equal(t, int64(14), got.Due)
}

func TestAnswerCard_ReviewIntervalsAndEase(t *testing.T) {
	cases := []struct {
		name       string
		grade      models.Grade
		wantIvl    int
		wantFactor int
	}{
		{"hard shrinks growth and ease", models.GradeHard, 12, 2350},
		{"good multiplies by the ease factor", models.GradeGood, 25, 2500},
		{"easy adds the bonus multiplier", models.GradeEasy, 32, 2650},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := testutil.NewMemStore()
			c := store.AddCard(models.Card{
				Type: models.CardTypeReview, Queue: models.QueueReview, Due: 10, Interval: 10, Factor: 2500,
			})
			sched := newTestScheduler(store, 10)

			card := popCard(t, sched)
			require.NoError(t, sched.AnswerCard(ctx, card, tc.grade, time.Second))

			got := store.Card(c.ID)
			assert.Equal(t, tc.wantIvl, got.Interval)
			assert.Equal(t, tc.wantFactor, got.Factor)
			assert.Equal(t, int64(10+tc.wantIvl), got.Due)
			assert.Equal(t, models.QueueReview, got.Queue)

			logs := store.Logs()
			require.Len(t, logs, 1)
			assert.Equal(t, models.ReviewKindReview, logs[0].Kind)
			assert.Equal(t, tc.wantIvl, logs[0].Interval)
			assert.Equal(t, 10, logs[0].LastInterval)
		})
	}
}

func TestAnswerCard_LapseEntersRelearning(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	now := testNow(10).Unix()
	c := store.AddCard(models.Card{
		Type: models.CardTypeReview, Queue: models.QueueReview, Due: 10, Interval: 100, Factor: 2500,
	})
	sched := newTestScheduler(store, 10)

	card := popCard(t, sched)
	require.NoError(t, sched.AnswerCard(ctx, card, models.GradeAgain, time.Second))

	got := store.Card(c.ID)
	assert.Equal(t, 1, got.Lapses)
	assert.Equal(t, 2300, got.Factor, "a lapse costs 200 ease")
	assert.Equal(t, 1, got.Interval, "zero multiplier collapses to the minimum interval")
	assert.Equal(t, models.CardTypeReview, got.Type, "relearning keeps the review type")
	assert.Equal(t, models.QueueLearning, got.Queue)
	assert.Equal(t, now+600, got.Due, "on the ten-minute relearning step")
	assert.Equal(t, int64(11), got.OriginalDue, "the pending review due is parked for restore")
	assert.Equal(t, 1001, got.Left)
	assert.Equal(t, [3]int{0, 1, 0}, sched.Counts())
}

func TestAnswerCard_LeechSuspendsAtThreshold(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	c := store.AddCard(models.Card{
		Type: models.CardTypeReview, Queue: models.QueueReview, Due: 10, Interval: 50, Factor: 2500, Lapses: 7,
	})
	var leeched []int64
	sched := newTestScheduler(store, 10, WithLeechHandler(func(card *models.Card) {
		leeched = append(leeched, card.ID)
	}))

	card := popCard(t, sched)
	require.NoError(t, sched.AnswerCard(ctx, card, models.GradeAgain, time.Second))

	got := store.Card(c.ID)
	assert.Equal(t, 8, got.Lapses)
	assert.Equal(t, models.QueueSuspended, got.Queue)
	assert.Equal(t, models.CardTypeReview, got.Type)
	assert.Equal(t, []int64{c.ID}, leeched)
}

func TestAnswerCard_EaseNeverDropsBelowFloor(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	c := store.AddCard(models.Card{
		Type: models.CardTypeReview, Queue: models.QueueReview, Due: 10, Interval: 10, Factor: 1350,
	})
	sched := newTestScheduler(store, 10)

	card := popCard(t, sched)
	require.NoError(t, sched.AnswerCard(ctx, card, models.GradeHard, time.Second))

	assert.Equal(t, 1300, store.Card(c.ID).Factor)
}

func TestAnswerCard_RejectsInvalidGrade(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	c := store.AddCard(models.Card{Due: 1})
	sched := newTestScheduler(store, 10)

	card := popCard(t, sched)
	err := sched.AnswerCard(ctx, card, models.Grade(9), time.Second)
	assert.Error(t, err)
	assert.Equal(t, models.QueueNew, store.Card(c.ID).Queue, "a rejected answer must not touch the card")
}

func TestAnswerCard_BuriesNoteSiblings(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	first := store.AddCard(models.Card{NoteID: 7, Due: 1})
	second := store.AddCard(models.Card{NoteID: 7, Due: 2})
	sched := newTestScheduler(store, 10)

	card := popCard(t, sched)
	require.Equal(t, first.ID, card.ID)
	require.NoError(t, sched.AnswerCard(ctx, card, models.GradeGood, time.Second))

	assert.Equal(t, models.QueueSchedBuried, store.Card(second.ID).Queue,
		"the sibling should be hidden until the next day")
}
