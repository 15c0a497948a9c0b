package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/marcusv/decksched/internal/db"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository"
	"github.com/marcusv/decksched/internal/repository/sqlite"
	"github.com/marcusv/decksched/internal/testutil"
)

type CardRepositorySuite struct {
	suite.Suite
	db   *db.DB
	repo repository.CardRepository
}

func (s *CardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewCardRepository(s.db.DB)
}

func (s *CardRepositorySuite) seedCard(c models.Card) int64 {
	if c.NoteID == 0 {
		c.NoteID = 100
	}
	if c.DeckID == 0 {
		c.DeckID = 1
	}
	id, err := s.repo.Insert(context.Background(), &c)
	s.Require().NoError(err)
	return id
}

func (s *CardRepositorySuite) TestGetMissingReturnsNil() {
	card, err := s.repo.Get(context.Background(), 9999)
	s.Require().NoError(err)
	s.Assert().Nil(card)
}

func (s *CardRepositorySuite) TestInsertAndGet() {
	id := s.seedCard(models.Card{
		NoteID: 7, DeckID: 1,
		Type: models.CardTypeReview, Queue: models.QueueReview,
		Due: 42, Interval: 10, Factor: 2500, Reps: 3, Lapses: 1,
		Left: 0, OriginalDue: 5, OriginalDeckID: 2, Modified: 1234,
	})

	card, err := s.repo.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Require().NotNil(card)
	s.Assert().Equal(int64(7), card.NoteID)
	s.Assert().Equal(models.CardTypeReview, card.Type)
	s.Assert().Equal(models.QueueReview, card.Queue)
	s.Assert().Equal(int64(42), card.Due)
	s.Assert().Equal(10, card.Interval)
	s.Assert().Equal(2500, card.Factor)
	s.Assert().Equal(3, card.Reps)
	s.Assert().Equal(1, card.Lapses)
	s.Assert().Equal(int64(5), card.OriginalDue)
	s.Assert().Equal(int64(2), card.OriginalDeckID)
	s.Assert().Equal(int64(1234), card.Modified)
}

func (s *CardRepositorySuite) TestUpdate() {
	id := s.seedCard(models.Card{Queue: models.QueueNew, Due: 1})

	card, err := s.repo.Get(context.Background(), id)
	s.Require().NoError(err)
	card.Type = models.CardTypeLearning
	card.Queue = models.QueueLearning
	card.Due = 1700000000
	card.Left = 2002
	s.Require().NoError(s.repo.Update(context.Background(), card))

	got, err := s.repo.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Assert().Equal(models.CardTypeLearning, got.Type)
	s.Assert().Equal(models.QueueLearning, got.Queue)
	s.Assert().Equal(int64(1700000000), got.Due)
	s.Assert().Equal(2002, got.Left)
}

func (s *CardRepositorySuite) TestCardIDsFiltersAndOrders() {
	a := s.seedCard(models.Card{Queue: models.QueueNew, Due: 3})
	b := s.seedCard(models.Card{Queue: models.QueueNew, Due: 1})
	s.seedCard(models.Card{Queue: models.QueueSuspended, Due: 2})
	s.seedCard(models.Card{DeckID: 99, Queue: models.QueueNew, Due: 0})

	ids, err := s.repo.CardIDs(context.Background(), models.CardQuery{
		DeckIDs: []int64{1},
		Queue:   models.QueueFilter(models.QueueNew),
		OrderBy: models.OrderByDue,
	})
	s.Require().NoError(err)
	s.Assert().Equal([]int64{b, a}, ids)
}

func (s *CardRepositorySuite) TestCountRespectsLimit() {
	for i := 1; i <= 5; i++ {
		s.seedCard(models.Card{Queue: models.QueueNew, Due: int64(i)})
	}

	n, err := s.repo.Count(context.Background(), models.CardQuery{
		DeckIDs: []int64{1},
		Queue:   models.QueueFilter(models.QueueNew),
		Limit:   3,
	})
	s.Require().NoError(err)
	s.Assert().Equal(3, n, "the count must stop at the limit")
}

func (s *CardRepositorySuite) TestLearnQueueOrdersByDue() {
	late := s.seedCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: 2000, Left: 1001,
	})
	early := s.seedCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: 1000, Left: 1001,
	})
	s.seedCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: 9000, Left: 1001,
	})

	entries, err := s.repo.LearnQueue(context.Background(), []int64{1}, 5000, 100)
	s.Require().NoError(err)
	s.Require().Len(entries, 2, "cards past the cutoff are excluded")
	s.Assert().Equal(early, entries[0].ID)
	s.Assert().Equal(late, entries[1].ID)
}

func (s *CardRepositorySuite) TestLearnStepCountSumsRemainingSteps() {
	s.seedCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: 1000, Left: 2002,
	})
	s.seedCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueLearning, Due: 1500, Left: 1001,
	})

	n, err := s.repo.LearnStepCount(context.Background(), []int64{1}, 5000, 100)
	s.Require().NoError(err)
	s.Assert().Equal(3, n, "two steps plus one step")
}

func (s *CardRepositorySuite) TestSiblings() {
	self := s.seedCard(models.Card{NoteID: 7, Queue: models.QueueNew, Due: 1})
	newSib := s.seedCard(models.Card{NoteID: 7, Queue: models.QueueNew, Due: 2})
	dueRev := s.seedCard(models.Card{
		NoteID: 7, Type: models.CardTypeReview, Queue: models.QueueReview, Due: 9,
	})
	s.seedCard(models.Card{
		NoteID: 7, Type: models.CardTypeReview, Queue: models.QueueReview, Due: 30,
	})
	s.seedCard(models.Card{NoteID: 7, Queue: models.QueueSuspended, Due: 3})
	s.seedCard(models.Card{NoteID: 8, Queue: models.QueueNew, Due: 4})

	refs, err := s.repo.Siblings(context.Background(), 7, self, 10)
	s.Require().NoError(err)
	s.Require().Len(refs, 2)
	got := map[int64]models.CardQueue{}
	for _, ref := range refs {
		got[ref.ID] = ref.Queue
	}
	s.Assert().Equal(models.QueueNew, got[newSib])
	s.Assert().Equal(models.QueueReview, got[dueRev])
}

func (s *CardRepositorySuite) TestNoteCardIDsSkipsUnschedulable() {
	a := s.seedCard(models.Card{NoteID: 7, Queue: models.QueueNew, Due: 1})
	s.seedCard(models.Card{NoteID: 7, Queue: models.QueueSuspended, Due: 2})
	b := s.seedCard(models.Card{
		NoteID: 7, Type: models.CardTypeReview, Queue: models.QueueReview, Due: 3,
	})

	ids, err := s.repo.NoteCardIDs(context.Background(), 7)
	s.Require().NoError(err)
	s.Assert().ElementsMatch([]int64{a, b}, ids)
}

func (s *CardRepositorySuite) TestSetQueue() {
	a := s.seedCard(models.Card{Queue: models.QueueNew, Due: 1})
	b := s.seedCard(models.Card{Queue: models.QueueNew, Due: 2})
	c := s.seedCard(models.Card{Queue: models.QueueNew, Due: 3})

	s.Require().NoError(s.repo.SetQueue(context.Background(), []int64{a, b}, models.QueueSchedBuried))

	for _, id := range []int64{a, b} {
		card, err := s.repo.Get(context.Background(), id)
		s.Require().NoError(err)
		s.Assert().Equal(models.QueueSchedBuried, card.Queue)
	}
	card, err := s.repo.Get(context.Background(), c)
	s.Require().NoError(err)
	s.Assert().Equal(models.QueueNew, card.Queue)
}

func (s *CardRepositorySuite) TestRestoreBuried() {
	subday := s.seedCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueUserBuried, Due: 2_000_000_000, Left: 1001,
	})
	interday := s.seedCard(models.Card{
		Type: models.CardTypeLearning, Queue: models.QueueSchedBuried, Due: 5, Left: 1,
	})
	review := s.seedCard(models.Card{
		Type: models.CardTypeReview, Queue: models.QueueUserBuried, Due: 12,
	})
	fresh := s.seedCard(models.Card{Queue: models.QueueSchedBuried, Due: 1})
	untouched := s.seedCard(models.Card{Queue: models.QueueSuspended, Due: 2})

	s.Require().NoError(s.repo.RestoreBuried(context.Background()))

	expect := map[int64]models.CardQueue{
		subday:    models.QueueLearning,
		interday:  models.QueueDayLearning,
		review:    models.QueueReview,
		fresh:     models.QueueNew,
		untouched: models.QueueSuspended,
	}
	for id, queue := range expect {
		card, err := s.repo.Get(context.Background(), id)
		s.Require().NoError(err)
		s.Assert().Equal(queue, card.Queue, "card %d", id)
	}
}

func (s *CardRepositorySuite) TestFilteredCardIDsOrderedByPosition() {
	second := s.seedCard(models.Card{
		DeckID: 5, Queue: models.QueueNew, Due: -99999, OriginalDue: 20, OriginalDeckID: 1,
	})
	first := s.seedCard(models.Card{
		DeckID: 5, Type: models.CardTypeReview, Queue: models.QueueReview,
		Due: -100000, OriginalDue: 5, OriginalDeckID: 1,
	})
	s.seedCard(models.Card{DeckID: 5, Queue: models.QueueNew, Due: 1})

	ids, err := s.repo.FilteredCardIDs(context.Background(), 5)
	s.Require().NoError(err)
	s.Assert().Equal([]int64{first, second}, ids,
		"only loaned cards, in build order")
}

func TestCardRepositorySuite(t *testing.T) {
	suite.Run(t, new(CardRepositorySuite))
}
