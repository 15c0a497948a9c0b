package scheduler

import (
	"context"
	"sort"

	"github.com/marcusv/decksched/internal/models"
)

// --- new cards ---

func (s *Scheduler) resetNewCount(ctx context.Context) error {
	queue := models.QueueFilter(models.QueueNew)
	cnt, _, err := s.walkingCount(ctx, s.deckNewLimitSingle,
		func(ctx context.Context, deckID int64, lim int) (int, error) {
			return s.cards.Count(ctx, models.CardQuery{
				DeckIDs: []int64{deckID},
				Queue:   queue,
				Limit:   lim,
			})
		})
	if err != nil {
		return err
	}
	s.sess.newCount = cnt
	return nil
}

func (s *Scheduler) resetNew(ctx context.Context) error {
	if err := s.resetNewCount(ctx); err != nil {
		return err
	}
	active, err := s.activeDecks(ctx)
	if err != nil {
		return err
	}
	s.sess.newDecks = append([]int64(nil), active...)
	s.sess.newQueue = s.sess.newQueue[:0]
	s.updateNewCardRatio()
	return nil
}

// fillNew refills the new queue from the deck at the rotation cursor,
// advancing to the next active deck when one is exhausted. If every deck
// comes up empty while the tallied count says cards remain (ids removed
// or buried since reset), it recounts and retries once.
func (s *Scheduler) fillNew(ctx context.Context) (bool, error) {
	return s.fillNewInner(ctx, false)
}

func (s *Scheduler) fillNewInner(ctx context.Context, recursing bool) (bool, error) {
	if len(s.sess.newQueue) > 0 {
		return true, nil
	}
	if s.sess.newCount == 0 {
		return false, nil
	}
	for len(s.sess.newDecks) > 0 {
		did := s.sess.newDecks[0]
		lim, err := s.DeckNewLimit(ctx, did)
		if err != nil {
			return false, err
		}
		lim = minInt(s.queueLimit, lim)
		if lim > 0 {
			ids, err := s.cards.CardIDs(ctx, models.CardQuery{
				DeckIDs: []int64{did},
				Queue:   models.QueueFilter(models.QueueNew),
				OrderBy: models.OrderByDue,
				Limit:   lim,
			})
			if err != nil {
				return false, err
			}
			if len(ids) > 0 {
				s.sess.newQueue = ids
				return true, nil
			}
		}
		// deck exhausted for today, rotate
		s.sess.newDecks = s.sess.newDecks[1:]
	}
	if s.sess.newCount > 0 && !recursing {
		if err := s.resetNew(ctx); err != nil {
			return false, err
		}
		return s.fillNewInner(ctx, true)
	}
	return false, nil
}

func (s *Scheduler) getNewCard(ctx context.Context) (*models.Card, error) {
	ok, err := s.fillNew(ctx)
	if err != nil || !ok {
		return nil, err
	}
	id := s.sess.newQueue[0]
	s.sess.newQueue = s.sess.newQueue[1:]
	s.sess.newCount--
	return s.fetch(ctx, id)
}

// updateNewCardRatio derives the interleave modulus for DISTRIBUTE: one
// new card every newCardModulus reps, at least every 2nd rep while
// reviews remain.
func (s *Scheduler) updateNewCardRatio() {
	if s.spread == models.NewSpreadDistribute && s.sess.newCount > 0 {
		s.sess.newCardModulus = (s.sess.newCount + s.sess.revCount) / s.sess.newCount
		if s.sess.revCount > 0 {
			s.sess.newCardModulus = maxInt(2, s.sess.newCardModulus)
		}
		return
	}
	s.sess.newCardModulus = 0
}

func (s *Scheduler) timeForNewCard() bool {
	if s.sess.newCount == 0 {
		return false
	}
	switch s.spread {
	case models.NewSpreadLast:
		return false
	case models.NewSpreadFirst:
		return true
	}
	if s.sess.newCardModulus != 0 {
		return s.sess.reps != 0 && s.sess.reps%s.sess.newCardModulus == 0
	}
	return false
}

// --- learning cards ---

func (s *Scheduler) resetLearning(ctx context.Context) error {
	active, err := s.activeDecks(ctx)
	if err != nil {
		return err
	}
	// sub-day steps, in remaining-step units
	steps, err := s.cards.LearnStepCount(ctx, active, s.dayCutoff, reportLimit)
	if err != nil {
		return err
	}
	// interday learning, in card units
	dayCnt, err := s.cards.Count(ctx, models.CardQuery{
		DeckIDs:   active,
		Queue:     models.QueueFilter(models.QueueDayLearning),
		DueAtMost: models.DueLimit(int64(s.today)),
		Limit:     reportLimit,
	})
	if err != nil {
		return err
	}
	s.sess.lrnCount = steps + dayCnt
	s.sess.lrnQueue = s.sess.lrnQueue[:0]
	s.sess.lrnDayQueue = s.sess.lrnDayQueue[:0]
	s.sess.lrnDayDecks = append([]int64(nil), active...)
	return nil
}

// fillLearn pulls the sub-day learning queue in one flat pass across all
// active decks, ascending by due.
func (s *Scheduler) fillLearn(ctx context.Context) (bool, error) {
	if s.sess.lrnCount == 0 {
		return false, nil
	}
	if len(s.sess.lrnQueue) > 0 {
		return true, nil
	}
	active, err := s.activeDecks(ctx)
	if err != nil {
		return false, err
	}
	entries, err := s.cards.LearnQueue(ctx, active, s.dayCutoff, reportLimit)
	if err != nil {
		return false, err
	}
	s.sess.lrnQueue = s.sess.lrnQueue[:0]
	for _, e := range entries {
		s.sess.lrnQueue = append(s.sess.lrnQueue, lrnEntry{due: e.Due, id: e.ID})
	}
	return len(s.sess.lrnQueue) > 0, nil
}

// getLearnCard returns the head of the sub-day learning queue when it is
// actually due. With collapse the cutoff reaches collapseTime seconds
// ahead, so the tail of a session is spent on almost-due steps instead of
// stalling.
func (s *Scheduler) getLearnCard(ctx context.Context, collapse bool) (*models.Card, error) {
	ok, err := s.fillLearn(ctx)
	if err != nil || !ok {
		return nil, err
	}
	cutoff := s.clock.Now().Unix()
	if collapse {
		cutoff += s.collapseTime
	}
	if s.sess.lrnQueue[0].due >= cutoff {
		return nil, nil
	}
	id := s.sess.lrnQueue[0].id
	s.sess.lrnQueue = s.sess.lrnQueue[1:]
	card, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	s.sess.lrnCount -= card.Left / 1000
	return card, nil
}

// sortLearnIn inserts a rescheduled card into the sub-day queue at its
// sorted position, after any existing entries with the same due.
func (s *Scheduler) sortLearnIn(due, id int64) {
	q := s.sess.lrnQueue
	idx := sort.Search(len(q), func(i int) bool { return q[i].due > due })
	q = append(q, lrnEntry{})
	copy(q[idx+1:], q[idx:])
	q[idx] = lrnEntry{due: due, id: id}
	s.sess.lrnQueue = q
}

// fillLearnDay refills the interday learning queue per deck, shuffled
// with the today-seeded RNG.
func (s *Scheduler) fillLearnDay(ctx context.Context) (bool, error) {
	if s.sess.lrnCount == 0 {
		return false, nil
	}
	if len(s.sess.lrnDayQueue) > 0 {
		return true, nil
	}
	for len(s.sess.lrnDayDecks) > 0 {
		did := s.sess.lrnDayDecks[0]
		ids, err := s.cards.CardIDs(ctx, models.CardQuery{
			DeckIDs:   []int64{did},
			Queue:     models.QueueFilter(models.QueueDayLearning),
			DueAtMost: models.DueLimit(int64(s.today)),
			Limit:     s.queueLimit,
		})
		if err != nil {
			return false, err
		}
		if len(ids) > 0 {
			DeterministicShuffle(ids, int64(s.today))
			s.sess.lrnDayQueue = ids
			if len(ids) < s.queueLimit {
				// deck is drained once this batch is gone
				s.sess.lrnDayDecks = s.sess.lrnDayDecks[1:]
			}
			return true, nil
		}
		s.sess.lrnDayDecks = s.sess.lrnDayDecks[1:]
	}
	return false, nil
}

func (s *Scheduler) getLearnDayCard(ctx context.Context) (*models.Card, error) {
	ok, err := s.fillLearnDay(ctx)
	if err != nil || !ok {
		return nil, err
	}
	id := s.sess.lrnDayQueue[0]
	s.sess.lrnDayQueue = s.sess.lrnDayQueue[1:]
	s.sess.lrnCount--
	return s.fetch(ctx, id)
}

// --- review cards ---

func (s *Scheduler) resetReviewCount(ctx context.Context) error {
	queue := models.QueueFilter(models.QueueReview)
	due := models.DueLimit(int64(s.today))
	cnt, _, err := s.walkingCount(ctx, s.deckReviewLimitSingle,
		func(ctx context.Context, deckID int64, lim int) (int, error) {
			return s.cards.Count(ctx, models.CardQuery{
				DeckIDs:   []int64{deckID},
				Queue:     queue,
				DueAtMost: due,
				Limit:     lim,
			})
		})
	if err != nil {
		return err
	}
	s.sess.revCount = cnt
	return nil
}

func (s *Scheduler) resetReview(ctx context.Context) error {
	if err := s.resetReviewCount(ctx); err != nil {
		return err
	}
	active, err := s.activeDecks(ctx)
	if err != nil {
		return err
	}
	s.sess.revDecks = append([]int64(nil), active...)
	s.sess.revQueue = s.sess.revQueue[:0]
	return nil
}

// fillReview refills per deck like fillNew. Normal decks get their batch
// shuffled with the today-seeded RNG; filtered decks keep due order,
// which reflects their build order.
func (s *Scheduler) fillReview(ctx context.Context) (bool, error) {
	return s.fillReviewInner(ctx, false)
}

func (s *Scheduler) fillReviewInner(ctx context.Context, recursing bool) (bool, error) {
	if len(s.sess.revQueue) > 0 {
		return true, nil
	}
	if s.sess.revCount == 0 {
		return false, nil
	}
	for len(s.sess.revDecks) > 0 {
		did := s.sess.revDecks[0]
		lim, err := s.DeckReviewLimit(ctx, did)
		if err != nil {
			return false, err
		}
		lim = minInt(s.queueLimit, lim)
		if lim > 0 {
			ids, err := s.cards.CardIDs(ctx, models.CardQuery{
				DeckIDs:   []int64{did},
				Queue:     models.QueueFilter(models.QueueReview),
				DueAtMost: models.DueLimit(int64(s.today)),
				OrderBy:   models.OrderByDue,
				Limit:     lim,
			})
			if err != nil {
				return false, err
			}
			if len(ids) > 0 {
				deck, err := s.decks.Get(ctx, did)
				if err != nil {
					return false, err
				}
				if deck == nil || !deck.Dynamic {
					DeterministicShuffle(ids, int64(s.today))
				}
				s.sess.revQueue = ids
				if len(ids) < lim {
					s.sess.revDecks = s.sess.revDecks[1:]
				}
				return true, nil
			}
		}
		s.sess.revDecks = s.sess.revDecks[1:]
	}
	if s.sess.revCount > 0 && !recursing {
		if err := s.resetReview(ctx); err != nil {
			return false, err
		}
		return s.fillReviewInner(ctx, true)
	}
	return false, nil
}

func (s *Scheduler) getReviewCard(ctx context.Context) (*models.Card, error) {
	ok, err := s.fillReview(ctx)
	if err != nil || !ok {
		return nil, err
	}
	id := s.sess.revQueue[0]
	s.sess.revQueue = s.sess.revQueue[1:]
	s.sess.revCount--
	return s.fetch(ctx, id)
}

// removeFromQueues prunes a card id from every in-memory queue, used when
// siblings get buried mid-session.
func (s *Scheduler) removeFromQueues(id int64) {
	for i, v := range s.sess.newQueue {
		if v == id {
			s.sess.newQueue = append(s.sess.newQueue[:i], s.sess.newQueue[i+1:]...)
			break
		}
	}
	for i, v := range s.sess.revQueue {
		if v == id {
			s.sess.revQueue = append(s.sess.revQueue[:i], s.sess.revQueue[i+1:]...)
			break
		}
	}
	for i, e := range s.sess.lrnQueue {
		if e.id == id {
			s.sess.lrnQueue = append(s.sess.lrnQueue[:i], s.sess.lrnQueue[i+1:]...)
			break
		}
	}
	for i, v := range s.sess.lrnDayQueue {
		if v == id {
			s.sess.lrnDayQueue = append(s.sess.lrnDayQueue[:i], s.sess.lrnDayQueue[i+1:]...)
			break
		}
	}
}
