package scheduler

import (
	"context"
	"fmt"

	"github.com/marcusv/decksched/internal/models"
)

// dynStartDue keeps filtered-deck positions below every real due value so
// the due ordering of the filtered deck is exactly the build order.
const dynStartDue = -100000

// BuildFiltered moves the given cards into a filtered deck, in the given
// order. Each card remembers its home deck and due so EmptyFiltered can
// put it back. Suspended cards and cards already on loan to another
// filtered deck are skipped.
func (s *Scheduler) BuildFiltered(ctx context.Context, deckID int64, cardIDs []int64) (int, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return 0, err
	}
	if deck == nil || !deck.Dynamic {
		return 0, fmt.Errorf("deck %d is not a filtered deck", deckID)
	}

	moved := 0
	now := s.clock.Now().Unix()
	for _, id := range cardIDs {
		card, err := s.fetch(ctx, id)
		if err != nil {
			return moved, err
		}
		if card.Queue == models.QueueSuspended {
			continue
		}
		if card.InFiltered() && card.DeckID != deckID {
			continue
		}

		if !card.InFiltered() {
			card.OriginalDeckID = card.DeckID
			card.OriginalDue = card.Due
		}
		card.DeckID = deckID
		// Only review cards already due at home study as reviews; everything
		// else goes through the new queue of the filtered deck.
		if card.Type == models.CardTypeReview && card.HomeDue() <= int64(s.today) {
			card.Queue = models.QueueReview
		} else {
			card.Queue = models.QueueNew
		}
		card.Due = dynStartDue + int64(moved)
		card.Modified = now
		if err := s.cards.Update(ctx, card); err != nil {
			return moved, err
		}
		moved++
	}

	s.haveQueues = false
	s.log.Info("filtered deck %d built with %d cards", deckID, moved)
	return moved, nil
}

// EmptyFiltered sends every card of a filtered deck back to its home deck
// with its home due restored. Cards that were mid-learning inside the
// filtered deck are reset to new; suspended and buried cards keep their
// queue.
func (s *Scheduler) EmptyFiltered(ctx context.Context, deckID int64) error {
	ids, err := s.cards.FilteredCardIDs(ctx, deckID)
	if err != nil {
		return err
	}
	now := s.clock.Now().Unix()
	for _, id := range ids {
		card, err := s.fetch(ctx, id)
		if err != nil {
			return err
		}
		card.DeckID = card.OriginalDeckID
		card.Due = card.OriginalDue
		card.OriginalDeckID = 0
		card.OriginalDue = 0
		if card.Queue >= 0 {
			if card.Type == models.CardTypeLearning {
				card.Type = models.CardTypeNew
				card.Queue = models.QueueNew
				card.Left = 0
			} else {
				card.Queue = models.CardQueue(card.Type)
			}
		}
		card.Modified = now
		if err := s.cards.Update(ctx, card); err != nil {
			return err
		}
		s.removeFromQueues(id)
	}
	s.haveQueues = false
	return nil
}

// RebuildFiltered empties and refills a filtered deck in one step.
func (s *Scheduler) RebuildFiltered(ctx context.Context, deckID int64, cardIDs []int64) (int, error) {
	if err := s.EmptyFiltered(ctx, deckID); err != nil {
		return 0, err
	}
	return s.BuildFiltered(ctx, deckID, cardIDs)
}
