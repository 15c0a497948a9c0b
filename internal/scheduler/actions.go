package scheduler

import (
	"context"

	"github.com/marcusv/decksched/internal/models"
)

// normalizeLearning takes a card out of the learning queues before a
// suspend or bury, so the stored state makes sense on restore. A lapsed
// review card gets its pending review due back; a card still learning for
// the first time falls back to new.
func normalizeLearning(card *models.Card) {
	if card.Queue != models.QueueLearning && card.Queue != models.QueueDayLearning {
		return
	}
	if card.Type == models.CardTypeReview {
		// relearning: restore the recorded review due date
		if card.OriginalDue != 0 {
			card.Due = card.OriginalDue
			card.OriginalDue = 0
		}
		card.Queue = models.QueueReview
		return
	}
	card.Type = models.CardTypeNew
	card.Queue = models.QueueNew
	card.Interval = 0
	card.Due = card.NoteID
	card.Left = 0
}

// restoreQueue recomputes the queue of a card leaving suspension or
// burial from its type. Learning cards are told apart from day-learning
// ones by the magnitude of the stored due: timestamps dwarf day numbers.
func restoreQueue(card *models.Card) {
	switch card.Type {
	case models.CardTypeLearning:
		if card.Due > 1_000_000_000 {
			card.Queue = models.QueueLearning
		} else {
			card.Queue = models.QueueDayLearning
		}
	case models.CardTypeReview:
		card.Queue = models.QueueReview
	default:
		card.Queue = models.QueueNew
	}
}

func (s *Scheduler) applyToCards(ctx context.Context, ids []int64, fn func(*models.Card)) error {
	for _, id := range ids {
		card, err := s.fetch(ctx, id)
		if err != nil {
			return err
		}
		fn(card)
		card.Modified = s.clock.Now().Unix()
		if err := s.cards.Update(ctx, card); err != nil {
			return err
		}
		s.removeFromQueues(id)
	}
	// queue contents and counts are stale now; rebuild lazily
	s.haveQueues = false
	return nil
}

// SuspendCards removes cards from all queue fills until unsuspended.
func (s *Scheduler) SuspendCards(ctx context.Context, ids ...int64) error {
	return s.applyToCards(ctx, ids, func(card *models.Card) {
		normalizeLearning(card)
		card.Queue = models.QueueSuspended
	})
}

// UnsuspendCards restores suspended cards to the queue implied by their
// type.
func (s *Scheduler) UnsuspendCards(ctx context.Context, ids ...int64) error {
	return s.applyToCards(ctx, ids, func(card *models.Card) {
		if card.Queue != models.QueueSuspended {
			return
		}
		restoreQueue(card)
	})
}

// BuryCards hides cards until the next day rollover or an explicit
// unbury. byUser tells user-initiated burial apart from the scheduler's
// sibling burying.
func (s *Scheduler) BuryCards(ctx context.Context, byUser bool, ids ...int64) error {
	queue := models.QueueSchedBuried
	if byUser {
		queue = models.QueueUserBuried
	}
	return s.applyToCards(ctx, ids, func(card *models.Card) {
		normalizeLearning(card)
		card.Queue = queue
	})
}

// BuryNote buries every schedulable card of a note.
func (s *Scheduler) BuryNote(ctx context.Context, noteID int64) error {
	ids, err := s.cards.NoteCardIDs(ctx, noteID)
	if err != nil {
		return err
	}
	return s.BuryCards(ctx, true, ids...)
}

// UnburyAll returns every buried card to its type-implied queue.
func (s *Scheduler) UnburyAll(ctx context.Context) error {
	if err := s.cards.RestoreBuried(ctx); err != nil {
		return err
	}
	s.haveQueues = false
	return nil
}

// ForgetCards resets cards to new, dropping interval and learning
// progress but keeping the answer history.
func (s *Scheduler) ForgetCards(ctx context.Context, ids ...int64) error {
	return s.applyToCards(ctx, ids, func(card *models.Card) {
		card.Type = models.CardTypeNew
		card.Queue = models.QueueNew
		card.Interval = 0
		card.Left = 0
		card.Due = card.NoteID
	})
}

// RepositionCards rewrites the new-card ordering positions of the given
// cards, first id first. Non-new cards are left untouched.
func (s *Scheduler) RepositionCards(ctx context.Context, start int64, ids ...int64) error {
	pos := start
	return s.applyToCards(ctx, ids, func(card *models.Card) {
		if card.Queue != models.QueueNew || card.Type != models.CardTypeNew {
			return
		}
		card.Due = pos
		pos++
	})
}
