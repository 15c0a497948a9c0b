package repository

import (
	"context"

	"github.com/marcusv/decksched/internal/models"
)

// CardRepository handles card data access. Get returns (nil, nil) when the
// card does not exist; callers decide whether that is fatal.
type CardRepository interface {
	Get(ctx context.Context, id int64) (*models.Card, error)
	Insert(ctx context.Context, card *models.Card) (int64, error)
	Update(ctx context.Context, card *models.Card) error

	// CardIDs returns card ids matching the query predicates.
	CardIDs(ctx context.Context, q models.CardQuery) ([]int64, error)
	// Count counts cards matching the query predicates, capped at q.Limit
	// when it is positive.
	Count(ctx context.Context, q models.CardQuery) (int, error)

	// LearnQueue pulls (due, id) pairs for the sub-day learning queue
	// across all given decks, due < cutoff, ascending by due.
	LearnQueue(ctx context.Context, deckIDs []int64, cutoff int64, limit int) ([]models.LearnQueueEntry, error)
	// LearnStepCount sums remaining learning steps (left/1000) over
	// sub-day learning cards due before cutoff, capped at limit cards.
	LearnStepCount(ctx context.Context, deckIDs []int64, cutoff int64, limit int) (int, error)

	// Siblings lists other cards of the same note sitting in the new
	// queue or due in the review queue, for bury-on-answer.
	Siblings(ctx context.Context, noteID, exceptCardID int64, today int64) ([]models.SiblingRef, error)
	// NoteCardIDs lists every schedulable card of a note.
	NoteCardIDs(ctx context.Context, noteID int64) ([]int64, error)
	// SetQueue rewrites the queue of the given cards.
	SetQueue(ctx context.Context, ids []int64, queue models.CardQueue) error
	// RestoreBuried moves user- and scheduler-buried cards back to the
	// queue implied by their type.
	RestoreBuried(ctx context.Context) error

	// FilteredCardIDs lists the cards currently on loan to a filtered
	// deck, in due order.
	FilteredCardIDs(ctx context.Context, deckID int64) ([]int64, error)
}

// DeckRepository handles deck hierarchy and configuration access. Lookups
// by name path are derived from the "::" separated deck names.
type DeckRepository interface {
	Get(ctx context.Context, id int64) (*models.Deck, error)
	All(ctx context.Context) ([]models.Deck, error)
	Create(ctx context.Context, deck *models.Deck) (int64, error)
	Save(ctx context.Context, deck *models.Deck) error
	Remove(ctx context.Context, id int64) error

	// Active returns the selected deck and its descendants, ordered by
	// name.
	Active(ctx context.Context) ([]int64, error)
	Select(ctx context.Context, id int64) error
	// Parents returns the ancestors of a deck, root first.
	Parents(ctx context.Context, id int64) ([]models.Deck, error)
	// Children maps child deck names to ids.
	Children(ctx context.Context, id int64) (map[string]int64, error)

	// ConfigFor resolves the configuration governing a deck. A dangling
	// configuration reference is an error, never silently defaulted.
	ConfigFor(ctx context.Context, deckID int64) (*models.DeckConfig, error)
	SaveConfig(ctx context.Context, cfg *models.DeckConfig) error
}

// ReviewLogRepository is the append-only sink receiving one record per
// answered card.
type ReviewLogRepository interface {
	Record(ctx context.Context, entry models.ReviewLog) error
}
