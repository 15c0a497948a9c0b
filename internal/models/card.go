package models

import "time"

// CardType is the long-term scheduling stage of a card.
type CardType int

const (
	CardTypeNew      CardType = 0
	CardTypeLearning CardType = 1
	CardTypeReview   CardType = 2
)

// CardQueue is the bucket the card is currently scheduled from. It is
// distinct from CardType: a lapsed review card sits in the learning queue
// while keeping type Review.
type CardQueue int

const (
	QueueSchedBuried CardQueue = -3
	QueueUserBuried  CardQueue = -2
	QueueSuspended   CardQueue = -1
	QueueNew         CardQueue = 0
	QueueLearning    CardQueue = 1
	QueueReview      CardQueue = 2
	QueueDayLearning CardQueue = 3
)

// Grade is the answer the reviewer gave.
type Grade int

const (
	GradeAgain Grade = 1
	GradeHard  Grade = 2
	GradeGood  Grade = 3
	GradeEasy  Grade = 4
)

func (g Grade) Valid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

func (g Grade) String() string {
	switch g {
	case GradeAgain:
		return "again"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	}
	return "unknown"
}

// Card holds the review state of a single flashcard.
//
// The meaning of Due depends on Queue: for new cards it is an ordering
// position, for sub-day learning a unix timestamp, for review and day
// learning a day number counted from collection creation. Due values from
// different queues must never be compared with each other.
type Card struct {
	ID     int64 `json:"id"`
	NoteID int64 `json:"note_id"`
	DeckID int64 `json:"deck_id"`

	Type  CardType  `json:"type"`
	Queue CardQueue `json:"queue"`
	Due   int64     `json:"due"`

	// Interval is measured in days; a negative value encodes seconds for
	// sub-day intervals in the review log.
	Interval int `json:"interval"`
	// Factor is the ease factor in permyriad (2500 = 2.5x).
	Factor int `json:"factor"`
	Reps   int `json:"reps"`
	Lapses int `json:"lapses"`
	// Left encodes remaining learning steps as total + stepsToday*1000.
	Left int `json:"left"`

	// OriginalDue and OriginalDeckID are non-zero while the card sits in a
	// filtered deck (or, for OriginalDue, during relearning), preserving
	// the home state.
	OriginalDue    int64 `json:"original_due"`
	OriginalDeckID int64 `json:"original_deck_id"`

	Modified  int64     `json:"modified"`
	CreatedAt time.Time `json:"created_at"`
}

// InFiltered reports whether the card is currently on loan to a filtered
// deck.
func (c *Card) InFiltered() bool {
	return c.OriginalDeckID != 0
}

// HomeDue returns the due value of the card's home deck, which differs
// from Due while the card is in a filtered deck.
func (c *Card) HomeDue() int64 {
	if c.OriginalDue != 0 {
		return c.OriginalDue
	}
	return c.Due
}
