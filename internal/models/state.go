package models

import "fmt"

// StateKind identifies the variant of a CardState.
type StateKind int

const (
	StateNew StateKind = iota
	StateLearning
	StateReview
	StateSuspended
	StateBuriedByUser
	StateBuriedByScheduler
)

func (k StateKind) String() string {
	switch k {
	case StateNew:
		return "new"
	case StateLearning:
		return "learning"
	case StateReview:
		return "review"
	case StateSuspended:
		return "suspended"
	case StateBuriedByUser:
		return "buried-by-user"
	case StateBuriedByScheduler:
		return "buried-by-scheduler"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// CardState is the scheduling state of a card as a single value, replacing
// the loosely coupled (type, queue) integer pair used on disk. Subday only
// applies to learning: true means the card is in the sub-day learning
// queue, false means interday (day) learning. Relearning reports whether a
// learning card is a lapsed review card working through relearning steps.
type CardState struct {
	Kind       StateKind
	Subday     bool
	Relearning bool
}

// StateOf converts the persisted (type, queue) pair into a CardState. It
// returns an error when the pairing does not match any row of the state
// table, which indicates corrupted storage.
func StateOf(c *Card) (CardState, error) {
	switch c.Queue {
	case QueueSuspended:
		return CardState{Kind: StateSuspended}, nil
	case QueueUserBuried:
		return CardState{Kind: StateBuriedByUser}, nil
	case QueueSchedBuried:
		return CardState{Kind: StateBuriedByScheduler}, nil
	case QueueNew:
		if c.Type != CardTypeNew && !c.InFiltered() {
			return CardState{}, fmt.Errorf("card %d: queue new with type %d", c.ID, c.Type)
		}
		return CardState{Kind: StateNew}, nil
	case QueueLearning:
		if c.Type != CardTypeLearning && c.Type != CardTypeReview {
			return CardState{}, fmt.Errorf("card %d: learning queue with type %d", c.ID, c.Type)
		}
		return CardState{Kind: StateLearning, Subday: true, Relearning: c.Type == CardTypeReview}, nil
	case QueueDayLearning:
		if c.Type != CardTypeLearning && c.Type != CardTypeReview {
			return CardState{}, fmt.Errorf("card %d: day-learning queue with type %d", c.ID, c.Type)
		}
		return CardState{Kind: StateLearning, Subday: false, Relearning: c.Type == CardTypeReview}, nil
	case QueueReview:
		if c.Type != CardTypeReview {
			return CardState{}, fmt.Errorf("card %d: review queue with type %d", c.ID, c.Type)
		}
		return CardState{Kind: StateReview}, nil
	}
	return CardState{}, fmt.Errorf("card %d: unknown queue %d", c.ID, c.Queue)
}

// Apply writes the state back onto the card as the legacy (type, queue)
// pair. Suspension and burial only overwrite the queue, so the underlying
// type survives for later restore.
func (s CardState) Apply(c *Card) {
	switch s.Kind {
	case StateNew:
		c.Type = CardTypeNew
		c.Queue = QueueNew
	case StateLearning:
		if s.Relearning {
			c.Type = CardTypeReview
		} else {
			c.Type = CardTypeLearning
		}
		if s.Subday {
			c.Queue = QueueLearning
		} else {
			c.Queue = QueueDayLearning
		}
	case StateReview:
		c.Type = CardTypeReview
		c.Queue = QueueReview
	case StateSuspended:
		c.Queue = QueueSuspended
	case StateBuriedByUser:
		c.Queue = QueueUserBuried
	case StateBuriedByScheduler:
		c.Queue = QueueSchedBuried
	}
}
