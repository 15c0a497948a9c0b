package models

// CardQueryOrder names a supported ordering for card id queries.
type CardQueryOrder string

const (
	OrderNone     CardQueryOrder = ""
	OrderByDue    CardQueryOrder = "due"
	OrderRandom   CardQueryOrder = "random"
	OrderByDueID  CardQueryOrder = "due,id"
)

// CardQuery is the predicate set the scheduler uses to pull card ids: deck
// membership, queue, and a due cutoff, with ordering and a limit.
type CardQuery struct {
	DeckIDs []int64
	Queue   *CardQueue
	// DueAtMost keeps cards with due <= the value (day-based queues).
	DueAtMost *int64
	// DueBelow keeps cards with due < the value (timestamp-based queue).
	DueBelow *int64
	OrderBy  CardQueryOrder
	Limit    int
}

// QueueFilter is a convenience for building a CardQuery queue predicate.
func QueueFilter(q CardQueue) *CardQueue { return &q }

// DueLimit is a convenience for building a CardQuery due predicate.
func DueLimit(v int64) *int64 { return &v }

// LearnQueueEntry is a (due, id) pair pulled for the sub-day learning
// queue.
type LearnQueueEntry struct {
	Due int64 `json:"due"`
	ID  int64 `json:"id"`
}

// SiblingRef identifies a sibling card considered for burying on answer.
type SiblingRef struct {
	ID    int64
	Queue CardQueue
}
