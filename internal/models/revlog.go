package models

// ReviewKind tells which part of the state machine produced a review log
// entry.
type ReviewKind int

const (
	ReviewKindLearn    ReviewKind = 0
	ReviewKindReview   ReviewKind = 1
	ReviewKindRelearn  ReviewKind = 2
	ReviewKindFiltered ReviewKind = 3
)

// ReviewLog is one append-only record per answered card.
type ReviewLog struct {
	ID     int64 `json:"id"`
	CardID int64 `json:"card_id"`
	// ReviewedAt is a unix timestamp in milliseconds.
	ReviewedAt int64 `json:"reviewed_at"`
	Grade      Grade `json:"grade"`
	// Interval is the resulting interval: days when positive, negative
	// seconds for sub-day learning steps.
	Interval     int        `json:"interval"`
	LastInterval int        `json:"last_interval"`
	Factor       int        `json:"factor"`
	TookSeconds  float64    `json:"took_seconds"`
	Kind         ReviewKind `json:"kind"`
}
