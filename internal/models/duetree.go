package models

// DeckDueRow is one deck's due counts before tree grouping.
type DeckDueRow struct {
	Name   string `json:"name"`
	DeckID int64  `json:"deck_id"`
	Review int    `json:"review"`
	Learn  int    `json:"learn"`
	New    int    `json:"new"`
}

// DueTreeNode is a node of the deck due tree shown in the deck list. Name
// holds only the node's own path segment; counts include all descendants,
// clamped by the node's own daily limits.
type DueTreeNode struct {
	Name     string         `json:"name"`
	DeckID   int64          `json:"deck_id"`
	Review   int            `json:"review"`
	Learn    int            `json:"learn"`
	New      int            `json:"new"`
	Children []*DueTreeNode `json:"children,omitempty"`
}
