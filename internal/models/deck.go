package models

import (
	"strings"
	"time"
)

// NameSeparator splits a deck path into its segments. A deck named
// "Spanish::Verbs" is a child of "Spanish".
const NameSeparator = "::"

// DayCount is a per-deck daily counter. Count only applies while Day
// matches the scheduler's current day; stale counters are reset lazily.
type DayCount struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

// CountFor returns the counter value for the given day, treating a stale
// counter as zero.
func (dc DayCount) CountFor(day int) int {
	if dc.Day != day {
		return 0
	}
	return dc.Count
}

// Deck is a named container of cards. Normal decks reference a shared
// configuration by ID; filtered (dynamic) decks embed their own.
type Deck struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Dynamic  bool   `json:"dynamic"`
	ConfigID int64  `json:"config_id"`

	// Filtered-deck settings, meaningful only when Dynamic is true.
	// Resched controls whether answering inside the filtered deck
	// reschedules the home state. Delays, when non-empty, override the
	// learning delays of a member card's home configuration.
	Resched bool      `json:"resched"`
	Delays  []float64 `json:"delays,omitempty"`

	NewToday    DayCount `json:"new_today"`
	ReviewToday DayCount `json:"review_today"`
	LearnToday  DayCount `json:"learn_today"`
	TimeToday   DayCount `json:"time_today"`

	Selected  bool      `json:"selected"`
	CreatedAt time.Time `json:"created_at"`
}

// PathSegments returns the deck name split on the separator.
func (d *Deck) PathSegments() []string {
	return strings.Split(d.Name, NameSeparator)
}

// ParentName returns the name of the immediate parent, or "" for a
// top-level deck.
func (d *Deck) ParentName() string {
	idx := strings.LastIndex(d.Name, NameSeparator)
	if idx < 0 {
		return ""
	}
	return d.Name[:idx]
}

// BaseName returns the last path segment.
func (d *Deck) BaseName() string {
	segs := d.PathSegments()
	return segs[len(segs)-1]
}

// IsParentOf reports whether other is a strict descendant of d.
func (d *Deck) IsParentOf(other *Deck) bool {
	return strings.HasPrefix(other.Name, d.Name+NameSeparator)
}
