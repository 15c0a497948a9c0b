package models

import "fmt"

// NewOrder controls how the new-card queue is filled.
type NewOrder int

const (
	NewOrderDue    NewOrder = 0
	NewOrderRandom NewOrder = 1
)

// LeechAction is what happens when a card crosses the leech threshold.
type LeechAction int

const (
	LeechSuspend LeechAction = 0
	LeechMark    LeechAction = 1
)

// NewSpread controls how new cards interleave with reviews.
type NewSpread int

const (
	NewSpreadDistribute NewSpread = 0
	NewSpreadLast       NewSpread = 1
	NewSpreadFirst      NewSpread = 2
)

// NewConfig is the new-card policy of a deck configuration.
type NewConfig struct {
	// Delays are the learning steps in minutes. An empty list means cards
	// graduate to review on their first answer.
	Delays []float64 `json:"delays"`
	Order  NewOrder  `json:"order"`
	PerDay int       `json:"per_day"`
	// InitialFactor is the starting ease in permyriad.
	InitialFactor int `json:"initial_factor"`
	// Ints holds the graduating interval and the easy-graduation interval
	// in days.
	Ints [2]int `json:"ints"`
	Bury bool   `json:"bury"`
}

// LapseConfig is the relearning policy applied when a review card lapses.
type LapseConfig struct {
	Delays      []float64   `json:"delays"`
	Mult        float64     `json:"mult"`
	MinInterval int         `json:"min_interval"`
	LeechFails  int         `json:"leech_fails"`
	LeechAction LeechAction `json:"leech_action"`
}

// ReviewConfig is the review-card policy of a deck configuration.
type ReviewConfig struct {
	PerDay int `json:"per_day"`
	// Ease4 is the extra multiplier applied on an Easy answer.
	Ease4 float64 `json:"ease4"`
	// IvlFct scales every computed review interval.
	IvlFct      float64 `json:"ivl_fct"`
	MaxInterval int     `json:"max_interval"`
	Bury        bool    `json:"bury"`
	Fuzz        bool    `json:"fuzz"`
}

// DeckConfig is a parsed, validated deck configuration. Invalid or missing
// fields are caught when the config is loaded, not at point of use.
type DeckConfig struct {
	ID     int64        `json:"id"`
	Name   string       `json:"name"`
	New    NewConfig    `json:"new"`
	Lapse  LapseConfig  `json:"lapse"`
	Review ReviewConfig `json:"review"`
}

// DefaultDeckConfig returns the configuration new collections start with.
func DefaultDeckConfig() *DeckConfig {
	return &DeckConfig{
		Name: "Default",
		New: NewConfig{
			Delays:        []float64{1, 10},
			Order:         NewOrderDue,
			PerDay:        20,
			InitialFactor: 2500,
			Ints:          [2]int{1, 4},
			Bury:          true,
		},
		Lapse: LapseConfig{
			Delays:      []float64{10},
			Mult:        0,
			MinInterval: 1,
			LeechFails:  8,
			LeechAction: LeechSuspend,
		},
		Review: ReviewConfig{
			PerDay:      100,
			Ease4:       1.3,
			IvlFct:      1,
			MaxInterval: 36500,
			Bury:        true,
			Fuzz:        true,
		},
	}
}

// Validate checks a configuration for values the scheduler cannot work
// with. Empty delay lists are deliberately allowed: they mean immediate
// graduation or placement.
func (c *DeckConfig) Validate() error {
	for _, d := range c.New.Delays {
		if d < 0 {
			return fmt.Errorf("config %q: negative learning delay %v", c.Name, d)
		}
	}
	for _, d := range c.Lapse.Delays {
		if d < 0 {
			return fmt.Errorf("config %q: negative lapse delay %v", c.Name, d)
		}
	}
	if c.New.InitialFactor <= 0 {
		return fmt.Errorf("config %q: initial factor must be positive", c.Name)
	}
	if c.Lapse.Mult < 0 {
		return fmt.Errorf("config %q: negative lapse multiplier", c.Name)
	}
	if c.Review.IvlFct <= 0 {
		return fmt.Errorf("config %q: interval factor must be positive", c.Name)
	}
	if c.Review.MaxInterval < 1 {
		return fmt.Errorf("config %q: max interval below one day", c.Name)
	}
	return nil
}
