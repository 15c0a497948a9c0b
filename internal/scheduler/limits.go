package scheduler

import (
	"context"

	"github.com/marcusv/decksched/internal/models"
)

// deckLimitFn computes a single deck's remaining daily budget, ignoring
// ancestors.
type deckLimitFn func(ctx context.Context, deck *models.Deck) (int, error)

// deckCountFn counts outstanding cards of one deck, capped at lim.
type deckCountFn func(ctx context.Context, deckID int64, lim int) (int, error)

// walkingCount folds over the active decks, counting outstanding cards
// while charging every count against each ancestor's remaining budget, so
// a child can never exceed a parent's daily cap even though each deck
// tracks its own counter. It returns the total and the remaining-budget
// map keyed by deck id.
func (s *Scheduler) walkingCount(ctx context.Context, limFn deckLimitFn, cntFn deckCountFn) (int, map[int64]int, error) {
	active, err := s.activeDecks(ctx)
	if err != nil {
		return 0, nil, err
	}

	total := 0
	remaining := make(map[int64]int, len(active))

	for _, did := range active {
		deck, err := s.decks.Get(ctx, did)
		if err != nil {
			return 0, nil, err
		}
		if deck == nil {
			continue
		}
		lim, err := limFn(ctx, deck)
		if err != nil {
			return 0, nil, err
		}
		if lim <= 0 {
			remaining[did] = 0
			continue
		}

		parents, err := s.decks.Parents(ctx, did)
		if err != nil {
			return 0, nil, err
		}
		for i := range parents {
			p := &parents[i]
			if _, ok := remaining[p.ID]; !ok {
				plim, err := limFn(ctx, p)
				if err != nil {
					return 0, nil, err
				}
				remaining[p.ID] = plim
			}
			lim = minInt(remaining[p.ID], lim)
		}
		if lim <= 0 {
			remaining[did] = 0
			continue
		}

		cnt, err := cntFn(ctx, did, lim)
		if err != nil {
			return 0, nil, err
		}
		for i := range parents {
			remaining[parents[i].ID] -= cnt
		}
		remaining[did] = lim - cnt
		total += cnt
	}
	return total, remaining, nil
}

// deckNewLimitSingle is the deck's own remaining new-card budget for
// today. Filtered decks report the query cap instead of a configured
// limit.
func (s *Scheduler) deckNewLimitSingle(ctx context.Context, deck *models.Deck) (int, error) {
	if deck.Dynamic {
		return reportLimit, nil
	}
	cfg, err := s.decks.ConfigFor(ctx, deck.ID)
	if err != nil {
		return 0, err
	}
	return maxInt(0, cfg.New.PerDay-deck.NewToday.CountFor(s.today)), nil
}

// deckReviewLimitSingle mirrors deckNewLimitSingle for reviews.
func (s *Scheduler) deckReviewLimitSingle(ctx context.Context, deck *models.Deck) (int, error) {
	if deck.Dynamic {
		return reportLimit, nil
	}
	cfg, err := s.decks.ConfigFor(ctx, deck.ID)
	if err != nil {
		return 0, err
	}
	return maxInt(0, cfg.Review.PerDay-deck.ReviewToday.CountFor(s.today)), nil
}

// deckLimit walks from the deck up through its ancestors and returns the
// minimum remaining budget across the chain.
func (s *Scheduler) deckLimit(ctx context.Context, deckID int64, limFn deckLimitFn) (int, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return 0, err
	}
	if deck == nil {
		return 0, nil
	}
	lim, err := limFn(ctx, deck)
	if err != nil {
		return 0, err
	}
	parents, err := s.decks.Parents(ctx, deckID)
	if err != nil {
		return 0, err
	}
	for i := range parents {
		plim, err := limFn(ctx, &parents[i])
		if err != nil {
			return 0, err
		}
		lim = minInt(lim, plim)
	}
	return maxInt(0, lim), nil
}

// DeckNewLimit is the effective new-card limit of a deck for today,
// honoring every ancestor's remaining cap.
func (s *Scheduler) DeckNewLimit(ctx context.Context, deckID int64) (int, error) {
	return s.deckLimit(ctx, deckID, s.deckNewLimitSingle)
}

// DeckReviewLimit is the effective review limit of a deck for today.
func (s *Scheduler) DeckReviewLimit(ctx context.Context, deckID int64) (int, error) {
	return s.deckLimit(ctx, deckID, s.deckReviewLimitSingle)
}
