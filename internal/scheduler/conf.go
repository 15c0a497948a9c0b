package scheduler

import (
	"context"

	"github.com/marcusv/decksched/internal/models"
)

// newConf resolves the new-card policy governing a card. For a card on
// loan to a filtered deck the home deck's policy applies, except that the
// filtered deck may override the learning delays, ordering is forced to
// due order, and the per-day cap is lifted.
func (s *Scheduler) newConf(ctx context.Context, card *models.Card) (models.NewConfig, error) {
	if !card.InFiltered() {
		cfg, err := s.decks.ConfigFor(ctx, card.DeckID)
		if err != nil {
			return models.NewConfig{}, err
		}
		return cfg.New, nil
	}

	home, err := s.decks.ConfigFor(ctx, card.OriginalDeckID)
	if err != nil {
		return models.NewConfig{}, err
	}
	dyn, err := s.decks.Get(ctx, card.DeckID)
	if err != nil {
		return models.NewConfig{}, err
	}
	merged := home.New
	if dyn != nil && len(dyn.Delays) > 0 {
		merged.Delays = dyn.Delays
	}
	merged.Order = models.NewOrderDue
	merged.PerDay = reportLimit
	return merged, nil
}

// lapseConf resolves the relearning policy with the same filtered-deck
// delay override as newConf.
func (s *Scheduler) lapseConf(ctx context.Context, card *models.Card) (models.LapseConfig, error) {
	if !card.InFiltered() {
		cfg, err := s.decks.ConfigFor(ctx, card.DeckID)
		if err != nil {
			return models.LapseConfig{}, err
		}
		return cfg.Lapse, nil
	}

	home, err := s.decks.ConfigFor(ctx, card.OriginalDeckID)
	if err != nil {
		return models.LapseConfig{}, err
	}
	dyn, err := s.decks.Get(ctx, card.DeckID)
	if err != nil {
		return models.LapseConfig{}, err
	}
	merged := home.Lapse
	if dyn != nil && len(dyn.Delays) > 0 {
		merged.Delays = dyn.Delays
	}
	return merged, nil
}

// revConf resolves the review policy: always the home deck's for filtered
// cards.
func (s *Scheduler) revConf(ctx context.Context, card *models.Card) (models.ReviewConfig, error) {
	deckID := card.DeckID
	if card.InFiltered() {
		deckID = card.OriginalDeckID
	}
	cfg, err := s.decks.ConfigFor(ctx, deckID)
	if err != nil {
		return models.ReviewConfig{}, err
	}
	return cfg.Review, nil
}

// resched reports whether answering the card may rewrite its home
// schedule. Only filtered decks can turn this off.
func (s *Scheduler) resched(ctx context.Context, card *models.Card) (bool, error) {
	deck, err := s.decks.Get(ctx, card.DeckID)
	if err != nil {
		return false, err
	}
	if deck == nil || !deck.Dynamic {
		return true, nil
	}
	return deck.Resched, nil
}
