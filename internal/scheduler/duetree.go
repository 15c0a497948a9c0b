package scheduler

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/marcusv/decksched/internal/models"
)

// deckListRetries bounds the duplicate-name self-heal loop so a storage
// layer that keeps resurrecting a duplicate cannot spin us forever.
const deckListRetries = 10

// DeckDueList returns one row per deck with its due counts for today,
// each clamped by the parent chain's remaining daily limits. Duplicate
// deck names are repaired by dropping the newcomer and recounting.
func (s *Scheduler) DeckDueList(ctx context.Context) ([]models.DeckDueRow, error) {
	if err := s.checkDay(ctx); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < deckListRetries; attempt++ {
		rows, retry, err := s.deckDueRows(ctx)
		if err != nil {
			return nil, err
		}
		if !retry {
			return rows, nil
		}
	}
	return nil, errors.New("deck list did not stabilize after duplicate cleanup")
}

func (s *Scheduler) deckDueRows(ctx context.Context) ([]models.DeckDueRow, bool, error) {
	decks, err := s.decks.All(ctx)
	if err != nil {
		return nil, false, err
	}
	sortDecksByPath(decks)

	seen := make(map[string]bool, len(decks))
	// limits carries [new, review] remaining budgets keyed by deck name,
	// so children read their parent's row from earlier in the walk.
	limits := make(map[string][2]int, len(decks))
	rows := make([]models.DeckDueRow, 0, len(decks))

	for i := range decks {
		deck := &decks[i]
		if seen[deck.Name] {
			s.log.Warn("duplicate deck name %q (id=%d), removing", deck.Name, deck.ID)
			if err := s.decks.Remove(ctx, deck.ID); err != nil {
				return nil, false, err
			}
			return nil, true, nil
		}
		seen[deck.Name] = true

		nlim, err := s.deckNewLimitSingle(ctx, deck)
		if err != nil {
			return nil, false, err
		}
		rlim, err := s.deckReviewLimitSingle(ctx, deck)
		if err != nil {
			return nil, false, err
		}
		if parent := deck.ParentName(); parent != "" {
			if pl, ok := limits[parent]; ok {
				nlim = minInt(nlim, pl[0])
				rlim = minInt(rlim, pl[1])
			}
		}

		newCount, err := s.newForDeck(ctx, deck.ID, nlim)
		if err != nil {
			return nil, false, err
		}
		lrnCount, err := s.lrnForDeck(ctx, deck.ID)
		if err != nil {
			return nil, false, err
		}
		revCount, err := s.revForDeck(ctx, deck.ID, rlim)
		if err != nil {
			return nil, false, err
		}

		rows = append(rows, models.DeckDueRow{
			Name:   deck.Name,
			DeckID: deck.ID,
			Review: revCount,
			Learn:  lrnCount,
			New:    newCount,
		})
		limits[deck.Name] = [2]int{nlim, rlim}
	}
	return rows, false, nil
}

// newForDeck counts new cards in one deck, capped at lim.
func (s *Scheduler) newForDeck(ctx context.Context, deckID int64, lim int) (int, error) {
	if lim <= 0 {
		return 0, nil
	}
	return s.cards.Count(ctx, models.CardQuery{
		DeckIDs: []int64{deckID},
		Queue:   models.QueueFilter(models.QueueNew),
		Limit:   lim,
	})
}

// lrnForDeck counts outstanding learning work in one deck: remaining
// sub-day steps inside the collapse window plus day-learning cards due
// today.
func (s *Scheduler) lrnForDeck(ctx context.Context, deckID int64) (int, error) {
	cutoff := s.clock.Now().Unix() + s.collapseTime
	steps, err := s.cards.LearnStepCount(ctx, []int64{deckID}, cutoff, reportLimit)
	if err != nil {
		return 0, err
	}
	days, err := s.cards.Count(ctx, models.CardQuery{
		DeckIDs:   []int64{deckID},
		Queue:     models.QueueFilter(models.QueueDayLearning),
		DueAtMost: models.DueLimit(int64(s.today)),
		Limit:     reportLimit,
	})
	if err != nil {
		return 0, err
	}
	return steps + days, nil
}

// revForDeck counts review cards due today in one deck, capped at lim.
func (s *Scheduler) revForDeck(ctx context.Context, deckID int64, lim int) (int, error) {
	if lim <= 0 {
		return 0, nil
	}
	return s.cards.Count(ctx, models.CardQuery{
		DeckIDs:   []int64{deckID},
		Queue:     models.QueueFilter(models.QueueReview),
		DueAtMost: models.DueLimit(int64(s.today)),
		Limit:     lim,
	})
}

// DueTree groups the due list into the deck hierarchy. Each node carries
// only its own path segment as Name, and its counts include every
// descendant.
func (s *Scheduler) DueTree(ctx context.Context) ([]*models.DueTreeNode, error) {
	rows, err := s.DeckDueList(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return pathLess(rows[i].Name, rows[j].Name)
	})
	return groupDueRows(rows, 0), nil
}

// groupDueRows builds one tree level from rows sorted by path. A run of
// rows sharing the segment at depth forms one node; the row whose path
// ends at this depth, if present, is the node itself and leads its run.
func groupDueRows(rows []models.DeckDueRow, depth int) []*models.DueTreeNode {
	var nodes []*models.DueTreeNode
	for i := 0; i < len(rows); {
		segs := strings.Split(rows[i].Name, models.NameSeparator)
		head := segs[depth]

		j := i
		for j < len(rows) {
			next := strings.Split(rows[j].Name, models.NameSeparator)
			if len(next) <= depth || !strings.EqualFold(next[depth], head) {
				break
			}
			j++
		}

		node := &models.DueTreeNode{Name: head}
		sub := rows[i:j]
		if len(segs) == depth+1 {
			node.DeckID = rows[i].DeckID
			node.Review = rows[i].Review
			node.Learn = rows[i].Learn
			node.New = rows[i].New
			sub = rows[i+1 : j]
		}
		node.Children = groupDueRows(sub, depth+1)
		for _, child := range node.Children {
			node.Review += child.Review
			node.Learn += child.Learn
			node.New += child.New
		}
		nodes = append(nodes, node)
		i = j
	}
	return nodes
}

func sortDecksByPath(decks []models.Deck) {
	sort.SliceStable(decks, func(i, j int) bool {
		return pathLess(decks[i].Name, decks[j].Name)
	})
}

// pathLess orders deck names segment by segment, case-insensitively, so
// "A::B" sorts directly under "A" rather than wherever "::" happens to
// fall byte-wise.
func pathLess(a, b string) bool {
	as := strings.Split(strings.ToLower(a), models.NameSeparator)
	bs := strings.Split(strings.ToLower(b), models.NameSeparator)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}
