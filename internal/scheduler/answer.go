package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/marcusv/decksched/internal/models"
)

// answerOutcome carries the session/log side effects of an answer, applied
// only after the card has been persisted.
type answerOutcome struct {
	kind models.ReviewKind
	// interval for the log entry: days when positive, negative seconds
	// for sub-day steps.
	logInterval  int
	lastInterval int
	// requeue into the sub-day learning queue
	requeue      bool
	requeueDue   int64
	requeueSteps int
}

// AnswerCard applies a grade to a card: it advances the state machine,
// computes the next due date and interval, persists the card, charges the
// deck's daily counters, and appends one review log record. The card must
// have been obtained from PopCard (its counts were already consumed).
func (s *Scheduler) AnswerCard(ctx context.Context, card *models.Card, grade models.Grade, took time.Duration) error {
	if !grade.Valid() {
		return fmt.Errorf("invalid grade %d", int(grade))
	}
	if err := s.checkDay(ctx); err != nil {
		return err
	}
	now := s.clock.Now().Unix()

	if s.buryOnAnswer {
		if err := s.burySiblings(ctx, card); err != nil {
			return err
		}
	}

	card.Reps++
	wasNewQueue := card.Queue == models.QueueNew
	if wasNewQueue {
		// entering learning for the first time (or a filtered deck pulled
		// the card ahead of schedule)
		card.Queue = models.QueueLearning
		if card.Type == models.CardTypeNew {
			card.Type = models.CardTypeLearning
		}
		left, err := s.startingLeft(ctx, card, now)
		if err != nil {
			return err
		}
		card.Left = left
		if card.InFiltered() && card.Type == models.CardTypeReview {
			resched, err := s.resched(ctx, card)
			if err != nil {
				return err
			}
			if resched {
				// reviews seen early get their interval boosted on first
				// sight
				boost, err := s.dynIntervalBoost(ctx, card)
				if err != nil {
					return err
				}
				card.Interval = boost
				card.OriginalDue = int64(s.today + card.Interval)
			}
		}
	}

	var (
		out  answerOutcome
		err  error
		kind string
	)
	switch card.Queue {
	case models.QueueLearning, models.QueueDayLearning:
		out, err = s.answerLearning(ctx, card, grade, now, wasNewQueue)
		kind = "learn"
	case models.QueueReview:
		out, err = s.answerReview(ctx, card, grade, now)
		kind = "review"
	default:
		return fmt.Errorf("card %d: cannot answer card in queue %d", card.ID, card.Queue)
	}
	if err != nil {
		return err
	}
	if wasNewQueue {
		kind = "new"
	}

	card.Modified = now
	// persist before touching session state, so a failed write cannot
	// leave in-memory counts ahead of storage
	if err := s.cards.Update(ctx, card); err != nil {
		return err
	}

	if out.requeue {
		s.sess.lrnCount += out.requeueSteps
		s.sortLearnIn(out.requeueDue, card.ID)
	}

	if err := s.bumpDeckCounters(ctx, card.DeckID, kind, 1, took); err != nil {
		return err
	}

	return s.logs.Record(ctx, models.ReviewLog{
		CardID:       card.ID,
		ReviewedAt:   s.clock.Now().UnixMilli(),
		Grade:        grade,
		Interval:     out.logInterval,
		LastInterval: out.lastInterval,
		Factor:       card.Factor,
		TookSeconds:  took.Seconds(),
		Kind:         out.kind,
	})
}

// --- learning steps ---

// lrnDelays returns the delay list governing a learning card: the lapse
// list while relearning, the new-card list otherwise.
func (s *Scheduler) lrnDelays(ctx context.Context, card *models.Card) ([]float64, error) {
	if card.Type == models.CardTypeReview {
		cfg, err := s.lapseConf(ctx, card)
		if err != nil {
			return nil, err
		}
		return cfg.Delays, nil
	}
	cfg, err := s.newConf(ctx, card)
	if err != nil {
		return nil, err
	}
	return cfg.Delays, nil
}

func (s *Scheduler) answerLearning(ctx context.Context, card *models.Card, grade models.Grade, now int64, wasNewQueue bool) (answerOutcome, error) {
	var out answerOutcome
	switch {
	case card.InFiltered() && !wasNewQueue:
		out.kind = models.ReviewKindFiltered
	case card.Type == models.CardTypeReview:
		out.kind = models.ReviewKindRelearn
	default:
		out.kind = models.ReviewKindLearn
	}

	delays, err := s.lrnDelays(ctx, card)
	if err != nil {
		return out, err
	}
	lastLeft := card.Left
	out.lastInterval = -int(delayForStep(delays, lastLeft))

	// an empty delay list is a deliberate user choice: graduate at once
	if len(delays) == 0 {
		if err := s.graduate(ctx, card, grade == models.GradeEasy); err != nil {
			return out, err
		}
		out.logInterval = card.Interval
		return out, nil
	}

	switch {
	case grade == models.GradeEasy:
		// short-circuit all remaining steps
		if err := s.graduate(ctx, card, true); err != nil {
			return out, err
		}
		out.logInterval = card.Interval
		return out, nil

	case grade != models.GradeAgain && (card.Left%1000)-1 <= 0:
		// that was the last step
		if err := s.graduate(ctx, card, false); err != nil {
			return out, err
		}
		out.logInterval = card.Interval
		return out, nil

	case grade != models.GradeAgain:
		// one step towards graduation
		left := (card.Left % 1000) - 1
		card.Left = s.stepsLeftToday(delays, left, now)*1000 + left

	default:
		// failed: back to the first step
		left, err := s.startingLeft(ctx, card, now)
		if err != nil {
			return out, err
		}
		card.Left = left
		resched, err := s.resched(ctx, card)
		if err != nil {
			return out, err
		}
		if card.Type == models.CardTypeReview && resched {
			// lapsed review failing relearning: shrink the pending
			// interval again
			lconf, err := s.lapseConf(ctx, card)
			if err != nil {
				return out, err
			}
			card.Interval = maxInt(maxInt(1, lconf.MinInterval), int(float64(card.Interval)*lconf.Mult))
			if card.InFiltered() {
				card.OriginalDue = int64(s.today + card.Interval)
			}
		}
	}

	s.rescheduleLearnStep(card, delays, now, &out)
	return out, nil
}

// rescheduleLearnStep places the card at its next learning delay, either
// in the sub-day queue or, when the delay crosses the day cutoff, in the
// interday queue.
func (s *Scheduler) rescheduleLearnStep(card *models.Card, delays []float64, now int64, out *answerOutcome) {
	delay := delayForStep(delays, card.Left)
	due := now + delay
	if due < s.dayCutoff {
		// when only learning cards remain, keep the card off the queue
		// head so it does not repeat back-to-back
		if len(s.sess.lrnQueue) > 0 && s.sess.revCount == 0 && s.sess.newCount == 0 {
			due = maxInt64(due, s.sess.lrnQueue[0].due+1)
		}
		card.Queue = models.QueueLearning
		card.Due = due
		out.requeue = true
		out.requeueDue = due
		out.requeueSteps = card.Left / 1000
	} else {
		ahead := (due-s.dayCutoff)/86400 + 1
		card.Queue = models.QueueDayLearning
		card.Due = int64(s.today) + ahead
	}
	out.logInterval = -int(delay)
}

// delayForStep returns the delay in seconds for the current step encoded
// in left.
func delayForStep(delays []float64, left int) int64 {
	left = left % 1000
	idx := len(delays) - left
	if idx < 0 || idx >= len(delays) {
		if len(delays) == 0 {
			return 60
		}
		idx = 0
	}
	return int64(delays[idx] * 60)
}

// startingLeft encodes the full step count plus how many of those steps
// still fit before the day cutoff.
func (s *Scheduler) startingLeft(ctx context.Context, card *models.Card, now int64) (int, error) {
	delays, err := s.lrnDelays(ctx, card)
	if err != nil {
		return 0, err
	}
	tot := len(delays)
	today := s.stepsLeftToday(delays, tot, now)
	return tot + today*1000, nil
}

// stepsLeftToday counts how many of the remaining steps can be completed
// before the day cutoff.
func (s *Scheduler) stepsLeftToday(delays []float64, left int, now int64) int {
	if left > len(delays) {
		left = len(delays)
	}
	if left <= 0 {
		return 0
	}
	rest := delays[len(delays)-left:]
	ok := 0
	for i, d := range rest {
		now += int64(d * 60)
		if now > s.dayCutoff {
			break
		}
		ok = i
	}
	return ok + 1
}

// graduate moves a learning card into (or back into) the review state.
// Early graduation (Easy) uses the larger of the two configured graduation
// intervals. Cards on loan to a filtered deck return home; with
// rescheduling off, a freshly learned card goes back to new instead.
func (s *Scheduler) graduate(ctx context.Context, card *models.Card, early bool) error {
	lapse := card.Type == models.CardTypeReview
	if lapse {
		resched, err := s.resched(ctx, card)
		if err != nil {
			return err
		}
		if resched {
			card.Due = maxInt64(int64(s.today+1), card.OriginalDue)
		} else {
			card.Due = card.OriginalDue
		}
		card.OriginalDue = 0
	} else {
		ivl, err := s.graduatingInterval(ctx, card, early)
		if err != nil {
			return err
		}
		card.Interval = ivl
		card.Due = int64(s.today + card.Interval)
		nconf, err := s.newConf(ctx, card)
		if err != nil {
			return err
		}
		card.Factor = nconf.InitialFactor
	}
	card.Queue = models.QueueReview
	card.Type = models.CardTypeReview

	if card.InFiltered() {
		resched, err := s.resched(ctx, card)
		if err != nil {
			return err
		}
		card.DeckID = card.OriginalDeckID
		card.OriginalDeckID = 0
		card.OriginalDue = 0
		if !resched && !lapse {
			card.Queue = models.QueueNew
			card.Type = models.CardTypeNew
			card.Due = card.NoteID
		}
	}
	return nil
}

func (s *Scheduler) graduatingInterval(ctx context.Context, card *models.Card, early bool) (int, error) {
	nconf, err := s.newConf(ctx, card)
	if err != nil {
		return 0, err
	}
	ideal := nconf.Ints[0]
	if early {
		ideal = nconf.Ints[1]
	}
	rconf, err := s.revConf(ctx, card)
	if err != nil {
		return 0, err
	}
	if rconf.Fuzz {
		ideal = fuzzedInterval(ideal, s.rng)
	}
	return ideal, nil
}

// --- review answers ---

func (s *Scheduler) answerReview(ctx context.Context, card *models.Card, grade models.Grade, now int64) (answerOutcome, error) {
	var out answerOutcome
	out.kind = models.ReviewKindReview
	out.lastInterval = card.Interval

	resched, err := s.resched(ctx, card)
	if err != nil {
		return out, err
	}
	if card.InFiltered() && !resched {
		out.kind = models.ReviewKindFiltered
	}

	if grade == models.GradeAgain {
		if err := s.rescheduleLapse(ctx, card, now, resched, &out); err != nil {
			return out, err
		}
		return out, nil
	}

	if resched {
		if err := s.updateReviewInterval(ctx, card, grade); err != nil {
			return out, err
		}
		card.Factor = maxInt(minFactor, card.Factor+factorAdjust[grade])
		card.Due = int64(s.today + card.Interval)
	} else {
		card.Due = card.OriginalDue
	}
	if card.InFiltered() {
		// graduating out of the filtered deck
		card.DeckID = card.OriginalDeckID
		card.OriginalDeckID = 0
		card.OriginalDue = 0
	}
	out.logInterval = card.Interval
	return out, nil
}

// rescheduleLapse handles Again on a review card: interval collapse, ease
// penalty, leech check, and entry into relearning when lapse steps are
// configured.
func (s *Scheduler) rescheduleLapse(ctx context.Context, card *models.Card, now int64, resched bool, out *answerOutcome) error {
	lconf, err := s.lapseConf(ctx, card)
	if err != nil {
		return err
	}

	if resched {
		card.Lapses++
		card.Interval = s.lapseInterval(card, lconf)
		card.Factor = maxInt(minFactor, card.Factor-lapseFactorDrop)
		card.Due = int64(s.today + card.Interval)
		if card.InFiltered() {
			card.OriginalDue = card.Due
		}
	}
	out.logInterval = card.Interval

	leech, err := s.checkLeech(ctx, card, lconf)
	if err != nil {
		return err
	}
	if leech && card.Queue == models.QueueSuspended {
		// suspended as a leech, nothing more to do
		return nil
	}
	if len(lconf.Delays) == 0 {
		// no relearning steps configured: straight back to review
		return nil
	}

	// record the review due date, then drop into relearning
	if card.OriginalDue == 0 {
		card.OriginalDue = card.Due
	}
	card.Type = models.CardTypeReview
	left, err := s.startingLeft(ctx, card, now)
	if err != nil {
		return err
	}
	card.Left = left
	delay := delayForStep(lconf.Delays, 0)
	due := now + delay
	if due < s.dayCutoff {
		card.Queue = models.QueueLearning
		card.Due = due
		out.requeue = true
		out.requeueDue = due
		out.requeueSteps = card.Left / 1000
	} else {
		ahead := (due-s.dayCutoff)/86400 + 1
		card.Queue = models.QueueDayLearning
		card.Due = int64(s.today) + ahead
	}
	out.logInterval = -int(delay)
	return nil
}

// lapseInterval shrinks the interval by the lapse multiplier, floored at
// the configured minimum.
func (s *Scheduler) lapseInterval(card *models.Card, lconf models.LapseConfig) int {
	return maxInt(maxInt(1, lconf.MinInterval), int(float64(card.Interval)*lconf.Mult))
}

// checkLeech fires at the failure threshold and at every half-threshold
// after it. The configured action either suspends the card or leaves it
// in place for the caller's marker to handle.
func (s *Scheduler) checkLeech(ctx context.Context, card *models.Card, lconf models.LapseConfig) (bool, error) {
	lf := lconf.LeechFails
	if lf == 0 {
		return false, nil
	}
	if card.Lapses < lf || (card.Lapses-lf)%maxInt(lf/2, 1) != 0 {
		return false, nil
	}
	if lconf.LeechAction == models.LeechSuspend {
		// pull it out of relearning or a filtered deck first
		if card.OriginalDue != 0 {
			card.Due = card.OriginalDue
		}
		if card.OriginalDeckID != 0 {
			card.DeckID = card.OriginalDeckID
		}
		card.OriginalDue = 0
		card.OriginalDeckID = 0
		card.Queue = models.QueueSuspended
	}
	if s.onLeech != nil {
		s.onLeech(card)
	}
	s.log.Info("card %d flagged as leech after %d lapses", card.ID, card.Lapses)
	return true, nil
}

// daysLate is how many days overdue the card was answered, judged against
// its home due date.
func (s *Scheduler) daysLate(card *models.Card) int {
	due := card.Due
	if card.InFiltered() {
		due = card.OriginalDue
	}
	return maxInt(0, s.today-int(due))
}

// updateReviewInterval computes the next interval for Hard/Good/Easy,
// fuzzes it, and caps it at the configured maximum.
func (s *Scheduler) updateReviewInterval(ctx context.Context, card *models.Card, grade models.Grade) error {
	rconf, err := s.revConf(ctx, card)
	if err != nil {
		return err
	}
	late := s.daysLate(card)
	factor := float64(card.Factor) / 1000

	hard := constrainedInterval(float64(card.Interval+late/4)*1.2, rconf.IvlFct, card.Interval)
	good := constrainedInterval(float64(card.Interval+late/2)*factor, rconf.IvlFct, hard)
	easy := constrainedInterval(float64(card.Interval+late)*factor*rconf.Ease4, rconf.IvlFct, good)

	var ivl int
	switch grade {
	case models.GradeHard:
		ivl = hard
	case models.GradeGood:
		ivl = good
	case models.GradeEasy:
		ivl = easy
	}
	ivl = minInt(ivl, rconf.MaxInterval)
	if rconf.Fuzz {
		ivl = fuzzedInterval(ivl, s.rng)
	}
	card.Interval = minInt(maxInt(1, ivl), rconf.MaxInterval)
	return nil
}

// constrainedInterval applies the global interval factor and guarantees
// strict growth over prev.
func constrainedInterval(ivl float64, ivlFct float64, prev int) int {
	return int(maxFloat(ivl*ivlFct, float64(prev+1)))
}

// dynIntervalBoost grows the interval of a review card answered early
// inside a rescheduling filtered deck, in proportion to how much of the
// wait was already served.
func (s *Scheduler) dynIntervalBoost(ctx context.Context, card *models.Card) (int, error) {
	elapsed := card.Interval - int(card.OriginalDue-int64(s.today))
	factor := (float64(card.Factor)/1000 + 1.2) / 2
	ivl := maxInt(card.Interval, maxInt(int(float64(elapsed)*factor), 1))
	rconf, err := s.revConf(ctx, card)
	if err != nil {
		return 0, err
	}
	return minInt(rconf.MaxInterval, ivl), nil
}

// --- shared helpers ---

// burySiblings moves the answered card's note siblings out of today's
// queues, so the same fact is not drilled twice in one session.
func (s *Scheduler) burySiblings(ctx context.Context, card *models.Card) error {
	nconf, err := s.newConf(ctx, card)
	if err != nil {
		return err
	}
	rconf, err := s.revConf(ctx, card)
	if err != nil {
		return err
	}
	if !nconf.Bury && !rconf.Bury {
		return nil
	}
	sibs, err := s.cards.Siblings(ctx, card.NoteID, card.ID, int64(s.today))
	if err != nil {
		return err
	}
	var toBury []int64
	for _, sib := range sibs {
		if sib.Queue == models.QueueReview {
			if rconf.Bury {
				toBury = append(toBury, sib.ID)
			}
		} else if nconf.Bury {
			toBury = append(toBury, sib.ID)
		}
		// always drop siblings from today's session for same-day spacing
		s.removeFromQueues(sib.ID)
	}
	if len(toBury) == 0 {
		return nil
	}
	return s.cards.SetQueue(ctx, toBury, models.QueueSchedBuried)
}

// bumpDeckCounters charges today's counter of the given kind on the deck
// and every ancestor, normalizing stale counters to today.
func (s *Scheduler) bumpDeckCounters(ctx context.Context, deckID int64, kind string, cnt int, took time.Duration) error {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return err
	}
	if deck == nil {
		return fmt.Errorf("deck %d not found", deckID)
	}
	parents, err := s.decks.Parents(ctx, deckID)
	if err != nil {
		return err
	}
	all := append(parents, *deck)
	for i := range all {
		d := &all[i]
		bump := func(dc *models.DayCount, n int) {
			if dc.Day != s.today {
				dc.Day = s.today
				dc.Count = 0
			}
			dc.Count += n
		}
		switch kind {
		case "new":
			bump(&d.NewToday, cnt)
		case "learn":
			bump(&d.LearnToday, cnt)
		case "review":
			bump(&d.ReviewToday, cnt)
		}
		bump(&d.TimeToday, int(took.Seconds()))
		if err := s.decks.Save(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
