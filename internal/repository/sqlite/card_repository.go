package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository"
)

const cardColumns = "id, note_id, deck_id, type, queue, due, interval, factor, reps, lapses, steps_left, original_due, original_deck_id, modified, created_at"

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func scanCard(row interface{ Scan(...any) error }) (*models.Card, error) {
	var c models.Card
	err := row.Scan(&c.ID, &c.NoteID, &c.DeckID, &c.Type, &c.Queue, &c.Due,
		&c.Interval, &c.Factor, &c.Reps, &c.Lapses, &c.Left,
		&c.OriginalDue, &c.OriginalDeckID, &c.Modified, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	row := r.db.QueryRowContext(ctx, `
SELECT `+cardColumns+`
FROM cards
WHERE id = ?
`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return card, nil
}

func (r *cardRepository) Insert(ctx context.Context, c *models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: note_id=%d, deck_id=%d", c.NoteID, c.DeckID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO cards (note_id, deck_id, type, queue, due, interval, factor, reps, lapses, steps_left, original_due, original_deck_id, modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, c.NoteID, c.DeckID, c.Type, c.Queue, c.Due, c.Interval, c.Factor, c.Reps, c.Lapses, c.Left, c.OriginalDue, c.OriginalDeckID, c.Modified)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get card id: %v", err)
		return 0, err
	}
	log.Debug("card inserted: id=%d", id)
	return id, nil
}

func (r *cardRepository) Update(ctx context.Context, c *models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card: id=%d, queue=%d, due=%d, interval=%d", c.ID, c.Queue, c.Due, c.Interval)

	_, err := r.db.ExecContext(ctx, `
UPDATE cards
SET deck_id = ?, type = ?, queue = ?, due = ?, interval = ?, factor = ?, reps = ?, lapses = ?, steps_left = ?, original_due = ?, original_deck_id = ?, modified = ?
WHERE id = ?
`, c.DeckID, c.Type, c.Queue, c.Due, c.Interval, c.Factor, c.Reps, c.Lapses, c.Left, c.OriginalDue, c.OriginalDeckID, c.Modified, c.ID)
	if err != nil {
		log.Error("failed to update card: %v", err)
	}
	return err
}

// applyCardQuery translates the query predicates into WHERE clauses.
func applyCardQuery(sel squirrel.SelectBuilder, q models.CardQuery) squirrel.SelectBuilder {
	if len(q.DeckIDs) > 0 {
		sel = sel.Where(squirrel.Eq{"deck_id": q.DeckIDs})
	}
	if q.Queue != nil {
		sel = sel.Where(squirrel.Eq{"queue": *q.Queue})
	}
	if q.DueAtMost != nil {
		sel = sel.Where(squirrel.LtOrEq{"due": *q.DueAtMost})
	}
	if q.DueBelow != nil {
		sel = sel.Where(squirrel.Lt{"due": *q.DueBelow})
	}
	switch q.OrderBy {
	case models.OrderByDue:
		sel = sel.OrderBy("due")
	case models.OrderByDueID:
		sel = sel.OrderBy("due", "id")
	case models.OrderRandom:
		sel = sel.OrderBy("RANDOM()")
	}
	if q.Limit > 0 {
		sel = sel.Limit(uint64(q.Limit))
	}
	return sel
}

func (r *cardRepository) CardIDs(ctx context.Context, q models.CardQuery) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	query, args, err := applyCardQuery(sqlBuilder.Select("id").From("cards"), q).ToSql()
	if err != nil {
		log.Error("failed to build card id query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query card ids: %v", err)
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan card id: %v", err)
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *cardRepository) Count(ctx context.Context, q models.CardQuery) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	inner, args, err := applyCardQuery(sqlBuilder.Select("1").From("cards"), q).ToSql()
	if err != nil {
		log.Error("failed to build card count query: %v", err)
		return 0, err
	}
	var n int
	err = r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM (%s)", inner), args...).Scan(&n)
	if err != nil {
		log.Error("failed to count cards: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *cardRepository) LearnQueue(ctx context.Context, deckIDs []int64, cutoff int64, limit int) ([]models.LearnQueueEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("fetching learn queue: decks=%d, cutoff=%d, limit=%d", len(deckIDs), cutoff, limit)

	query, args, err := sqlBuilder.Select("due", "id").From("cards").
		Where(squirrel.Eq{"deck_id": deckIDs}).
		Where(squirrel.Eq{"queue": models.QueueLearning}).
		Where(squirrel.Lt{"due": cutoff}).
		OrderBy("due").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Error("failed to build learn queue query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query learn queue: %v", err)
		return nil, err
	}
	defer rows.Close()
	var entries []models.LearnQueueEntry
	for rows.Next() {
		var e models.LearnQueueEntry
		if err := rows.Scan(&e.Due, &e.ID); err != nil {
			log.Error("failed to scan learn queue row: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *cardRepository) LearnStepCount(ctx context.Context, deckIDs []int64, cutoff int64, limit int) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	inner, args, err := sqlBuilder.Select("steps_left").From("cards").
		Where(squirrel.Eq{"deck_id": deckIDs}).
		Where(squirrel.Eq{"queue": models.QueueLearning}).
		Where(squirrel.Lt{"due": cutoff}).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Error("failed to build learn count query: %v", err)
		return 0, err
	}
	var n int
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(SUM(steps_left / 1000), 0) FROM (%s)", inner), args...).Scan(&n)
	if err != nil {
		log.Error("failed to count learn steps: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *cardRepository) Siblings(ctx context.Context, noteID, exceptCardID int64, today int64) ([]models.SiblingRef, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, queue
FROM cards
WHERE note_id = ? AND id != ?
AND (queue = ? OR (queue = ? AND due <= ?))
`, noteID, exceptCardID, models.QueueNew, models.QueueReview, today)
	if err != nil {
		log.Error("failed to query siblings: %v", err)
		return nil, err
	}
	defer rows.Close()
	var refs []models.SiblingRef
	for rows.Next() {
		var ref models.SiblingRef
		if err := rows.Scan(&ref.ID, &ref.Queue); err != nil {
			log.Error("failed to scan sibling row: %v", err)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *cardRepository) NoteCardIDs(ctx context.Context, noteID int64) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id FROM cards WHERE note_id = ? AND queue >= 0
`, noteID)
	if err != nil {
		log.Error("failed to query note cards: %v", err)
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan note card id: %v", err)
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *cardRepository) SetQueue(ctx context.Context, ids []int64, queue models.CardQueue) error {
	if len(ids) == 0 {
		return nil
	}
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("setting queue=%d on %d cards", queue, len(ids))

	query, args, err := sqlBuilder.Update("cards").
		Set("queue", queue).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		log.Error("failed to build set queue query: %v", err)
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to set queue: %v", err)
		return err
	}
	return nil
}

func (r *cardRepository) RestoreBuried(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("restoring buried cards")

	// Learning cards carry a timestamp due, day-learning cards a day
	// number; the magnitude picks the right queue on restore.
	_, err := r.db.ExecContext(ctx, `
UPDATE cards
SET queue = (
    CASE
        WHEN type = ? THEN (CASE WHEN due > 1000000000 THEN ? ELSE ? END)
        ELSE type
    END
)
WHERE queue IN (?, ?)
`, models.CardTypeLearning, models.QueueLearning, models.QueueDayLearning,
		models.QueueUserBuried, models.QueueSchedBuried)
	if err != nil {
		log.Error("failed to restore buried cards: %v", err)
	}
	return err
}

func (r *cardRepository) FilteredCardIDs(ctx context.Context, deckID int64) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id FROM cards WHERE deck_id = ? AND original_deck_id != 0 ORDER BY due
`, deckID)
	if err != nil {
		log.Error("failed to query filtered deck cards: %v", err)
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan filtered card id: %v", err)
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
