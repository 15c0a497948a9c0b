package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	apperrors "github.com/marcusv/decksched/internal/errors"
	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository"
)

const deckColumns = `id, name, dynamic, config_id, resched, delays,
       new_today_day, new_today_count, review_today_day, review_today_count,
       learn_today_day, learn_today_count, time_today_day, time_today_count,
       selected, created_at`

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func scanDeck(row interface{ Scan(...any) error }) (*models.Deck, error) {
	var d models.Deck
	var delays string
	err := row.Scan(&d.ID, &d.Name, &d.Dynamic, &d.ConfigID, &d.Resched, &delays,
		&d.NewToday.Day, &d.NewToday.Count, &d.ReviewToday.Day, &d.ReviewToday.Count,
		&d.LearnToday.Day, &d.LearnToday.Count, &d.TimeToday.Day, &d.TimeToday.Count,
		&d.Selected, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if delays != "" {
		if err := json.Unmarshal([]byte(delays), &d.Delays); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func marshalDelays(delays []float64) (string, error) {
	if len(delays) == 0 {
		return "", nil
	}
	b, err := json.Marshal(delays)
	return string(b), err
}

func (r *deckRepository) Get(ctx context.Context, id int64) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	row := r.db.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	deck, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	return deck, nil
}

func (r *deckRepository) All(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT `+deckColumns+` FROM decks ORDER BY name`)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()
	var decks []models.Deck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, *deck)
	}
	return decks, rows.Err()
}

func (r *deckRepository) Create(ctx context.Context, d *models.Deck) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("creating deck: name=%q, dynamic=%v", d.Name, d.Dynamic)

	delays, err := marshalDelays(d.Delays)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO decks (name, dynamic, config_id, resched, delays,
    new_today_day, new_today_count, review_today_day, review_today_count,
    learn_today_day, learn_today_count, time_today_day, time_today_count, selected)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, d.Name, d.Dynamic, d.ConfigID, d.Resched, delays,
		d.NewToday.Day, d.NewToday.Count, d.ReviewToday.Day, d.ReviewToday.Count,
		d.LearnToday.Day, d.LearnToday.Count, d.TimeToday.Day, d.TimeToday.Count, d.Selected)
	if err != nil {
		log.Error("failed to create deck: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get deck id: %v", err)
		return 0, err
	}
	log.Debug("deck created: id=%d", id)
	return id, nil
}

func (r *deckRepository) Save(ctx context.Context, d *models.Deck) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("saving deck: id=%d, name=%q", d.ID, d.Name)

	delays, err := marshalDelays(d.Delays)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
UPDATE decks
SET name = ?, dynamic = ?, config_id = ?, resched = ?, delays = ?,
    new_today_day = ?, new_today_count = ?, review_today_day = ?, review_today_count = ?,
    learn_today_day = ?, learn_today_count = ?, time_today_day = ?, time_today_count = ?,
    selected = ?
WHERE id = ?
`, d.Name, d.Dynamic, d.ConfigID, d.Resched, delays,
		d.NewToday.Day, d.NewToday.Count, d.ReviewToday.Day, d.ReviewToday.Count,
		d.LearnToday.Day, d.LearnToday.Count, d.TimeToday.Day, d.TimeToday.Count,
		d.Selected, d.ID)
	if err != nil {
		log.Error("failed to save deck: %v", err)
	}
	return err
}

func (r *deckRepository) Remove(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("removing deck: id=%d", id)

	_, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to remove deck: %v", err)
	}
	return err
}

func (r *deckRepository) Active(ctx context.Context) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	var name string
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM decks WHERE selected = 1`).Scan(&id, &name)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no deck selected")
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get selected deck: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id FROM decks WHERE id = ? OR name LIKE ? ORDER BY name
`, id, name+models.NameSeparator+"%")
	if err != nil {
		log.Error("failed to list active decks: %v", err)
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var did int64
		if err := rows.Scan(&did); err != nil {
			log.Error("failed to scan active deck id: %v", err)
			return nil, err
		}
		ids = append(ids, did)
	}
	return ids, rows.Err()
}

func (r *deckRepository) Select(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("selecting deck: id=%d", id)

	return tx(ctx, r.db, func(t *sql.Tx) error {
		var exists int64
		if err := t.QueryRowContext(ctx, `SELECT id FROM decks WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NewNotFoundError("deck", id)
			}
			return err
		}
		if _, err := t.ExecContext(ctx, `UPDATE decks SET selected = 0 WHERE selected = 1`); err != nil {
			return err
		}
		_, err := t.ExecContext(ctx, `UPDATE decks SET selected = 1 WHERE id = ?`, id)
		return err
	})
}

func (r *deckRepository) Parents(ctx context.Context, id int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	deck, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, nil
	}
	segs := deck.PathSegments()
	if len(segs) == 1 {
		return nil, nil
	}
	names := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		names = append(names, strings.Join(segs[:i], models.NameSeparator))
	}

	var parents []models.Deck
	for _, name := range names {
		row := r.db.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE name = ?`, name)
		parent, err := scanDeck(row)
		if errors.Is(err, sql.ErrNoRows) {
			// a missing intermediate deck is tolerated; limits fall through
			continue
		}
		if err != nil {
			log.Error("failed to get parent deck %q: %v", name, err)
			return nil, err
		}
		parents = append(parents, *parent)
	}
	sort.SliceStable(parents, func(i, j int) bool {
		return len(parents[i].PathSegments()) < len(parents[j].PathSegments())
	})
	return parents, nil
}

func (r *deckRepository) Children(ctx context.Context, id int64) (map[string]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	deck, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name FROM decks WHERE name LIKE ? ORDER BY name
`, deck.Name+models.NameSeparator+"%")
	if err != nil {
		log.Error("failed to list child decks: %v", err)
		return nil, err
	}
	defer rows.Close()
	children := make(map[string]int64)
	for rows.Next() {
		var cid int64
		var name string
		if err := rows.Scan(&cid, &name); err != nil {
			log.Error("failed to scan child deck: %v", err)
			return nil, err
		}
		children[name] = cid
	}
	return children, rows.Err()
}

func (r *deckRepository) ConfigFor(ctx context.Context, deckID int64) (*models.DeckConfig, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	var configID int64
	err := r.db.QueryRowContext(ctx, `SELECT config_id FROM decks WHERE id = ?`, deckID).Scan(&configID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("deck", deckID)
	}
	if err != nil {
		log.Error("failed to resolve deck config: %v", err)
		return nil, err
	}

	var cfg models.DeckConfig
	var body string
	err = r.db.QueryRowContext(ctx, `SELECT id, name, config FROM deck_configs WHERE id = ?`, configID).
		Scan(&cfg.ID, &cfg.Name, &body)
	if errors.Is(err, sql.ErrNoRows) {
		log.Error("deck %d references missing config %d", deckID, configID)
		return nil, apperrors.NewConfigError("deck references a missing configuration", nil)
	}
	if err != nil {
		log.Error("failed to load deck config: %v", err)
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &cfg); err != nil {
		log.Error("failed to parse deck config %d: %v", configID, err)
		return nil, apperrors.NewConfigError("deck configuration is not valid JSON", err)
	}
	cfg.ID = configID
	if err := cfg.Validate(); err != nil {
		log.Error("invalid deck config %d: %v", configID, err)
		return nil, apperrors.NewConfigError("deck configuration failed validation", err)
	}
	return &cfg, nil
}

func (r *deckRepository) SaveConfig(ctx context.Context, cfg *models.DeckConfig) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("saving deck config: id=%d, name=%q", cfg.ID, cfg.Name)

	if err := cfg.Validate(); err != nil {
		return apperrors.NewValidationError("config", err.Error())
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if cfg.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
INSERT INTO deck_configs (name, config) VALUES (?, ?)
`, cfg.Name, string(body))
		if err != nil {
			log.Error("failed to insert deck config: %v", err)
			return err
		}
		cfg.ID, err = res.LastInsertId()
		return err
	}
	_, err = r.db.ExecContext(ctx, `
UPDATE deck_configs SET name = ?, config = ? WHERE id = ?
`, cfg.Name, string(body), cfg.ID)
	if err != nil {
		log.Error("failed to update deck config: %v", err)
	}
	return err
}
