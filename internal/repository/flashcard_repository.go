package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubloom/study-planner-api/internal/models"
)

// FlashcardRepository provides persistence for decks, cards and reviews.
type FlashcardRepository struct {
	db *sqlx.DB
}

// NewFlashcardRepository creates a new flashcard repository.
func NewFlashcardRepository(db *sqlx.DB) *FlashcardRepository {
	return &FlashcardRepository{db: db}
}

const cardColumns = `id, deck_id, user_id, front, back, tags, ease_factor, interval_days, repetitions, due_date, created_at, updated_at`

// CreateDeck stores a new deck.
func (r *FlashcardRepository) CreateDeck(ctx context.Context, deck *models.Deck) error {
	if deck.ID == "" {
		deck.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if deck.CreatedAt.IsZero() {
		deck.CreatedAt = now
	}
	deck.UpdatedAt = now

	const query = `INSERT INTO decks (id, user_id, subject_id, name, created_at, updated_at) VALUES (:id, :user_id, :subject_id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, deck); err != nil {
		return fmt.Errorf("create deck: %w", err)
	}
	return nil
}

// ListDecksByUser returns all decks for a user ordered by name.
func (r *FlashcardRepository) ListDecksByUser(ctx context.Context, userID string) ([]models.Deck, error) {
	const query = `SELECT id, user_id, subject_id, name, created_at, updated_at FROM decks WHERE user_id = $1 ORDER BY name ASC`
	var decks []models.Deck
	if err := r.db.SelectContext(ctx, &decks, query, userID); err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	return decks, nil
}

// FindDeck loads a deck by id.
func (r *FlashcardRepository) FindDeck(ctx context.Context, id string) (*models.Deck, error) {
	const query = `SELECT id, user_id, subject_id, name, created_at, updated_at FROM decks WHERE id = $1`
	var deck models.Deck
	if err := r.db.GetContext(ctx, &deck, query, id); err != nil {
		return nil, err
	}
	return &deck, nil
}

// CreateCard stores a new card with fresh scheduling state.
func (r *FlashcardRepository) CreateCard(ctx context.Context, card *models.Flashcard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now

	const query = `INSERT INTO flashcards (id, deck_id, user_id, front, back, tags, ease_factor, interval_days, repetitions, due_date, created_at, updated_at)
		VALUES (:id, :deck_id, :user_id, :front, :back, :tags, :ease_factor, :interval_days, :repetitions, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

// FindCard loads a card by id.
func (r *FlashcardRepository) FindCard(ctx context.Context, id string) (*models.Flashcard, error) {
	query := fmt.Sprintf(`SELECT %s FROM flashcards WHERE id = $1`, cardColumns)
	var card models.Flashcard
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		return nil, err
	}
	return &card, nil
}

// ListCardsByDeck returns every card in a deck.
func (r *FlashcardRepository) ListCardsByDeck(ctx context.Context, deckID string) ([]models.Flashcard, error) {
	query := fmt.Sprintf(`SELECT %s FROM flashcards WHERE deck_id = $1 ORDER BY created_at ASC`, cardColumns)
	var cards []models.Flashcard
	if err := r.db.SelectContext(ctx, &cards, query, deckID); err != nil {
		return nil, fmt.Errorf("list deck cards: %w", err)
	}
	return cards, nil
}

// ListDue returns the user's cards due on or before the given day, hardest
// first: earliest due date, then lowest ease.
func (r *FlashcardRepository) ListDue(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.Flashcard, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM flashcards WHERE user_id = $1 AND due_date <= $2 ORDER BY due_date ASC, ease_factor ASC LIMIT %d`, cardColumns, limit)
	var cards []models.Flashcard
	if err := r.db.SelectContext(ctx, &cards, query, userID, asOf); err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}
	return cards, nil
}

// CountDue returns how many of the user's cards are due on or before the day.
func (r *FlashcardRepository) CountDue(ctx context.Context, userID string, asOf time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM flashcards WHERE user_id = $1 AND due_date <= $2`, userID, asOf); err != nil {
		return 0, fmt.Errorf("count due cards: %w", err)
	}
	return total, nil
}

// SaveReview persists a card's new scheduling state together with the
// review event inside one transaction.
func (r *FlashcardRepository) SaveReview(ctx context.Context, card *models.Flashcard, event *models.ReviewEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	card.UpdatedAt = time.Now().UTC()
	const updateCard = `UPDATE flashcards SET ease_factor = :ease_factor, interval_days = :interval_days, repetitions = :repetitions, due_date = :due_date, updated_at = :updated_at WHERE id = :id`
	if _, err = sqlx.NamedExecContext(ctx, tx, updateCard, card); err != nil {
		return fmt.Errorf("update card scheduling: %w", err)
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	const insertEvent = `INSERT INTO review_events (id, card_id, user_id, grade, ease_factor, interval_days, reviewed_at)
		VALUES (:id, :card_id, :user_id, :grade, :ease_factor, :interval_days, :reviewed_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertEvent, event); err != nil {
		return fmt.Errorf("insert review event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save review: %w", err)
	}
	return nil
}
