package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubloom/study-planner-api/internal/dto"
	"github.com/edubloom/study-planner-api/internal/models"
	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
)

type flashcardStoreStub struct {
	decks    map[string]*models.Deck
	cards    map[string]*models.Flashcard
	due      []models.Flashcard
	dueCalls int
	reviews  []models.ReviewEvent
}

func newFlashcardStoreStub() *flashcardStoreStub {
	return &flashcardStoreStub{
		decks: map[string]*models.Deck{},
		cards: map[string]*models.Flashcard{},
	}
}

func (s *flashcardStoreStub) CreateDeck(ctx context.Context, deck *models.Deck) error {
	if deck.ID == "" {
		deck.ID = "deck-" + deck.Name
	}
	s.decks[deck.ID] = deck
	return nil
}

func (s *flashcardStoreStub) ListDecksByUser(ctx context.Context, userID string) ([]models.Deck, error) {
	var out []models.Deck
	for _, d := range s.decks {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *flashcardStoreStub) FindDeck(ctx context.Context, id string) (*models.Deck, error) {
	if d, ok := s.decks[id]; ok {
		out := *d
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (s *flashcardStoreStub) CreateCard(ctx context.Context, card *models.Flashcard) error {
	if card.ID == "" {
		card.ID = "card-" + card.Front
	}
	s.cards[card.ID] = card
	return nil
}

func (s *flashcardStoreStub) FindCard(ctx context.Context, id string) (*models.Flashcard, error) {
	if c, ok := s.cards[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (s *flashcardStoreStub) ListCardsByDeck(ctx context.Context, deckID string) ([]models.Flashcard, error) {
	var out []models.Flashcard
	for _, c := range s.cards {
		if c.DeckID == deckID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *flashcardStoreStub) ListDue(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.Flashcard, error) {
	s.dueCalls++
	return s.due, nil
}

func (s *flashcardStoreStub) SaveReview(ctx context.Context, card *models.Flashcard, event *models.ReviewEvent) error {
	clone := *card
	s.cards[card.ID] = &clone
	s.reviews = append(s.reviews, *event)
	return nil
}

type cacheStub struct {
	values  map[string][]byte
	deletes []string
}

func newCacheStub() *cacheStub {
	return &cacheStub{values: map[string][]byte{}}
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	return nil
}

func (s *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deletes = append(s.deletes, pattern)
	for k := range s.values {
		delete(s.values, k)
	}
	return nil
}

type reviewMetricsStub struct {
	grades []string
}

func (s *reviewMetricsStub) CardReviewed(grade string) {
	s.grades = append(s.grades, grade)
}

func newFlashcardFixture(t *testing.T) (*FlashcardService, *flashcardStoreStub, *cacheStub, *reviewMetricsStub) {
	t.Helper()
	store := newFlashcardStoreStub()
	cache := newCacheStub()
	metrics := &reviewMetricsStub{}
	svc := NewFlashcardService(store, cache, metrics, nil, nil, time.Minute)
	svc.now = func() time.Time { return time.Date(2026, time.May, 4, 15, 0, 0, 0, time.UTC) }
	return svc, store, cache, metrics
}

func TestReviewAdvancesSchedule(t *testing.T) {
	svc, store, _, metrics := newFlashcardFixture(t)
	store.cards["card-1"] = &models.Flashcard{
		ID: "card-1", UserID: "user-1", EaseFactor: models.DefaultEaseFactor,
	}

	card, err := svc.Review(context.Background(), "user-1", "card-1", dto.ReviewCardRequest{Grade: "good"})
	require.NoError(t, err)

	assert.Equal(t, 1, card.Repetitions)
	assert.Equal(t, 1, card.IntervalDays)
	assert.Equal(t, time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC), card.DueDate)

	require.Len(t, store.reviews, 1)
	assert.Equal(t, "good", store.reviews[0].Grade)
	assert.Equal(t, []string{"good"}, metrics.grades)
}

func TestReviewRejectsUnknownGrade(t *testing.T) {
	svc, _, _, _ := newFlashcardFixture(t)

	_, err := svc.Review(context.Background(), "user-1", "card-1", dto.ReviewCardRequest{Grade: "meh"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewOtherUsersCardNotFound(t *testing.T) {
	svc, store, _, _ := newFlashcardFixture(t)
	store.cards["card-1"] = &models.Flashcard{ID: "card-1", UserID: "someone-else"}

	_, err := svc.Review(context.Background(), "user-1", "card-1", dto.ReviewCardRequest{Grade: "good"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReviewInvalidatesDueCache(t *testing.T) {
	svc, store, cache, _ := newFlashcardFixture(t)
	store.cards["card-1"] = &models.Flashcard{ID: "card-1", UserID: "user-1"}
	store.due = []models.Flashcard{{ID: "card-1", UserID: "user-1"}}

	_, err := svc.Due(context.Background(), "user-1", 50)
	require.NoError(t, err)
	require.Len(t, cache.values, 1)

	_, err = svc.Review(context.Background(), "user-1", "card-1", dto.ReviewCardRequest{Grade: "again"})
	require.NoError(t, err)
	assert.Empty(t, cache.values)
	assert.Contains(t, cache.deletes, "flashcards:due:user-1:*")
}

func TestDueServedFromCache(t *testing.T) {
	svc, store, _, _ := newFlashcardFixture(t)
	store.due = []models.Flashcard{{ID: "card-1", UserID: "user-1"}}

	first, err := svc.Due(context.Background(), "user-1", 50)
	require.NoError(t, err)
	second, err := svc.Due(context.Background(), "user-1", 50)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, store.dueCalls, "second read must hit the cache")
}

func TestCreateCardInOthersDeck(t *testing.T) {
	svc, store, _, _ := newFlashcardFixture(t)
	store.decks["deck-1"] = &models.Deck{ID: "deck-1", UserID: "someone-else"}

	_, err := svc.CreateCard(context.Background(), "user-1", dto.CreateCardRequest{
		DeckID: "deck-1", Front: "Q", Back: "A",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateCardDueImmediately(t *testing.T) {
	svc, store, _, _ := newFlashcardFixture(t)
	store.decks["deck-1"] = &models.Deck{ID: "deck-1", UserID: "user-1"}

	card, err := svc.CreateCard(context.Background(), "user-1", dto.CreateCardRequest{
		DeckID: "deck-1", Front: "Q", Back: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultEaseFactor, card.EaseFactor)
	assert.Equal(t, time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC), card.DueDate)
}
