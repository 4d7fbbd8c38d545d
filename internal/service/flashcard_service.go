package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/edubloom/study-planner-api/internal/dto"
	"github.com/edubloom/study-planner-api/internal/models"
	"github.com/edubloom/study-planner-api/internal/srs"
	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
)

type flashcardStore interface {
	CreateDeck(ctx context.Context, deck *models.Deck) error
	ListDecksByUser(ctx context.Context, userID string) ([]models.Deck, error)
	FindDeck(ctx context.Context, id string) (*models.Deck, error)
	CreateCard(ctx context.Context, card *models.Flashcard) error
	FindCard(ctx context.Context, id string) (*models.Flashcard, error)
	ListCardsByDeck(ctx context.Context, deckID string) ([]models.Flashcard, error)
	ListDue(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.Flashcard, error)
	SaveReview(ctx context.Context, card *models.Flashcard, event *models.ReviewEvent) error
}

type dueQueueCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type reviewMetrics interface {
	CardReviewed(grade string)
}

// FlashcardService manages decks, cards and spaced-repetition reviews.
// The due queue is cached briefly since students poll it while studying.
type FlashcardService struct {
	store     flashcardStore
	cache     dueQueueCache
	metrics   reviewMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewFlashcardService wires flashcard dependencies. Cache and metrics may
// be nil.
func NewFlashcardService(store flashcardStore, cache dueQueueCache, metrics reviewMetrics, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *FlashcardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &FlashcardService{
		store:     store,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// CreateDeck stores a new deck for the user.
func (s *FlashcardService) CreateDeck(ctx context.Context, userID string, req dto.CreateDeckRequest) (*models.Deck, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deck request")
	}

	deck := &models.Deck{
		UserID:    userID,
		SubjectID: req.SubjectID,
		Name:      req.Name,
	}
	if err := s.store.CreateDeck(ctx, deck); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create deck")
	}
	return deck, nil
}

// ListDecks returns the user's decks.
func (s *FlashcardService) ListDecks(ctx context.Context, userID string) ([]models.Deck, error) {
	decks, err := s.store.ListDecksByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list decks")
	}
	return decks, nil
}

// CreateCard adds a card to one of the user's decks. New cards are due
// immediately with default scheduling state.
func (s *FlashcardService) CreateCard(ctx context.Context, userID string, req dto.CreateCardRequest) (*models.Flashcard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid card request")
	}

	deck, err := s.store.FindDeck(ctx, req.DeckID)
	if err != nil || deck.UserID != userID {
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deck not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load deck")
	}

	card := &models.Flashcard{
		DeckID:     deck.ID,
		UserID:     userID,
		Front:      req.Front,
		Back:       req.Back,
		Tags:       pq.StringArray(req.Tags),
		EaseFactor: models.DefaultEaseFactor,
		DueDate:    startOfDay(s.now()),
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create card")
	}

	s.invalidateDue(ctx, userID)
	return card, nil
}

// DeckCards lists every card in one of the user's decks.
func (s *FlashcardService) DeckCards(ctx context.Context, userID, deckID string) ([]models.Flashcard, error) {
	deck, err := s.store.FindDeck(ctx, deckID)
	if err != nil || deck.UserID != userID {
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deck not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load deck")
	}

	cards, err := s.store.ListCardsByDeck(ctx, deckID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list deck cards")
	}
	return cards, nil
}

// Due returns the user's review queue for today, hardest cards first.
func (s *FlashcardService) Due(ctx context.Context, userID string, limit int) ([]models.Flashcard, error) {
	asOf := startOfDay(s.now())
	key := dueCacheKey(userID, asOf, limit)

	if s.cache != nil {
		var cached []models.Flashcard
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("due cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	cards, err := s.store.ListDue(ctx, userID, asOf, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list due cards")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cards, s.cacheTTL); err != nil {
			s.logger.Warn("due cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return cards, nil
}

// Review grades a card and advances its schedule. The new state and the
// review event are persisted atomically.
func (s *FlashcardService) Review(ctx context.Context, userID, cardID string, req dto.ReviewCardRequest) (*models.Flashcard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review request")
	}
	grade, err := srs.ParseGrade(req.Grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review grade")
	}

	card, err := s.store.FindCard(ctx, cardID)
	if err != nil || card.UserID != userID {
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "card not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load card")
	}

	reviewed := srs.Apply(*card, grade, s.now())
	event := &models.ReviewEvent{
		CardID:     card.ID,
		UserID:     userID,
		Grade:      grade.String(),
		EaseFactor: reviewed.EaseFactor,
		Interval:   reviewed.IntervalDays,
		ReviewedAt: s.now().UTC(),
	}
	if err := s.store.SaveReview(ctx, &reviewed, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save review")
	}

	s.invalidateDue(ctx, userID)
	if s.metrics != nil {
		s.metrics.CardReviewed(grade.String())
	}
	return &reviewed, nil
}

func (s *FlashcardService) invalidateDue(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("flashcards:due:%s:*", userID)); err != nil {
		s.logger.Warn("due cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func dueCacheKey(userID string, asOf time.Time, limit int) string {
	return fmt.Sprintf("flashcards:due:%s:%s:%d", userID, asOf.Format("2006-01-02"), limit)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
