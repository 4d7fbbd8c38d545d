package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edubloom/study-planner-api/internal/dto"
	"github.com/edubloom/study-planner-api/internal/service"
	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
	"github.com/edubloom/study-planner-api/pkg/response"
)

// FlashcardHandler manages deck, card and review endpoints.
type FlashcardHandler struct {
	service *service.FlashcardService
}

// NewFlashcardHandler constructs handler.
func NewFlashcardHandler(svc *service.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{service: svc}
}

// CreateDeck stores a new deck.
func (h *FlashcardHandler) CreateDeck(c *gin.Context) {
	var req dto.CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deck request"))
		return
	}

	deck, err := h.service.CreateDeck(c.Request.Context(), UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, deck)
}

// ListDecks returns the caller's decks.
func (h *FlashcardHandler) ListDecks(c *gin.Context) {
	decks, err := h.service.ListDecks(c.Request.Context(), UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decks)
}

// CreateCard adds a card to a deck.
func (h *FlashcardHandler) CreateCard(c *gin.Context) {
	var req dto.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid card request"))
		return
	}

	card, err := h.service.CreateCard(c.Request.Context(), UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, card)
}

// DeckCards lists the cards in a deck.
func (h *FlashcardHandler) DeckCards(c *gin.Context) {
	cards, err := h.service.DeckCards(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards)
}

// Due returns the caller's review queue for today.
func (h *FlashcardHandler) Due(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	cards, err := h.service.Due(c.Request.Context(), UserID(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards)
}

// Review grades a card.
func (h *FlashcardHandler) Review(c *gin.Context) {
	var req dto.ReviewCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review request"))
		return
	}

	card, err := h.service.Review(c.Request.Context(), UserID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card)
}
