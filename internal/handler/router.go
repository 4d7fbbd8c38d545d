package handler

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
	"github.com/edubloom/study-planner-api/pkg/response"
)

const userIDKey = "userID"

// UserID returns the caller identity set by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireUser extracts the caller identity from the X-User-ID header. The
// service sits behind a gateway that authenticates requests; here the
// header only has to be present.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing X-User-ID header"))
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// Routes groups the API handlers for registration.
type Routes struct {
	Plan      *PlanHandler
	Profile   *ProfileHandler
	Flashcard *FlashcardHandler
	Progress  *ProgressHandler
}

// Register mounts all API routes under the given group.
func (r Routes) Register(api *gin.RouterGroup) {
	authed := api.Group("", RequireUser())

	authed.GET("/plan", r.Plan.Get)
	authed.POST("/plan/generate", r.Plan.Generate)
	authed.POST("/plan/rebalance", r.Plan.Rebalance)
	authed.POST("/sessions/:id/complete", r.Plan.CompleteSession)

	authed.GET("/profile", r.Profile.Get)
	authed.PUT("/profile", r.Profile.Upsert)

	authed.GET("/decks", r.Flashcard.ListDecks)
	authed.POST("/decks", r.Flashcard.CreateDeck)
	authed.GET("/decks/:id/cards", r.Flashcard.DeckCards)
	authed.POST("/cards", r.Flashcard.CreateCard)
	authed.GET("/flashcards/due", r.Flashcard.Due)
	authed.POST("/flashcards/:id/review", r.Flashcard.Review)

	authed.GET("/progress/stats", r.Progress.Stats)
	authed.GET("/progress/history", r.Progress.History)
}
