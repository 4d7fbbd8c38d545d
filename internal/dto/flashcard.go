package dto

// ReviewCardRequest grades a single flashcard review.
type ReviewCardRequest struct {
	Grade string `json:"grade" validate:"required,oneof=again hard good easy"`
}

// CreateDeckRequest creates a flashcard deck.
type CreateDeckRequest struct {
	Name      string `json:"name" validate:"required"`
	SubjectID string `json:"subject_id"`
}

// CreateCardRequest adds a card to a deck.
type CreateCardRequest struct {
	DeckID string   `json:"deck_id" validate:"required"`
	Front  string   `json:"front" validate:"required"`
	Back   string   `json:"back" validate:"required"`
	Tags   []string `json:"tags"`
}
