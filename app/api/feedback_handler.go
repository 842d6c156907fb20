package api

import (
	"context"
	"time"

	"docledger/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FeedbackStore interface {
	SaveFeedback(context.Context, types.Feedback) error
}

type FeedbackHandler struct {
	store FeedbackStore
}

func NewFeedbackHandler(s FeedbackStore) *FeedbackHandler {
	return &FeedbackHandler{store: s}
}

// HandleFeedback records a user correction of an extracted prediction.
func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var params types.FeedbackParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	fb := types.Feedback{
		ID:             uuid.New(),
		PredictionID:   uuid.MustParse(params.PredictionID),
		PredictionType: params.PredictionType,
		FeedbackType:   params.FeedbackType,
		OriginalData:   params.OriginalData,
		CorrectedData:  params.CorrectedData,
		UserContext:    params.UserContext,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.store.SaveFeedback(c.UserContext(), fb); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"feedback_id": fb.ID})
}
