package api

import (
	"context"
	"errors"

	"docledger/store"
	"docledger/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GraphStore interface {
	GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error)
	Graph(context.Context, uuid.UUID) (types.GraphResult, error)
}

type GraphHandler struct {
	store GraphStore
}

func NewGraphHandler(s GraphStore) *GraphHandler {
	return &GraphHandler{store: s}
}

// HandleGraph returns the entities and relationships of the document's
// latest version.
func (h *GraphHandler) HandleGraph(c *fiber.Ctx) error {
	docID, err := parseID(c)
	if err != nil {
		return err
	}

	if _, err := h.store.GetDocumentByID(c.UserContext(), docID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound(docID, "document")
		}
		return err
	}

	graph, err := h.store.Graph(c.UserContext(), docID)
	if err != nil {
		return err
	}
	return c.JSON(graph)
}
