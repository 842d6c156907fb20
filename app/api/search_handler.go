package api

import (
	"context"
	"fmt"

	"docledger/model"
	"docledger/types"

	"github.com/gofiber/fiber/v2"
)

const defaultSearchLimit = 10

type Searcher interface {
	Search(ctx context.Context, queryVec []float32, limit int) ([]types.ChunkSearchResult, error)
}

type SearchHandler struct {
	store     Searcher
	embedder  model.Embedder
	tokens    model.TokenCounter
	maxTokens int
}

func NewSearchHandler(s Searcher, e model.Embedder, tc model.TokenCounter, maxTokens int) *SearchHandler {
	return &SearchHandler{
		store:     s,
		embedder:  e,
		tokens:    tc,
		maxTokens: maxTokens,
	}
}

// HandleSearch embeds the query and returns the nearest chunks across all
// versions by cosine distance.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var params types.SearchParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	count, err := h.tokens.Count(params.Query)
	if err != nil {
		return fmt.Errorf("count query tokens: %w", err)
	}
	if count > h.maxTokens {
		return types.NewValidationError(map[string]string{
			"query": fmt.Sprintf("query is %d tokens, limit is %d", count, h.maxTokens),
		})
	}

	limit := params.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}

	queryVec, err := h.embedder.Embed(c.UserContext(), params.Query)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}

	results, err := h.store.Search(c.UserContext(), queryVec, limit)
	if err != nil {
		return fmt.Errorf("search chunks: %w", err)
	}
	return c.JSON(results)
}
