package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VectorizeEmbedder calls the deployment's vectorize service:
// POST {"text": ...} -> {"vector": [...]}.
type VectorizeEmbedder struct {
	apiURL string
	dim    int
	client *http.Client
}

type vectorizeRequest struct {
	Text string `json:"text"`
}

type vectorizeResponse struct {
	Vector []float32 `json:"vector"`
}

func NewVectorizeEmbedder(apiURL string, dim int) *VectorizeEmbedder {
	return &VectorizeEmbedder{
		apiURL: apiURL,
		dim:    dim,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *VectorizeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(vectorizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("vectorize API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out vectorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if err := checkDim(out.Vector, e.dim); err != nil {
		return nil, err
	}
	return out.Vector, nil
}
