package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mlbeam-backend/internal/models"
)

// HTTPTrainer invokes a remote training service.
type HTTPTrainer struct {
	baseURL    string
	httpClient *http.Client
}

// TrainRequest is the payload posted to the training service.
type TrainRequest struct {
	Samples []*models.CorpusEntry `json:"samples"`
}

// NewHTTPTrainer creates a new training service client. Request deadlines come
// from the caller's context, not a fixed client timeout, since training runs
// are long.
func NewHTTPTrainer(baseURL string) *HTTPTrainer {
	return &HTTPTrainer{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Train posts the corpus snapshot and decodes the reported metrics.
func (t *HTTPTrainer) Train(ctx context.Context, snapshot []*models.CorpusEntry) (*Result, error) {
	jsonData, err := json.Marshal(TrainRequest{Samples: snapshot})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/api/v1/train", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("training service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
