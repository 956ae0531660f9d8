package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mlbeam-backend/internal/models"
)

// Client is a client for the Prediction Runner API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Prediction is the point estimate plus confidence the runner reports.
type Prediction struct {
	ShearStrength float64 `json:"shear_strength"`
	Confidence    float64 `json:"confidence"`
	Version       string  `json:"version,omitempty"`
}

// NewClient creates a new Prediction Runner client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Predict requests a point estimate for one feature vector.
func (c *Client) Predict(ctx context.Context, features *models.BeamFeatures) (*Prediction, error) {
	jsonData, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/predict", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("prediction runner returned status %d: %s", resp.StatusCode, string(body))
	}

	var result Prediction
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
