package regressor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MLBridge scores feature matrices through an external Python scoring service.
// Unlike a local model it does I/O, so every call honours the request context.
type MLBridge struct {
	serviceURL string
	names      []string
	httpClient *http.Client
}

type bridgeRequest struct {
	FeatureNames []string    `json:"feature_names,omitempty"`
	Rows         [][]float64 `json:"rows"`
}

type bridgeResponse struct {
	Predictions []float64 `json:"predictions"`
}

// NewMLBridge creates a new ML bridge
func NewMLBridge(serviceURL string, names []string, client *http.Client) *MLBridge {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &MLBridge{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		names:      append([]string(nil), names...),
		httpClient: client,
	}
}

// Predict calls the scoring service. Failures are returned, never replaced by a fallback value.
func (b *MLBridge) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	// Prepare request body
	body, err := json.Marshal(bridgeRequest{FeatureNames: b.names, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("ml_bridge: failed to marshal request: %w", err)
	}

	// Create HTTP request
	url := fmt.Sprintf("%s/predict", b.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ml_bridge: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// Execute request
	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ml_bridge: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ml_bridge: scoring service returned status %d", resp.StatusCode)
	}

	// Parse response
	var out bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ml_bridge: failed to decode response: %w", err)
	}
	if len(out.Predictions) != len(rows) {
		return nil, fmt.Errorf("ml_bridge: got %d predictions for %d rows", len(out.Predictions), len(rows))
	}

	return out.Predictions, nil
}

// Health checks ML service connectivity
func (b *MLBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ml_bridge: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ml_bridge: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml_bridge: health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (b *MLBridge) FeatureNames() []string {
	if len(b.names) == 0 {
		return nil
	}
	return append([]string(nil), b.names...)
}

func (b *MLBridge) ModelType() string { return TypeRemote }
