package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// RemoteBackend delegates extraction to an external conversion service.
// Monolithic: the service either returns the full text or the attempt
// fails wholesale. Deadlines come from the request context.
type RemoteBackend struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type remoteExtractResponse struct {
	Text string `json:"text"`
}

func NewRemoteBackend(baseURL, apiKey string) *RemoteBackend {
	return &RemoteBackend{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (b *RemoteBackend) Name() string { return "remote" }

func (b *RemoteBackend) Extract(ctx context.Context, data []byte) (string, error) {
	if b.baseURL == "" {
		return "", fmt.Errorf("%w: remote extractor not configured", ErrUnsupported)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/extract", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extractor error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var extractResp remoteExtractResponse
	if err := json.Unmarshal(respBody, &extractResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return extractResp.Text, nil
}
