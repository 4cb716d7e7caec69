package nsfw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Config holds configuration for the image classifier client.
type Config struct {
	BaseURL string // classifier API URL, e.g., "http://localhost:8080"
	Timeout time.Duration
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080",
		Timeout: 30 * time.Second,
	}
}

// Client is a client for the NSFW image classification API. The backend
// serves an NSFWJS-compatible model returning per-category probabilities.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new classifier client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// apiResponse represents the classifier API response.
type apiResponse struct {
	Predictions []struct {
		ClassName   string  `json:"className"`
		Probability float64 `json:"probability"`
	} `json:"predictions"`
}

// Classify runs the classifier over one encoded image and returns the
// per-category probabilities keyed by lowercased category name. Categories
// are independent scores, not a distribution.
func (c *Client) Classify(ctx context.Context, imageData []byte) (map[string]float64, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	url := c.config.BaseURL + "/classify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call classifier API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	scores := make(map[string]float64, len(apiResp.Predictions))
	for _, pred := range apiResp.Predictions {
		scores[strings.ToLower(pred.ClassName)] = pred.Probability
	}
	return scores, nil
}

// Ping checks if the classifier API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	url := c.config.BaseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier API not reachable at %s: %w", c.config.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier API returned status %d", resp.StatusCode)
	}

	return nil
}
