package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Segment is one time-stamped transcription segment.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Config holds configuration for the transcription client.
type Config struct {
	BaseURL   string // whisper.cpp server URL, e.g., "http://localhost:8178"
	Timeout   time.Duration
	Language  string // "auto" lets the engine detect the language
	Translate bool   // translate to English instead of transcribing
}

// DefaultConfig returns default configuration. Moderation wants the
// original language with no translation so the lexicon sees what was said.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:8178",
		Timeout:   120 * time.Second,
		Language:  "auto",
		Translate: false,
	}
}

// Client is a client for the speech-to-text inference API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new transcription client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// apiResponse represents the verbose transcription response.
type apiResponse struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe sends an audio file to the engine and returns its timed
// segments. Segments with non-positive spans are dropped here so callers
// only ever see well-formed timing.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	language := c.config.Language
	if language == "" {
		language = "auto"
	}
	if err := writer.WriteField("language", language); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if c.config.Translate {
		if err := writer.WriteField("translate", "true"); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	url := c.config.BaseURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call transcription API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	segments := make([]Segment, 0, len(apiResp.Segments))
	for _, s := range apiResp.Segments {
		if s.End <= s.Start {
			continue
		}
		segments = append(segments, Segment{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}
	return segments, nil
}

// Ping checks if the transcription API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	url := c.config.BaseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transcription API not reachable at %s: %w", c.config.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transcription API returned status %d", resp.StatusCode)
	}

	return nil
}
