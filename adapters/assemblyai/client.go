// Package assemblyai submits audio to the transcription provider and polls
// the transcript resource until it reaches a terminal status.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
)

const (
	defaultBaseURL         = "https://api.assemblyai.com/v2"
	defaultPollInterval    = 5 * time.Second
	defaultMaxPollAttempts = 60 // ~5 minutes at the default interval
)

// Config holds configuration for the transcription client.
// Required fields:
// - APIKey: the provider API key
// Optional fields with defaults:
// - BaseURL: provider endpoint (default: "https://api.assemblyai.com/v2")
// - PollInterval: delay between transcript polls (default: 5s)
// - MaxPollAttempts: poll bound before timing out (default: 60)
type Config struct {
	APIKey          string
	BaseURL         string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// NewConfigFromEnv creates a Config from environment variables.
func NewConfigFromEnv() Config {
	config := Config{
		APIKey:  os.Getenv("ASSEMBLYAI_API_KEY"),
		BaseURL: os.Getenv("ASSEMBLYAI_BASE_URL"),
	}
	if seconds := os.Getenv("ASSEMBLYAI_POLL_INTERVAL_SECONDS"); seconds != "" {
		if n, err := strconv.Atoi(seconds); err == nil && n > 0 {
			config.PollInterval = time.Duration(n) * time.Second
		}
	}
	if attempts := os.Getenv("ASSEMBLYAI_MAX_POLL_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil && n > 0 {
			config.MaxPollAttempts = n
		}
	}
	return config
}

// Client implements the Transcriber interface against the provider's
// create/poll HTTP contract. Transcribe blocks its caller for up to the
// full poll window, so it must only run on background workers.
type Client struct {
	apiKey          string
	baseURL         string
	pollInterval    time.Duration
	maxPollAttempts int
	httpClient      *http.Client
	logger          *zap.Logger
}

var _ repositories.Transcriber = (*Client)(nil)

// NewClient creates a transcription client, applying defaults where the
// config leaves fields unset.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("transcription provider API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
		logger.Info("Using default provider base URL", zap.String("baseURL", baseURL))
	}

	pollInterval := config.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}

	maxPollAttempts := config.MaxPollAttempts
	if maxPollAttempts == 0 {
		maxPollAttempts = defaultMaxPollAttempts
	}

	return &Client{
		apiKey:          config.APIKey,
		baseURL:         baseURL,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		logger:          logger,
	}, nil
}

// createRequest carries the audio URL plus the fixed feature flags the
// pipeline always submits with.
type createRequest struct {
	AudioURL          string   `json:"audio_url"`
	FormatText        bool     `json:"format_text"`
	Punctuate         bool     `json:"punctuate"`
	DualChannel       bool     `json:"dual_channel"`
	WebhookURL        *string  `json:"webhook_url"`
	WordBoost         []string `json:"word_boost"`
	BoostParam        string   `json:"boost_param"`
	Disfluencies      bool     `json:"disfluencies"`
	FilterProfanity   bool     `json:"filter_profanity"`
	RedactPII         bool     `json:"redact_pii"`
	SpeakerLabels     bool     `json:"speaker_labels"`
	AutoChapters      bool     `json:"auto_chapters"`
	AutoHighlights    bool     `json:"auto_highlights"`
	SentimentAnalysis bool     `json:"sentiment_analysis"`
	EntityDetection   bool     `json:"entity_detection"`
	IABCategories     bool     `json:"iab_categories"`
	ContentSafety     bool     `json:"content_safety"`
}

type wordResponse struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

type transcriptResponse struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Text   string         `json:"text"`
	Error  string         `json:"error"`
	Words  []wordResponse `json:"words"`
}

// Transcribe runs the two network legs: create the transcript, then poll it
// at a fixed interval until completed, error, or the attempt bound.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (*entities.Transcript, error) {
	transcriptID, err := c.createTranscript(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Transcript created, polling",
		zap.String("transcriptID", transcriptID),
		zap.String("audioURL", audioURL))

	return c.pollTranscript(ctx, transcriptID)
}

func (c *Client) createTranscript(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(createRequest{
		AudioURL:   audioURL,
		FormatText: true,
		Punctuate:  true,
		WordBoost:  []string{},
		BoostParam: "default",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", &entities.ExternalServiceError{StatusCode: resp.StatusCode, Message: string(errorBody)}
	}

	var created transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	if created.ID == "" {
		return "", &entities.ExternalServiceError{Message: "create response missing transcript id"}
	}
	return created.ID, nil
}

func (c *Client) pollTranscript(ctx context.Context, transcriptID string) (*entities.Transcript, error) {
	url := c.baseURL + "/transcript/" + transcriptID

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		transcript, err := c.getTranscript(ctx, url)
		if err != nil {
			return nil, err
		}

		switch transcript.Status {
		case "completed":
			words := make([]entities.TranscriptWord, len(transcript.Words))
			for i, w := range transcript.Words {
				words[i] = entities.TranscriptWord{
					Text:       w.Text,
					StartMs:    w.Start,
					EndMs:      w.End,
					Confidence: w.Confidence,
				}
			}
			return &entities.Transcript{Text: transcript.Text, Words: words}, nil
		case "error":
			return nil, &entities.ExternalServiceError{Message: transcript.Error}
		}

		c.logger.Debug("Transcript not ready",
			zap.String("transcriptID", transcriptID),
			zap.String("status", transcript.Status),
			zap.Int("attempt", attempt+1))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	return nil, &entities.TimeoutError{Attempts: c.maxPollAttempts}
}

func (c *Client) getTranscript(ctx context.Context, url string) (*transcriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, &entities.ExternalServiceError{StatusCode: resp.StatusCode, Message: string(errorBody)}
	}

	var transcript transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}
	return &transcript, nil
}
