// Package telegram delivers alerts through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://api.telegram.org"

// ErrMissingToken is returned by NewClient when no bot token is configured.
var ErrMissingToken = errors.New("telegram bot token is required")

// Config holds Telegram bot settings.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	BotToken    string        `yaml:"bot_token"`
	ParseMode   string        `yaml:"parse_mode"` // "", "MarkdownV2" or "HTML"
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// APIError is an unsuccessful Bot API response.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// Client sends messages with sendMessage.
type Client struct {
	baseURL    string
	token      string
	parseMode  string
	retry      RetryConfig
	httpClient *http.Client
	log        *slog.Logger
}

type sendRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// NewClient creates a new Telegram client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BotToken == "" {
		return nil, ErrMissingToken
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retry := DefaultRetryConfig
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.BotToken,
		parseMode:  cfg.ParseMode,
		retry:      retry,
		httpClient: &http.Client{Timeout: timeout},
		log:        slog.Default().With("component", "telegram"),
	}, nil
}

// WithRetryConfig overrides the retry policy.
func (c *Client) WithRetryConfig(cfg RetryConfig) *Client {
	c.retry = cfg
	return c
}

// Send delivers text to the chat, retrying throttled and transient failures.
func (c *Client) Send(ctx context.Context, userID int64, text string) error {
	var lastErr error

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		err := c.sendOnce(ctx, userID, text)
		if err == nil {
			return nil
		}
		lastErr = err

		if ClassifyError(err) == ActionFatal || attempt == c.retry.MaxAttempts-1 {
			break
		}

		delay := c.retry.backoff(attempt, err)
		c.log.Debug("Retrying sendMessage", "user_id", userID, "attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("send cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("send message to %d: %w", userID, lastErr)
}

func (c *Client) sendOnce(ctx context.Context, userID int64, text string) error {
	body, err := json.Marshal(sendRequest{
		ChatID:                userID,
		Text:                  text,
		ParseMode:             c.parseMode,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &APIError{Code: resp.StatusCode, Description: fmt.Sprintf("unparseable response: %s", raw)}
	}
	if parsed.OK {
		return nil
	}

	apiErr := &APIError{Code: parsed.ErrorCode, Description: parsed.Description}
	if apiErr.Code == 0 {
		apiErr.Code = resp.StatusCode
	}
	if parsed.Parameters != nil && parsed.Parameters.RetryAfter > 0 {
		apiErr.RetryAfter = time.Duration(parsed.Parameters.RetryAfter) * time.Second
	}
	return apiErr
}
