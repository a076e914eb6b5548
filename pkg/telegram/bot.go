package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAPIURL = "https://api.telegram.org"

	ParseModeMarkdownV2 = "MarkdownV2"

	// bodies beyond this are truncated; Telegram replies are a few hundred bytes
	maxResponseBody = 64 << 10
)

type Bot struct {
	token   string
	baseURL string
	client  *http.Client
}

type Option func(*Bot)

// WithAPIURL points the bot at another Bot API server.
func WithAPIURL(apiURL string) Option {
	return func(b *Bot) {
		if apiURL != "" {
			b.baseURL = strings.TrimRight(apiURL, "/") + "/bot" + b.token
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(b *Bot) {
		b.client.Timeout = timeout
	}
}

func NewBot(token string, opts ...Option) *Bot {
	b := &Bot{
		token:   token,
		baseURL: DefaultAPIURL + "/bot" + token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// SendResponse is what the Bot API answered. MessageID is zero when the
// body carried no result.
type SendResponse struct {
	StatusCode  int
	OK          bool
	MessageID   int64
	Description string
	Raw         json.RawMessage
}

// SendMessage posts text to chatID. A non-2xx answer is not an error; only
// transport failures are.
func (b *Bot) SendMessage(ctx context.Context, chatID, text, parseMode string) (*SendResponse, error) {
	endpoint := b.baseURL + "/sendMessage"

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", b.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("telegram: read response: %w", b.redact(err))
	}

	out := &SendResponse{StatusCode: resp.StatusCode}

	var parsed apiResponse
	if json.Unmarshal(body, &parsed) == nil {
		out.OK = parsed.OK
		out.MessageID = parsed.Result.MessageID
		out.Description = parsed.Description
		out.Raw = json.RawMessage(body)
	}

	return out, nil
}

// GetMe checks that the token is accepted and returns the HTTP status.
func (b *Bot) GetMe(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/getMe", nil)
	if err != nil {
		return 0, fmt.Errorf("telegram: build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("telegram: %w", b.redact(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	return resp.StatusCode, nil
}

// redact keeps the bot token out of error strings; url.Error embeds the full URL.
func (b *Bot) redact(err error) error {
	if b.token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), b.token, "<token>"))
}
