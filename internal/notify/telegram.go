package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const telegramDefaultTimeout = 15 * time.Second

// Telegram sends notifications through the Telegram Bot API. The user id
// is the owner's chat id.
type Telegram struct {
	token   string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

type TelegramOptions struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram bot token is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: telegramDefaultTimeout}
	}
	return &Telegram{token: strings.TrimSpace(opts.Token), baseURL: baseURL, client: client, log: opts.Logger}, nil
}

func (t *Telegram) LyricsReady(ctx context.Context, userID, orderID string) error {
	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id": userID,
		"text":    "Your song lyrics are ready. Open the app to review and edit them.",
	})
}

func (t *Telegram) OrderCanceled(ctx context.Context, userID, orderID string) error {
	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id": userID,
		"text":    "Your order was canceled. You can start a new one any time.",
	})
}

// SongReady sends every rendered version as its own audio message.
func (t *Telegram) SongReady(ctx context.Context, userID, orderID string, urls []string) error {
	var firstErr error
	for idx, url := range urls {
		err := t.call(ctx, "sendAudio", map[string]any{
			"chat_id": userID,
			"audio":   url,
			"caption": fmt.Sprintf("Version %d", idx+1),
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *Telegram) SongFailed(ctx context.Context, userID, orderID string) error {
	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id": userID,
		"text":    "Audio generation did not finish. Support will follow up on your order.",
	})
}

func (t *Telegram) call(ctx context.Context, method string, payload map[string]any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("telegram: encode %s: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("telegram: build %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s failed: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram: %s status %d", method, resp.StatusCode)
	}
	return nil
}

var _ Notifier = (*Telegram)(nil)
