package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"DailyBrief/internal/config"
	"DailyBrief/internal/ports"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	// maxMessageRunes is the Bot API limit for one message text.
	maxMessageRunes = 4096
)

// ErrMisconfigured is returned when the bot token or chat id is missing.
var ErrMisconfigured = errors.New("telegram notifier misconfigured")

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier; client may be nil.
func NewNotifier(cfg config.TelegramConfig, client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	baseURL := strings.TrimSuffix(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Notifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		baseURL:  baseURL,
		client:   client,
	}
}

// PublishDigest posts the digest, split into as many messages as the API limit requires.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return ErrMisconfigured
	}

	for i, part := range splitMessage(digest, maxMessageRunes) {
		if err := n.send(ctx, part); err != nil {
			return fmt.Errorf("send part %d: %w", i+1, err)
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// splitMessage cuts text into chunks of at most limit runes, preferring
// paragraph breaks, then line breaks. Invalid UTF-8 is replaced before cutting.
func splitMessage(text string, limit int) []string {
	if limit < 1 {
		limit = 1
	}
	text = strings.TrimSpace(strings.ToValidUTF8(text, "\uFFFD"))
	if text == "" {
		return nil
	}

	var parts []string
	for {
		end := runeOffset(text, limit)
		if end == len(text) {
			return append(parts, text)
		}

		window := text[:end]
		cut := strings.LastIndex(window, "\n\n")
		if cut <= 0 {
			cut = strings.LastIndex(window, "\n")
		}
		if cut <= 0 {
			cut = end
		}

		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
		if text == "" {
			return parts
		}
	}
}

// runeOffset returns the byte offset just past the first n runes of s.
func runeOffset(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}
