package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"roomspot-sniper/internal/model"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	messageLimit   = 4096
)

type Sender struct {
	token    string
	chat     string
	threadID *int

	apiBase      string
	client       *http.Client
	location     *time.Location
	logger       *slog.Logger
	minInterval  time.Duration
	lastSentTime time.Time
}

type Option func(*Sender)

func WithAPIBase(base string) Option {
	return func(s *Sender) {
		s.apiBase = strings.TrimRight(base, "/")
	}
}

func WithMinInterval(interval time.Duration) Option {
	return func(s *Sender) {
		s.minInterval = interval
	}
}

func NewSender(token, chat string, threadID *int, logger *slog.Logger, options ...Option) *Sender {
	s := &Sender{
		token:       token,
		chat:        chat,
		threadID:    threadID,
		apiBase:     defaultAPIBase,
		client:      &http.Client{Timeout: 15 * time.Second},
		location:    time.Local,
		logger:      logger.With("sink", "telegram"),
		minInterval: 1200 * time.Millisecond,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Notify sends the listing as one or more HTML messages. Sends are spaced by
// minInterval to stay under the bot API limits.
func (s *Sender) Notify(ctx context.Context, listing model.Listing) error {
	message := formatMessage(listing, s.location)
	for _, part := range splitMessage(message, messageLimit) {
		if err := s.sendWithRateLimit(ctx, part); err != nil {
			return err
		}
	}
	s.logger.Info("notification sent", "id", listing.ID, "title", listing.Title)
	return nil
}

func (s *Sender) sendWithRateLimit(ctx context.Context, text string) error {
	if wait := time.Until(s.lastSentTime.Add(s.minInterval)); wait > 0 {
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	retryAfter, err := s.postMessage(ctx, text)
	if err != nil {
		if retryAfter <= 0 {
			return fmt.Errorf("telegram send: %w", err)
		}

		s.logger.Warn("telegram rate limit hit", "retry_after", retryAfter)
		if err := sleep(ctx, retryAfter); err != nil {
			return err
		}
		if _, retryErr := s.postMessage(ctx, text); retryErr != nil {
			return fmt.Errorf("telegram retry failed: %w", retryErr)
		}
	}

	s.lastSentTime = time.Now()
	return nil
}

func (s *Sender) postMessage(ctx context.Context, text string) (time.Duration, error) {
	payload := map[string]any{
		"chat_id":    s.chat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if s.threadID != nil {
		payload["message_thread_id"] = *s.threadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode == http.StatusTooManyRequests && parsed.Parameters.RetryAfter > 0 {
		return time.Duration(parsed.Parameters.RetryAfter) * time.Second, fmt.Errorf("rate limited")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("telegram error: %d %s", resp.StatusCode, parsed.Description)
	}

	return 0, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func formatMessage(listing model.Listing, location *time.Location) string {
	var b strings.Builder
	b.WriteString("🏠 <b>New Apartment Listing!</b>\n")
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(listing.Title))
	writeLine(&b, "💰 Price", listing.Price)
	writeLine(&b, "📐 Area", listing.Area)
	writeLine(&b, "🏷 Property type", listing.PropertyType)
	writeLine(&b, "🏘 House type", listing.HouseType)
	if listing.ImageURL != "" {
		fmt.Fprintf(&b, "🖼 <a href=\"%s\">Photo</a>\n", html.EscapeString(listing.ImageURL))
	}
	fmt.Fprintf(&b, "🕒 Found on %s\n", listing.ObservedAt.In(location).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "🔗 %s", html.EscapeString(listing.Link))
	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, html.EscapeString(value))
}

func splitMessage(message string, limit int) []string {
	runes := []rune(message)
	if len(runes) <= limit {
		return []string{message}
	}

	parts := []string{}
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
