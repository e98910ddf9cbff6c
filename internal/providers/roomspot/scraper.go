package roomspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"roomspot-sniper/internal/model"
)

const maxBodyBytes = 8 << 20

var ErrMissingData = errors.New("response has no data key")

type RoomspotScraper struct {
	client   *http.Client
	endpoint string
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*RoomspotScraper)

func WithEndpoint(endpoint string) Option {
	return func(s *RoomspotScraper) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *RoomspotScraper) {
		s.now = now
	}
}

func NewScraper(client *http.Client, logger *slog.Logger, options ...Option) *RoomspotScraper {
	s := &RoomspotScraper{
		client:   client,
		endpoint: defaultEndpoint,
		now:      time.Now,
		logger:   logger.With("source", "roomspot"),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *RoomspotScraper) Source() string {
	return "roomspot"
}

type roomspotResponse struct {
	Data *[]json.RawMessage `json:"data"`
}

// Fetch returns the current snapshot of listings. Items that cannot be
// normalized are skipped; request and response failures are returned.
func (s *RoomspotScraper) Fetch(ctx context.Context) ([]model.Listing, error) {
	items, err := s.fetchItems(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("api returned items", "count", len(items))

	observedAt := s.now()
	listings := make([]model.Listing, 0, len(items))
	for _, raw := range items {
		item, err := decodeRawListing(raw)
		if err != nil {
			s.logger.Warn("skipping listing: decode failed", "error", err)
			continue
		}

		listing, err := normalize(item, observedAt)
		if errors.Is(err, errEmptyTitle) {
			s.logger.Info("skipping listing with empty title", "error", err)
			continue
		}
		if err != nil {
			s.logger.Warn("skipping listing: normalize failed", "error", err)
			continue
		}
		listings = append(listings, listing)
	}

	s.logger.Info("listings normalized", "count", len(listings))
	return listings, nil
}

func (s *RoomspotScraper) fetchItems(ctx context.Context) ([]json.RawMessage, error) {
	payload, err := json.Marshal(searchPayload())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listings: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d%s", resp.StatusCode, describeBody(body))
	}

	var parsed roomspotResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w%s", err, describeBody(body))
	}
	if parsed.Data == nil {
		return nil, ErrMissingData
	}
	return *parsed.Data, nil
}

// describeBody names the HTML page the API answered with, which is what
// maintenance and bot-protection responses look like.
func describeBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return " (html page)"
	}
	return fmt.Sprintf(" (html page %q)", title)
}
