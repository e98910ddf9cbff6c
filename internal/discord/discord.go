// Package discord delivers listing alerts through a Discord webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"roomspot-sniper/internal/model"
)

const (
	embedTitle = "New Apartment Listing! 🏠"
	embedColor = 0x2ecc71
)

var ErrRateLimited = errors.New("discord rate limited")

type Sender struct {
	webhookURL string
	client     *http.Client
	location   *time.Location
	logger     *slog.Logger
}

func NewSender(webhookURL string, client *http.Client, logger *slog.Logger) *Sender {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Sender{
		webhookURL: webhookURL,
		client:     client,
		location:   time.Local,
		logger:     logger.With("sink", "discord"),
	}
}

// Notify posts one embed for the listing. A 429 answer is retried once after
// the delay Discord asks for.
func (s *Sender) Notify(ctx context.Context, listing model.Listing) error {
	params := buildMessage(listing, s.location)

	retryAfter, err := s.post(ctx, params)
	if err == nil {
		s.logger.Info("notification sent", "id", listing.ID, "title", listing.Title)
		return nil
	}
	if retryAfter <= 0 {
		return err
	}

	s.logger.Warn("discord rate limit hit", "retry_after", retryAfter)
	if err := sleep(ctx, retryAfter); err != nil {
		return err
	}
	if _, err := s.post(ctx, params); err != nil {
		return fmt.Errorf("discord retry failed: %w", err)
	}
	s.logger.Info("notification sent after retry", "id", listing.ID, "title", listing.Title)
	return nil
}

func (s *Sender) post(ctx context.Context, params *discordgo.WebhookParams) (time.Duration, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return retryAfter(resp), ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("discord error: %d %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return 0, nil
}

type rateLimitResponse struct {
	RetryAfter float64 `json:"retry_after"`
}

func retryAfter(resp *http.Response) time.Duration {
	var parsed rateLimitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && parsed.RetryAfter > 0 {
		return time.Duration(parsed.RetryAfter * float64(time.Second))
	}
	if seconds, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	return 0
}

func buildMessage(listing model.Listing, location *time.Location) *discordgo.WebhookParams {
	embed := &discordgo.MessageEmbed{
		Title:       embedTitle,
		Description: fmt.Sprintf("**%s**", listing.Title),
		URL:         listing.Link,
		Color:       embedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Found on " + listing.ObservedAt.In(location).Format("2006-01-02 15:04:05"),
		},
	}

	addField(embed, "Price", listing.Price)
	addField(embed, "Area", listing.Area)
	addField(embed, "Property Type", listing.PropertyType)
	addField(embed, "House Type", listing.HouseType)

	if listing.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: listing.ImageURL}
	}

	return &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}}
}

// addField skips empty values, which Discord rejects.
func addField(embed *discordgo.MessageEmbed, name, value string) {
	if value == "" {
		return
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true})
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
