package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"roomspot-sniper/internal/config"
	"roomspot-sniper/internal/db"
	"roomspot-sniper/internal/discord"
	"roomspot-sniper/internal/httpapi"
	"roomspot-sniper/internal/logger"
	"roomspot-sniper/internal/metrics"
	"roomspot-sniper/internal/providers/roomspot"
	"roomspot-sniper/internal/repositories"
	filerepo "roomspot-sniper/internal/repositories/file"
	pgrepo "roomspot-sniper/internal/repositories/postgres"
	redisrepo "roomspot-sniper/internal/repositories/redis"
	"roomspot-sniper/internal/scheduler"
	"roomspot-sniper/internal/services/polling"
	"roomspot-sniper/internal/telegram"
)

type Builder struct {
	cfg *config.Config

	logger   *slog.Logger
	metrics  *metrics.Metrics
	client   *http.Client
	repo     repositories.SeenRepository
	notifier polling.Notifier
	source   polling.ListingSource
	server   *http.Server
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{cfg: cfg}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) BuilderOption {
	return func(b *Builder) {
		b.metrics = m
	}
}

func WithHTTPClient(client *http.Client) BuilderOption {
	return func(b *Builder) {
		b.client = client
	}
}

func WithRepository(repo repositories.SeenRepository) BuilderOption {
	return func(b *Builder) {
		b.repo = repo
	}
}

func WithNotifier(notifier polling.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifier = notifier
	}
}

func WithSource(source polling.ListingSource) BuilderOption {
	return func(b *Builder) {
		b.source = source
	}
}

func WithHTTPServer(server *http.Server) BuilderOption {
	return func(b *Builder) {
		b.server = server
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}

	app := &App{Config: b.cfg}

	if b.logger == nil {
		b.logger = logger.New(logger.Config{Level: b.cfg.LogLevel, Format: b.cfg.LogFormat})
	}
	app.Logger = b.logger

	if b.metrics == nil {
		b.metrics = metrics.New()
	}
	app.Metrics = b.metrics

	if b.client == nil {
		b.client = &http.Client{Timeout: 15 * time.Second}
	}

	if b.repo == nil {
		repo, err := b.buildRepository(ctx, app)
		if err != nil {
			app.closeStores()
			return nil, err
		}
		b.repo = repo
	}
	app.Repo = b.repo

	if b.notifier == nil {
		b.notifier = b.buildNotifier()
	}
	app.Notifier = b.notifier

	if b.source == nil {
		b.source = roomspot.NewScraper(b.client, b.logger, roomspot.WithEndpoint(b.cfg.RoomspotAPIURL))
	}
	app.Source = b.source

	app.PollService = polling.NewService(app.Source, app.Notifier, app.Repo, app.Metrics, app.Logger)

	sched, err := scheduler.New(b.cfg.PollSchedule, b.cfg.RetryInterval, app.PollService, app.Logger)
	if err != nil {
		app.closeStores()
		return nil, err
	}
	app.Scheduler = sched

	if b.server == nil && b.cfg.HTTPPort != "" {
		handler := httpapi.NewHandler(app.PollService, app.Scheduler, app.Metrics.Handler())
		b.server = &http.Server{
			Addr:              ":" + b.cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Server = b.server

	return app, nil
}

func (b *Builder) buildRepository(ctx context.Context, app *App) (repositories.SeenRepository, error) {
	switch b.cfg.SeenStore {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, b.cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		app.pool = pool
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return nil, err
		}
		return pgrepo.NewSeenRepository(pool), nil
	case config.StoreRedis:
		client, err := redisrepo.NewClient(ctx, redisrepo.Config{
			Address:  b.cfg.RedisAddress,
			Password: b.cfg.RedisPassword,
			DB:       b.cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		app.redis = client
		return redisrepo.NewSeenRepository(client, b.cfg.RedisKey), nil
	case config.StoreFile, "":
		return filerepo.NewSeenRepository(b.cfg.SeenFile), nil
	default:
		return nil, fmt.Errorf("unknown seen store %q", b.cfg.SeenStore)
	}
}

func (b *Builder) buildNotifier() polling.Notifier {
	var sinks polling.MultiNotifier
	if b.cfg.DiscordWebhookURL != "" {
		sinks = append(sinks, discord.NewSender(b.cfg.DiscordWebhookURL, b.client, b.logger))
	}
	if b.cfg.TelegramEnabled() {
		sinks = append(sinks, telegram.NewSender(b.cfg.TelegramToken, b.cfg.TelegramChat, b.cfg.TelegramThreadID, b.logger))
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return sinks
}
