package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"roomspot-sniper/internal/config"
	"roomspot-sniper/internal/metrics"
	"roomspot-sniper/internal/repositories"
	"roomspot-sniper/internal/scheduler"
	"roomspot-sniper/internal/services/polling"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Repo        repositories.SeenRepository
	Notifier    polling.Notifier
	Source      polling.ListingSource
	PollService *polling.Service
	Scheduler   *scheduler.Scheduler
	Server      *http.Server

	pool  *pgxpool.Pool
	redis *goredis.Client
}

// Run drives the poll loop, and the HTTP server when one is configured, until
// ctx is cancelled. It returns early only if the loop cannot start; a failing
// server is logged and the loop keeps running.
func (a *App) Run(ctx context.Context) error {
	defer a.closeStores()

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.Logger.Info("starting roomspot sniper")
		return a.Scheduler.Run(gctx)
	})

	if a.Server != nil {
		group.Go(func() error {
			a.Logger.Info("http server listening", "addr", a.Server.Addr)
			if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("http server stopped, polling continues", "addr", a.Server.Addr, "error", err)
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.Server.Shutdown(shutdownCtx)
		})
	}

	return group.Wait()
}

func (a *App) closeStores() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
}
