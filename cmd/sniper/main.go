package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"roomspot-sniper/internal/app"
	"roomspot-sniper/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewBuilder(&cfg).Build(ctx)
	if err != nil {
		log.Fatalf("app build error: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("app run error: %v", err)
	}
	application.Logger.Info("shutdown complete")
}
