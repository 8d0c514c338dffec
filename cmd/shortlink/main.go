package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"shortlink/internal/app"
	"shortlink/internal/config"
	"shortlink/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(os.Stderr, zerolog.InfoLevel)

	return app.Run(ctx, cfg, log)
}
